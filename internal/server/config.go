package server

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the full deployment configuration: one worker server block and
// one relay block. The store path and worker list are deployment concerns,
// not game logic.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Relay  RelaySettings  `hcl:"relay,block"`
}

// ServerSettings configures a single worker.
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	StorePath string `hcl:"store_path,optional"`
	GameID    string `hcl:"game_id,optional"`
	StaticDir string `hcl:"static_dir,optional"`
	LogLevel  string `hcl:"log_level,optional"`
}

// RelaySettings configures the connection relay.
type RelaySettings struct {
	Address string   `hcl:"address,optional"`
	Port    int      `hcl:"port,optional"`
	Workers []string `hcl:"workers,optional"`
}

// envOverrides are applied after the file so deployments can reconfigure
// without editing it.
type envOverrides struct {
	StorePath string   `env:"LIARSDECK_STORE_PATH"`
	GameID    string   `env:"LIARSDECK_GAME_ID"`
	Workers   []string `env:"LIARSDECK_WORKERS"`
}

// DefaultConfig mirrors the classic four-worker deployment.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:   "localhost",
			Port:      56000,
			StorePath: "liarsdeck.db",
			GameID:    "default",
			StaticDir: "www",
			LogLevel:  "info",
		},
		Relay: RelaySettings{
			Address: "0.0.0.0",
			Port:    8181,
			Workers: []string{
				"localhost:56000",
				"localhost:56001",
				"localhost:56002",
				"localhost:56003",
			},
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		var loaded Config
		diags = gohcl.DecodeBody(file.Body, nil, &loaded)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		applyDefaults(&loaded)
		config = &loaded
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if overrides.StorePath != "" {
		config.Server.StorePath = overrides.StorePath
	}
	if overrides.GameID != "" {
		config.Server.GameID = overrides.GameID
	}
	if len(overrides.Workers) > 0 {
		config.Relay.Workers = overrides.Workers
	}

	return config, nil
}

func applyDefaults(config *Config) {
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.StorePath == "" {
		config.Server.StorePath = defaults.Server.StorePath
	}
	if config.Server.GameID == "" {
		config.Server.GameID = defaults.Server.GameID
	}
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = defaults.Server.StaticDir
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Relay.Address == "" {
		config.Relay.Address = defaults.Relay.Address
	}
	if config.Relay.Port == 0 {
		config.Relay.Port = defaults.Relay.Port
	}
	if len(config.Relay.Workers) == 0 {
		config.Relay.Workers = defaults.Relay.Workers
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		return fmt.Errorf("invalid relay port: %d", c.Relay.Port)
	}
	if len(c.Relay.Workers) == 0 {
		return fmt.Errorf("relay needs at least one worker endpoint")
	}
	if c.Server.GameID == "" {
		return fmt.Errorf("game id must not be empty")
	}
	return nil
}

// ServerAddress returns the worker's host:port.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RelayAddress returns the relay's host:port.
func (c *Config) RelayAddress() string {
	return fmt.Sprintf("%s:%d", c.Relay.Address, c.Relay.Port)
}
