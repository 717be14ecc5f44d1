package main

import (
	"github.com/liarsdeck/liarsdeck/cmd/liarsdeck/shared"
	"github.com/liarsdeck/liarsdeck/internal/relay"
	"github.com/liarsdeck/liarsdeck/internal/server"
)

// RelayCmd runs the standalone connection relay in front of an
// externally-managed worker pool.
type RelayCmd struct {
	Config  string   `kong:"default='liarsdeck.hcl',help='HCL config file'"`
	Addr    string   `kong:"help='Listen address (overrides config)'"`
	Workers []string `kong:"help='Worker endpoints, host:port (overrides config)'"`
	Debug   bool     `kong:"help='Enable debug logging'"`
}

func (c *RelayCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if len(c.Workers) > 0 {
		cfg.Relay.Workers = c.Workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.RelayAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	r, err := relay.New(cfg.Relay.Workers, logger)
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)
	return r.ListenAndServe(ctx, addr)
}
