package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/liarsdeck/liarsdeck/cmd/liarsdeck/shared"
	"github.com/liarsdeck/liarsdeck/internal/randutil"
	"github.com/liarsdeck/liarsdeck/internal/server"
	"github.com/liarsdeck/liarsdeck/internal/session"
	"github.com/liarsdeck/liarsdeck/internal/store"
)

// ServerCmd runs a single stateless worker. Any number of workers can point
// at the same store; the per-game lock keeps them consistent.
type ServerCmd struct {
	Config    string `kong:"default='liarsdeck.hcl',help='HCL config file'"`
	Addr      string `kong:"help='Listen address (overrides config)'"`
	Store     string `kong:"help='SQLite store path, or \"memory\" (overrides config)'"`
	GameID    string `kong:"help='Game id to serve (overrides config)'"`
	StaticDir string `kong:"help='Static web directory (overrides config)'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Store != "" {
		cfg.Server.StorePath = c.Store
	}
	if c.GameID != "" {
		cfg.Server.GameID = c.GameID
	}
	if c.StaticDir != "" {
		cfg.Server.StaticDir = c.StaticDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx := shared.SetupSignalHandler(logger)

	st, err := openStore(ctx, cfg.Server.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []session.Option{}
	if c.Seed != nil {
		logger.Info("using deterministic seed", "seed", *c.Seed)
		opts = append(opts, session.WithRand(randutil.New(*c.Seed)))
	}
	sessions := session.NewManager(st, cfg.Server.GameID, logger, opts...)

	srv := server.NewServer(addr, sessions, logger,
		server.WithStaticDir(cfg.Server.StaticDir))

	logger.Info("starting worker",
		"addr", addr,
		"game", cfg.Server.GameID,
		"store", cfg.Server.StorePath)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down worker...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// openStore opens the shared document store. "memory" gives a process-local
// store, useful for tests and single-process demos.
func openStore(ctx context.Context, path string) (store.Store, error) {
	if path == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(ctx, path)
}
