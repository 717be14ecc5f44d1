package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liarsdeck/liarsdeck/cmd/liarsdeck/shared"
	"github.com/liarsdeck/liarsdeck/internal/relay"
	"github.com/liarsdeck/liarsdeck/internal/server"
	"github.com/liarsdeck/liarsdeck/internal/session"
	"github.com/liarsdeck/liarsdeck/internal/token"
)

// SpawnCmd runs a full deployment in one process: N workers on consecutive
// ports sharing one store, with the relay in front.
type SpawnCmd struct {
	Config    string `kong:"default='liarsdeck.hcl',help='HCL config file'"`
	Workers   int    `kong:"default='4',help='Number of workers to spawn'"`
	BasePort  int    `kong:"default='56000',help='First worker port; workers use consecutive ports'"`
	RelayAddr string `kong:"help='Relay listen address (overrides config)'"`
	Store     string `kong:"help='SQLite store path, or \"memory\" (overrides config)'"`
	GameID    string `kong:"help='Game id to serve (overrides config)'"`
	NewGame   bool   `kong:"help='Generate a fresh game id for the pool'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *SpawnCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	if c.Workers < 1 {
		return fmt.Errorf("need at least one worker, got %d", c.Workers)
	}

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
	if c.NewGame {
		cfg.Server.GameID = token.NewGameID()
		logger.Info("generated game id", "game", cfg.Server.GameID)
	}

	relayAddr := cfg.RelayAddress()
	if c.RelayAddr != "" {
		relayAddr = c.RelayAddr
	}

	ctx := shared.SetupSignalHandler(logger)

	st, err := openStore(ctx, cfg.Server.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	endpoints := make([]string, 0, c.Workers)
	servers := make([]*server.Server, 0, c.Workers)
	for i := 0; i < c.Workers; i++ {
		addr := fmt.Sprintf("localhost:%d", c.BasePort+i)
		endpoints = append(endpoints, addr)

		sessions := session.NewManager(st, cfg.Server.GameID, logger)
		servers = append(servers, server.NewServer(addr, sessions, logger,
			server.WithStaticDir(cfg.Server.StaticDir)))
	}

	r, err := relay.New(endpoints, logger)
	if err != nil {
		return err
	}

	logger.Info("spawning deployment",
		"workers", c.Workers,
		"relay", relayAddr,
		"store", cfg.Server.StorePath,
		"game", cfg.Server.GameID)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return r.ListenAndServe(gctx, relayAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("worker shutdown failed", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
