package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minimagame/minima/internal/config"
	"github.com/minimagame/minima/internal/relay"
)

// RelayCmd runs the standalone message relay.
type RelayCmd struct {
	Addr   string `kong:"help='Listen address (default from config)'"`
	Config string `kong:"default='minima.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *RelayCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := setupLogger(cfg.Relay.LogLevel, c.Debug)

	addr := c.Addr
	if addr == "" {
		addr = cfg.Relay.Addr
	}

	r := relay.New(addr, logger)
	ctx := signalContext(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down relay")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
