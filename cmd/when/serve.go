package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/server"
)

// ServeCmd runs the HTTP leaderboard service
type ServeCmd struct {
	Config string `short:"c" default:"when.hcl" type:"path" help:"Path to HCL configuration file"`
	Addr   string `short:"a" help:"Server address to bind to (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	// Command line overrides
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
		cfg.Server.Port = 0
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if g.LogLevel == "" {
		g.LogLevel = cfg.Server.LogLevel
	}
	logger := g.StderrLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := leaderboard.Dial(ctx, cfg.Server.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer store.Close()

	opts := []server.Option{server.WithAllowedOrigins(cfg.Server.AllowedOrigins)}
	if repo, err := event.Load(os.DirFS(cfg.Server.EventsDir), logger); err != nil {
		logger.Warn("Serving without an event catalogue", "dir", cfg.Server.EventsDir, "error", err)
	} else {
		opts = append(opts, server.WithEvents(repo))
	}

	svc := leaderboard.NewService(store, logger)
	srv := server.NewServer(cfg.Addr(), svc, logger, opts...)

	logger.Info("Starting When server",
		"address", cfg.Addr(),
		"redis", cfg.Server.RedisURL,
		"presets", len(cfg.Presets),
	)
	return srv.Run(ctx)
}
