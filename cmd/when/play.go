package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/mattn/go-isatty"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/progress"
	"github.com/lox/when/internal/randutil"
	"github.com/lox/when/internal/server"
	"github.com/lox/when/internal/tui"
)

// PlayCmd runs a local game in the terminal
type PlayCmd struct {
	Mode     string   `short:"m" default:"freeplay" enum:"freeplay,suddenDeath,daily" help:"Game mode (${enum})"`
	Preset   string   `help:"Named preset from the config file"`
	Config   string   `short:"c" default:"when.hcl" type:"path" help:"Path to HCL configuration file with presets"`
	Players  []string `short:"p" help:"Player names for pass-and-play"`
	Hand     int      `help:"Cards dealt to each player (0 uses the mode default)"`
	Category []string `help:"Only deal events from these categories"`
	Era      []string `help:"Only deal events from these eras"`
	Seed     *int64   `help:"Deterministic shuffle seed (optional)"`
	Events   string   `default:"events" env:"WHEN_EVENTS_DIR" type:"path" help:"Directory holding the event catalogue"`
	Progress string   `env:"WHEN_PROGRESS" help:"Progress file; .db uses SQLite (default: user config dir)"`
	LogFile  string   `help:"Write logs to this file while the game runs"`
}

func (c *PlayCmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("play needs an interactive terminal")
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := g.Logger(logOut)

	ctx := context.Background()

	store, closeStore, err := openProgress(ctx, c.Progress)
	if err != nil {
		return err
	}
	defer closeStore()
	prog := progress.New(store, nil)

	cfg, err := c.gameConfig()
	if err != nil {
		return err
	}

	if cfg.Mode == game.ModeDaily {
		result, err := prog.TodayResult(ctx)
		if err != nil {
			return err
		}
		if result != nil {
			fmt.Printf("You already played today's %s challenge: %d/%d correct\n%s\n",
				result.Theme, result.CorrectCount, result.TotalAttempts, result.EmojiGrid)
			return nil
		}
		if name, _ := prog.DisplayName(ctx); name != "" {
			cfg.PlayerNames = []string{name}
		}
	}

	repo, err := event.Load(os.DirFS(c.Events), logger)
	if err != nil {
		return err
	}
	if n := len(cfg.Filter().Apply(repo.All())); n < cfg.MinimumPool() {
		return fmt.Errorf("only %d events match this game, it needs at least %d", n, cfg.MinimumPool())
	}

	var opts []game.Option
	if c.Seed != nil {
		opts = append(opts, game.WithRNG(randutil.New(*c.Seed)))
	}
	engine := game.NewEngine(logger, opts...)
	engine.LoadPool(repo.All())

	recorder := progress.NewRecorder(ctx, prog, logger)
	engine.EventBus().Subscribe(recorder)

	model := tui.New(engine, logger, tui.WithClipboard(tui.SystemClipboard{Out: os.Stdout}))
	if !engine.Start(cfg) {
		return errors.New("could not start the game")
	}
	if err := tui.Run(model, os.Stdin, os.Stdout); err != nil {
		return err
	}

	if recorder.NewHighScore() {
		best, _ := prog.TimelineHighScore(ctx)
		fmt.Printf("New high score: a timeline of %d events\n", best)
	}
	return nil
}

func (c *PlayCmd) gameConfig() (game.Config, error) {
	if c.Preset != "" {
		file, err := server.LoadConfig(c.Config)
		if err != nil {
			return game.Config{}, fmt.Errorf("loading config: %w", err)
		}
		preset, ok := file.Preset(c.Preset)
		if !ok {
			return game.Config{}, fmt.Errorf("unknown preset %q", c.Preset)
		}
		return preset.GameConfig()
	}

	if c.Mode == game.ModeDaily.String() {
		return daily.Config(daily.Today(quartz.NewReal())), nil
	}

	// Flags are validated the same way as presets.
	return server.Preset{
		Name:       "command line",
		Mode:       c.Mode,
		HandSize:   c.Hand,
		Players:    c.Players,
		Categories: c.Category,
		Eras:       c.Era,
	}.GameConfig()
}

func openProgress(ctx context.Context, path string) (progress.Store, func(), error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("finding config dir: %w", err)
		}
		path = filepath.Join(dir, "when", "progress.json")
	}

	if strings.HasSuffix(path, ".db") {
		store, err := progress.OpenSQL(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error("Failed to close progress store", "error", err)
			}
		}, nil
	}

	store, err := progress.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
