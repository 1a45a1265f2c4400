package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/lox/when/internal/client"
	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/progress"
)

// SubmitCmd posts today's stored daily result to a server
type SubmitCmd struct {
	Server   string `short:"s" default:"http://localhost:8080" env:"WHEN_SERVER" help:"Server URL"`
	Name     string `short:"n" help:"Display name for the leaderboard (remembered)"`
	Progress string `env:"WHEN_PROGRESS" help:"Progress file; .db uses SQLite (default: user config dir)"`
}

func (c *SubmitCmd) Run(g *Globals) error {
	logger := g.StderrLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openProgress(ctx, c.Progress)
	if err != nil {
		return err
	}
	defer closeStore()
	prog := progress.New(store, nil)

	result, err := prog.TodayResult(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		return errors.New("no daily result for today, play one with `when play --mode daily`")
	}
	if done, err := prog.HasSubmitted(ctx); err != nil {
		return err
	} else if done {
		return errors.New("today's result was already submitted")
	}

	if c.Name != "" {
		if err := prog.SaveDisplayName(ctx, leaderboard.SanitizeDisplayName(c.Name)); err != nil {
			return err
		}
	}
	name, err := prog.DisplayName(ctx)
	if err != nil {
		return err
	}
	deviceID, err := prog.DeviceID(ctx)
	if err != nil {
		return err
	}

	api, err := client.New(c.Server, logger)
	if err != nil {
		return err
	}
	res, err := api.Submit(ctx, leaderboard.Submission{
		Date:          result.Date,
		DisplayName:   name,
		CorrectCount:  result.CorrectCount,
		TotalAttempts: result.TotalAttempts,
		EmojiGrid:     result.EmojiGrid,
		DeviceID:      deviceID,
		Theme:         result.Theme,
	})
	switch {
	case errors.Is(err, leaderboard.ErrAlreadySubmitted):
		logger.Warn("Server already has today's result")
	case err != nil:
		return err
	default:
		fmt.Printf("Ranked %d of %d\n", res.Rank, res.TotalPlayers)
	}
	return prog.MarkSubmitted(ctx)
}

// LeaderboardCmd prints, or follows, a day's leaderboard
type LeaderboardCmd struct {
	Date     string `arg:"" optional:"" help:"Date as YYYY-MM-DD (default today)"`
	Server   string `short:"s" default:"http://localhost:8080" env:"WHEN_SERVER" help:"Server URL"`
	Limit    int    `short:"l" default:"10" help:"Number of entries to show"`
	Watch    bool   `short:"w" help:"Keep printing updates as results arrive"`
	Stats    bool   `help:"Also show the day's score distribution"`
	Progress string `env:"WHEN_PROGRESS" help:"Progress file used to highlight your entry (default: user config dir)"`
}

func (c *LeaderboardCmd) Run(g *Globals) error {
	logger := g.StderrLogger()
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deviceID string
	if store, closeStore, err := openProgress(ctx, c.Progress); err == nil {
		deviceID, _ = progress.New(store, nil).DeviceID(ctx)
		closeStore()
	} else {
		logger.Debug("Not highlighting own entry", "error", err)
	}

	api, err := client.New(c.Server, logger)
	if err != nil {
		return err
	}
	out := termenv.NewOutput(os.Stdout)

	board, err := api.Leaderboard(ctx, date, deviceID, c.Limit)
	if err != nil {
		return err
	}
	printBoard(out, board)
	if c.Stats {
		sum, err := api.Stats(ctx, date)
		if err != nil {
			return err
		}
		printStats(out, sum)
	}
	if !c.Watch {
		return nil
	}

	if date != daily.Today(quartz.NewReal()) {
		logger.Info("Past leaderboards do not change, watching anyway", "date", date)
	}
	return api.Watch(ctx, date, func(b *leaderboard.Board) {
		if b.TotalPlayers == board.TotalPlayers {
			return
		}
		board = b
		if c.Limit > 0 && len(b.Leaderboard) > c.Limit {
			b.Leaderboard = b.Leaderboard[:c.Limit]
		}
		fmt.Fprintln(out)
		printBoard(out, b)
	})
}
