package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/leaderboard"
	"github.com/lox/when/internal/statistics"
)

const (
	accentColor = "#7D56F4"
	goldColor   = "#FFD700"
	mutedColor  = "#626262"
)

func resolveDate(date string) (string, error) {
	if date == "" {
		return daily.Today(quartz.NewReal()), nil
	}
	if !daily.ValidDate(date) {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return date, nil
}

// ThemeCmd prints the daily challenge for a date
type ThemeCmd struct {
	Date string `arg:"" optional:"" help:"Date as YYYY-MM-DD (default today)"`
	Days int    `short:"n" default:"1" help:"Number of consecutive days to show"`
}

func (c *ThemeCmd) Run() error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}
	day, _ := time.Parse(daily.DateLayout, date)

	out := termenv.NewOutput(os.Stdout)
	for i := range max(1, c.Days) {
		d := day.AddDate(0, 0, i).Format(daily.DateLayout)
		theme := daily.ThemeFor(d)
		fmt.Fprintf(out, "%s  %s %s\n",
			out.String(d).Foreground(out.Color(mutedColor)),
			out.String(theme.DisplayName()).Foreground(out.Color(accentColor)).Bold(),
			out.String("("+theme.Kind.String()+")").Faint(),
		)
	}
	return nil
}

// BotsCmd prints the bot entries seeded for a date
type BotsCmd struct {
	Date string `arg:"" optional:"" help:"Date as YYYY-MM-DD (default today)"`
}

func (c *BotsCmd) Run() error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}
	bots, err := leaderboard.GenerateBots(date)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	fmt.Fprintf(out, "%s %s\n\n",
		out.String(fmt.Sprintf("%d bots", len(bots))).Bold(),
		out.String("for "+date+", "+daily.ThemeFor(date).DisplayName()).Foreground(out.Color(mutedColor)),
	)
	for _, b := range bots {
		fmt.Fprintf(out, "%-20s %s %s\n",
			b.DisplayName,
			out.String(fmt.Sprintf("%2d/%-2d", b.CorrectCount, b.TotalAttempts)).Foreground(out.Color(goldColor)),
			b.EmojiGrid,
		)
	}
	return nil
}

func printBoard(out *termenv.Output, board *leaderboard.Board) {
	fmt.Fprintf(out, "%s %s\n",
		out.String("Leaderboard "+board.Date).Foreground(out.Color(accentColor)).Bold(),
		out.String(fmt.Sprintf("(%d players)", board.TotalPlayers)).Foreground(out.Color(mutedColor)),
	)
	for _, e := range board.Leaderboard {
		line := fmt.Sprintf("%3d. %-20s %2d/%-2d %s", e.Rank, e.DisplayName, e.CorrectCount, e.TotalAttempts, e.EmojiGrid)
		if board.PlayerRank != nil && *board.PlayerRank == e.Rank {
			fmt.Fprintln(out, out.String(line).Foreground(out.Color(goldColor)).Bold())
			continue
		}
		fmt.Fprintln(out, line)
	}
	if board.PlayerEntry != nil && board.PlayerEntry.Rank > len(board.Leaderboard) {
		e := board.PlayerEntry
		fmt.Fprintln(out, out.String(strings.Repeat(" ", 4)+"...").Faint())
		fmt.Fprintln(out, out.String(fmt.Sprintf("%3d. %-20s %2d/%-2d %s", e.Rank, e.DisplayName, e.CorrectCount, e.TotalAttempts, e.EmojiGrid)).Foreground(out.Color(goldColor)).Bold())
	}
}

func printStats(out *termenv.Output, sum *statistics.Summary) {
	fmt.Fprintf(out, "\n%s %d players (%d bots), %d perfect\n",
		out.String("Stats").Foreground(out.Color(accentColor)).Bold(),
		sum.Players, sum.Bots, sum.Perfect)
	fmt.Fprintf(out, "correct: mean %.2f, median %.2f, sd %.2f, top 10%% %.2f\n",
		sum.MeanCorrect, sum.MedianCorrect, sum.StdDev, sum.TopDecile)
	for i, n := range sum.Mistakes {
		label := fmt.Sprintf("%d mistakes", i)
		if i == statistics.MaxMistakes {
			label += "+"
		}
		fmt.Fprintf(out, "  %-11s %s %d\n", label,
			out.String(strings.Repeat("█", n)).Foreground(out.Color(goldColor)), n)
	}
}
