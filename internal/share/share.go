// Package share renders finished games as plain text for sharing.
package share

import (
	"fmt"
	"strings"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/game"
)

// GameURL is appended to every shared result.
const GameURL = "https://www.play-when.com/"

// Emoji used in result grids.
const (
	Correct = "🟩"
	Mistake = "🟥"
)

// EmojiGrid renders a placement history, one square per attempt.
func EmojiGrid(history []bool) string {
	var b strings.Builder
	for _, ok := range history {
		if ok {
			b.WriteString(Correct)
		} else {
			b.WriteString(Mistake)
		}
	}
	return b.String()
}

// CountGrid returns the number of correct and mistake squares in grid.
func CountGrid(grid string) (correct, mistakes int) {
	return strings.Count(grid, Correct), strings.Count(grid, Mistake)
}

// Text returns the share text for a game, ending with the game URL.
func Text(s game.State) string {
	var history []bool
	if len(s.Players) > 0 {
		history = s.Players[0].PlacementHistory
	}
	grid := EmojiGrid(history)
	correct := 0
	for _, ok := range history {
		if ok {
			correct++
		}
	}
	score := fmt.Sprintf("%d/%d correct", correct, len(history))
	if len(s.Winners) > 0 {
		score = "🏆 Won!"
	}
	multi := len(s.Players) > 1

	var text string
	switch s.Mode {
	case game.ModeDaily:
		date := ""
		if s.LastConfig != nil {
			date = s.LastConfig.DailySeed
		}
		theme := daily.ThemeFor(date)
		text = fmt.Sprintf("When #%s 📅\nTheme: %s\n%s\n%s", date, theme.DisplayName(), grid, score)
	case game.ModeSuddenDeath:
		if multi {
			text = fmt.Sprintf("When ☠️ %dP Sudden Death\n%s\nRounds: %d",
				len(s.Players), winnerLine(s.Winners, "Winner"), s.RoundNumber)
		} else {
			text = fmt.Sprintf("When ☠️ Sudden Death\n🔥 Streak: %d\n%s", correct, grid)
		}
	default:
		if multi {
			text = fmt.Sprintf("When 🎯 %d Players\n%s\nRounds: %d | Turns: %d",
				len(s.Players), winnerLine(s.Winners, "Winners"), s.RoundNumber, s.TurnNumber)
		} else {
			text = fmt.Sprintf("When 🎯 Freeplay\n%s\n%s", score, grid)
		}
	}
	return text + "\n\n" + GameURL
}

func winnerLine(winners []*game.Player, label string) string {
	if len(winners) == 0 {
		return "No winner"
	}
	names := make([]string, len(winners))
	for i, w := range winners {
		names[i] = w.Name
	}
	return fmt.Sprintf("🏆 %s: %s", label, strings.Join(names, ", "))
}

// Invite is the text used to share the game itself.
func Invite() string {
	return "Try When - The Timeline Game!\n\n" + GameURL
}
