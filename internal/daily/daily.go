// Package daily derives the daily challenge from a calendar date.
//
// Everything here is a pure function of the YYYY-MM-DD date string, so every
// player, and the leaderboard service, agree on the puzzle without sharing
// any state.
package daily

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/randutil"
)

// DateLayout is the format of daily seeds and leaderboard dates.
const DateLayout = "2006-01-02"

// HandSize is the number of cards dealt in the daily challenge.
const HandSize = 5

// ThemeKind says whether a theme restricts categories or eras.
type ThemeKind int

const (
	ThemeCategory ThemeKind = iota
	ThemeEra
)

func (k ThemeKind) String() string {
	if k == ThemeEra {
		return "era"
	}
	return "category"
}

// Theme is the topic of a day's challenge.
type Theme struct {
	Kind     ThemeKind
	Category event.Category
	Era      event.Era
}

// ThemeFor selects the theme for date. It draws once from a Mulberry32 stream
// seeded with the date and indexes all categories followed by all eras, so
// the mapping only holds while those declaration orders stay fixed.
func ThemeFor(date string) Theme {
	n := len(event.AllCategories) + len(event.AllEras)
	i := randutil.Intn(randutil.NewSeeded(date), n)
	if i < len(event.AllCategories) {
		return Theme{Kind: ThemeCategory, Category: event.AllCategories[i]}
	}
	return Theme{Kind: ThemeEra, Era: event.AllEras[i-len(event.AllCategories)]}
}

// Value returns the wire name of the selected category or era.
func (t Theme) Value() string {
	if t.Kind == ThemeEra {
		return t.Era.String()
	}
	return t.Category.String()
}

// DisplayName returns the human readable theme, e.g. "Renaissance".
func (t Theme) DisplayName() string {
	if t.Kind == ThemeEra {
		return t.Era.DisplayName()
	}
	return t.Category.DisplayName()
}

func (t Theme) String() string {
	return t.Kind.String() + ":" + t.Value()
}

// Categories returns the categories the theme allows.
func (t Theme) Categories() []event.Category {
	if t.Kind == ThemeCategory {
		return []event.Category{t.Category}
	}
	return append([]event.Category(nil), event.AllCategories...)
}

// Eras returns the eras the theme allows.
func (t Theme) Eras() []event.Era {
	if t.Kind == ThemeEra {
		return []event.Era{t.Era}
	}
	return append([]event.Era(nil), event.AllEras...)
}

type themeJSON struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	DisplayName string `json:"displayName"`
}

func (t Theme) MarshalJSON() ([]byte, error) {
	return json.Marshal(themeJSON{Type: t.Kind.String(), Value: t.Value(), DisplayName: t.DisplayName()})
}

func (t *Theme) UnmarshalJSON(data []byte) error {
	var raw themeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "category":
		c, err := event.ParseCategory(raw.Value)
		if err != nil {
			return err
		}
		*t = Theme{Kind: ThemeCategory, Category: c}
	case "era":
		e, err := event.ParseEra(raw.Value)
		if err != nil {
			return err
		}
		*t = Theme{Kind: ThemeEra, Era: e}
	default:
		return fmt.Errorf("invalid theme type: %q", raw.Type)
	}
	return nil
}

// Config builds the game configuration for date's challenge.
func Config(date string) game.Config {
	theme := ThemeFor(date)
	return game.Config{
		Mode:         game.ModeDaily,
		HandSize:     HandSize,
		Difficulties: append([]event.Difficulty(nil), event.AllDifficulties...),
		Categories:   theme.Categories(),
		Eras:         theme.Eras(),
		PlayerCount:  1,
		PlayerNames:  []string{"Player 1"},
		DailySeed:    date,
	}
}

// Today returns the current UTC date on clock.
func Today(clock quartz.Clock) string {
	return clock.Now("daily", "today").UTC().Format(DateLayout)
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}
