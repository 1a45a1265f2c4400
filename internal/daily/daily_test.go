package daily

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
)

func TestThemeForKnownDates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		date string
		want Theme
		name string
	}{
		{"2024-01-01", Theme{Kind: ThemeEra, Era: event.Prehistory}, "Prehistory"},
		{"2024-02-29", Theme{Kind: ThemeEra, Era: event.EarlyModern}, "Renaissance"},
		{"2025-06-15", Theme{Kind: ThemeEra, Era: event.Medieval}, "Medieval"},
		{"2026-10-18", Theme{Kind: ThemeCategory, Category: event.Infrastructure}, "Infrastructure"},
		{"2025-01-01", Theme{Kind: ThemeCategory, Category: event.Cultural}, "Cultural"},
		{"2025-03-09", Theme{Kind: ThemeEra, Era: event.Industrial}, "Industrial"},
		{"2024-07-04", Theme{Kind: ThemeEra, Era: event.Modern}, "Modern"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := ThemeFor(tt.date)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.DisplayName())
			assert.Equal(t, got, ThemeFor(tt.date), "pure function of the date")
		})
	}
}

func TestThemeCoversBothKinds(t *testing.T) {
	t.Parallel()
	seen := map[ThemeKind]int{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := range 365 {
		seen[ThemeFor(start.AddDate(0, 0, d).Format(DateLayout)).Kind]++
	}
	assert.Positive(t, seen[ThemeCategory])
	assert.Positive(t, seen[ThemeEra])
}

func TestThemeFilters(t *testing.T) {
	t.Parallel()
	cat := Theme{Kind: ThemeCategory, Category: event.Diplomatic}
	assert.Equal(t, []event.Category{event.Diplomatic}, cat.Categories())
	assert.Equal(t, event.AllEras, cat.Eras())

	era := Theme{Kind: ThemeEra, Era: event.ColdWar}
	assert.Equal(t, event.AllCategories, era.Categories())
	assert.Equal(t, []event.Era{event.ColdWar}, era.Eras())
	assert.Equal(t, "era:coldWar", era.String())
}

func TestThemeJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(Theme{Kind: ThemeEra, Era: event.EarlyModern})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"era","value":"earlyModern","displayName":"Renaissance"}`, string(data))

	var back Theme
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Theme{Kind: ThemeEra, Era: event.EarlyModern}, back)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"all","value":""}`), &back))
}

func TestConfig(t *testing.T) {
	t.Parallel()
	cfg := Config("2026-10-18")

	assert.Equal(t, game.ModeDaily, cfg.Mode)
	assert.Equal(t, HandSize, cfg.EffectiveHandSize())
	assert.Equal(t, 1, cfg.PlayerCount)
	assert.Equal(t, "2026-10-18", cfg.DailySeed)
	assert.Equal(t, event.AllDifficulties, cfg.Difficulties)
	assert.Equal(t, []event.Category{event.Infrastructure}, cfg.Categories)
	assert.Equal(t, event.AllEras, cfg.Eras)
}

func TestToday(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)))
	assert.Equal(t, "2025-03-10", Today(clock), "dates are UTC")
}

func TestValidDate(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-1-01"))
	assert.False(t, ValidDate("20240101"))
	assert.False(t, ValidDate(""))
}
