package game

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/event"
)

// orderedSource makes randutil.Shuffle keep its input order.
type orderedSource struct{}

func (orderedSource) Float64() float64 { return 0.9999999 }

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// testEvents returns n events ten years apart starting at 1800.
func testEvents(n int) []event.Event {
	events := make([]event.Event, n)
	for i := range events {
		year := int64(1800 + i*10)
		events[i] = event.Event{
			Name:         fmt.Sprintf("event-%d", year),
			FriendlyName: fmt.Sprintf("Event %d", year),
			Year:         year,
			Category:     event.AllCategories[i%len(event.AllCategories)],
			Difficulty:   event.AllDifficulties[i%len(event.AllDifficulties)],
		}
	}
	return events
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	opts = append([]Option{WithRNG(orderedSource{}), WithClock(clock)}, opts...)
	e := NewEngine(quietLogger(), opts...)
	e.LoadPool(testEvents(20))
	return e, clock
}

func startGame(t *testing.T, e *Engine, cfg Config) State {
	t.Helper()
	require.True(t, e.Start(cfg), "game should start")
	s := e.State()
	require.Equal(t, PhasePlaying, s.Phase)
	return s
}

// place places the current player's active card and commits immediately.
func place(t *testing.T, e *Engine, index int) PlacementResult {
	t.Helper()
	res := e.PlaceCard(index)
	require.NotNil(t, res, "placement at %d should be accepted", index)
	require.True(t, e.Commit())
	return *res
}

// placeCorrect places the active card at its correct position.
func placeCorrect(t *testing.T, e *Engine) PlacementResult {
	t.Helper()
	s := e.State()
	card, ok := s.CurrentPlayer().ActiveCard()
	require.True(t, ok)
	return place(t, e, FindCorrectPosition(s.Timeline, card))
}

// placeWrong places the active card at a position that is guaranteed wrong.
func placeWrong(t *testing.T, e *Engine) PlacementResult {
	t.Helper()
	s := e.State()
	card, ok := s.CurrentPlayer().ActiveCard()
	require.True(t, ok)
	for i := 0; i <= len(s.Timeline); i++ {
		if !IsCorrect(s.Timeline, card, i) {
			res := place(t, e, i)
			require.False(t, res.Success)
			return res
		}
	}
	t.Fatalf("no wrong position for %s", card.Name)
	return PlacementResult{}
}

func playerNames(players []*Player) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return names
}
