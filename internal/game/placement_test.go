package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/randutil"
)

func years(events []event.Event) []int64 {
	out := make([]int64, len(events))
	for i, e := range events {
		out[i] = e.Year
	}
	return out
}

func timelineOf(ys ...int64) []event.Event {
	out := make([]event.Event, len(ys))
	for i, y := range ys {
		out[i] = event.Event{Name: "t", Year: y}
	}
	return out
}

func TestIsCorrect(t *testing.T) {
	t.Parallel()
	timeline := timelineOf(1066, 1492, 1969)

	tests := []struct {
		name  string
		year  int64
		index int
		want  bool
	}{
		{"before everything", 1000, 0, true},
		{"too early for middle", 1000, 1, false},
		{"between", 1200, 1, true},
		{"after everything", 2000, 3, true},
		{"not last", 2000, 2, false},
		{"tie left of equal", 1492, 1, true},
		{"tie right of equal", 1492, 2, true},
		{"negative index", 1000, -1, false},
		{"past the end", 2000, 4, false},
		{"bce", -500, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrect(timeline, event.Event{Year: tt.year}, tt.index))
		})
	}

	assert.True(t, IsCorrect(nil, event.Event{Year: 1}, 0), "empty timeline accepts index 0")
}

func TestFindCorrectPositionIsLeftmost(t *testing.T) {
	t.Parallel()
	timeline := timelineOf(100, 200, 200, 200, 300)

	assert.Equal(t, 0, FindCorrectPosition(timeline, event.Event{Year: 50}))
	assert.Equal(t, 1, FindCorrectPosition(timeline, event.Event{Year: 200}))
	assert.Equal(t, 4, FindCorrectPosition(timeline, event.Event{Year: 250}))
	assert.Equal(t, 5, FindCorrectPosition(timeline, event.Event{Year: 301}))
	assert.Equal(t, 0, FindCorrectPosition(nil, event.Event{Year: 301}))
}

// For sorted timelines the correct position is always accepted, and every
// accepted index lies in the tie run that starts there.
func TestPlacementProperties(t *testing.T) {
	t.Parallel()
	src := randutil.New(1)

	for range 200 {
		n := randutil.Intn(src, 8)
		raw := make([]event.Event, n)
		for i := range raw {
			raw[i] = event.Event{Year: int64(randutil.Intn(src, 10))}
		}
		timeline := SortByYear(raw)
		e := event.Event{Year: int64(randutil.Intn(src, 12)) - 1}

		pos := FindCorrectPosition(timeline, e)
		assert.True(t, IsCorrect(timeline, e, pos))

		for i := 0; i <= len(timeline); i++ {
			if !IsCorrect(timeline, e, i) {
				continue
			}
			assert.GreaterOrEqual(t, i, pos)
			for j := pos; j < i; j++ {
				assert.Equal(t, e.Year, timeline[j].Year, "accepted index must sit in a tie run")
			}
		}

		inserted := InsertAt(timeline, e, pos)
		for i := 1; i < len(inserted); i++ {
			assert.LessOrEqual(t, inserted[i-1].Year, inserted[i].Year)
		}
	}
}

func TestInsertAtDoesNotAlias(t *testing.T) {
	t.Parallel()
	timeline := make([]event.Event, 2, 10)
	timeline[0].Year = 1
	timeline[1].Year = 3

	out := InsertAt(timeline, event.Event{Year: 2}, 1)
	assert.Equal(t, []int64{1, 2, 3}, years(out))
	assert.Equal(t, []int64{1, 3}, years(timeline))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	timeline := timelineOf(1800, 1900)
	card := event.Event{Name: "x", Year: 1850}

	res := Evaluate(timeline, card, 0)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.CorrectPosition)
	assert.Equal(t, 0, res.AttemptedPosition)
	assert.Equal(t, "x", res.Event.Name)

	assert.True(t, Evaluate(timeline, card, 1).Success)
}
