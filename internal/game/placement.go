package game

import (
	"slices"

	"github.com/lox/when/internal/event"
)

// IsCorrect reports whether inserting e at index keeps the timeline sorted.
// Equal years are compatible on either side.
func IsCorrect(timeline []event.Event, e event.Event, index int) bool {
	if index < 0 || index > len(timeline) {
		return false
	}
	if index > 0 && e.Year < timeline[index-1].Year {
		return false
	}
	if index < len(timeline) && e.Year > timeline[index].Year {
		return false
	}
	return true
}

// FindCorrectPosition returns the leftmost index at which e can be inserted
// without breaking the ordering.
func FindCorrectPosition(timeline []event.Event, e event.Event) int {
	// First entry whose year is >= e.Year; everything before it is strictly
	// earlier, so this is the leftmost valid slot.
	i, _ := slices.BinarySearchFunc(timeline, e.Year, func(t event.Event, year int64) int {
		switch {
		case t.Year < year:
			return -1
		case t.Year > year:
			return 1
		default:
			return 0
		}
	})
	return i
}

// InsertAt returns a new timeline with e inserted at index.
func InsertAt(timeline []event.Event, e event.Event, index int) []event.Event {
	out := make([]event.Event, 0, len(timeline)+1)
	out = append(out, timeline[:index]...)
	out = append(out, e)
	return append(out, timeline[index:]...)
}

// SortByYear returns a copy of events ordered by year. Ties keep their input
// order.
func SortByYear(events []event.Event) []event.Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b event.Event) int {
		switch {
		case a.Year < b.Year:
			return -1
		case a.Year > b.Year:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Evaluate computes the placement result for putting e at attempted.
func Evaluate(timeline []event.Event, e event.Event, attempted int) PlacementResult {
	return PlacementResult{
		Success:           IsCorrect(timeline, e, attempted),
		Event:             e,
		CorrectPosition:   FindCorrectPosition(timeline, e),
		AttemptedPosition: attempted,
	}
}
