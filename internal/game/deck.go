package game

import (
	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/randutil"
)

// Deal is the initial distribution of cards for a game.
type Deal struct {
	Timeline []event.Event
	Hands    [][]event.Event
	Deck     []event.Event
}

// BuildDeck filters pool by cfg, shuffles it and deals the starting timeline
// card, one hand per player and the draw deck. It returns false when the
// filtered pool is smaller than cfg.MinimumPool().
//
// Daily games with a seed ignore src and shuffle with a Mulberry32 stream
// seeded from the date so every player receives the same order.
func BuildDeck(pool []event.Event, cfg Config, src randutil.Source) (Deal, bool) {
	cfg = cfg.withDefaults()

	filtered := cfg.Filter().Apply(pool)
	if len(filtered) < cfg.MinimumPool() {
		return Deal{}, false
	}

	if cfg.Mode == ModeDaily && cfg.DailySeed != "" {
		src = randutil.NewSeeded(cfg.DailySeed)
	}
	shuffled := randutil.Shuffle(filtered, src)

	handSize := cfg.EffectiveHandSize()
	deal := Deal{
		Timeline: []event.Event{shuffled[0]},
		Hands:    make([][]event.Event, cfg.PlayerCount),
	}
	next := 1
	for i := range cfg.PlayerCount {
		deal.Hands[i] = append([]event.Event(nil), shuffled[next:next+handSize]...)
		next += handSize
	}
	deal.Deck = append([]event.Event(nil), shuffled[next:]...)
	return deal, true
}
