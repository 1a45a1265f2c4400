package game

import (
	"cmp"
	"slices"

	"github.com/lox/when/internal/event"
)

// DrawFunc takes the next card from the deck. It reports false when the deck
// is exhausted.
type DrawFunc func() (event.Event, bool)

// RoundOutcome describes what ResolveRound changed.
type RoundOutcome struct {
	// Eliminated holds players knocked out this round who stayed out.
	Eliminated []*Player
	// Reprieved holds players restored by the reprieve rule.
	Reprieved []*Player
	GameOver  bool
}

// ResolveRound applies end-of-round sudden-death rules to players in place.
//
// Players whose hand is empty are eliminated. If that leaves nobody standing
// in a multiplayer game, everyone eliminated this round is restored with one
// fresh card from draw; a player for whom no card is left stays out. The game
// ends when at most one player survives (in single player: when the only
// player is out).
func ResolveRound(players []*Player, round int, draw DrawFunc) RoundOutcome {
	var out RoundOutcome

	var knockedOut []*Player
	for _, p := range players {
		if !p.IsEliminated && len(p.Hand) == 0 {
			p.IsEliminated = true
			p.EliminatedRound = round
			knockedOut = append(knockedOut, p)
		}
	}

	if len(players) > 1 && countSurvivors(players) == 0 && len(knockedOut) > 0 {
		for _, p := range knockedOut {
			card, ok := draw()
			if !ok {
				continue
			}
			p.IsEliminated = false
			p.EliminatedRound = 0
			p.Hand = append(p.Hand, card)
			out.Reprieved = append(out.Reprieved, p)
		}
	}

	for _, p := range knockedOut {
		if p.IsEliminated {
			out.Eliminated = append(out.Eliminated, p)
		}
	}

	survivors := countSurvivors(players)
	if len(players) == 1 {
		out.GameOver = survivors == 0
	} else {
		out.GameOver = survivors <= 1
	}
	return out
}

func countSurvivors(players []*Player) int {
	n := 0
	for _, p := range players {
		if !p.IsEliminated {
			n++
		}
	}
	return n
}

// ComputeWinners derives the winners from the final player state.
//
// Sudden-death modes have a winner only in multiplayer games with exactly one
// survivor. Freeplay winners are the players who emptied their hand, earliest
// win first.
func ComputeWinners(mode Mode, players []*Player) []*Player {
	if mode.UsesSuddenDeath() {
		if len(players) < 2 {
			return nil
		}
		var survivor *Player
		for _, p := range players {
			if p.IsEliminated {
				continue
			}
			if survivor != nil {
				return nil
			}
			survivor = p
		}
		if survivor == nil {
			return nil
		}
		return []*Player{survivor}
	}

	var winners []*Player
	for _, p := range players {
		if p.HasWon {
			winners = append(winners, p)
		}
	}
	slices.SortFunc(winners, func(a, b *Player) int {
		return cmp.Or(cmp.Compare(a.WinTurn, b.WinTurn), cmp.Compare(a.ID, b.ID))
	})
	return winners
}
