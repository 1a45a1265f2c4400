package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/event"
)

func drawFrom(cards ...event.Event) DrawFunc {
	return func() (event.Event, bool) {
		if len(cards) == 0 {
			return event.Event{}, false
		}
		c := cards[0]
		cards = cards[1:]
		return c, true
	}
}

func seats(hands ...int) []*Player {
	players := make([]*Player, len(hands))
	for i, n := range hands {
		players[i] = &Player{ID: i, Name: (&Config{}).PlayerName(i), Hand: testEvents(20)[:n]}
	}
	return players
}

func TestResolveRoundEliminates(t *testing.T) {
	t.Parallel()
	players := seats(1, 0, 2)

	out := ResolveRound(players, 3, drawFrom())
	assert.False(t, out.GameOver)
	require.Len(t, out.Eliminated, 1)
	assert.Equal(t, 1, out.Eliminated[0].ID)
	assert.True(t, players[1].IsEliminated)
	assert.Equal(t, 3, players[1].EliminatedRound)
	assert.Empty(t, out.Reprieved)
}

func TestResolveRoundSoleSurvivor(t *testing.T) {
	t.Parallel()
	players := seats(0, 1, 0)

	out := ResolveRound(players, 1, drawFrom())
	assert.True(t, out.GameOver)
	assert.Equal(t, []string{"Player 2"}, playerNames(ComputeWinners(ModeSuddenDeath, players)))
}

func TestResolveRoundReprieve(t *testing.T) {
	t.Parallel()
	players := seats(0, 0)
	cards := testEvents(2)

	out := ResolveRound(players, 1, drawFrom(cards...))
	assert.False(t, out.GameOver)
	assert.Len(t, out.Reprieved, 2)
	assert.Empty(t, out.Eliminated)
	for i, p := range players {
		assert.False(t, p.IsEliminated)
		assert.Zero(t, p.EliminatedRound)
		assert.Equal(t, []event.Event{cards[i]}, p.Hand)
	}
}

func TestResolveRoundReprieveOnlyCoversThisRound(t *testing.T) {
	t.Parallel()
	players := seats(0, 0, 0)
	players[2].IsEliminated = true
	players[2].EliminatedRound = 1

	out := ResolveRound(players, 2, drawFrom(testEvents(5)...))
	assert.Len(t, out.Reprieved, 2)
	assert.True(t, players[2].IsEliminated, "earlier eliminations stay out")
	assert.Equal(t, 1, players[2].EliminatedRound)
}

func TestResolveRoundReprieveWithEmptyDeck(t *testing.T) {
	t.Parallel()
	players := seats(0, 0)

	out := ResolveRound(players, 1, drawFrom())
	assert.True(t, out.GameOver)
	assert.Len(t, out.Eliminated, 2)
	assert.Empty(t, ComputeWinners(ModeSuddenDeath, players))
}

func TestResolveRoundSinglePlayer(t *testing.T) {
	t.Parallel()

	alive := seats(2)
	assert.False(t, ResolveRound(alive, 1, drawFrom()).GameOver)

	out := seats(0)
	assert.True(t, ResolveRound(out, 1, drawFrom(testEvents(1)...)).GameOver, "no reprieve alone")
	assert.Empty(t, ComputeWinners(ModeDaily, out))
}

func TestComputeWinnersFreeplay(t *testing.T) {
	t.Parallel()
	players := seats(0, 0, 0, 1)
	players[0].HasWon, players[0].WinTurn = true, 7
	players[1].HasWon, players[1].WinTurn = true, 3
	players[2].HasWon, players[2].WinTurn = true, 7

	assert.Equal(t, []string{"Player 2", "Player 1", "Player 3"}, playerNames(ComputeWinners(ModeFreeplay, players)))
	assert.Empty(t, ComputeWinners(ModeFreeplay, seats(1, 1)))
}

func TestComputeWinnersSuddenDeathNeedsOneSurvivor(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ComputeWinners(ModeSuddenDeath, seats(1, 1)))
	assert.Empty(t, ComputeWinners(ModeSuddenDeath, seats(1)), "single player never wins")
}

func TestStreak(t *testing.T) {
	t.Parallel()
	p := &Player{PlacementHistory: []bool{true, false, true, true, true}}
	assert.Equal(t, 3, p.Streak())
	assert.Equal(t, 4, p.CorrectCount())

	tiers := map[int]StreakTier{0: StreakNone, 1: StreakNone, 2: StreakWarm, 3: StreakWarm, 4: StreakHot, 5: StreakHot, 6: StreakOnFire, 20: StreakOnFire}
	for streak, want := range tiers {
		assert.Equal(t, want, TierForStreak(streak), "streak %d", streak)
	}
	assert.Equal(t, "golden", StreakHot.Glow())
	assert.Equal(t, "normal", StreakNone.Glow())
}

func TestEventBusUnsubscribe(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	sub := &countingSubscriber{}
	bus.Subscribe(sub)

	bus.Publish(RoundEndEvent{Round: 1})
	bus.Unsubscribe(sub)
	bus.Publish(RoundEndEvent{Round: 2})

	assert.Equal(t, 1, sub.n)
}

type countingSubscriber struct{ n int }

func (c *countingSubscriber) OnEvent(GameEvent) { c.n++ }
