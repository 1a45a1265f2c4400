package game

import (
	"fmt"
	"slices"

	"github.com/lox/when/internal/event"
)

// Mode selects the rule set for a game.
type Mode int

const (
	ModeFreeplay Mode = iota
	ModeSuddenDeath
	ModeDaily
)

func (m Mode) String() string {
	switch m {
	case ModeFreeplay:
		return "freeplay"
	case ModeSuddenDeath:
		return "suddenDeath"
	case ModeDaily:
		return "daily"
	default:
		return "?"
	}
}

// ParseMode parses a wire name into a Mode
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeFreeplay, ModeSuddenDeath, ModeDaily} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid game mode: %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UsesSuddenDeath reports whether wrong placements shrink the hand instead of
// being replaced.
func (m Mode) UsesSuddenDeath() bool {
	return m == ModeSuddenDeath || m == ModeDaily
}

// Phase is the lifecycle stage of a game.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseModeSelect
	PhaseTransitioning
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseModeSelect:
		return "modeSelect"
	case PhaseTransitioning:
		return "transitioning"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "gameOver"
	default:
		return "?"
	}
}

// Defaults applied by Config.withDefaults
const (
	DefaultHandSize            = 5
	DefaultSuddenDeathHandSize = 3
)

// Config is the immutable rule snapshot a game was started with. It is kept
// verbatim on the state so Restart can reproduce it.
type Config struct {
	Mode Mode `json:"mode"`
	// HandSize is the number of cards dealt per player (a.k.a. total turns).
	HandSize int `json:"handSize,omitempty"`
	// SuddenDeathHandSize replaces HandSize in ModeSuddenDeath.
	SuddenDeathHandSize int                `json:"suddenDeathHandSize,omitempty"`
	Difficulties        []event.Difficulty `json:"difficulties,omitempty"`
	Categories          []event.Category   `json:"categories,omitempty"`
	Eras                []event.Era        `json:"eras,omitempty"`
	PlayerCount         int                `json:"playerCount,omitempty"`
	PlayerNames         []string           `json:"playerNames,omitempty"`
	// DailySeed is the YYYY-MM-DD date that seeds daily games.
	DailySeed string `json:"dailySeed,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.HandSize <= 0 {
		c.HandSize = DefaultHandSize
	}
	if c.SuddenDeathHandSize <= 0 {
		c.SuddenDeathHandSize = DefaultSuddenDeathHandSize
	}
	if c.PlayerCount <= 0 {
		c.PlayerCount = max(1, len(c.PlayerNames))
	}
	return c
}

// EffectiveHandSize is the number of cards each player starts with.
func (c Config) EffectiveHandSize() int {
	c = c.withDefaults()
	if c.Mode == ModeSuddenDeath {
		return c.SuddenDeathHandSize
	}
	return c.HandSize
}

// MinimumPool is the smallest filtered pool that can start the game: every
// hand, one timeline seed and two replacement draws per player.
func (c Config) MinimumPool() int {
	c = c.withDefaults()
	return c.PlayerCount*c.EffectiveHandSize() + 1 + c.PlayerCount*2
}

// Filter returns the event filter described by the config.
func (c Config) Filter() event.Filter {
	return event.Filter{
		Difficulties: c.Difficulties,
		Categories:   c.Categories,
		Eras:         c.Eras,
	}
}

// PlayerName returns the configured name for seat i, or "Player N".
func (c Config) PlayerName(i int) string {
	if i < len(c.PlayerNames) && c.PlayerNames[i] != "" {
		return c.PlayerNames[i]
	}
	return fmt.Sprintf("Player %d", i+1)
}

// Player is one seat in a local game.
type Player struct {
	ID   int
	Name string
	// Hand holds the player's cards; Hand[0] is the active card.
	Hand             []event.Event
	PlacementHistory []bool
	IsEliminated     bool
	// EliminatedRound is the round in which the player was knocked out.
	EliminatedRound int
	HasWon          bool
	// WinTurn is the turn on which the player emptied their hand (0 if not won).
	WinTurn int
}

// ActiveCard returns the card the player is about to place.
func (p *Player) ActiveCard() (event.Event, bool) {
	if len(p.Hand) == 0 {
		return event.Event{}, false
	}
	return p.Hand[0], true
}

// CanAct reports whether the player can take a turn.
func (p *Player) CanAct() bool {
	return !p.IsEliminated && len(p.Hand) > 0
}

// CorrectCount returns the number of successful placements.
func (p *Player) CorrectCount() int {
	n := 0
	for _, ok := range p.PlacementHistory {
		if ok {
			n++
		}
	}
	return n
}

// Streak returns the number of consecutive correct placements ending with
// the most recent one.
func (p *Player) Streak() int {
	n := 0
	for i := len(p.PlacementHistory) - 1; i >= 0 && p.PlacementHistory[i]; i-- {
		n++
	}
	return n
}

func (p *Player) clone() *Player {
	c := *p
	c.Hand = slices.Clone(p.Hand)
	c.PlacementHistory = slices.Clone(p.PlacementHistory)
	return &c
}

// PlacementResult is the immediate outcome of a placement attempt.
type PlacementResult struct {
	Success           bool
	Event             event.Event
	CorrectPosition   int
	AttemptedPosition int
}

// NotificationKind identifies what the UI may announce after a turn.
type NotificationKind int

const (
	NotifyCorrect NotificationKind = iota
	NotifyIncorrect
	NotifyGameOver
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyCorrect:
		return "correct"
	case NotifyIncorrect:
		return "incorrect"
	case NotifyGameOver:
		return "gameOver"
	default:
		return "?"
	}
}

// Notification is an optional message for the UI. Turn advancement never
// waits for it to be shown or dismissed.
type Notification struct {
	Kind  NotificationKind
	Event event.Event
	// NextPlayer is the seat that acts next, or nil when the game ended.
	NextPlayer *Player
}

// State is the aggregate game state. Values returned by Engine.State are deep
// copies and safe to retain.
type State struct {
	Phase                     Phase
	Mode                      Mode
	Timeline                  []event.Event
	Deck                      []event.Event
	Players                   []*Player
	CurrentPlayerIndex        int
	TurnNumber                int
	RoundNumber               int
	ActivePlayersAtRoundStart int
	Winners                   []*Player
	LastPlacementResult       *PlacementResult
	IsAnimating               bool
	LastConfig                *Config
	PendingNotification       *Notification
}

// CurrentPlayer returns the seat whose turn it is, if any.
func (s *State) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// ActivePlayers returns the players that are not eliminated.
func (s *State) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

func (s *State) clone() State {
	c := *s
	c.Timeline = slices.Clone(s.Timeline)
	c.Deck = slices.Clone(s.Deck)

	byID := make(map[int]*Player, len(s.Players))
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p.clone()
		byID[p.ID] = c.Players[i]
	}
	c.Winners = nil
	for _, w := range s.Winners {
		c.Winners = append(c.Winners, byID[w.ID])
	}

	if s.LastPlacementResult != nil {
		r := *s.LastPlacementResult
		c.LastPlacementResult = &r
	}
	if s.LastConfig != nil {
		cfg := *s.LastConfig
		c.LastConfig = &cfg
	}
	if s.PendingNotification != nil {
		n := *s.PendingNotification
		if n.NextPlayer != nil {
			n.NextPlayer = byID[n.NextPlayer.ID]
		}
		c.PendingNotification = &n
	}
	return c
}
