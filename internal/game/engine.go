package game

import (
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/randutil"
)

// Reveal delays used by interactive front ends between PlaceCard and Commit.
const (
	CorrectRevealDelay   = 600 * time.Millisecond
	IncorrectRevealDelay = 800 * time.Millisecond
)

// RevealDelay returns the reveal delay for a placement outcome.
func RevealDelay(success bool) time.Duration {
	if success {
		return CorrectRevealDelay
	}
	return IncorrectRevealDelay
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG sets the random source used to shuffle non-daily games.
func WithRNG(src randutil.Source) Option {
	return func(e *Engine) { e.rng = src }
}

// WithClock sets the clock used by CommitAfter and event timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithEventBus sets the bus game events are published to.
func WithEventBus(bus EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

type pendingPlacement struct {
	seq         uint64
	playerIndex int
	result      PlacementResult
}

// Engine owns a single local game. Exactly one placement can be in flight at
// a time; methods are safe to call from multiple goroutines.
type Engine struct {
	mu     sync.Mutex
	logger *log.Logger
	rng    randutil.Source
	clock  quartz.Clock
	bus    EventBus

	pool    []event.Event
	state   State
	pending *pendingPlacement
	seq     uint64
	timer   *quartz.Timer
}

// NewEngine creates an engine in the loading phase.
func NewEngine(logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger: logger.WithPrefix("engine"),
		clock:  quartz.NewReal(),
		bus:    NewEventBus(),
		state:  State{Phase: PhaseLoading},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = randutil.New(time.Now().UnixNano())
	}
	return e
}

// EventBus returns the bus for subscribing to game events
func (e *Engine) EventBus() EventBus {
	return e.bus
}

// LoadPool installs the events games are dealt from and moves a loading
// engine to mode selection.
func (e *Engine) LoadPool(events []event.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool = slices.Clone(events)
	if e.state.Phase == PhaseLoading {
		e.state.Phase = PhaseModeSelect
	}
	e.logger.Debug("Loaded event pool", "events", len(events))
}

// CanStart reports whether cfg leaves enough events in the pool to deal.
func (e *Engine) CanStart(cfg Config) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(cfg.Filter().Apply(e.pool)) >= cfg.MinimumPool()
}

// BeginTransition marks the hand-off from mode selection to play.
func (e *Engine) BeginTransition() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Phase {
	case PhaseModeSelect, PhaseGameOver:
		e.state.Phase = PhaseTransitioning
		return true
	default:
		return false
	}
}

// Start deals a new game for cfg, abandoning any game in progress. It returns
// false, leaving the state untouched, when the pool is not loaded or the
// filtered pool is too small.
func (e *Engine) Start(cfg Config) bool {
	e.mu.Lock()
	if e.state.Phase == PhaseLoading {
		e.mu.Unlock()
		return false
	}

	deal, ok := BuildDeck(e.pool, cfg, e.rng)
	if !ok {
		e.logger.Warn("Not enough events for configuration",
			"mode", cfg.Mode, "available", len(cfg.Filter().Apply(e.pool)), "required", cfg.MinimumPool())
		e.mu.Unlock()
		return false
	}

	e.cancelPendingLocked()

	cfg = cfg.withDefaults()
	players := make([]*Player, cfg.PlayerCount)
	for i := range players {
		players[i] = &Player{
			ID:   i,
			Name: cfg.PlayerName(i),
			Hand: deal.Hands[i],
		}
	}

	stored := cfg
	e.state = State{
		Phase:                     PhasePlaying,
		Mode:                      cfg.Mode,
		Timeline:                  deal.Timeline,
		Deck:                      deal.Deck,
		Players:                   players,
		TurnNumber:                1,
		RoundNumber:               1,
		ActivePlayersAtRoundStart: len(players),
		LastConfig:                &stored,
	}

	snap := e.state.clone()
	e.mu.Unlock()

	e.logger.Info("Game started", "mode", cfg.Mode, "players", len(players),
		"hand", cfg.EffectiveHandSize(), "deck", len(deal.Deck))
	e.bus.Publish(GameStartEvent{
		Config:    *snap.LastConfig,
		Players:   snap.Players,
		Timeline:  snap.Timeline,
		timestamp: e.clock.Now(),
	})
	return true
}

// Restart starts a new game with the configuration of the last one.
func (e *Engine) Restart() bool {
	e.mu.Lock()
	last := e.state.LastConfig
	e.mu.Unlock()
	if last == nil {
		return false
	}
	return e.Start(*last)
}

// Reset abandons the current game and returns to mode selection.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
	phase := PhaseModeSelect
	if e.pool == nil {
		phase = PhaseLoading
	}
	e.state = State{Phase: phase}
}

// PlaceCard evaluates placing the current player's active card at index and
// locks the engine until Commit. It returns nil without changing anything
// when no placement is possible or index is not a slot on the timeline.
func (e *Engine) PlaceCard(index int) *PlacementResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	if s.Phase != PhasePlaying || s.IsAnimating {
		return nil
	}
	p := s.CurrentPlayer()
	if p == nil || p.IsEliminated || len(p.Hand) == 0 {
		return nil
	}
	if index < 0 || index > len(s.Timeline) {
		return nil
	}

	res := Evaluate(s.Timeline, p.Hand[0], index)
	e.seq++
	e.pending = &pendingPlacement{seq: e.seq, playerIndex: s.CurrentPlayerIndex, result: res}
	s.IsAnimating = true
	s.LastPlacementResult = &res

	e.logger.Debug("Placement", "player", p.Name, "event", res.Event.Name,
		"attempted", index, "correct", res.CorrectPosition, "success", res.Success)

	out := res
	return &out
}

// Commit applies the pending placement. It returns false if there is none.
func (e *Engine) Commit() bool {
	e.mu.Lock()
	if e.pending == nil {
		e.mu.Unlock()
		return false
	}
	events := e.commitLocked()
	e.mu.Unlock()

	for _, ev := range events {
		e.bus.Publish(ev)
	}
	return true
}

// CommitAfter schedules Commit on the engine's clock. A placement abandoned
// by Start or Reset before the delay elapses is never applied.
func (e *Engine) CommitAfter(delay time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return false
	}
	seq := e.pending.seq
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = e.clock.AfterFunc(delay, func() {
		e.mu.Lock()
		if e.pending == nil || e.pending.seq != seq {
			e.mu.Unlock()
			return
		}
		events := e.commitLocked()
		e.mu.Unlock()
		for _, ev := range events {
			e.bus.Publish(ev)
		}
	}, "engine", "commit")
	return true
}

// CycleHand moves the current player's active card to the back of the hand.
func (e *Engine) CycleHand() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	if s.Phase != PhasePlaying || s.IsAnimating {
		return false
	}
	p := s.CurrentPlayer()
	if p == nil || len(p.Hand) <= 1 {
		return false
	}
	p.Hand = append(p.Hand[1:], p.Hand[0])
	return true
}

// DismissNotification clears the pending notification.
func (e *Engine) DismissNotification() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PendingNotification = nil
}

// State returns a deep copy of the current game state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

func (e *Engine) cancelPendingLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = nil
}

func (e *Engine) drawLocked() (event.Event, bool) {
	if len(e.state.Deck) == 0 {
		return event.Event{}, false
	}
	card := e.state.Deck[0]
	e.state.Deck = e.state.Deck[1:]
	return card, true
}

// commitLocked applies the pending placement and returns the events to
// publish once the lock is released.
func (e *Engine) commitLocked() []GameEvent {
	pp := e.pending
	e.pending = nil
	e.timer = nil

	s := &e.state
	now := e.clock.Now()
	res := pp.result
	p := s.Players[pp.playerIndex]

	p.PlacementHistory = append(p.PlacementHistory, res.Success)
	p.Hand = slices.Delete(p.Hand, 0, 1)

	if s.Mode.UsesSuddenDeath() {
		if res.Success {
			s.Timeline = InsertAt(s.Timeline, res.Event, res.CorrectPosition)
			if card, ok := e.drawLocked(); ok {
				p.Hand = append(p.Hand, card)
			}
		}
	} else {
		s.Timeline = InsertAt(s.Timeline, res.Event, res.CorrectPosition)
		if res.Success {
			if len(p.Hand) == 0 {
				p.HasWon = true
				p.WinTurn = s.TurnNumber
			}
		} else if card, ok := e.drawLocked(); ok {
			p.Hand = append(p.Hand, card)
		}
	}

	events := []GameEvent{PlacementEvent{
		Player:    p.clone(),
		Result:    res,
		Turn:      s.TurnNumber,
		timestamp: now,
	}}

	next, wrapped := nextPlayer(s.Players, pp.playerIndex)
	roundEnds := len(s.Players) == 1 || wrapped
	s.TurnNumber++

	gameOver := false
	if roundEnds {
		round := RoundEndEvent{Round: s.RoundNumber, timestamp: now}
		if s.Mode.UsesSuddenDeath() {
			outcome := ResolveRound(s.Players, s.RoundNumber, e.drawLocked)
			gameOver = outcome.GameOver
			for _, x := range outcome.Eliminated {
				round.Eliminated = append(round.Eliminated, x.clone())
			}
			for _, x := range outcome.Reprieved {
				round.Reprieved = append(round.Reprieved, x.clone())
			}
		} else {
			gameOver = freeplayOver(s.Players)
		}
		s.RoundNumber++
		events = append(events, round)

		if !gameOver {
			s.ActivePlayersAtRoundStart = countSurvivors(s.Players)
			next = firstActor(s.Players)
			if next < 0 {
				gameOver = true
			}
		}
		e.logger.Debug("Round closed", "round", round.Round,
			"eliminated", len(round.Eliminated), "reprieved", len(round.Reprieved), "gameOver", gameOver)
	}

	s.IsAnimating = false

	if gameOver {
		s.Phase = PhaseGameOver
		s.Winners = ComputeWinners(s.Mode, s.Players)
		s.PendingNotification = &Notification{Kind: NotifyGameOver, Event: res.Event}

		snap := s.clone()
		names := make([]string, len(snap.Winners))
		for i, w := range snap.Winners {
			names[i] = w.Name
		}
		e.logger.Info("Game over", "mode", s.Mode, "turns", s.TurnNumber-1, "winners", names)

		events = append(events, GameOverEvent{
			Config:    *snap.LastConfig,
			Players:   snap.Players,
			Winners:   snap.Winners,
			Timeline:  snap.Timeline,
			Turns:     snap.TurnNumber - 1,
			timestamp: now,
		})
		return events
	}

	s.CurrentPlayerIndex = next
	kind := NotifyIncorrect
	if res.Success {
		kind = NotifyCorrect
	}
	n := &Notification{Kind: kind, Event: res.Event}
	if len(s.Players) > 1 {
		n.NextPlayer = s.Players[next]
	}
	s.PendingNotification = n
	return events
}

// nextPlayer scans forward from cur for the next player that can act. wrapped
// reports whether the scan passed the end of the seating order, which closes
// the round. When nobody can act it returns cur and true.
func nextPlayer(players []*Player, cur int) (int, bool) {
	n := len(players)
	for step := 1; step <= n; step++ {
		i := (cur + step) % n
		if players[i].CanAct() {
			return i, i <= cur
		}
	}
	return cur, true
}

func firstActor(players []*Player) int {
	for i, p := range players {
		if p.CanAct() {
			return i
		}
	}
	return -1
}

func freeplayOver(players []*Player) bool {
	for _, p := range players {
		if p.HasWon {
			return true
		}
	}
	return firstActor(players) < 0
}
