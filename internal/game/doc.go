// Package game implements the rules engine for the timeline card game.
//
// Players hold historical event cards with hidden years and insert them, one
// at a time, into a chronologically sorted timeline. The main type is Engine,
// which owns the GameState and advances it in response to placements.
//
// # Basic Usage
//
//	e := game.NewEngine(logger)
//	e.LoadPool(repo.All())
//	if !e.Start(game.Config{Mode: game.ModeFreeplay, HandSize: 5}) {
//	    // not enough events for the selected filters
//	}
//	if res := e.PlaceCard(1); res != nil {
//	    // show res.Success immediately, then reveal the new state
//	    e.Commit()
//	}
//
// # Two-phase placements
//
// PlaceCard decides correctness and returns the result synchronously but does
// not change turn order, hands or the timeline. Commit applies the outcome.
// The caller chooses how long to wait in between (CommitAfter schedules it on
// a quartz.Clock); correctness never depends on that delay, and a mock clock
// can fast-forward it in tests.
//
// # Deterministic Testing
//
// Ordinary games shuffle with the engine's RNG, which can be injected:
//
//	e := game.NewEngine(logger, game.WithRNG(randutil.New(42)))
//
// Daily games always shuffle with randutil.Mulberry32 seeded from the date
// string so every player receives the same deck in the same order.
//
// # Architecture
//
//   - IsCorrect / FindCorrectPosition: placement validation
//   - BuildDeck: filtering, pool-size validation, shuffling and dealing
//   - ResolveRound: sudden-death elimination and reprieve
//   - ComputeWinners: winners as a pure function of player state
//   - EventBus: publishes start, placement, round and game-over events
package game
