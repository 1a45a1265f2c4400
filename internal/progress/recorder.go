package progress

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/share"
)

// Recorder saves progress when games finish. Subscribe it to an engine's
// event bus.
type Recorder struct {
	ctx      context.Context
	progress *Progress
	logger   *log.Logger
	highest  atomic.Bool
}

// NewRecorder creates a recorder; ctx bounds every store write.
func NewRecorder(ctx context.Context, p *Progress, logger *log.Logger) *Recorder {
	return &Recorder{ctx: ctx, progress: p, logger: logger.WithPrefix("progress")}
}

// NewHighScore reports whether the last sudden-death game beat the record.
func (r *Recorder) NewHighScore() bool {
	return r.highest.Load()
}

// OnEvent implements game.EventSubscriber.
func (r *Recorder) OnEvent(e game.GameEvent) {
	over, ok := e.(game.GameOverEvent)
	if !ok {
		return
	}
	r.record(over)
}

func (r *Recorder) record(e game.GameOverEvent) {
	mode := e.Config.Mode
	if err := r.progress.MarkModePlayed(r.ctx, mode); err != nil {
		r.logger.Error("Failed to mark mode played", "mode", mode, "error", err)
	}

	switch mode {
	case game.ModeDaily:
		if len(e.Players) == 0 {
			return
		}
		p := e.Players[0]
		grid := share.EmojiGrid(p.PlacementHistory)
		correct, _ := share.CountGrid(grid)
		res := DailyResult{
			Date:          e.Config.DailySeed,
			Theme:         daily.ThemeFor(e.Config.DailySeed).DisplayName(),
			Won:           !p.IsEliminated,
			CorrectCount:  correct,
			TotalAttempts: len(p.PlacementHistory),
			EmojiGrid:     grid,
		}
		if err := r.progress.SaveDailyResult(r.ctx, res); err != nil {
			r.logger.Error("Failed to save daily result", "date", res.Date, "error", err)
			return
		}
		r.logger.Debug("Saved daily result", "date", res.Date, "correct", correct, "attempts", res.TotalAttempts)

	case game.ModeSuddenDeath:
		score := len(e.Timeline)
		beat, err := r.progress.SaveTimelineHighScore(r.ctx, score)
		if err != nil {
			r.logger.Error("Failed to save high score", "score", score, "error", err)
			return
		}
		r.highest.Store(beat)
		if beat {
			r.logger.Info("New timeline high score", "score", score)
		}
	}
}
