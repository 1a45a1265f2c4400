package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/coder/quartz"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/deviceid"
	"github.com/lox/when/internal/game"
)

// Storage keys
const (
	KeyDailyResult          = "when-daily-result"
	KeyModesPlayed          = "when-modes-played"
	KeyTimelineHighScore    = "when-timeline-high-score"
	KeyDisplayName          = "when-display-name"
	KeyLeaderboardSubmitted = "when-leaderboard-submitted"
	KeyDeviceID             = "when-device-id"
)

// DailyResult is the outcome of one daily challenge.
type DailyResult struct {
	Date          string `json:"date"`
	Theme         string `json:"theme"`
	Won           bool   `json:"won"`
	CorrectCount  int    `json:"correctCount"`
	TotalAttempts int    `json:"totalAttempts"`
	EmojiGrid     string `json:"emojiGrid"`
}

// Progress reads and writes typed values on a Store. "Today" comes from the
// clock in UTC.
type Progress struct {
	store Store
	clock quartz.Clock
}

// New wraps store; a nil clock uses the real clock.
func New(store Store, clock quartz.Clock) *Progress {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Progress{store: store, clock: clock}
}

func (p *Progress) today() string {
	return daily.Today(p.clock)
}

func (p *Progress) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (p *Progress) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, key, string(raw))
}

// SaveDailyResult stores r, replacing any earlier result.
func (p *Progress) SaveDailyResult(ctx context.Context, r DailyResult) error {
	return p.setJSON(ctx, KeyDailyResult, r)
}

// TodayResult returns today's daily result, or nil if today's challenge has
// not been played.
func (p *Progress) TodayResult(ctx context.Context) (*DailyResult, error) {
	var r DailyResult
	ok, err := p.getJSON(ctx, KeyDailyResult, &r)
	if err != nil || !ok || r.Date != p.today() {
		return nil, err
	}
	return &r, nil
}

// HasPlayedToday reports whether today's daily challenge is done.
func (p *Progress) HasPlayedToday(ctx context.Context) (bool, error) {
	r, err := p.TodayResult(ctx)
	return r != nil, err
}

// HasPlayedMode reports whether mode has ever been played.
func (p *Progress) HasPlayedMode(ctx context.Context, mode game.Mode) (bool, error) {
	played := map[string]bool{}
	if _, err := p.getJSON(ctx, KeyModesPlayed, &played); err != nil {
		return false, err
	}
	return played[mode.String()], nil
}

// MarkModePlayed records that mode has been played.
func (p *Progress) MarkModePlayed(ctx context.Context, mode game.Mode) error {
	played := map[string]bool{}
	if _, err := p.getJSON(ctx, KeyModesPlayed, &played); err != nil {
		return err
	}
	played[mode.String()] = true
	return p.setJSON(ctx, KeyModesPlayed, played)
}

// TimelineHighScore returns the longest sudden-death timeline so far.
func (p *Progress) TimelineHighScore(ctx context.Context) (int, error) {
	raw, ok, err := p.store.Get(ctx, KeyTimelineHighScore)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SaveTimelineHighScore stores score if it beats the record and reports
// whether it did.
func (p *Progress) SaveTimelineHighScore(ctx context.Context, score int) (bool, error) {
	best, err := p.TimelineHighScore(ctx)
	if err != nil {
		return false, err
	}
	if score <= best {
		return false, nil
	}
	return true, p.store.Set(ctx, KeyTimelineHighScore, strconv.Itoa(score))
}

// DisplayName returns the saved leaderboard name, if any.
func (p *Progress) DisplayName(ctx context.Context) (string, error) {
	v, _, err := p.store.Get(ctx, KeyDisplayName)
	return v, err
}

// SaveDisplayName stores the leaderboard name.
func (p *Progress) SaveDisplayName(ctx context.Context, name string) error {
	return p.store.Set(ctx, KeyDisplayName, name)
}

// HasSubmitted reports whether today's result was sent to the leaderboard.
func (p *Progress) HasSubmitted(ctx context.Context) (bool, error) {
	v, _, err := p.store.Get(ctx, KeyLeaderboardSubmitted)
	return v == p.today(), err
}

// MarkSubmitted records today's leaderboard submission.
func (p *Progress) MarkSubmitted(ctx context.Context) error {
	return p.store.Set(ctx, KeyLeaderboardSubmitted, p.today())
}

// DeviceID returns the stored device id, generating one on first use.
func (p *Progress) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := p.store.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = deviceid.New()
	if err := p.store.Set(ctx, KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
