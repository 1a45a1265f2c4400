package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/singleflight"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/share"
	"github.com/lox/when/internal/statistics"
)

// Errors returned by the service.
var (
	ErrAlreadySubmitted  = errors.New("already submitted today")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidDate       = errors.New("invalid date")
)

// ValidationError explains why a submission was rejected. It matches
// ErrInvalidSubmission with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidSubmission }

// Limits for leaderboard reads and submissions.
const (
	DefaultLimit   = 50
	MaxLimit       = 100
	MaxMistakes    = 5
	maxDisplayName = 20
	anonymousName  = "Anonymous"
)

// Submission is a client's daily result.
type Submission struct {
	Date          string `json:"date"`
	DisplayName   string `json:"displayName"`
	CorrectCount  int    `json:"correctCount"`
	TotalAttempts int    `json:"totalAttempts"`
	EmojiGrid     string `json:"emojiGrid"`
	DeviceID      string `json:"deviceId"`
	Theme         string `json:"theme,omitempty"`
}

// SubmitResult reports where a submission landed.
type SubmitResult struct {
	Success      bool  `json:"success"`
	Rank         int64 `json:"rank"`
	TotalPlayers int64 `json:"totalPlayers"`
}

// Board is a page of a date's leaderboard.
type Board struct {
	Date         string        `json:"date"`
	Leaderboard  []PublicEntry `json:"leaderboard"`
	TotalPlayers int64         `json:"totalPlayers"`
	PlayerRank   *int          `json:"playerRank"`
	PlayerEntry  *PublicEntry  `json:"playerEntry"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for "today" and submission timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// Service implements the daily leaderboard on top of a Store.
type Service struct {
	store  Store
	clock  quartz.Clock
	logger *log.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	listeners []func(date string)
}

// NewService creates a leaderboard service.
func NewService(store Store, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("leaderboard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to be called after a date's board changes.
func (s *Service) OnChange(fn func(date string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) notify(date string) {
	s.mu.RLock()
	listeners := append([]func(string){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(date)
	}
}

// Ping checks the backing store when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Today returns the current UTC date.
func (s *Service) Today() string {
	return daily.Today(s.clock)
}

// EnsureBots populates date's board with bots exactly once. It reports whether
// this call did the population; losing the race to another caller is not an
// error. Concurrent calls in this process share a single attempt.
func (s *Service) EnsureBots(ctx context.Context, date string) (bool, error) {
	v, err, _ := s.group.Do(date, func() (any, error) {
		return s.ensureBots(ctx, date)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *Service) ensureBots(ctx context.Context, date string) (created bool, err error) {
	lockKey := LockKey(date)

	if v, ok, err := s.store.Get(ctx, lockKey); err != nil {
		return false, fmt.Errorf("reading bot lock: %w", err)
	} else if ok && v != "" {
		return false, nil
	}

	acquired, err := s.store.SetNX(ctx, lockKey, lockInitializing, InitLockTTL)
	if err != nil {
		return false, fmt.Errorf("acquiring bot lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	defer func() {
		if err == nil {
			return
		}
		if delErr := s.store.Del(context.WithoutCancel(ctx), lockKey); delErr != nil {
			s.logger.Error("Failed to release bot lock", "date", date, "error", delErr)
		}
	}()

	bots, err := GenerateBots(date)
	if err != nil {
		return false, err
	}

	boardKey := BoardKey(date)
	for _, bot := range bots {
		member, err := bot.Member()
		if err != nil {
			return false, err
		}
		if err := s.store.ZAdd(ctx, boardKey, bot.Score(), member); err != nil {
			return false, fmt.Errorf("adding bot %q: %w", bot.DisplayName, err)
		}
		if err := s.store.Set(ctx, SubmissionKey(date, bot.DeviceID), "bot", SubmissionTTL); err != nil {
			return false, fmt.Errorf("marking bot %q: %w", bot.DisplayName, err)
		}
	}

	if err := s.store.Expire(ctx, boardKey, BoardTTL); err != nil {
		return false, fmt.Errorf("expiring leaderboard: %w", err)
	}
	if err := s.store.Set(ctx, lockKey, lockDone, DoneLockTTL); err != nil {
		return false, fmt.Errorf("finishing bot lock: %w", err)
	}

	s.logger.Info("Populated bots", "date", date, "bots", len(bots))
	return true, nil
}

// Validate checks a submission against today's date and theme.
func (s *Service) Validate(sub Submission) error {
	if sub.Date == "" || sub.DeviceID == "" || sub.EmojiGrid == "" {
		return &ValidationError{"Missing required fields"}
	}
	if sub.Date != s.Today() {
		return &ValidationError{"Invalid date - must be today"}
	}
	if sub.CorrectCount < 0 {
		return &ValidationError{"Invalid correctCount"}
	}

	green, red := share.CountGrid(sub.EmojiGrid)
	if red > MaxMistakes ||
		sub.TotalAttempts != sub.CorrectCount+red ||
		green+red != sub.TotalAttempts ||
		green != sub.CorrectCount {
		return &ValidationError{"Invalid emoji grid or counts"}
	}

	if sub.Theme != "" && sub.Theme != daily.ThemeFor(sub.Date).DisplayName() {
		return &ValidationError{"Invalid theme"}
	}
	return nil
}

// SanitizeDisplayName trims name to 20 characters, strips angle brackets and
// falls back to "Anonymous".
func SanitizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxDisplayName {
		name = string([]rune(name)[:maxDisplayName])
	}
	name = strings.NewReplacer("<", "", ">", "").Replace(name)
	if name == "" {
		return anonymousName
	}
	return name
}

// Submit records a real player's result. A device may submit once per date;
// the claim is atomic so concurrent duplicates cannot both succeed.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	if err := s.Validate(sub); err != nil {
		return nil, err
	}
	if _, err := s.EnsureBots(ctx, sub.Date); err != nil {
		return nil, err
	}

	subKey := SubmissionKey(sub.Date, sub.DeviceID)
	claimed, err := s.store.SetNX(ctx, subKey, "1", SubmissionTTL)
	if err != nil {
		return nil, fmt.Errorf("claiming submission: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadySubmitted
	}

	entry := Entry{
		DisplayName:   SanitizeDisplayName(sub.DisplayName),
		CorrectCount:  sub.CorrectCount,
		TotalAttempts: sub.TotalAttempts,
		EmojiGrid:     sub.EmojiGrid,
		DeviceID:      sub.DeviceID,
		Timestamp:     s.clock.Now("leaderboard", "submit").UnixMilli(),
	}
	member, err := entry.Member()
	if err != nil {
		return nil, err
	}

	boardKey := BoardKey(sub.Date)
	if err := s.store.ZAdd(ctx, boardKey, entry.Score(), member); err != nil {
		if delErr := s.store.Del(context.WithoutCancel(ctx), subKey); delErr != nil {
			s.logger.Error("Failed to release submission claim", "key", subKey, "error", delErr)
		}
		return nil, fmt.Errorf("adding entry: %w", err)
	}
	if err := s.store.Expire(ctx, boardKey, BoardTTL); err != nil {
		return nil, fmt.Errorf("expiring leaderboard: %w", err)
	}

	rank, _, err := s.store.ZRevRank(ctx, boardKey, member)
	if err != nil {
		return nil, fmt.Errorf("ranking entry: %w", err)
	}
	total, err := s.store.ZCard(ctx, boardKey)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	s.logger.Info("Accepted submission", "date", sub.Date, "name", entry.DisplayName,
		"correct", entry.CorrectCount, "rank", rank+1, "total", total)
	s.notify(sub.Date)

	return &SubmitResult{Success: true, Rank: rank + 1, TotalPlayers: total}, nil
}

// Leaderboard returns the top limit entries for date. When deviceID is set,
// the device's own rank and entry are included if it has one. Bots are
// populated first when date is today.
func (s *Service) Leaderboard(ctx context.Context, date, deviceID string, limit int) (*Board, error) {
	if !daily.ValidDate(date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	if date == s.Today() {
		if _, err := s.EnsureBots(ctx, date); err != nil {
			return nil, err
		}
	}

	boardKey := BoardKey(date)
	members, err := s.store.ZRevRange(ctx, boardKey, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	board := &Board{Date: date, Leaderboard: make([]PublicEntry, 0, len(members))}
	for i, m := range members {
		e, err := decodeEntry(m)
		if err != nil {
			s.logger.Warn("Skipping malformed entry", "date", date, "error", err)
			continue
		}
		board.Leaderboard = append(board.Leaderboard, e.Public(i+1))
	}

	if board.TotalPlayers, err = s.store.ZCard(ctx, boardKey); err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	if deviceID != "" {
		all, err := s.store.ZRevRange(ctx, boardKey, 0, -1)
		if err != nil {
			return nil, fmt.Errorf("reading leaderboard: %w", err)
		}
		for i, m := range all {
			e, err := decodeEntry(m)
			if err != nil || e.DeviceID != deviceID {
				continue
			}
			rank := i + 1
			pub := e.Public(rank)
			board.PlayerRank = &rank
			board.PlayerEntry = &pub
			break
		}
	}
	return board, nil
}

// Stats summarises every entry on date's board. Bots are counted separately
// by matching the device ids GenerateBots produces for the date.
func (s *Service) Stats(ctx context.Context, date string) (*statistics.Summary, error) {
	bots, err := GenerateBots(date)
	if err != nil {
		return nil, err
	}
	if date == s.Today() {
		if _, err := s.EnsureBots(ctx, date); err != nil {
			return nil, err
		}
	}

	botIDs := make(map[string]struct{}, len(bots))
	for _, b := range bots {
		botIDs[b.DeviceID] = struct{}{}
	}

	members, err := s.store.ZRevRange(ctx, BoardKey(date), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	var stats statistics.Statistics
	for _, m := range members {
		e, err := decodeEntry(m)
		if err != nil {
			s.logger.Warn("Skipping malformed entry", "date", date, "error", err)
			continue
		}
		_, bot := botIDs[e.DeviceID]
		stats.Add(statistics.Result{Correct: e.CorrectCount, Mistakes: e.Mistakes(), Bot: bot})
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}

	summary := stats.Summary(date)
	return &summary, nil
}
