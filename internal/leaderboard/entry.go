// Package leaderboard stores daily challenge results in a sorted set and
// seeds each day's board with deterministic bot entries.
package leaderboard

import (
	"encoding/json"
	"time"
)

// Key lifetimes
const (
	SubmissionTTL = 25 * time.Hour
	BoardTTL      = 7 * 24 * time.Hour
	DoneLockTTL   = 8 * 24 * time.Hour
	// InitLockTTL bounds how long a crashed populator can block a date.
	InitLockTTL = 5 * time.Minute
)

// Lock values
const (
	lockInitializing = "initializing"
	lockDone         = "done"
)

// LockKey is the first-writer-wins marker for bot population.
func LockKey(date string) string { return "bots-initialized:" + date }

// BoardKey is the sorted set holding a date's entries.
func BoardKey(date string) string { return "leaderboard:" + date }

// SubmissionKey marks that deviceID already has an entry for date.
func SubmissionKey(date, deviceID string) string { return "submission:" + date + ":" + deviceID }

// Entry is a stored leaderboard result. Bot entries have the same shape as
// real ones. The JSON encoding is the sorted set member, so field order is
// significant.
type Entry struct {
	DisplayName   string `json:"displayName"`
	CorrectCount  int    `json:"correctCount"`
	TotalAttempts int    `json:"totalAttempts"`
	EmojiGrid     string `json:"emojiGrid"`
	DeviceID      string `json:"deviceId"`
	Timestamp     int64  `json:"timestamp"`
}

// Mistakes returns the number of failed placements.
func (e Entry) Mistakes() int {
	return e.TotalAttempts - e.CorrectCount
}

// Score orders entries: correct answers first, fewer mistakes break ties.
func (e Entry) Score() float64 {
	return float64(e.CorrectCount*100 - e.Mistakes())
}

// Member returns the sorted set member for the entry.
func (e Entry) Member() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Public strips the device id and attaches a rank.
func (e Entry) Public(rank int) PublicEntry {
	return PublicEntry{
		DisplayName:   e.DisplayName,
		CorrectCount:  e.CorrectCount,
		TotalAttempts: e.TotalAttempts,
		EmojiGrid:     e.EmojiGrid,
		Rank:          rank,
	}
}

// PublicEntry is an entry as served to clients.
type PublicEntry struct {
	DisplayName   string `json:"displayName"`
	CorrectCount  int    `json:"correctCount"`
	TotalAttempts int    `json:"totalAttempts"`
	EmojiGrid     string `json:"emojiGrid"`
	Rank          int    `json:"rank"`
}

func decodeEntry(member string) (Entry, error) {
	var e Entry
	err := json.Unmarshal([]byte(member), &e)
	return e, err
}
