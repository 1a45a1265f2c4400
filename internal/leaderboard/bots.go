package leaderboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lox/when/internal/daily"
	"github.com/lox/when/internal/randutil"
	"github.com/lox/when/internal/share"
)

const (
	botCountBase     = 10
	botCountVariance = 3
	poissonMean      = 6
	maxBotCorrect    = 20
	botWindow        = 6 * time.Hour
)

var adjectives = []string{
	"Brave", "Swift", "Clever", "Mighty", "Silent", "Golden", "Silver",
	"Cosmic", "Thunder", "Shadow", "Crystal", "Blazing", "Frozen", "Ancient",
	"Noble", "Wild", "Gentle", "Fierce", "Lucky", "Mystic", "Radiant",
	"Stormy", "Crimson", "Azure", "Emerald", "Obsidian", "Iron", "Steel",
	"Copper", "Bronze", "Platinum", "Diamond", "Ruby", "Sapphire", "Jade",
}

var animals = []string{
	"Penguin", "Tiger", "Fox", "Eagle", "Wolf", "Bear", "Hawk", "Lion",
	"Panther", "Falcon", "Owl", "Shark", "Dragon", "Phoenix", "Raven",
	"Cobra", "Viper", "Jaguar", "Leopard", "Lynx", "Otter", "Badger",
	"Wolverine", "Mongoose", "Heron", "Crane", "Osprey", "Condor", "Albatross",
}

// GenerateBots returns the bot entries for date. The output depends only on
// the date string and matches the bots produced by the browser client's
// serverless backend for the same date.
func GenerateBots(date string) ([]Entry, error) {
	day, err := time.Parse(daily.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	midnight := day.UTC().UnixMilli()

	src := randutil.NewSeeded("bots-" + date)
	count := botCountBase + randutil.Intn(src, botCountVariance*2+1) - botCountVariance

	bots := make([]Entry, count)
	for i := range bots {
		seed := fmt.Sprintf("bot-%s-%d", date, i)
		r := randutil.NewSeeded(seed)

		correct := min(maxBotCorrect, max(0, samplePoisson(poissonMean, r)))
		mistakes := sampleMistakes(r)
		name := adjectives[randutil.Intn(r, len(adjectives))] + " " + animals[randutil.Intn(r, len(animals))]
		timestamp := midnight + int64(r.Float64()*float64(botWindow.Milliseconds()))
		grid := botEmojiGrid(correct, mistakes, r)

		bots[i] = Entry{
			DisplayName:   name,
			CorrectCount:  correct,
			TotalAttempts: correct + mistakes,
			EmojiGrid:     grid,
			DeviceID:      botDeviceID(seed),
			Timestamp:     timestamp,
		}
	}
	return bots, nil
}

// samplePoisson draws from a Poisson distribution by multiplying uniforms
// until the product drops to e^-lambda.
func samplePoisson(lambda float64, src randutil.Source) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= src.Float64()
		if p <= limit {
			return k - 1
		}
	}
}

// sampleMistakes picks 1-5 mistakes, weighted toward running out of cards.
func sampleMistakes(src randutil.Source) int {
	roll := src.Float64()
	switch {
	case roll < 0.05:
		return 1
	case roll < 0.15:
		return 2
	case roll < 0.35:
		return 3
	case roll < 0.65:
		return 4
	default:
		return 5
	}
}

func botDeviceID(seed string) string {
	const hex = "0123456789abcdef"
	r := randutil.NewSeeded(seed)
	var b strings.Builder
	for range 32 {
		b.WriteByte(hex[randutil.Intn(r, len(hex))])
	}
	return b.String()
}

// botEmojiGrid interleaves the squares by drawing without replacement, so the
// final counts are exact.
func botEmojiGrid(correct, mistakes int, src randutil.Source) string {
	var b strings.Builder
	for correct+mistakes > 0 {
		switch {
		case mistakes == 0:
			b.WriteString(share.Correct)
			correct--
		case correct == 0:
			b.WriteString(share.Mistake)
			mistakes--
		case src.Float64() < float64(mistakes)/float64(correct+mistakes):
			b.WriteString(share.Mistake)
			mistakes--
		default:
			b.WriteString(share.Correct)
			correct--
		}
	}
	return b.String()
}
