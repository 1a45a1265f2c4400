package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/randutil"
	"github.com/lox/when/internal/share"
)

// Reference bots produced by the JavaScript backend for the same dates.
func TestGenerateBotsMatchesReference(t *testing.T) {
	t.Parallel()
	tests := []struct {
		date  string
		count int
		first []Entry
	}{
		{
			date:  "2024-01-01",
			count: 8,
			first: []Entry{
				{"Gentle Lion", 7, 12, "🟩🟥🟥🟩🟩🟩🟥🟥🟥🟩🟩🟩", "15c88f91a743e52d6713231c4c1a200d", 1704071840040},
				{"Cosmic Wolf", 7, 12, "🟥🟥🟥🟩🟩🟩🟩🟥🟩🟩🟥🟩", "53ebe631f32e22057ae29a1303f426d0", 1704086530106},
				{"Gentle Lynx", 16, 20, "🟥🟩🟩🟩🟩🟥🟩🟩🟩🟩🟩🟥🟥🟩🟩🟩🟩🟩🟩🟩", "bcedbd6bfbf668be187a63728939dfc7", 1704075713105},
			},
		},
		{
			date:  "2025-03-09",
			count: 9,
			first: []Entry{
				{"Jade Penguin", 3, 6, "🟥🟥🟩🟩🟩🟥", "0f713f0a7295be9c7fa58bd86148c1d1", 1741492852620},
				{"Diamond Falcon", 3, 7, "🟥🟥🟩🟩🟥🟩🟥", "74408e5c77ce6f57dfb074c65f56b3a5", 1741494934761},
				{"Frozen Cobra", 6, 11, "🟥🟥🟥🟩🟩🟩🟩🟩🟩🟥🟥", "1992cd2b58f4206ea8cc79267e5d7e5f", 1741499389734},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			bots, err := GenerateBots(tt.date)
			require.NoError(t, err)
			require.Len(t, bots, tt.count)
			assert.Equal(t, tt.first, bots[:len(tt.first)])
		})
	}
}

func TestGenerateBotsMemberEncoding(t *testing.T) {
	t.Parallel()
	bots, err := GenerateBots("2024-01-01")
	require.NoError(t, err)

	member, err := bots[0].Member()
	require.NoError(t, err)
	assert.Equal(t,
		`{"displayName":"Gentle Lion","correctCount":7,"totalAttempts":12,"emojiGrid":"🟩🟥🟥🟩🟩🟩🟥🟥🟥🟩🟩🟩","deviceId":"15c88f91a743e52d6713231c4c1a200d","timestamp":1704071840040}`,
		member)
	assert.Equal(t, float64(695), bots[0].Score())
}

func TestGenerateBotsInvariants(t *testing.T) {
	t.Parallel()
	for _, date := range []string{"2024-01-01", "2024-02-29", "2025-12-31", "2026-10-18"} {
		bots, err := GenerateBots(date)
		require.NoError(t, err)

		again, err := GenerateBots(date)
		require.NoError(t, err)
		assert.Equal(t, bots, again, "regeneration is identical")

		assert.GreaterOrEqual(t, len(bots), 7)
		assert.LessOrEqual(t, len(bots), 13)

		ids := map[string]bool{}
		for _, b := range bots {
			green, red := share.CountGrid(b.EmojiGrid)
			assert.Equal(t, b.CorrectCount, green, b.DisplayName)
			assert.Equal(t, b.Mistakes(), red, b.DisplayName)
			assert.GreaterOrEqual(t, red, 1)
			assert.LessOrEqual(t, red, MaxMistakes)
			assert.LessOrEqual(t, b.CorrectCount, maxBotCorrect)
			assert.Len(t, b.DeviceID, 32)
			assert.False(t, ids[b.DeviceID], "device ids are distinct")
			ids[b.DeviceID] = true
		}
	}
}

func TestGenerateBotsRejectsBadDate(t *testing.T) {
	t.Parallel()
	_, err := GenerateBots("yesterday")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSamplePoissonMean(t *testing.T) {
	t.Parallel()
	src := randutil.NewMulberry32(42)
	sum := 0
	const n = 5000
	for range n {
		sum += samplePoisson(poissonMean, src)
	}
	assert.InDelta(t, poissonMean, float64(sum)/n, 0.2)
}

func TestBotEmojiGridExactCounts(t *testing.T) {
	t.Parallel()
	src := randutil.NewMulberry32(7)
	for correct := range 6 {
		for mistakes := range 6 {
			grid := botEmojiGrid(correct, mistakes, src)
			g, r := share.CountGrid(grid)
			assert.Equal(t, correct, g)
			assert.Equal(t, mistakes, r)
		}
	}
}
