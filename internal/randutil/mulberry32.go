package randutil

import "unicode/utf16"

// mulberryIncrement is the odd Weyl increment added to the state on every draw.
const mulberryIncrement = 0x6D2B79F5

// Mulberry32 is the 32-bit generator shared with the web client and the
// leaderboard functions. All arithmetic is uint32 so the stream matches the
// JavaScript reference (Math.imul / >>> 0) bit for bit.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a generator starting from seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// NewSeeded is shorthand for NewMulberry32(SeedFromString(s)).
func NewSeeded(s string) *Mulberry32 {
	return NewMulberry32(SeedFromString(s))
}

// Uint32 advances the generator and returns the next 32-bit output.
func (m *Mulberry32) Uint32() uint32 {
	m.state += mulberryIncrement
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns the next value in [0,1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / (1 << 32)
}

// SeedFromString folds s into a seed with hash = hash*31 + unit over the
// UTF-16 code units of s, wrapped to a signed 32-bit integer each step, and
// returns the absolute value. UTF-16 is used because that is what
// String.prototype.charCodeAt walks on the client.
func SeedFromString(s string) uint32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = hash*31 + int32(unit)
	}
	if hash < 0 {
		// -math.MinInt32 does not fit in int32 but does fit in uint32.
		return uint32(-int64(hash))
	}
	return uint32(hash)
}
