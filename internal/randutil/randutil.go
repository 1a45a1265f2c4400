package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// Source yields uniformly distributed floats in [0,1).
// Both *rand.Rand and *Mulberry32 satisfy it.
type Source interface {
	Float64() float64
}

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Intn returns floor(src.Float64() * n). It panics if n <= 0.
//
// This is the index derivation used by the browser client, so any shared
// seeded feature must go through it rather than rand.IntN.
func Intn(src Source, n int) int {
	if n <= 0 {
		panic("randutil: invalid argument to Intn")
	}
	return int(src.Float64() * float64(n))
}

// Shuffle returns a shuffled copy of items using Fisher-Yates. The input slice
// is left untouched.
func Shuffle[T any](items []T, src Source) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := Intn(src, i+1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
