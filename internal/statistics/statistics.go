// Package statistics summarises a day's leaderboard results.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// MaxMistakes is the largest mistake count a finished daily game can have.
const MaxMistakes = 5

// Result is one player's daily outcome
type Result struct {
	Correct  int  // Cards placed correctly
	Mistakes int  // Wrong placements
	Bot      bool // Seeded bot rather than a real player
}

// Statistics accumulates daily results
type Statistics struct {
	Players int
	Bots    int
	Sum     float64
	Sum2    float64   // Sum of squares for variance calculation
	Values  []float64 // Correct counts, kept for median/percentile

	// Perfect counts results without a single mistake
	Perfect int
	// Mistakes[i] counts results with exactly i mistakes
	Mistakes [MaxMistakes + 1]int
}

// Add incorporates a result
func (s *Statistics) Add(r Result) {
	correct := float64(r.Correct)
	s.Players++
	if r.Bot {
		s.Bots++
	}
	s.Sum += correct
	s.Sum2 += correct * correct
	s.Values = append(s.Values, correct)

	mistakes := min(max(r.Mistakes, 0), MaxMistakes)
	if mistakes == 0 {
		s.Perfect++
	}
	s.Mistakes[mistakes]++
}

// Mean returns the average number of correct placements
func (s *Statistics) Mean() float64 {
	if s.Players == 0 {
		return 0
	}
	return s.Sum / float64(s.Players)
}

// Variance returns the sample variance of the correct counts
func (s *Statistics) Variance() float64 {
	if s.Players < 2 {
		return 0
	}
	mean := s.Mean()
	// Rounding can leave a tiny negative value for identical results.
	return max(0, (s.Sum2-float64(s.Players)*mean*mean)/float64(s.Players-1))
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// Median returns the median correct count
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the interpolated correct count at p (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the counters agree with each other
func (s *Statistics) Validate() error {
	if len(s.Values) != s.Players {
		return fmt.Errorf("values length (%d) does not match players (%d)", len(s.Values), s.Players)
	}
	if s.Bots > s.Players {
		return fmt.Errorf("bots (%d) exceed players (%d)", s.Bots, s.Players)
	}
	total := 0
	for _, n := range s.Mistakes {
		total += n
	}
	if total != s.Players {
		return fmt.Errorf("mistake histogram total (%d) does not match players (%d)", total, s.Players)
	}
	if s.Perfect != s.Mistakes[0] {
		return fmt.Errorf("perfect (%d) does not match zero-mistake results (%d)", s.Perfect, s.Mistakes[0])
	}
	return nil
}

// Summary is the wire form of a day's statistics
type Summary struct {
	Date          string  `json:"date"`
	Players       int     `json:"players"`
	Bots          int     `json:"bots"`
	MeanCorrect   float64 `json:"meanCorrect"`
	MedianCorrect float64 `json:"medianCorrect"`
	StdDev        float64 `json:"stdDev"`
	TopDecile     float64 `json:"topDecile"`
	Perfect       int     `json:"perfect"`
	Mistakes      []int   `json:"mistakes"`
}

// Summary rounds the statistics to two decimals for display.
func (s *Statistics) Summary(date string) Summary {
	return Summary{
		Date:          date,
		Players:       s.Players,
		Bots:          s.Bots,
		MeanCorrect:   round2(s.Mean()),
		MedianCorrect: round2(s.Median()),
		StdDev:        round2(s.StdDev()),
		TopDecile:     round2(s.Percentile(0.9)),
		Perfect:       s.Perfect,
		Mistakes:      append([]int(nil), s.Mistakes[:]...),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
