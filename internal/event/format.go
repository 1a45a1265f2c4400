package event

import (
	"fmt"
	"strconv"
)

// FormatYear renders a year for display. Negative years are BCE; very old
// years collapse to millions or billions.
func FormatYear(year int64) string {
	if year >= 0 {
		return strconv.FormatInt(year, 10)
	}

	abs := -year
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1f billion BCE", float64(abs)/1e9)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.0f million BCE", float64(abs)/1e6)
	case abs >= 1000:
		return groupThousands(abs) + " BCE"
	default:
		return fmt.Sprintf("%d BCE", abs)
	}
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
