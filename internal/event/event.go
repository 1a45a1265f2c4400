package event

import (
	"fmt"
)

// Category is the thematic category of an event.
//
// The declaration order is part of the daily-theme contract: the daily
// selector indexes AllCategories followed by AllEras, so reordering or
// inserting values changes the theme served for past and future dates.
type Category int

const (
	Conflict Category = iota
	Disasters
	Exploration
	Cultural
	Infrastructure
	Diplomatic
)

// AllCategories lists every category in declaration order.
var AllCategories = []Category{Conflict, Disasters, Exploration, Cultural, Infrastructure, Diplomatic}

// String returns the wire name of the category (e.g. "conflict")
func (c Category) String() string {
	switch c {
	case Conflict:
		return "conflict"
	case Disasters:
		return "disasters"
	case Exploration:
		return "exploration"
	case Cultural:
		return "cultural"
	case Infrastructure:
		return "infrastructure"
	case Diplomatic:
		return "diplomatic"
	default:
		return "?"
	}
}

// DisplayName returns the human readable name (e.g. "Conflict")
func (c Category) DisplayName() string {
	switch c {
	case Conflict:
		return "Conflict"
	case Disasters:
		return "Disasters"
	case Exploration:
		return "Exploration"
	case Cultural:
		return "Cultural"
	case Infrastructure:
		return "Infrastructure"
	case Diplomatic:
		return "Diplomatic"
	default:
		return c.String()
	}
}

// ParseCategory parses a wire name into a Category
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid category: %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if c < Conflict || c > Diplomatic {
		return nil, fmt.Errorf("invalid category: %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Difficulty grades how well known an event is.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// AllDifficulties lists every difficulty in declaration order.
var AllDifficulties = []Difficulty{Easy, Medium, Hard}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "?"
	}
}

// ParseDifficulty parses a wire name into a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range AllDifficulties {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid difficulty: %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if d < Easy || d > Hard {
		return nil, fmt.Errorf("invalid difficulty: %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Event is a single historical event card. Events are immutable once loaded;
// the game only ever copies them between the deck, hands and the timeline.
type Event struct {
	Name         string     `json:"name"`
	FriendlyName string     `json:"friendly_name"`
	Year         int64      `json:"year"`
	Category     Category   `json:"category"`
	Description  string     `json:"description"`
	Difficulty   Difficulty `json:"difficulty"`
	ImageURL     string     `json:"image_url,omitempty"`
}

// String returns the display name with its formatted year, e.g. "Moon Landing (1969)"
func (e Event) String() string {
	return fmt.Sprintf("%s (%s)", e.FriendlyName, FormatYear(e.Year))
}

// Era returns the era the event's year falls in.
func (e Event) Era() (Era, bool) {
	return EraOf(e.Year)
}
