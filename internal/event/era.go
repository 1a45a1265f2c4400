package event

import "fmt"

// Era is a named, non-overlapping range of years.
//
// As with Category, the declaration order feeds the daily theme selection
// and must stay stable.
type Era int

const (
	Prehistory Era = iota
	Ancient
	Medieval
	EarlyModern
	Industrial
	WorldWars
	ColdWar
	Modern
)

// AllEras lists every era in chronological (and declaration) order.
var AllEras = []Era{Prehistory, Ancient, Medieval, EarlyModern, Industrial, WorldWars, ColdWar, Modern}

// EraDefinition describes the inclusive year range of an era.
type EraDefinition struct {
	Era       Era
	Name      string
	StartYear int64
	EndYear   int64
}

// Contains reports whether year falls inside the era (inclusive).
func (d EraDefinition) Contains(year int64) bool {
	return year >= d.StartYear && year <= d.EndYear
}

var eraDefinitions = []EraDefinition{
	{Era: Prehistory, Name: "Prehistory", StartYear: -4_500_000_000, EndYear: -3001},
	{Era: Ancient, Name: "Ancient", StartYear: -3000, EndYear: 499},
	{Era: Medieval, Name: "Medieval", StartYear: 500, EndYear: 1499},
	{Era: EarlyModern, Name: "Renaissance", StartYear: 1500, EndYear: 1759},
	{Era: Industrial, Name: "Industrial", StartYear: 1760, EndYear: 1913},
	{Era: WorldWars, Name: "World Wars", StartYear: 1914, EndYear: 1945},
	{Era: ColdWar, Name: "Cold War", StartYear: 1946, EndYear: 1991},
	{Era: Modern, Name: "Modern", StartYear: 1992, EndYear: 2100},
}

// EraDefinitions returns a copy of the era table.
func EraDefinitions() []EraDefinition {
	out := make([]EraDefinition, len(eraDefinitions))
	copy(out, eraDefinitions)
	return out
}

// Definition returns the definition for era.
func (e Era) Definition() EraDefinition {
	if e < Prehistory || e > Modern {
		return EraDefinition{Era: e, Name: "?"}
	}
	return eraDefinitions[e]
}

// EraOf returns the era containing year. Years outside every range (beyond
// 2100) report false.
func EraOf(year int64) (Era, bool) {
	for _, def := range eraDefinitions {
		if def.Contains(year) {
			return def.Era, true
		}
	}
	return 0, false
}

func (e Era) String() string {
	switch e {
	case Prehistory:
		return "prehistory"
	case Ancient:
		return "ancient"
	case Medieval:
		return "medieval"
	case EarlyModern:
		return "earlyModern"
	case Industrial:
		return "industrial"
	case WorldWars:
		return "worldWars"
	case ColdWar:
		return "coldWar"
	case Modern:
		return "modern"
	default:
		return "?"
	}
}

// DisplayName returns the era's human readable name (e.g. "Renaissance")
func (e Era) DisplayName() string {
	return e.Definition().Name
}

// ParseEra parses a wire name into an Era
func ParseEra(s string) (Era, error) {
	for _, e := range AllEras {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("invalid era: %q", s)
}

func (e Era) MarshalText() ([]byte, error) {
	if e < Prehistory || e > Modern {
		return nil, fmt.Errorf("invalid era: %d", int(e))
	}
	return []byte(e.String()), nil
}

func (e *Era) UnmarshalText(text []byte) error {
	parsed, err := ParseEra(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
