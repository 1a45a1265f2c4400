package event

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/charmbracelet/log"
)

// ManifestFile is the name of the manifest at the root of an event source.
const ManifestFile = "manifest.json"

// Manifest lists the content files of an event source grouped by category.
type Manifest struct {
	Categories []ManifestCategory `json:"categories"`
}

// ManifestCategory is one category entry of the manifest.
type ManifestCategory struct {
	Name  Category `json:"name"`
	Files []string `json:"files"`
}

// Repository is a read-only, deduplicated pool of events.
type Repository struct {
	events []Event
	byName map[string]int
}

// NewRepository builds a repository from events, keeping the first
// occurrence of each name.
func NewRepository(events []Event) *Repository {
	r := &Repository{
		events: make([]Event, 0, len(events)),
		byName: make(map[string]int, len(events)),
	}
	for _, e := range events {
		if _, seen := r.byName[e.Name]; seen {
			continue
		}
		r.byName[e.Name] = len(r.events)
		r.events = append(r.events, e)
	}
	return r
}

// Load reads the manifest and every listed file from fsys. A missing or
// malformed manifest is an error; individual content files that fail to load
// are logged and skipped.
func Load(fsys fs.FS, logger *log.Logger) (*Repository, error) {
	logger = logger.WithPrefix("events")

	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("reading events manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding events manifest: %w", err)
	}

	var all []Event
	for _, category := range manifest.Categories {
		for _, file := range category.Files {
			events, err := loadFile(fsys, file)
			if err != nil {
				logger.Warn("Failed to load event file", "file", file, "category", category.Name, "error", err)
				continue
			}
			all = append(all, events...)
		}
	}

	repo := NewRepository(all)
	logger.Info("Loaded events", "unique", repo.Len(), "total", len(all))
	return repo, nil
}

func loadFile(fsys fs.FS, name string) ([]Event, error) {
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return events, nil
}

// All returns a copy of every event in load order.
func (r *Repository) All() []Event {
	return slices.Clone(r.events)
}

// Len returns the number of unique events.
func (r *Repository) Len() int {
	return len(r.events)
}

// Lookup finds an event by its unique name.
func (r *Repository) Lookup(name string) (Event, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Event{}, false
	}
	return r.events[i], true
}

// Filter selects events matching every non-empty criterion. An empty
// selection for a dimension means "no restriction" on it.
type Filter struct {
	Difficulties []Difficulty
	Categories   []Category
	Eras         []Era
}

// Apply runs all three filters over events.
func (f Filter) Apply(events []Event) []Event {
	out := FilterByDifficulty(events, f.Difficulties)
	out = FilterByCategory(out, f.Categories)
	return FilterByEra(out, f.Eras)
}

// FilterByDifficulty keeps events whose difficulty is selected.
func FilterByDifficulty(events []Event, difficulties []Difficulty) []Event {
	if len(difficulties) == 0 {
		return slices.Clone(events)
	}
	return filter(events, func(e Event) bool { return slices.Contains(difficulties, e.Difficulty) })
}

// FilterByCategory keeps events whose category is selected.
func FilterByCategory(events []Event, categories []Category) []Event {
	if len(categories) == 0 {
		return slices.Clone(events)
	}
	return filter(events, func(e Event) bool { return slices.Contains(categories, e.Category) })
}

// FilterByEra keeps events whose year falls in any selected era.
func FilterByEra(events []Event, eras []Era) []Event {
	if len(eras) == 0 {
		return slices.Clone(events)
	}
	return filter(events, func(e Event) bool {
		for _, era := range eras {
			if era.Definition().Contains(e.Year) {
				return true
			}
		}
		return false
	})
}

func filter(events []Event, keep func(Event) bool) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
