package event

import (
	"io"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"manifest.json": {Data: []byte(`{"categories":[
			{"name":"conflict","files":["conflict.json","missing.json"]},
			{"name":"exploration","files":["exploration.json","broken.json"]}
		]}`)},
		"conflict.json": {Data: []byte(`[
			{"name":"wwi-end","friendly_name":"World War I Ends","year":1918,"category":"conflict","description":"","difficulty":"easy"},
			{"name":"hastings","friendly_name":"Battle of Hastings","year":1066,"category":"conflict","description":"","difficulty":"medium"}
		]`)},
		"exploration.json": {Data: []byte(`[
			{"name":"moon-landing","friendly_name":"Moon Landing","year":1969,"category":"exploration","description":"","difficulty":"easy"},
			{"name":"wwi-end","friendly_name":"Duplicate","year":1,"category":"exploration","description":"","difficulty":"hard"}
		]`)},
		"broken.json": {Data: []byte(`not json`)},
	}

	repo, err := Load(fsys, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.Len())

	e, ok := repo.Lookup("wwi-end")
	require.True(t, ok)
	assert.Equal(t, "World War I Ends", e.FriendlyName, "first occurrence wins")

	_, ok = repo.Lookup("nope")
	assert.False(t, ok)
}

func TestLoadWithoutManifest(t *testing.T) {
	_, err := Load(fstest.MapFS{}, quietLogger())
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	events := []Event{
		{Name: "a", Year: -500, Category: Conflict, Difficulty: Easy},
		{Name: "b", Year: 1066, Category: Conflict, Difficulty: Hard},
		{Name: "c", Year: 1969, Category: Exploration, Difficulty: Easy},
		{Name: "d", Year: 2001, Category: Disasters, Difficulty: Medium},
	}

	names := func(es []Event) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a", "c"}, names(FilterByDifficulty(events, []Difficulty{Easy})))
	assert.Equal(t, []string{"a", "b"}, names(FilterByCategory(events, []Category{Conflict})))
	assert.Equal(t, []string{"c", "d"}, names(FilterByEra(events, []Era{ColdWar, Modern})))
	assert.Len(t, FilterByEra(events, nil), 4, "empty selection keeps everything")

	f := Filter{Difficulties: []Difficulty{Easy}, Categories: []Category{Conflict, Exploration}, Eras: []Era{Ancient}}
	assert.Equal(t, []string{"a"}, names(f.Apply(events)))
}
