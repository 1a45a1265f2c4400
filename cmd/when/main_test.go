package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/progress"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("when"), kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseCommands(t *testing.T) {
	_, ctx := parse(t, "theme", "2024-02-29", "-n", "3")
	assert.Equal(t, "theme <date>", ctx.Command())

	cli, ctx := parse(t, "play", "--mode", "suddenDeath", "-p", "Ada", "-p", "Grace", "--hand", "4")
	assert.Equal(t, "play", ctx.Command())
	assert.Equal(t, []string{"Ada", "Grace"}, cli.Play.Players)

	cli, _ = parse(t, "--log-format", "json", "--debug", "bots")
	assert.Equal(t, "json", cli.LogFormat)
	assert.True(t, cli.Debug)
}

func TestResolveDate(t *testing.T) {
	d, err := resolveDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d)

	_, err = resolveDate("2023-02-29")
	assert.Error(t, err)

	d, err = resolveDate("")
	require.NoError(t, err)
	assert.Len(t, d, 10)
}

func TestPlayGameConfigFromFlags(t *testing.T) {
	cmd := PlayCmd{Mode: "suddenDeath", Players: []string{"Ada", "Grace"}, Hand: 4, Category: []string{"conflict"}}
	cfg, err := cmd.gameConfig()
	require.NoError(t, err)
	assert.Equal(t, game.ModeSuddenDeath, cfg.Mode)
	assert.Equal(t, 4, cfg.EffectiveHandSize())
	assert.Equal(t, 2, cfg.PlayerCount)
	assert.Equal(t, []event.Category{event.Conflict}, cfg.Categories)

	cmd = PlayCmd{Mode: "freeplay", Era: []string{"bronzeAge"}}
	_, err = cmd.gameConfig()
	assert.Error(t, err)
}

func TestPlayGameConfigDaily(t *testing.T) {
	cfg, err := (&PlayCmd{Mode: "daily"}).gameConfig()
	require.NoError(t, err)
	assert.Equal(t, game.ModeDaily, cfg.Mode)
	assert.NotEmpty(t, cfg.DailySeed)
}

func TestPlayGameConfigPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "when.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
preset "duel" {
  mode    = "suddenDeath"
  players = ["Ada", "Grace"]
}
`), 0o600))

	cfg, err := (&PlayCmd{Preset: "duel", Config: path}).gameConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace"}, cfg.PlayerNames)

	_, err = (&PlayCmd{Preset: "missing", Config: path}).gameConfig()
	assert.ErrorContains(t, err, "unknown preset")
}

func TestOpenProgress(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"progress.json", "progress.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			store, closeStore, err := openProgress(ctx, path)
			require.NoError(t, err)
			require.NoError(t, progress.New(store, nil).SaveDisplayName(ctx, "Ada"))
			closeStore()

			store, closeStore, err = openProgress(ctx, path)
			require.NoError(t, err)
			defer closeStore()
			name, err := progress.New(store, nil).DisplayName(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Ada", name)
		})
	}
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	g := Globals{LogFormat: "json", LogLevel: "warn"}
	logger := g.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	g = Globals{LogFormat: "logfmt", Debug: true}
	g.Logger(&buf).Debug("detail", "k", "v")
	assert.Contains(t, buf.String(), "msg=detail")
}
