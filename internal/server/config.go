package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
)

// Config represents the complete configuration file
type Config struct {
	Server  *Settings `hcl:"server,block"`
	Presets []Preset `hcl:"preset,block"`
}

// Settings contains server-level configuration
type Settings struct {
	Address        string   `hcl:"address,optional"`
	Port           int      `hcl:"port,optional"`
	RedisURL       string   `hcl:"redis_url,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	EventsDir      string   `hcl:"events_dir,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

// Preset is a named game setup for `when play --preset`
type Preset struct {
	Name         string   `hcl:"name,label"`
	Mode         string   `hcl:"mode,optional"`
	HandSize     int      `hcl:"hand_size,optional"`
	Players      []string `hcl:"players,optional"`
	Difficulties []string `hcl:"difficulties,optional"`
	Categories   []string `hcl:"categories,optional"`
	Eras         []string `hcl:"eras,optional"`
}

// Env holds environment overrides, applied on top of the file
type Env struct {
	Addr      string `env:"WHEN_ADDR"`
	RedisURL  string `env:"WHEN_REDIS_URL"`
	LogLevel  string `env:"WHEN_LOG_LEVEL"`
	EventsDir string `env:"WHEN_EVENTS_DIR"`
}

const (
	defaultAddress  = "localhost"
	defaultPort     = 8080
	defaultRedisURL = "redis://localhost:6379/0"
	defaultLogLevel = "info"
	defaultEvents   = "events"
)

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &Settings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.RedisURL == "" {
		c.Server.RedisURL = defaultRedisURL
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.EventsDir == "" {
		c.Server.EventsDir = defaultEvents
	}
	for i := range c.Presets {
		if c.Presets[i].Mode == "" {
			c.Presets[i].Mode = game.ModeFreeplay.String()
		}
	}
}

// ApplyEnv overrides file settings with any WHEN_* variables that are set.
func (c *Config) ApplyEnv() error {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	c.applyOverrides(e)
	return nil
}

func (c *Config) applyOverrides(e Env) {
	if e.Addr != "" {
		c.Server.Address = e.Addr
		c.Server.Port = 0
	}
	if e.RedisURL != "" {
		c.Server.RedisURL = e.RedisURL
	}
	if e.LogLevel != "" {
		c.Server.LogLevel = e.LogLevel
	}
	if e.EventsDir != "" {
		c.Server.EventsDir = e.EventsDir
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	seen := make(map[string]bool)
	for _, p := range c.Presets {
		if seen[p.Name] {
			return fmt.Errorf("preset %s: defined more than once", p.Name)
		}
		seen[p.Name] = true
		if _, err := p.GameConfig(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}

// Addr returns the listen address. WHEN_ADDR replaces address and port
// together.
func (c *Config) Addr() string {
	if c.Server.Port == 0 {
		return c.Server.Address
	}
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Preset returns a preset by name
func (c *Config) Preset(name string) (*Preset, bool) {
	for i := range c.Presets {
		if c.Presets[i].Name == name {
			return &c.Presets[i], true
		}
	}
	return nil, false
}

// GameConfig converts the preset into an engine configuration.
func (p Preset) GameConfig() (game.Config, error) {
	mode, err := game.ParseMode(p.Mode)
	if err != nil {
		return game.Config{}, err
	}
	if mode == game.ModeDaily {
		return game.Config{}, fmt.Errorf("daily games cannot be preset")
	}
	if p.HandSize < 0 {
		return game.Config{}, fmt.Errorf("hand size must not be negative")
	}

	cfg := game.Config{
		Mode:        mode,
		PlayerNames: p.Players,
		PlayerCount: len(p.Players),
	}
	if mode == game.ModeSuddenDeath {
		cfg.SuddenDeathHandSize = p.HandSize
	} else {
		cfg.HandSize = p.HandSize
	}

	if cfg.Difficulties, err = parseAll(p.Difficulties, event.ParseDifficulty); err != nil {
		return game.Config{}, err
	}
	if cfg.Categories, err = parseAll(p.Categories, event.ParseCategory); err != nil {
		return game.Config{}, err
	}
	if cfg.Eras, err = parseAll(p.Eras, event.ParseEra); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}

func parseAll[T any](names []string, parse func(string) (T, error)) ([]T, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(names))
	for _, n := range names {
		v, err := parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
