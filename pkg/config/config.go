// Package config loads jambu settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/japaniel/jambu/pkg/query"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.jambu/config.yaml"

// RefreshMode selects how the result list follows a query change.
type RefreshMode string

const (
	// RefreshPartial pushes history and splices the fetched regions.
	RefreshPartial RefreshMode = "partial"
	// RefreshFull navigates to the new URL and replaces the whole page.
	RefreshFull RefreshMode = "full"
)

// CommitTrigger selects when a text input's value is committed.
type CommitTrigger string

const (
	// CommitDebounce commits after a quiet period following the last keystroke.
	CommitDebounce CommitTrigger = "debounce"
	// CommitBlurOrEnter commits when the input loses focus or enter is pressed.
	CommitBlurOrEnter CommitTrigger = "blur-or-enter"
)

// Duration is a time.Duration written as "300ms" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds every setting.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	Fields           []string      `yaml:"fields"`
	RefreshMode      RefreshMode   `yaml:"refresh_mode"`
	CommitTrigger    CommitTrigger `yaml:"commit_trigger"`
	QuietPeriod      Duration      `yaml:"quiet_period"`
	PaletteHideDelay Duration      `yaml:"palette_hide_delay"`
	Palette          []string      `yaml:"palette"`
	UserAgent        string        `yaml:"user_agent"`
	HTTPTimeout      Duration      `yaml:"http_timeout"`
	Workers          int           `yaml:"workers"`
	HistoryDB        string        `yaml:"history_db"`
	LogFile          string        `yaml:"log_file"`
}

// DefaultPalette holds the special characters offered below text inputs.
var DefaultPalette = []string{"ṭ", "ḍ", "ṣ", "ṛ", "r̩", "ṁ", "ʰ"}

// Default returns the built-in settings.
func Default() Config {
	fields := make([]string, 0, len(query.AllFields()))
	for _, f := range query.AllFields() {
		fields = append(fields, string(f))
	}
	return Config{
		BaseURL:          "http://localhost:2222/entries",
		Fields:           fields,
		RefreshMode:      RefreshPartial,
		CommitTrigger:    CommitDebounce,
		QuietPeriod:      Duration(300 * time.Millisecond),
		PaletteHideDelay: Duration(300 * time.Millisecond),
		Palette:          append([]string(nil), DefaultPalette...),
		HTTPTimeout:      Duration(30 * time.Second),
		Workers:          2,
		HistoryDB:        "~/.jambu/history.db",
		LogFile:          "~/.jambu/jambu.log",
	}
}

// Load reads the YAML file at path over the defaults. An empty path means
// DefaultPath; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("expand %s: %w", path, err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", p, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if _, err := c.FilterFields(); err != nil {
		return err
	}
	switch c.RefreshMode {
	case RefreshPartial, RefreshFull:
	default:
		return fmt.Errorf("refresh_mode: unknown mode %q", c.RefreshMode)
	}
	switch c.CommitTrigger {
	case CommitDebounce, CommitBlurOrEnter:
	default:
		return fmt.Errorf("commit_trigger: unknown trigger %q", c.CommitTrigger)
	}
	if c.QuietPeriod < 0 || c.PaletteHideDelay < 0 || c.HTTPTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: %d is negative", c.Workers)
	}
	return nil
}

// FilterFields parses Fields.
func (c Config) FilterFields() ([]query.Field, error) {
	out := make([]query.Field, 0, len(c.Fields))
	for _, name := range c.Fields {
		f, err := query.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("fields: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}

// ExpandPath resolves a leading "~" and ensures the parent directory of
// the resulting file exists.
func ExpandPath(p string) (string, error) {
	if p == "" || p == ":memory:" {
		return p, nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	return out, nil
}
