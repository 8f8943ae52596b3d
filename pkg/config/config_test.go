package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/jambu/pkg/query"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 300*time.Millisecond, time.Duration(cfg.QuietPeriod))
	fields, err := cfg.FilterFields()
	require.NoError(t, err)
	assert.Equal(t, query.AllFields(), fields)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
base_url: https://jambu.example/entries
fields: [lang, gloss, origin_lang]
refresh_mode: full
commit_trigger: blur-or-enter
quiet_period: 150ms
palette: ["ā", "ī"]
workers: 4
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://jambu.example/entries", cfg.BaseURL)
	assert.Equal(t, RefreshFull, cfg.RefreshMode)
	assert.Equal(t, CommitBlurOrEnter, cfg.CommitTrigger)
	assert.Equal(t, 150*time.Millisecond, time.Duration(cfg.QuietPeriod))
	assert.Equal(t, 300*time.Millisecond, time.Duration(cfg.PaletteHideDelay), "unset keys keep defaults")
	assert.Equal(t, []string{"ā", "ī"}, cfg.Palette)

	fields, err := cfg.FilterFields()
	require.NoError(t, err)
	assert.Equal(t, []query.Field{query.Lang, query.Gloss, query.OriginLang}, fields)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"field":    "fields: [colour]\n",
		"mode":     "refresh_mode: sideways\n",
		"trigger":  "commit_trigger: never\n",
		"duration": "quiet_period: soon\n",
		"url":      "base_url: not a url\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestExpandPathCreatesParent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	p, err := ExpandPath(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.db"), p)
	assert.DirExists(t, dir)

	p, err = ExpandPath(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", p)
}
