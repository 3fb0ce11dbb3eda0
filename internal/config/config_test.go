package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.FirstPassage.Drift)
	assert.Nil(t, cfg.Engine.Seed)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigTables(t *testing.T) {
	path := writeConfig(t, `
[first-passage]
drift = -0.1
volatility = 1.5
barrier = 3.0
horizon = 5.0
step-size = 0.02
paths = 2000

[arcsine]
paths = 8000
step-size = 0.002
bins = 50

[engine]
seed = 42
workers = 4

[logging]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.FirstPassage.Drift)
	assert.Equal(t, -0.1, *cfg.FirstPassage.Drift)
	assert.Equal(t, 1.5, *cfg.FirstPassage.Volatility)
	assert.Equal(t, 3.0, *cfg.FirstPassage.Barrier)
	assert.Equal(t, 5.0, *cfg.FirstPassage.Horizon)
	assert.Equal(t, 0.02, *cfg.FirstPassage.StepSize)
	assert.Equal(t, 2000, *cfg.FirstPassage.Paths)
	assert.Equal(t, 8000, *cfg.Arcsine.Paths)
	assert.Nil(t, cfg.Arcsine.Horizon)
	assert.Equal(t, 50, *cfg.Arcsine.Bins)
	assert.Equal(t, uint64(42), *cfg.Engine.Seed)
	assert.Equal(t, 4, *cfg.Engine.Workers)
	assert.Equal(t, "debug", *cfg.Logging.Level)
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[first-passage]\nbarier = 2.0\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "barier")
}

func TestLoadConfigRejectsBadSyntax(t *testing.T) {
	path := writeConfig(t, "[first-passage\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to decode config")
}

func TestValidate(t *testing.T) {
	neg := -1.0
	zero := 0
	level := "chatty"
	workers := -2
	cfg := FileConfig{
		FirstPassage: FirstPassageConfig{Volatility: &neg, Paths: &zero},
		Arcsine:      ArcsineConfig{Bins: &zero},
		Engine:       EngineConfig{Workers: &workers},
		Logging:      LoggingConfig{Level: &level},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"first-passage.volatility", "first-passage.paths", "arcsine.bins", "engine.workers", "logging.level"} {
		assert.Contains(t, err.Error(), key)
	}
	assert.NoError(t, FileConfig{}.Validate())
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/cfg", "brownian", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/data", "brownian", "presets.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/tmp/data", "brownian"), DefaultDataDir())
}
