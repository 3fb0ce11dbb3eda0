package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/brownian/internal/config"
	"github.com/verte-zerg/brownian/internal/model"
)

// isolateXDG points the config and data directories at a temp dir so tests
// never touch the real preset database or config file.
func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeUserConfig(t *testing.T, body string) {
	t.Helper()
	path := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

var smallPassage = []string{"--horizon", "1", "--step-size", "0.01", "--paths", "40"}

func TestPassageJSON(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, append([]string{"passage", "--seed", "3", "--format", "json"}, smallPassage...)...)
	require.NoError(t, err)

	var report passageReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, uint64(3), report.Seed)
	assert.Equal(t, 40, report.Result.PathCount)
	assert.Equal(t, 100, report.Result.StepCount)
	assert.Equal(t, defaultBarrier, report.Config.Barrier)
	assert.Len(t, report.Result.SamplePaths, 10)
}

func TestPassageSeedReproducible(t *testing.T) {
	isolateXDG(t)
	args := append([]string{"passage", "--seed", "9", "--format", "json"}, smallPassage...)
	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPassageText(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, append([]string{"passage", "--seed", "5"}, smallPassage...)...)
	require.NoError(t, err)
	for _, want := range []string{"First Passage", "Empirical", "Theoretical", "Sample Paths", "Seed 5"} {
		assert.Contains(t, out, want)
	}
}

func TestPassageRejectsInvalidConfig(t *testing.T) {
	isolateXDG(t)
	_, err := execute(t, "passage", "--volatility", "0", "--paths", "10")
	assert.ErrorContains(t, err, "volatility")
	_, err = execute(t, "passage", "--format", "xml")
	assert.ErrorContains(t, err, "--format")
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	isolateXDG(t)
	writeUserConfig(t, `
[first-passage]
horizon = 1.0
paths = 25
barrier = 0.5

[engine]
seed = 77
`)
	out, err := execute(t, "passage", "--format", "json")
	require.NoError(t, err)
	var report passageReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 25, report.Result.PathCount)
	assert.Equal(t, 0.5, report.Config.Barrier)
	assert.Equal(t, uint64(77), report.Seed)

	out, err = execute(t, "passage", "--format", "json", "--paths", "12", "--seed", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 12, report.Result.PathCount)
	assert.Equal(t, 0.5, report.Config.Barrier)
	assert.Equal(t, uint64(1), report.Seed)
}

func TestInvalidConfigFile(t *testing.T) {
	isolateXDG(t)
	writeUserConfig(t, "[first-passage]\nvolatility = -2.0\n")
	_, err := execute(t, "passage")
	assert.ErrorContains(t, err, "first-passage.volatility")
}

func TestArcsineYAML(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "arcsine", "--seed", "4", "--format", "yaml",
		"--paths", "200", "--step-size", "0.01", "--bins", "8", "--stat", "last-zero,max-time")
	require.NoError(t, err)

	var report arcsineReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, uint64(4), report.Seed)
	require.Len(t, report.Statistics, 2)
	assert.Equal(t, model.StatLastZero, report.Statistics[0].Name)
	assert.Equal(t, model.StatMaxTime, report.Statistics[1].Name)
	assert.Len(t, report.Statistics[0].Histogram, 8)
}

func TestArcsineText(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "arcsine", "--seed", "4", "--paths", "100", "--step-size", "0.01",
		"--bins", "5", "--stat", "occupation", "--table")
	require.NoError(t, err)
	assert.Contains(t, out, "Arcsine Laws (seed 4)")
	assert.Contains(t, out, "Occupation Time Above Zero")
	assert.Contains(t, out, "Midpoint")
	assert.NotContains(t, out, "Last Zero-Crossing Time")
}

func TestArcsineRejectsFlags(t *testing.T) {
	isolateXDG(t)
	_, err := execute(t, "arcsine", "--stat", "median", "--paths", "10")
	assert.ErrorContains(t, err, "--stat")
	_, err = execute(t, "arcsine", "--bins", "0", "--paths", "10")
	assert.ErrorContains(t, err, "--bins")
}

func TestCDF(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "cdf", "0")
	require.NoError(t, err)
	assert.Equal(t, "Φ(0) = 0.500000\n", out)

	out, err = execute(t, "--format", "json", "cdf", "--", "-1.96")
	require.NoError(t, err)
	var report cdfReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, -1.96, report.X)
	assert.InDelta(t, 0.025, report.Probability, 1e-3)

	_, err = execute(t, "cdf", "abc")
	assert.Error(t, err)
}

func TestPresetLifecycle(t *testing.T) {
	dir := isolateXDG(t)
	db := filepath.Join(dir, "presets.db")

	out, err := execute(t, "preset", "save", "quick", "--db", db, "--barrier", "0.75", "--horizon", "1", "--paths", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved preset "quick"`)

	out, err = execute(t, "preset", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "0.75")

	out, err = execute(t, "preset", "show", "quick", "--db", db, "--format", "json")
	require.NoError(t, err)
	var preset model.Preset
	require.NoError(t, json.Unmarshal([]byte(out), &preset))
	assert.Equal(t, 0.75, preset.Config.Barrier)
	assert.Equal(t, 30, preset.Config.PathCount)

	out, err = execute(t, "passage", "--preset", "quick", "--db", db, "--paths", "15", "--seed", "2", "--format", "json")
	require.NoError(t, err)
	var report passageReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0.75, report.Config.Barrier)
	assert.Equal(t, 1.0, report.Config.Horizon)
	assert.Equal(t, 15, report.Result.PathCount)

	_, err = execute(t, "preset", "delete", "quick", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "preset", "show", "quick", "--db", db)
	assert.ErrorContains(t, err, "not found")

	out, err = execute(t, "preset", "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestPresetSaveRejectsInvalidConfig(t *testing.T) {
	dir := isolateXDG(t)
	_, err := execute(t, "preset", "save", "bad", "--db", filepath.Join(dir, "p.db"), "--step-size", "20")
	assert.ErrorContains(t, err, "step_size")
}

func TestVersion(t *testing.T) {
	isolateXDG(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "brownian version dev"))
}

func TestDefaultConfigTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, ensureConfigFile(path))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Nil(t, cfg.FirstPassage.Drift)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, section := range []string{"[first-passage]", "[arcsine]", "[engine]", "[logging]"} {
		assert.Contains(t, string(body), section)
	}
	var lines []string
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	cfg, err = config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.NotNil(t, cfg.FirstPassage.Drift)
	assert.Equal(t, defaultDrift, *cfg.FirstPassage.Drift)
	assert.Equal(t, defaultArcsineStepSize, *cfg.Arcsine.StepSize)
	assert.Equal(t, defaultBins, *cfg.Arcsine.Bins)
}
