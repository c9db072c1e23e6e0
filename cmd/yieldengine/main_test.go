package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/yieldengine/pkg/errors"
	"github.com/YuminosukeSato/yieldengine/pkg/log"
	"github.com/YuminosukeSato/yieldengine/report"
)

const testConfig = `
models:
  - estimator: ridge
    grid:
      alpha: [0.01, 100]
  - estimator: linear_regression
cv:
  n_splits: 4
  shuffle: true
  seed: 3
scoring: r2
preprocessing:
  - name: scale
    transformer: standard_scaler
`

// writeFixtures は設定と y = 2a - b + 1 の CSV を書き出す
func writeFixtures(t *testing.T, cfg string) (configPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "zoo.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	var b strings.Builder
	b.WriteString("id,a,b,y\n")
	for i := 0; i < 24; i++ {
		a, bv := float64(i), float64((i*7)%5)
		fmt.Fprintf(&b, "r%d,%g,%g,%g\n", i, a, bv, 2*a-bv+1)
	}
	dataPath = filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(b.String()), 0o600))
	return configPath, dataPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { log.SetOutput(os.Stderr, log.LevelInfo) })

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRankCommand(t *testing.T) {
	configPath, dataPath := writeFixtures(t, testConfig)
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "ranking.png")
	snapPath := filepath.Join(dir, "ranking.snap")
	metricsPath := filepath.Join(dir, "metrics.prom")

	out, err := runCommand(t, "rank",
		"--config", configPath,
		"--data", dataPath,
		"--target", "y",
		"--index-column", "id",
		"--format", "json",
		"--plot", plotPath,
		"--snapshot", snapPath,
		"--metrics", metricsPath,
	)
	require.NoError(t, err)

	var records []report.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, "Ridge", records[2].Model)
	assert.Equal(t, 100.0, records[2].Params["alpha"])

	assert.FileExists(t, plotPath)
	snap, err := report.LoadSnapshotFile(snapPath)
	require.NoError(t, err)
	require.Len(t, snap.Records, len(records))
	for i, r := range snap.Records {
		assert.Equal(t, records[i].Model, r.Model)
		assert.Equal(t, records[i].Score, r.Score)
	}

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "yieldengine_search_trials_total")
}

func TestRankCommandTable(t *testing.T) {
	cfg := testConfig + "data:\n  target: y\n  index_column: id\noutput:\n  limit: 2\n"
	configPath, dataPath := writeFixtures(t, cfg)

	out, err := runCommand(t, "rank", "-c", configPath, "-d", dataPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
}

func TestRankCommandErrors(t *testing.T) {
	configPath, dataPath := writeFixtures(t, testConfig)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"missing target", []string{"rank", "-c", configPath, "-d", dataPath}, ExitConfigError},
		{"missing data", []string{"rank", "-c", configPath, "-t", "y"}, ExitConfigError},
		{"bad format", []string{"rank", "-c", configPath, "-d", dataPath, "-t", "y", "-f", "xml"}, ExitConfigError},
		{"unknown target", []string{"rank", "-c", configPath, "-d", dataPath, "-t", "z", "--index-column", "id"}, ExitConfigError},
		{"missing file", []string{"rank", "-c", configPath, "-d", dataPath + ".gone", "-t", "y"}, ExitError},
		{"non-numeric column", []string{"rank", "-c", configPath, "-d", dataPath, "-t", "y"}, ExitError},
		{"bad log level", []string{"rank", "-c", configPath, "--log-level", "loud"}, ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCode(err), err.Error())
		})
	}
}

func TestValidateCommand(t *testing.T) {
	configPath, _ := writeFixtures(t, testConfig)
	out, err := runCommand(t, "validate", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 model(s), 3 configuration(s), 4-fold CV")
	assert.Contains(t, out, "models: Ridge, LinearRegression")

	badPath, _ := writeFixtures(t, "models:\n  - estimator: forest\ncv:\n  n_splits: 1\n")
	out, err = runCommand(t, "validate", "--config", badPath)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
	assert.Contains(t, out, "/models/0/estimator")
	assert.Contains(t, out, "/cv/n_splits")

	gridPath, _ := writeFixtures(t, "models:\n  - estimator: ridge\n    grid:\n      solver: [qr]\n")
	_, err = runCommand(t, "validate", "--config", gridPath)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, exitCode(errors.NewConfigurationError("op", "", -1, "bad")))
	assert.Equal(t, ExitConfigError, exitCode(errors.Wrap(errors.NewValidationError("x", "bad", 1), "ctx")))
}
