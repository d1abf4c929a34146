package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gradebook/internal/config"
	"github.com/verte-zerg/gradebook/internal/csvcodec"
)

const rosterText = "ID,Name,Regular,Midterm,Final\n" +
	"19001,John,94,78,89\n" +
	"19002,Alice,88,92,95\n" +
	"19003,Bob,70,65,80\n"

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "grades.csv")
	require.NoError(t, os.WriteFile(path, []byte(rosterText), 0o644))
	return path
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSortCommandDescending(t *testing.T) {
	path := setupEnv(t)
	out, err := runCLI(t, "sort", path, "--by", "final", "--desc")
	require.NoError(t, err)

	records, err := csvcodec.DecodeReader("stdout", strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Alice", "John", "Bob"}, []string{records[0].Name, records[1].Name, records[2].Name})
}

func TestSortCommandRejectsUnknownColumn(t *testing.T) {
	path := setupEnv(t)
	_, err := runCLI(t, "sort", path, "--by", "homework")
	assert.Error(t, err)
}

func TestTotalsCommandJournalsAndRestores(t *testing.T) {
	path := setupEnv(t)
	out := filepath.Join(filepath.Dir(path), "totals.csv")
	_, err := runCLI(t, "totals", path, "-o", out)
	require.NoError(t, err)

	records, err := csvcodec.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "87", records[0].Total)

	history, err := runCLI(t, "history", "--path", out)
	require.NoError(t, err)
	assert.Contains(t, history, out)
	assert.Contains(t, history, "0.1/0.2/0.7")

	restored, err := runCLI(t, "restore", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(restored, csvcodec.Header+"\n"), "unexpected restored roster:\n%s", restored)
	assert.Contains(t, restored, "19001,John,94,78,89,87")
}

func TestConfigWeightsApplyUnlessFlagsSet(t *testing.T) {
	path := setupEnv(t)
	writeConfig(t, "[weights]\nregular = 0.0\nmidterm = 0.0\nfinal = 1.0\n\n[history]\nenabled = false\n")

	out, err := runCLI(t, "totals", path)
	require.NoError(t, err)
	assert.Contains(t, out, "19001,John,94,78,89,89")

	out, err = runCLI(t, "totals", path, "--regular", "1", "--midterm", "0", "--final", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "19001,John,94,78,89,94")
}

func TestInvalidWeightsRejected(t *testing.T) {
	path := setupEnv(t)
	_, err := runCLI(t, "totals", path, "--regular", "0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1")
}

func TestNonFiniteWeightsRejected(t *testing.T) {
	path := setupEnv(t)
	for _, args := range [][]string{
		{"totals", path, "--regular", "NaN"},
		{"totals", path, "--final", "Inf"},
	} {
		var err error
		require.NotPanics(t, func() { _, err = runCLI(t, args...) }, "%v", args)
		require.Error(t, err, "%v", args)
		assert.Contains(t, err.Error(), "must be between 0 and 1")
	}

	writeConfig(t, "[weights]\nregular = nan\n")
	_, err := runCLI(t, "totals", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regular weight NaN")
}

func TestFormatErrorIncludesHint(t *testing.T) {
	path := setupEnv(t)
	require.NoError(t, os.WriteFile(path, []byte("ID,Name\n1,Ann\n"), 0o644))
	_, err := runCLI(t, "print", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected format")
}

func TestReportYAML(t *testing.T) {
	path := setupEnv(t)
	out, err := runCLI(t, "report", path, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3")

	_, err = runCLI(t, "report", path, "--format", "xml")
	assert.Error(t, err)
}

func TestPrintCommand(t *testing.T) {
	path := setupEnv(t)
	out, err := runCLI(t, "print", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"), "unexpected table:\n%s", out)
}

func TestSampleCommand(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "sample", "--rows", "3", "--min", "60")
	require.NoError(t, err)

	records, err := csvcodec.DecodeReader("stdout", strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "19001", records[0].ID)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	setupEnv(t)
	path := config.DefaultConfigPath()
	require.NoError(t, ensureConfigFile(path))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Weights.Regular)
	assert.Nil(t, cfg.History.Enabled)
}
