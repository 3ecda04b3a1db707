package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtext_baseline/internal/config"
	"webtext_baseline/internal/corpus"
	"webtext_baseline/internal/report"
)

func writeTinyCorpus(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]string{
		corpus.Path(dir, corpus.WebText, corpus.SplitTrain): {"the cat sat", "the dog ran"},
		corpus.Path(dir, source, corpus.SplitTrain):         {"a cat runs fast", "a dog sat down"},
		corpus.Path(dir, corpus.WebText, corpus.SplitValid): {"the cat ran"},
		corpus.Path(dir, source, corpus.SplitValid):         {"a dog runs fast"},
		corpus.Path(dir, corpus.WebText, corpus.SplitTest):  {"the dog sat"},
		corpus.Path(dir, source, corpus.SplitTest):          {"a cat sat down"},
	}
	for path, texts := range files {
		require.NoError(t, corpus.WriteJSONL(path, texts))
	}
	return dir
}

func TestRootCommandWritesReport(t *testing.T) {
	color.NoColor = true
	dataDir := writeTinyCorpus(t, "tiny")
	logDir := t.TempDir()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{dataDir, logDir, "--source", "tiny", "--n-train", "4", "--n-valid", "2", "--min-df", "1", "--n-jobs", "1"})
	require.NoError(t, cmd.Execute())

	r, err := report.Load(filepath.Join(logDir, "tiny.json"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", r.Source)
	assert.Equal(t, 4, r.NTrain)
	assert.Contains(t, out.String(), "source: tiny")
}

func TestRootCommandFailsOnMissingCorpus(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir(), t.TempDir(), "--n-train", "4"})
	require.Error(t, cmd.Execute())
}

func TestResolveConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from-file\nlog_dir: /logs\nsource: file-source\nn_valid: 10\n"), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--n-valid", "20", "--min-df", "2"}))
	cfg, err := resolveConfig(cmd, []string{"/from-args"}, path)
	require.NoError(t, err)

	assert.Equal(t, "/from-args", cfg.DataDir)
	assert.Equal(t, "/logs", cfg.LogDir)
	assert.Equal(t, "file-source", cfg.Source)
	assert.Equal(t, 20, cfg.NValid)
	assert.Equal(t, 2, cfg.MinDF)
	assert.Equal(t, config.Default().NTrain, cfg.NTrain)
}

func TestResolveConfigRequiresDirectories(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	_, err := resolveConfig(cmd, nil, "")
	require.ErrorIs(t, err, config.ErrInvalid)
}
