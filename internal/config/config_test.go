package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"escapeguard/internal/core"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, vocab, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))

	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
	assert.Equal(t, core.DefaultVocabulary(), vocab)
}

func TestLoadAppliesOverridesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".escapeguard.yml")
	contents := "escape_func: e\nsql_keywords:\n  - SELECT\n  - MERGE\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, vocab, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "e", cfg.EscapeFunc)
	assert.Equal(t, "e", vocab.EscapeFunc)
	assert.Equal(t, []string{"SELECT", "MERGE"}, vocab.SQLKeywords)

	defaults := core.DefaultVocabulary()
	assert.Equal(t, defaults.Superglobals, vocab.Superglobals, "fields absent from the override must keep the default")
}

func TestLoadParsesExcludeDirsAndWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".escapeguard.yml")
	contents := "exclude_dirs:\n  - generated\n  - fixtures\nworkers: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, _, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"generated", "fixtures"}, cfg.ExcludeDirs)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".escapeguard.yml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestWatcherReloadInvokesCallbackOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".escapeguard.yml")
	require.NoError(t, os.WriteFile(path, []byte("escape_func: e\n"), 0o644))

	var got core.Vocabulary
	done := make(chan struct{}, 1)

	w, err := NewWatcher(path, zap.NewNop().Sugar(), func(_ Config, vocab core.Vocabulary) {
		got = vocab
		done <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	go w.Watch()

	require.NoError(t, os.WriteFile(path, []byte("escape_func: sanitize\n"), 0o644))

	select {
	case <-done:
		assert.Equal(t, "sanitize", got.EscapeFunc)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
}
