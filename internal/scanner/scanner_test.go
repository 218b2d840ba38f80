package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escapeguard/internal/core"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestDiscoverFindsMatchingExtensionsAndSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.php"), "<?php\necho 'hi';\n")
	writeFile(t, filepath.Join(root, "view.phtml"), "<p>static</p>\n")
	writeFile(t, filepath.Join(root, "readme.md"), "not source\n")
	writeFile(t, filepath.Join(root, "vendor", "lib.php"), "<?php\necho 'skip me';\n")

	s := New(Options{Root: root})
	paths, err := s.discover()
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"index.php", "view.phtml"}, names)
}

func TestDiscoverHonorsConfiguredExcludeDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.php"), "<?php\necho 'hi';\n")
	writeFile(t, filepath.Join(root, "generated", "schema.php"), "<?php\necho 'skip me';\n")

	s := New(Options{Root: root, ExcludeDirs: []string{"generated"}})
	paths, err := s.discover()
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"index.php"}, names)
}

func TestScanCountsFilesAndCollectsFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "plain.php"), "<?php\n// nothing dynamic here\necho 'static text';\n")

	s := New(Options{Root: root, Vocab: core.DefaultVocabulary()})
	result, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesScanned)
	if assert.Len(t, result.Files, 1) {
		assert.Empty(t, result.Files[0].Findings)
	}
}

func TestScanVocabHotSwap(t *testing.T) {
	s := New(Options{Root: t.TempDir(), Vocab: core.DefaultVocabulary()})
	assert.Equal(t, core.DefaultVocabulary().EscapeFunc, s.CurrentVocab().EscapeFunc)

	custom := core.DefaultVocabulary()
	custom.EscapeFunc = "sanitize"
	s.SetVocab(custom)

	assert.Equal(t, "sanitize", s.CurrentVocab().EscapeFunc)
}
