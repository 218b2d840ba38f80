package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json": FormatJSON,
		"TEXT": FormatText,
		"Sarif": FormatSARIF,
		"all":  FormatAll,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestSupportedFormatsListsAllFour(t *testing.T) {
	assert.ElementsMatch(t, []Format{FormatJSON, FormatText, FormatSARIF, FormatAll}, SupportedFormats())
}

func TestManagerGenerateWritesSingleFormat(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(WithFormat(FormatJSON), WithOutputDir(dir), WithFilename("out.json"))

	files, err := m.Generate(sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, filepath.Join(dir, "out.json"), files[0])
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id"`)
}

func TestManagerGenerateAllWritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(WithFormat(FormatAll), WithOutputDir(dir))

	files, err := m.Generate(sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 3)

	for _, f := range files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}

func TestManagerGenerateRejectsUnsupportedFormat(t *testing.T) {
	m := NewManager(WithFormat(Format("xml")), WithOutputDir(t.TempDir()))
	_, err := m.Generate(sampleResult())
	assert.Error(t, err)
}
