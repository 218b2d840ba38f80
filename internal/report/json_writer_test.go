package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escapeguard/internal/core"
)

func sampleResult() *ScanResult {
	return &ScanResult{
		RunID:        "run-1",
		FilesScanned: 2,
		Files: []FileResult{
			{
				Path: "b.php",
				Findings: []core.Finding{
					{Line: 3, Vars: []string{"id"}, Kind: core.KindSQLInjection, Fix: core.PreparedStatementsFix},
				},
			},
			{
				Path: "a.php",
				Findings: []core.Finding{
					{Line: 5, Vars: []string{"name"}, Kind: core.KindHTMLOutput, Fix: "echo htmlspecialchars($name);"},
					{Line: 1, Vars: []string{"other"}, Kind: core.KindHTMLOutput, Fix: "echo htmlspecialchars($other);"},
				},
			},
		},
	}
}

func TestJSONWriterWriteProducesSortedReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)

	require.NoError(t, w.Write(sampleResult()))

	var got JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 3, got.Summary.Total)
	assert.Equal(t, 1, got.Summary.ByKind[core.KindSQLInjection])
	assert.Equal(t, 2, got.Summary.ByKind[core.KindHTMLOutput])

	if assert.Len(t, got.Files, 2) {
		assert.Equal(t, "a.php", got.Files[0].Path, "files must be sorted by path")
		assert.Equal(t, "b.php", got.Files[1].Path)
		if assert.Len(t, got.Files[0].Findings, 2) {
			assert.Equal(t, 1, got.Files[0].Findings[0].Line, "findings within a file must be sorted by line")
			assert.Equal(t, 5, got.Files[0].Findings[1].Line)
		}
	}
}

func TestJSONWriterPrettyOutputIsIndented(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyJSON())

	require.NoError(t, w.Write(sampleResult()))
	assert.Contains(t, buf.String(), "\n  ")
}
