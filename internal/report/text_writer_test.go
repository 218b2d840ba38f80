package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escapeguard/internal/core"
)

func TestTextWriterNoFindings(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	require.NoError(t, w.Write(&ScanResult{FilesScanned: 4}))

	out := buf.String()
	assert.Contains(t, out, "No findings.")
	assert.Contains(t, out, "Files scanned: 4")
}

func TestTextWriterIncludesStatisticsAndFindings(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	require.NoError(t, w.Write(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Total findings: 3")
	assert.Contains(t, out, "sql_injection: 1")
	assert.Contains(t, out, "html_output: 2")
	assert.Contains(t, out, "File: a.php")
	assert.Contains(t, out, "File: b.php")
	assert.NotContains(t, out, "code:", "verbose code dump must be suppressed by default")
}

func TestTextWriterVerboseIncludesCode(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, WithVerbose())

	result := &ScanResult{
		Files: []FileResult{
			{Path: "a.php", Findings: []core.Finding{
				{Line: 1, Code: `echo $x;`, Kind: core.KindHTMLOutput, Fix: "echo htmlspecialchars($x);"},
			}},
		},
	}
	require.NoError(t, w.Write(result))

	assert.Contains(t, buf.String(), "code: echo $x;")
}

func TestTextWriterWithoutStatsOmitsSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, WithoutStats())

	require.NoError(t, w.Write(sampleResult()))
	assert.NotContains(t, buf.String(), "Summary:")
}
