package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"escapeguard/internal/core"
)

// JSONReport is the top-level JSON document written for a scan.
type JSONReport struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Tool        ToolInfo      `json:"tool"`
	Summary     Summary       `json:"summary"`
	Files       []FileReport  `json:"files"`
}

// ToolInfo identifies the tool that produced the report.
type ToolInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Summary is the scan-wide Finding breakdown.
type Summary struct {
	Total        int               `json:"total"`
	ByKind       map[core.Kind]int `json:"by_kind"`
	FilesScanned int               `json:"files_scanned"`
}

// FileReport is one file's Findings, sorted by line.
type FileReport struct {
	Path     string         `json:"path"`
	Findings []core.Finding `json:"findings"`
}

// JSONWriter renders a ScanResult as JSON.
type JSONWriter struct {
	writer io.Writer
	pretty bool
}

// NewJSONWriter builds a JSONWriter.
func NewJSONWriter(w io.Writer, options ...JSONOption) *JSONWriter {
	writer := &JSONWriter{writer: w}
	for _, opt := range options {
		opt(writer)
	}
	return writer
}

// JSONOption configures a JSONWriter.
type JSONOption func(*JSONWriter)

// WithPrettyJSON enables indented JSON output.
func WithPrettyJSON() JSONOption {
	return func(w *JSONWriter) { w.pretty = true }
}

// Write renders result to the writer's underlying io.Writer.
func (w *JSONWriter) Write(result *ScanResult) error {
	report := w.generateReport(result)

	var data []byte
	var err error
	if w.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("report: marshaling JSON: %w", err)
	}

	_, err = w.writer.Write(data)
	return err
}

// WriteToFile writes result's JSON rendering to filename.
func (w *JSONWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", filename, err)
	}
	defer file.Close()

	return NewJSONWriter(file, w.options()...).Write(result)
}

func (w *JSONWriter) generateReport(result *ScanResult) *JSONReport {
	report := &JSONReport{
		RunID:       result.RunID,
		GeneratedAt: result.StartedAt,
		Tool: ToolInfo{
			Name:        "escapeguard",
			Version:     "1.0.0",
			Description: "static XSS/SQL-injection finder and autofixer for the target templating language",
		},
		Summary: Summary{
			ByKind:       make(map[core.Kind]int),
			FilesScanned: result.FilesScanned,
		},
		Files: make([]FileReport, 0, len(result.Files)),
	}

	for _, file := range result.Files {
		findings := append([]core.Finding(nil), file.Findings...)
		sort.Slice(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
		for _, f := range findings {
			report.Summary.ByKind[f.Kind]++
			report.Summary.Total++
		}
		report.Files = append(report.Files, FileReport{Path: file.Path, Findings: findings})
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	return report
}

func (w *JSONWriter) options() []JSONOption {
	if w.pretty {
		return []JSONOption{WithPrettyJSON()}
	}
	return nil
}
