// Package report renders a scan's Findings into JSON, text, or SARIF.
// The writer shapes (Manager/Writer/JSONWriter/TextWriter/SARIFWriter,
// functional options) are carried over from the teacher's report
// package; the payload type changed from Vulnerability/ScanResult to
// escapeguard's FileResult/core.Finding, and SARIFWriter now delegates
// to github.com/owenrumney/go-sarif/v2 instead of hand-rolled structs.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"escapeguard/internal/core"
)

// Format is a report output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatSARIF Format = "sarif"
	FormatAll   Format = "all"
)

// FileResult is one scanned file's Findings.
type FileResult struct {
	Path     string
	Findings []core.Finding
}

// ScanResult is the whole run's output, fed to every Writer.
type ScanResult struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	FilesScanned int
	Files        []FileResult
}

// NewScanResult stamps a fresh run identity so JSON/SARIF output from
// separate invocations can be told apart.
func NewScanResult() *ScanResult {
	return &ScanResult{RunID: uuid.NewString(), StartedAt: time.Now()}
}

// Total counts every Finding across every file.
func (r *ScanResult) Total() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Findings)
	}
	return n
}

// Writer renders a ScanResult.
type Writer interface {
	Write(result *ScanResult) error
	WriteToFile(result *ScanResult, filename string) error
}

// Manager picks a Writer by Format and drives it to disk.
type Manager struct {
	format    Format
	outputDir string
	timestamp bool
	filename  string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFormat sets the report format.
func WithFormat(format Format) ManagerOption {
	return func(m *Manager) { m.format = format }
}

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) ManagerOption {
	return func(m *Manager) { m.outputDir = dir }
}

// WithTimestamp appends a timestamp to the generated filename.
func WithTimestamp() ManagerOption {
	return func(m *Manager) { m.timestamp = true }
}

// WithFilename sets an explicit output filename.
func WithFilename(filename string) ManagerOption {
	return func(m *Manager) { m.filename = filename }
}

// NewManager builds a Manager, defaulting to text output in the
// current directory.
func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{format: FormatText, outputDir: "."}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// CreateWriter builds the Writer for format.
func (m *Manager) CreateWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatText:
		return NewTextWriter(w), nil
	case FormatSARIF:
		return NewSARIFWriter(w), nil
	default:
		return nil, fmt.Errorf("report: unsupported format %q", format)
	}
}

// Generate writes result in the Manager's configured format(s) and
// returns the output file paths.
func (m *Manager) Generate(result *ScanResult) ([]string, error) {
	switch m.format {
	case FormatAll:
		var files []string
		for _, format := range []Format{FormatJSON, FormatText, FormatSARIF} {
			f, err := m.generateOne(result, format)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		return files, nil
	case FormatJSON, FormatText, FormatSARIF:
		f, err := m.generateOne(result, m.format)
		if err != nil {
			return nil, err
		}
		return []string{f}, nil
	default:
		return nil, fmt.Errorf("report: unsupported format %q", m.format)
	}
}

func (m *Manager) generateOne(result *ScanResult, format Format) (string, error) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating output dir: %w", err)
	}

	path := filepath.Join(m.outputDir, m.generateFilename(format))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer file.Close()

	writer, err := m.CreateWriter(format, file)
	if err != nil {
		return "", err
	}
	if err := writer.Write(result); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", format, err)
	}
	return path, nil
}

func (m *Manager) generateFilename(format Format) string {
	if m.filename != "" {
		return m.filename
	}
	base := "escapeguard_report"
	if m.timestamp {
		base = fmt.Sprintf("%s_%s", base, time.Now().Format("20060102_150405"))
	}
	return fmt.Sprintf("%s.%s", base, format)
}

// ParseFormat parses a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "sarif":
		return FormatSARIF, nil
	case "all":
		return FormatAll, nil
	default:
		return "", fmt.Errorf("report: unsupported format %q", s)
	}
}

// SupportedFormats lists every format ParseFormat accepts.
func SupportedFormats() []Format {
	return []Format{FormatJSON, FormatText, FormatSARIF, FormatAll}
}
