package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"escapeguard/internal/core"
)

// TextWriter renders a ScanResult as a human-readable console report.
type TextWriter struct {
	writer    io.Writer
	verbose   bool
	showStats bool
}

// NewTextWriter builds a TextWriter.
func NewTextWriter(w io.Writer, options ...TextOption) *TextWriter {
	writer := &TextWriter{writer: w, showStats: true}
	for _, opt := range options {
		opt(writer)
	}
	return writer
}

// TextOption configures a TextWriter.
type TextOption func(*TextWriter)

// WithVerbose enables per-finding detail.
func WithVerbose() TextOption {
	return func(w *TextWriter) { w.verbose = true }
}

// WithoutStats disables the summary block.
func WithoutStats() TextOption {
	return func(w *TextWriter) { w.showStats = false }
}

// Write renders result to the writer's underlying io.Writer.
func (w *TextWriter) Write(result *ScanResult) error {
	if result.Total() == 0 {
		w.writeNoFindings(result)
		return nil
	}

	w.writeHeader(result)
	if w.showStats {
		w.writeStatistics(result)
	}
	w.writeFindings(result)
	return nil
}

// WriteToFile writes result's text rendering to filename.
func (w *TextWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", filename, err)
	}
	defer file.Close()

	return NewTextWriter(file, w.options()...).Write(result)
}

func (w *TextWriter) writeHeader(result *ScanResult) {
	fmt.Fprintf(w.writer, "\nescapeguard scan results\n")
	fmt.Fprintf(w.writer, "========================\n")
	fmt.Fprintf(w.writer, "Run: %s\n", result.RunID)
	fmt.Fprintf(w.writer, "Duration: %s\n\n", result.Duration)
}

func (w *TextWriter) writeNoFindings(result *ScanResult) {
	fmt.Fprintf(w.writer, "\nNo findings.\n\n")
	fmt.Fprintf(w.writer, "Files scanned: %d\n", result.FilesScanned)
	fmt.Fprintf(w.writer, "Duration: %s\n\n", result.Duration)
}

func (w *TextWriter) writeStatistics(result *ScanResult) {
	byKind := make(map[core.Kind]int)
	for _, file := range result.Files {
		for _, f := range file.Findings {
			byKind[f.Kind]++
		}
	}

	fmt.Fprintf(w.writer, "Summary:\n--------\n")
	fmt.Fprintf(w.writer, "Total findings: %d\n", result.Total())
	fmt.Fprintf(w.writer, "  html_output: %d\n", byKind[core.KindHTMLOutput])
	fmt.Fprintf(w.writer, "  sql_injection: %d\n", byKind[core.KindSQLInjection])
	fmt.Fprintf(w.writer, "  unnecessary_escape: %d\n", byKind[core.KindUnnecessaryEscape])
	fmt.Fprintf(w.writer, "  parse_error: %d\n", byKind[core.KindParseError])
	fmt.Fprintf(w.writer, "  other: %d\n\n", byKind[core.KindOther])
	fmt.Fprintf(w.writer, "Files scanned: %d\n\n", result.FilesScanned)
}

func (w *TextWriter) writeFindings(result *ScanResult) {
	files := append([]FileResult(nil), result.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, file := range files {
		if len(file.Findings) == 0 {
			continue
		}
		fmt.Fprintf(w.writer, "\nFile: %s\n", file.Path)
		fmt.Fprintf(w.writer, "%s\n", strings.Repeat("-", 50))

		findings := append([]core.Finding(nil), file.Findings...)
		sort.Slice(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })

		tw := tabwriter.NewWriter(w.writer, 0, 8, 2, ' ', 0)
		for _, f := range findings {
			fmt.Fprintf(tw, "  %s\tline %d\t%v\t%s\n", f.Kind, f.Line, f.Vars, f.Fix)
			if w.verbose {
				fmt.Fprintf(tw, "  \t\t\tcode: %s\n", f.Code)
			}
		}
		tw.Flush()
	}
	fmt.Fprintf(w.writer, "\n")
}

func (w *TextWriter) options() []TextOption {
	var opts []TextOption
	if w.verbose {
		opts = append(opts, WithVerbose())
	}
	if !w.showStats {
		opts = append(opts, WithoutStats())
	}
	return opts
}
