package report

import (
	"fmt"
	"io"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"escapeguard/internal/core"
)

// SARIFWriter renders a ScanResult as a SARIF 2.1.0 log, using
// go-sarif/v2 in place of the teacher's hand-rolled SARIF structs.
type SARIFWriter struct {
	writer io.Writer
}

// NewSARIFWriter builds a SARIFWriter.
func NewSARIFWriter(w io.Writer, options ...SARIFOption) *SARIFWriter {
	writer := &SARIFWriter{writer: w}
	for _, opt := range options {
		opt(writer)
	}
	return writer
}

// SARIFOption configures a SARIFWriter. There are currently no options;
// the type is kept so callers built against the teacher's functional-
// options convention don't need a different construction pattern per
// writer.
type SARIFOption func(*SARIFWriter)

// Write renders result as SARIF to the writer's underlying io.Writer.
func (w *SARIFWriter) Write(result *ScanResult) error {
	log, err := w.build(result)
	if err != nil {
		return err
	}
	return log.PrettyWrite(w.writer)
}

// WriteToFile writes result's SARIF rendering to filename.
func (w *SARIFWriter) WriteToFile(result *ScanResult, filename string) error {
	log, err := w.build(result)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", filename, err)
	}
	defer file.Close()
	return log.PrettyWrite(file)
}

func (w *SARIFWriter) build(result *ScanResult) (*sarif.Report, error) {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("report: creating SARIF log: %w", err)
	}

	run := sarif.NewRunWithInformationURI("escapeguard", "https://github.com/escapeguard/escapeguard")
	for _, kind := range []core.Kind{
		core.KindHTMLOutput, core.KindSQLInjection, core.KindUnnecessaryEscape,
		core.KindParseError, core.KindOther,
	} {
		run.AddRule(string(kind)).
			WithDescription(ruleDescription(kind)).
			WithHelpURI("https://github.com/escapeguard/escapeguard#" + string(kind))
	}

	for _, file := range result.Files {
		run.AddDistinctArtifact(file.Path)
		for _, finding := range file.Findings {
			run.AddResult(
				sarif.NewRuleResult(string(finding.Kind)).
					WithLevel(sarifLevel(finding.Kind)).
					WithMessage(sarif.NewTextMessage(findingMessage(finding))).
					WithLocations([]*sarif.Location{
						sarif.NewLocationWithPhysicalLocation(
							sarif.NewPhysicalLocation().
								WithArtifactLocation(sarif.NewSimpleArtifactLocation(file.Path)).
								WithRegion(sarif.NewSimpleRegion(finding.Line, finding.Line)),
						),
					}),
			)
		}
	}

	log.AddRun(run)
	return log, nil
}

func ruleDescription(kind core.Kind) string {
	switch kind {
	case core.KindHTMLOutput:
		return "unescaped user-controlled value reaches HTML output"
	case core.KindSQLInjection:
		return "user-controlled value reaches a SQL-binding context without a prepared statement"
	case core.KindUnnecessaryEscape:
		return "value already secured is escaped a second time"
	case core.KindParseError:
		return "source file could not be parsed"
	default:
		return "superglobal element reassigned to a new variable without being escaped at output time"
	}
}

func sarifLevel(kind core.Kind) string {
	switch kind {
	case core.KindSQLInjection, core.KindHTMLOutput:
		return "error"
	case core.KindParseError:
		return "warning"
	default:
		return "note"
	}
}

func findingMessage(f core.Finding) string {
	if len(f.Vars) == 0 {
		return f.Fix
	}
	return fmt.Sprintf("%s (%v): %s", f.Kind, f.Vars, f.Fix)
}
