// Package analysis wires internal/core, internal/rewrite, and
// internal/aggregate into the single entry point callers use: Analyze.
// Everything downstream of Analyze is a pure, synchronous, per-file
// transformation (spec §5); concurrency across files is the caller's
// concern (internal/scanner).
package analysis

import (
	"context"

	"escapeguard/internal/aggregate"
	"escapeguard/internal/core"
)

// Result is what one file's analysis produces.
type Result struct {
	Path     string
	Findings []core.Finding
}

// Analyze parses source, collects facts, classifies contexts, seeds and
// secures taint/shape state, and aggregates the final Finding list for
// one file. Empty input yields an empty Result (spec §7); a parse
// failure yields a single parse_error Finding rather than a Go error,
// matching spec §4.2's "On parse failure, the collector emits a single
// synthetic Finding".
func Analyze(ctx context.Context, path string, source []byte, vocab core.Vocabulary) Result {
	if len(source) == 0 {
		return Result{Path: path}
	}

	unit, err := core.Parse(ctx, path, source)
	if err != nil {
		line := 1
		msg := err.Error()
		if pe, ok := err.(*core.ParseError); ok {
			line = pe.Line
			msg = pe.Message
		}
		return Result{
			Path: path,
			Findings: []core.Finding{{
				Line: line,
				Vars: nil,
				Code: msg,
				Fix:  "",
				Kind: core.KindParseError,
			}},
		}
	}
	defer unit.Close()

	idx := core.NewLineIndex(source)
	collector := core.NewCollector(vocab)
	facts := collector.Collect(unit)

	state := core.NewFileState(vocab)
	state.Seed(idx, facts)
	state.MarkSecured(idx)

	classifier := core.NewClassifier(vocab)
	agg := aggregate.New(classifier)
	findings := agg.Aggregate(idx, facts, state)

	return Result{Path: path, Findings: findings}
}
