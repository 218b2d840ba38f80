// Package aggregate implements the Finding Aggregator (spec §4.6, §2 item
// 6): it merges per-variable candidate fixes from internal/rewrite with
// the fact streams and taint/shape state from internal/core into the
// final, per-line ordered Finding list.
package aggregate

import (
	"regexp"
	"sort"
	"strings"

	"escapeguard/internal/core"
	"escapeguard/internal/rewrite"
)

// Aggregator ties together a LineIndex, fact streams, and FileState to
// produce Findings.
type Aggregator struct {
	classifier *core.Classifier
}

// New builds an Aggregator using classifier for the line-level SQL and
// HTML-output predicates.
func New(classifier *core.Classifier) *Aggregator {
	return &Aggregator{classifier: classifier}
}

// Aggregate runs spec §4.6 over every line of idx and returns the ordered
// Finding list. Findings are ordered by ascending line number; the
// Aggregator emits at most one Finding per line (spec §3 invariants).
func (a *Aggregator) Aggregate(idx *core.LineIndex, facts *core.Facts, state *core.FileState) []core.Finding {
	callsByLine := groupCalls(facts.Calls)
	usagesByLine := groupUsages(facts.Usages)
	escapeFunc := a.classifier.Vocab.EscapeFunc

	var findings []core.Finding
	for n := 1; n <= idx.LineCount(); n++ {
		if idx.IsSkippable(n) {
			continue
		}
		original := idx.Trimmed(n)
		if original == "" {
			continue
		}

		varsOnLine := varTokensInOrder(original)
		if len(varsOnLine) == 0 {
			continue
		}

		usageSkip := usageSkipSet(usagesByLine[n])
		bindParamSkip := bindParamSkipSet(callsByLine[n])

		isSQL := a.classifier.LineLooksLikeSQL(original) || anySQLCall(callsByLine[n])
		if !isSQL {
			for _, name := range varsOnLine {
				if a.classifier.VariableLooksSQLCarrying(original, name) {
					isSQL = true
					break
				}
			}
		}
		if isSQL {
			sqlSkip := make(map[string]struct{}, len(usageSkip)+len(bindParamSkip))
			for v := range usageSkip {
				sqlSkip[v] = struct{}{}
			}
			for v := range bindParamSkip {
				sqlSkip[v] = struct{}{}
			}
			if f, ok := sqlFinding(n, original, varsOnLine, state, sqlSkip); ok {
				findings = append(findings, f)
			}
			continue
		}

		if special, ok := specialSuperglobalReassignment(original); ok {
			findings = append(findings, core.Finding{
				Line: n,
				Vars: []string{special.name},
				Code: original,
				Fix:  "$" + special.name + " = $" + special.name + "; // TODO: escape with " + escapeFunc + "() at output time",
				Kind: core.KindOther,
			})
			continue
		}

		if !a.classifier.LineLooksLikeHTMLOutput(original) {
			continue
		}

		working := original
		var usedVars []string
		for _, name := range varsOnLine {
			if _, skip := usageSkip[name]; skip {
				continue
			}
			if _, skip := bindParamSkip[name]; skip {
				continue
			}
			v := state.Get(name)
			if v == nil {
				continue
			}
			if v.Secured {
				if reescape, ok := unnecessaryEscapeOn(working, name, escapeFunc); ok {
					findings = append(findings, core.Finding{
						Line: n,
						Vars: []string{name},
						Code: original,
						Fix:  reescape,
						Kind: core.KindUnnecessaryEscape,
					})
				}
				continue
			}
			if v.Shape == core.ShapeArray && isWholeVariableReference(working, name) {
				continue
			}
			candidate := rewrite.Rewrite(working, name, escapeFunc)
			if candidate == working {
				continue
			}
			working = candidate
			usedVars = append(usedVars, name)
		}

		if working == original || len(usedVars) == 0 {
			continue
		}
		findings = append(findings, core.Finding{
			Line: n,
			Vars: dedup(usedVars),
			Code: original,
			Fix:  working,
			Kind: core.KindHTMLOutput,
		})
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return findings
}

func groupCalls(calls []core.CallFact) map[int][]core.CallFact {
	out := make(map[int][]core.CallFact)
	for _, c := range calls {
		out[c.Line] = append(out[c.Line], c)
	}
	return out
}

func groupUsages(usages []core.UsageFact) map[int][]core.UsageFact {
	out := make(map[int][]core.UsageFact)
	for _, u := range usages {
		out[u.Line] = append(out[u.Line], u)
	}
	return out
}

func anySQLCall(calls []core.CallFact) bool {
	for _, c := range calls {
		if c.IsSQL {
			return true
		}
	}
	return false
}

// usageSkipSet returns the set of variable names that appear in any
// UsageFact on the line (spec §4.6 step 1: skip for this line).
func usageSkipSet(usages []core.UsageFact) map[string]struct{} {
	out := make(map[string]struct{})
	for _, u := range usages {
		for _, v := range u.Vars {
			out[v] = struct{}{}
		}
	}
	return out
}

// bindParamSkipSet returns variables bound as a bind_param call argument
// (spec §4.6 step 2).
func bindParamSkipSet(calls []core.CallFact) map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range calls {
		if !strings.EqualFold(c.Name, "bind_param") && !strings.EqualFold(c.Name, "bindParam") {
			continue
		}
		for _, v := range c.ArgVars {
			out[v] = struct{}{}
		}
	}
	return out
}

func sqlFinding(n int, original string, varsOnLine []string, state *core.FileState, skip map[string]struct{}) (core.Finding, bool) {
	var vars []string
	for _, name := range varsOnLine {
		if _, ok := skip[name]; ok {
			continue
		}
		if state.Get(name) == nil {
			continue
		}
		vars = append(vars, name)
	}
	if len(vars) == 0 {
		return core.Finding{}, false
	}
	return core.Finding{
		Line: n,
		Vars: vars,
		Code: original,
		Fix:  core.PreparedStatementsFix,
		Kind: core.KindSQLInjection,
	}, true
}

// isWholeVariableReference reports whether name's first occurrence on
// line is a bare $name reference — not indexed, not a property access.
func isWholeVariableReference(line, name string) bool {
	idx := strings.Index(line, "$"+name)
	if idx < 0 {
		return false
	}
	after := idx + len(name) + 1
	if after < len(line) {
		switch line[after] {
		case '[', '-':
			return false
		}
	}
	return true
}

type specialReassignment struct{ name string }

// specialSuperglobalReassignment recognizes the narrow "special" case in
// spec §4.6: a line that is *exactly* a superglobal-scalar-element
// assignment to a new variable name, with no other rewrite category
// applying on that line (Ambiguity (a), spec §9 — emitted only in this
// exact shape).
var specialAssignRE = regexp.MustCompile(
	`^\$(\w+)\s*=\s*\$(?:_POST|_GET|_REQUEST|_COOKIE|_SESSION)\s*\[[^\]]*\]\s*;?$`)

func specialSuperglobalReassignment(line string) (specialReassignment, bool) {
	m := specialAssignRE.FindStringSubmatch(line)
	if m == nil {
		return specialReassignment{}, false
	}
	return specialReassignment{name: m[1]}, true
}

func unnecessaryEscapeOn(line, name, escapeFunc string) (string, bool) {
	marker := escapeFunc + "($" + name
	if strings.Count(line, marker) < 2 {
		return "", false
	}
	return line + " // unnecessary: " + name + " is already escaped", true
}

func varTokensInOrder(line string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			continue
		}
		j := i + 1
		for j < len(line) && isWordByte(line[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		name := line[i+1 : j]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
		i = j - 1
	}
	return out
}

func isWordByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
