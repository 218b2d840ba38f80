// Package core implements the parser-driven fact collection, context
// classification, and taint/shape state that back escapeguard's autofix
// engine. Everything in this package is a pure, synchronous transformation
// over one file's source text — no I/O, no shared mutable state across
// files (spec §5).
package core

// Shape is a coarse classification of a variable's runtime value, used to
// suppress unsafe whole-variable rewrites. Shape is monotone toward Array:
// once a variable is marked Array it is never demoted back to Scalar or
// Unknown.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeScalar
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeArray:
		return "array"
	default:
		return "unknown"
	}
}

// Kind is the category tag attached to a Finding.
type Kind string

const (
	KindHTMLOutput        Kind = "html_output"
	KindSQLInjection       Kind = "sql_injection"
	KindUnnecessaryEscape Kind = "unnecessary_escape"
	KindParseError        Kind = "parse_error"
	KindOther             Kind = "other"
)

// PreparedStatementsFix is the literal fix marker used for every
// sql_injection finding (spec §3).
const PreparedStatementsFix = "using prepared statements"

// Finding is the unit escapeguard hands back to callers (spec §3).
type Finding struct {
	Line int      `json:"line"`
	Vars []string `json:"vars"`
	Code string   `json:"code"`
	Fix  string   `json:"fix"`
	Kind Kind     `json:"kind"`
}

// VariableState is the per-file, per-name taint/shape record seeded and
// updated across the two analysis passes in FileState (spec §3, §4.4).
type VariableState struct {
	Name           string
	FirstSeenLine  int
	Shape          Shape
	Secured        bool
	Reasons        map[string]struct{}
}

func newVariableState(name string, line int) *VariableState {
	return &VariableState{
		Name:          name,
		FirstSeenLine: line,
		Shape:         ShapeUnknown,
		Reasons:       make(map[string]struct{}),
	}
}

// AddReason records a debugging/test-assertion tag (spec §3).
func (v *VariableState) AddReason(reason string) {
	if reason == "" {
		return
	}
	v.Reasons[reason] = struct{}{}
}

// HasReason reports whether reason was ever recorded for this variable.
func (v *VariableState) HasReason(reason string) bool {
	_, ok := v.Reasons[reason]
	return ok
}

// UpgradeShape moves the variable's shape toward Array, never away from it.
func (v *VariableState) UpgradeShape(shape Shape) {
	if shape == ShapeArray {
		v.Shape = ShapeArray
		return
	}
	if v.Shape == ShapeArray {
		return
	}
	if shape == ShapeScalar && v.Shape == ShapeUnknown {
		v.Shape = ShapeScalar
	}
}

// CallKind distinguishes how a CallFact's callee was invoked.
type CallKind string

const (
	CallFunction CallKind = "function"
	CallMethod   CallKind = "method"
	CallStatic   CallKind = "static"
)

// CallFact records one function/method/static call observed on a line
// (spec §3).
type CallFact struct {
	Line    int
	Kind    CallKind
	Name    string
	ArgVars []string
	IsSQL   bool
}

// UsageKind classifies a UsageFact (spec §3).
type UsageKind string

const (
	UsagePresence  UsageKind = "presence"
	UsageEmptiness UsageKind = "emptiness"
	UsageDestroy   UsageKind = "destroy"
	UsageIncDec    UsageKind = "incdec"
	UsageReturn    UsageKind = "return"
)

// UsageFact records a reference-required or return-statement use of one or
// more variables on a line (spec §3).
type UsageFact struct {
	Line int
	Kind UsageKind
	Vars []string
}

// VariableFact is the AST Fact Collector's per-assignment/per-binding
// output before it is folded into a VariableState (spec §4.2).
type VariableFact struct {
	Name   string
	Line   int
	Shape  Shape
	Reason string
	// Secured is set when the fact alone proves the variable was escaped
	// on this line (e.g. `$x = htmlspecialchars(...)`).
	Secured bool
}
