package core

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Facts is the three fact streams the AST Fact Collector emits, each keyed
// by source line (spec §4.2).
type Facts struct {
	Variables []VariableFact
	Calls     []CallFact
	Usages    []UsageFact
}

// Collector walks a ParsedUnit once and emits Facts (spec §2 item 2).
type Collector struct {
	vocab                 Vocabulary
	nullCoalesceEscapedRE *regexp.Regexp
}

// NewCollector builds a Collector over vocab. The null-coalesce escape
// check is compiled here from vocab.EscapeFunc rather than a hardcoded
// name, so an overridden escape function (internal/config) is recognized
// the same way the function-call assignment case above it is.
func NewCollector(vocab Vocabulary) *Collector {
	return &Collector{
		vocab: vocab,
		nullCoalesceEscapedRE: regexp.MustCompile(
			`^\s*` + regexp.QuoteMeta(vocab.EscapeFunc) + `\s*\(.*\)\s*\?\?`),
	}
}

// Collect performs the one depth-first walk described in spec §4.2 and
// returns the resulting fact streams.
func (c *Collector) Collect(unit *ParsedUnit) *Facts {
	f := &Facts{}
	c.walk(unit, unit.Root, f)
	c.collectUsageFacts(unit, f)
	return f
}

func (c *Collector) walk(unit *ParsedUnit, node *sitter.Node, f *Facts) {
	if node == nil {
		return
	}

	switch SafeType(node) {
	case "assignment_expression":
		c.onAssignment(unit, node, f)
	case "foreach_statement":
		c.onForeach(unit, node, f)
	case "function_call_expression", "member_call_expression", "scoped_call_expression":
		c.onCall(unit, node, f)
	case "return_statement":
		c.onReturn(unit, node, f)
	}

	for i := 0; i < SafeChildCount(node); i++ {
		c.walk(unit, SafeChild(node, i), f)
	}
}

// --- assignment ---

func (c *Collector) onAssignment(unit *ParsedUnit, node *sitter.Node, f *Facts) {
	left := SafeField(node, "left")
	right := SafeField(node, "right")
	if left == nil || SafeType(left) != "variable_name" {
		return
	}
	name := variableName(unit, left)
	if name == "" {
		return
	}
	line := unit.Line(node)

	vf := VariableFact{Name: name, Line: line, Shape: ShapeUnknown}

	switch {
	case right == nil:
		// nothing to classify
	case SafeType(right) == "array_creation_expression":
		vf.Shape = ShapeArray
		vf.Reason = "array_literal"
	case isSuperglobalRead(unit, right, c.vocab.Superglobals):
		vf.Shape = ShapeArray
		vf.Reason = "superglobal_assignment"
	case isSuperglobalElementRead(unit, right, c.vocab.Superglobals):
		vf.Shape = ShapeScalar
		vf.Reason = "superglobal_element_assignment"
	case SafeType(right) == "function_call_expression":
		fname := strings.ToLower(unit.Text(SafeField(right, "function")))
		if contains(c.vocab.ArrayFuncs, fname) {
			vf.Shape = ShapeArray
			vf.Reason = "assigned_from_" + fname
		}
		if fname == strings.ToLower(c.vocab.EscapeFunc) {
			vf.Secured = true
			vf.Reason = "secured_with_escape"
		}
	}

	if !vf.Secured && c.nullCoalesceEscapedRE.MatchString(unit.Text(right)) {
		vf.Secured = true
		vf.Reason = "secured_with_escape"
	}

	f.Variables = append(f.Variables, vf)
}

func isSuperglobalRead(unit *ParsedUnit, node *sitter.Node, superglobals []string) bool {
	if SafeType(node) != "variable_name" {
		return false
	}
	return contains(superglobals, variableName(unit, node))
}

func isSuperglobalElementRead(unit *ParsedUnit, node *sitter.Node, superglobals []string) bool {
	if SafeType(node) != "subscript_expression" {
		return false
	}
	obj := SafeField(node, "object")
	if obj == nil {
		obj = SafeChild(node, 0)
	}
	return isSuperglobalRead(unit, obj, superglobals)
}

// variableName returns the bare name (no leading $) of a variable_name
// node.
func variableName(unit *ParsedUnit, node *sitter.Node) string {
	if node == nil || SafeType(node) != "variable_name" {
		return ""
	}
	text := unit.Text(node)
	return strings.TrimPrefix(text, "$")
}

// --- foreach ---

// foreachHeaderRE extracts the iterated variable, optional key binding,
// and value binding from a foreach header's own literal text. The grammar
// field layout for foreach_statement varies across tree-sitter-php
// versions, so this uses the one-linear-scan approach Design Note (§9)
// recommends instead of relying on uncertain field names.
var foreachHeaderRE = regexp.MustCompile(`foreach\s*\(\s*(\$\w+)\s+as\s+(?:(\$\w+)\s*=>\s*)?(\$\w+)\s*\)`)

func (c *Collector) onForeach(unit *ParsedUnit, node *sitter.Node, f *Facts) {
	header := unit.Text(node)
	m := foreachHeaderRE.FindStringSubmatch(header)
	if m == nil {
		return
	}
	line := unit.Line(node)
	source, key, value := m[1], m[2], m[3]

	if source != "" {
		f.Variables = append(f.Variables, VariableFact{
			Name:   strings.TrimPrefix(source, "$"),
			Line:   line,
			Shape:  ShapeArray,
			Reason: "foreach_source",
		})
	}
	if value != "" {
		f.Variables = append(f.Variables, VariableFact{
			Name:   strings.TrimPrefix(value, "$"),
			Line:   line,
			Shape:  ShapeScalar,
			Reason: "foreach_value",
		})
	}
	if key != "" {
		f.Variables = append(f.Variables, VariableFact{
			Name:   strings.TrimPrefix(key, "$"),
			Line:   line,
			Shape:  ShapeScalar,
			Reason: "foreach_key",
		})
	}
}

// --- calls ---

func (c *Collector) onCall(unit *ParsedUnit, node *sitter.Node, f *Facts) {
	line := unit.Line(node)

	var kind CallKind
	var name string
	switch SafeType(node) {
	case "function_call_expression":
		kind = CallFunction
		name = unit.Text(SafeField(node, "function"))
		if name == "is_array" {
			c.onIsArrayCheck(unit, node, f, line)
		}
	case "member_call_expression":
		kind = CallMethod
		name = unit.Text(SafeField(node, "name"))
	case "scoped_call_expression":
		kind = CallStatic
		name = unit.Text(SafeField(node, "name"))
	default:
		return
	}

	args := SafeField(node, "arguments")
	argVars := dedupVars(collectVariables(unit, args))

	lowerName := strings.ToLower(name)
	isSQL := contains(c.vocab.SQLFuncs, lowerName)
	if kind == CallMethod || kind == CallStatic {
		isSQL = isSQL || containsFold(c.vocab.SQLMethods, lowerName)
	}

	f.Calls = append(f.Calls, CallFact{
		Line:    line,
		Kind:    kind,
		Name:    name,
		ArgVars: argVars,
		IsSQL:   isSQL,
	})
}

func (c *Collector) onIsArrayCheck(unit *ParsedUnit, node *sitter.Node, f *Facts, line int) {
	args := SafeField(node, "arguments")
	if args == nil {
		return
	}
	vars := namedArgVariables(unit, args)
	if len(vars) != 1 {
		return
	}
	f.Variables = append(f.Variables, VariableFact{
		Name:   vars[0],
		Line:   line,
		Shape:  ShapeArray,
		Reason: "checked_with_is_array",
	})
}

// namedArgVariables returns the bare variable names of each top-level
// argument that is itself a plain variable_name (i.e. `is_array($x)`, not
// `is_array($x[0])` or `is_array(foo())`).
func namedArgVariables(unit *ParsedUnit, args *sitter.Node) []string {
	var out []string
	for i := 0; i < SafeChildCount(args); i++ {
		child := SafeChild(args, i)
		if SafeType(child) == "argument" && SafeChildCount(child) == 1 {
			child = SafeChild(child, 0)
		}
		if SafeType(child) == "variable_name" {
			out = append(out, variableName(unit, child))
		}
	}
	return out
}

// collectVariables recursively collects every variable_name under node,
// descending into indexed reads, property reads, nested calls, binary
// operators, and ternary expressions (spec §4.2).
func collectVariables(unit *ParsedUnit, node *sitter.Node) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if SafeType(n) == "variable_name" {
			out = append(out, variableName(unit, n))
			return
		}
		for i := 0; i < SafeChildCount(n); i++ {
			walk(SafeChild(n, i))
		}
	}
	walk(node)
	return out
}

func dedupVars(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// --- return ---

func (c *Collector) onReturn(unit *ParsedUnit, node *sitter.Node, f *Facts) {
	vars := dedupVars(collectVariables(unit, node))
	if len(vars) == 0 {
		return
	}
	f.Usages = append(f.Usages, UsageFact{
		Line: unit.Line(node),
		Kind: UsageReturn,
		Vars: vars,
	})
}

// --- presence / emptiness / destroy / inc-dec ---
//
// These intrinsics (isset/empty/unset, ++/--) are detected with a small
// per-line text scan rather than AST field access, per Design Note (§9):
// "prefer explicit small scanners to deeply nested patterns for
// predictability under adversarial inputs" — and it sidesteps relying on
// exact tree-sitter-php node shapes for constructs the grammar represents
// inconsistently across versions.

var (
	issetRE  = regexp.MustCompile(`\bisset\s*\(`)
	emptyRE  = regexp.MustCompile(`\bempty\s*\(`)
	unsetRE  = regexp.MustCompile(`\bunset\s*\(`)
	incDecRE = regexp.MustCompile(`(\+\+|--)\s*(\$\w+)|(\$\w+)\s*(\+\+|--)`)
	varRE    = regexp.MustCompile(`\$(\w+)`)
)

func (c *Collector) collectUsageFacts(unit *ParsedUnit, f *Facts) {
	idx := NewLineIndex(unit.Source)
	for n := 1; n <= idx.LineCount(); n++ {
		if idx.IsSkippable(n) {
			continue
		}
		text := idx.Text(n)

		if loc := issetRE.FindStringIndex(text); loc != nil {
			if vars := varsInBalancedParens(text, loc[1]-1); len(vars) > 0 {
				f.Usages = append(f.Usages, UsageFact{Line: n, Kind: UsagePresence, Vars: vars})
			}
		}
		if loc := emptyRE.FindStringIndex(text); loc != nil {
			if vars := varsInBalancedParens(text, loc[1]-1); len(vars) > 0 {
				f.Usages = append(f.Usages, UsageFact{Line: n, Kind: UsageEmptiness, Vars: vars})
			}
		}
		if loc := unsetRE.FindStringIndex(text); loc != nil {
			if vars := varsInBalancedParens(text, loc[1]-1); len(vars) > 0 {
				f.Usages = append(f.Usages, UsageFact{Line: n, Kind: UsageDestroy, Vars: vars})
			}
		}
		if m := incDecRE.FindAllStringSubmatch(text, -1); m != nil {
			var vars []string
			for _, g := range m {
				switch {
				case g[2] != "":
					vars = append(vars, strings.TrimPrefix(g[2], "$"))
				case g[3] != "":
					vars = append(vars, strings.TrimPrefix(g[3], "$"))
				}
			}
			if len(vars) > 0 {
				f.Usages = append(f.Usages, UsageFact{Line: n, Kind: UsageIncDec, Vars: dedupVars(vars)})
			}
		}
	}
}

// varsInBalancedParens scans text starting at the index of an opening
// paren, returns the bare variable names found up to its matching close.
func varsInBalancedParens(text string, openIdx int) []string {
	if openIdx < 0 || openIdx >= len(text) || text[openIdx] != '(' {
		return nil
	}
	depth := 0
	end := len(text)
	for i := openIdx; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = i
				i = len(text)
			}
		}
	}
	inner := text[openIdx+1 : end]
	var out []string
	for _, m := range varRE.FindAllStringSubmatch(inner, -1) {
		out = append(out, m[1])
	}
	return dedupVars(out)
}
