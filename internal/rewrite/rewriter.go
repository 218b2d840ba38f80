// Package rewrite implements the autofix rewriter (spec §4.5): a pure
// function over (line text, variable name, escape function name) that
// returns a rewritten line or the original line unchanged. It is
// deliberately self-contained and imports nothing from internal/core —
// source fidelity means the rewriter works on the raw line text, connected
// to the AST-driven analysis only by line number (Design Note, spec §9),
// never by pretty-printing an AST node back into source. The escape
// function name itself is passed in rather than hardcoded so a caller
// using internal/config's EscapeFunc override stays consistent between
// what internal/core recognizes as "already secured" and what this
// package emits and recognizes as "already escaped".
package rewrite

import (
	"regexp"
	"strings"
)

// Rewrite returns line with every safe, applicable reference to $variable
// wrapped in escapeFunc(...), or line unchanged if no rewrite strategy
// applies (spec §4.5).
func Rewrite(line, variable, escapeFunc string) string {
	if variable == "" || !strings.Contains(line, "$"+variable) {
		return line
	}

	if isAlreadyEscaped(line, variable, escapeFunc) {
		return line
	}
	if isParameterDeclaration(line, variable) {
		return line
	}
	if isInReferenceRequiredCall(line, variable) {
		return line
	}
	if isInIssetEmptyUnset(line, variable) {
		return line
	}

	if out, ok := rewriteAssociativeElement(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteAssignmentRHS(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteImplode(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteIndexedReference(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteOutputStatement(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteQuotedString(line, variable, escapeFunc); ok {
		return out
	}
	if out, ok := rewriteHTMLAttribute(line, variable, escapeFunc); ok {
		return out
	}
	return rewriteDefault(line, variable, escapeFunc)
}

// Idempotent reports whether applying Rewrite to its own output for the
// same variable is a no-op, a property spec §8 requires of the rewriter.
func Idempotent(line, variable, escapeFunc string) bool {
	once := Rewrite(line, variable, escapeFunc)
	twice := Rewrite(once, variable, escapeFunc)
	return once == twice
}

func escapeCall(escapeFunc, expr string) string {
	return escapeFunc + "(" + expr + ")"
}

func standaloneVarRE(variable string) *regexp.Regexp {
	return regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b(?:\[[^\]]*\])?`)
}

// --- preconditions ---

func isAlreadyEscaped(line, variable, escapeFunc string) bool {
	if !strings.Contains(line, escapeFunc+"(") {
		return false
	}
	// Every occurrence of $var must fall inside an escapeFunc(...) call
	// span for the whole line to be "already escaped" — not just directly
	// after the opening paren, since $var may sit nested inside another
	// call (e.g. implode(...)) that itself got wrapped.
	return allOccurrencesInsideEscapeCalls(line, variable, escapeFunc)
}

func allOccurrencesInsideEscapeCalls(line, variable, escapeFunc string) bool {
	spans := findEscapeCallSpans(line, escapeFunc)
	varRE := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b`)
	for _, loc := range varRE.FindAllStringIndex(line, -1) {
		inside := false
		for _, span := range spans {
			if loc[0] >= span[0] && loc[1] <= span[1] {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

func findEscapeCallSpans(line, escapeFunc string) [][2]int {
	var spans [][2]int
	marker := escapeFunc + "("
	start := 0
	for {
		idx := strings.Index(line[start:], marker)
		if idx < 0 {
			break
		}
		open := start + idx + len(marker) - 1
		depth := 0
		end := len(line)
		for i := open; i < len(line); i++ {
			switch line[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i + 1
					i = len(line)
				}
			}
		}
		spans = append(spans, [2]int{start + idx, end})
		start = end
		if start >= len(line) {
			break
		}
	}
	return spans
}

// isParameterDeclaration applies §4.5 precondition 1: every occurrence of
// $var lies inside parentheses whose 40-char prefix mentions a
// declaration keyword.
func isParameterDeclaration(line, variable string) bool {
	re := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b`)
	locs := re.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return false
	}
	for _, loc := range locs {
		if !enclosingParenLooksLikeDeclaration(line, loc[0]) {
			return false
		}
	}
	return true
}

var declKeywordRE = regexp.MustCompile(`\b(function|fn|public|protected|private|static)\b`)

func enclosingParenLooksLikeDeclaration(line string, pos int) bool {
	open := nearestEnclosingOpenParen(line, pos)
	if open < 0 {
		return false
	}
	prefixStart := open - 40
	if prefixStart < 0 {
		prefixStart = 0
	}
	return declKeywordRE.MatchString(line[prefixStart:open])
}

func nearestEnclosingOpenParen(line string, pos int) int {
	depth := 0
	for i := pos - 1; i >= 0; i-- {
		switch line[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func isInReferenceRequiredCall(line, variable string) bool {
	re := regexp.MustCompile(`(?i)bind_?param\s*\(([^)]*)\)`)
	for _, m := range re.FindAllStringSubmatch(line, -1) {
		if strings.Contains(m[1], "$"+variable) {
			return true
		}
	}
	return false
}

func isInIssetEmptyUnset(line, variable string) bool {
	re := regexp.MustCompile(`\b(isset|empty|unset)\s*\(([^)]*)\)`)
	for _, m := range re.FindAllStringSubmatch(line, -1) {
		inner := m[2]
		varRE := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b`)
		if varRE.MatchString(inner) {
			return true
		}
	}
	return false
}

// --- rewrite strategies ---

// A. Associative element: 'key' => $var, followed by a terminator.
func rewriteAssociativeElement(line, variable, escapeFunc string) (string, bool) {
	re := regexp.MustCompile(`(=>\s*)\$` + regexp.QuoteMeta(variable) + `\b(\s*[,\]\);]|\s*$)`)
	if !re.MatchString(line) {
		return line, false
	}
	out := re.ReplaceAllString(line, `${1}`+strings.ReplaceAll(escapeCall(escapeFunc, "$"+variable), "$", "$$")+`${2}`)
	return out, out != line
}

// B. Assignment form: lhs OP= rhs, rewrite applies to rhs only.
func rewriteAssignmentRHS(line, variable, escapeFunc string) (string, bool) {
	loc := findAssignmentOperator(line)
	if loc < 0 {
		return line, false
	}
	lhs := line[:loc]
	opLen := 1
	if loc > 0 {
		switch {
		case strings.HasSuffix(lhs, "+"), strings.HasSuffix(lhs, "-"),
			strings.HasSuffix(lhs, "*"), strings.HasSuffix(lhs, "/"),
			strings.HasSuffix(lhs, "."):
			lhs = lhs[:len(lhs)-1]
			opLen = 2
		}
	}
	rhsStart := loc + opLen
	if rhsStart >= len(line) {
		return line, false
	}
	rhs := line[rhsStart:]
	if !strings.Contains(rhs, "$"+variable) {
		return line, false
	}

	newRHS := rhs
	if out, ok := rewriteImplode(newRHS, variable, escapeFunc); ok {
		newRHS = out
	}
	if out, ok := rewriteIndexedReference(newRHS, variable, escapeFunc); ok {
		newRHS = out
	}
	newRHS = replaceStandaloneOutsideEscapeCalls(newRHS, variable, escapeFunc)

	if newRHS == rhs {
		return line, false
	}
	return line[:rhsStart] + newRHS, true
}

// replaceStandaloneOutsideEscapeCalls wraps every bare $variable token in
// text that does not already sit inside an escapeFunc(...) call span.
func replaceStandaloneOutsideEscapeCalls(text, variable, escapeFunc string) string {
	spans := findEscapeCallSpans(text, escapeFunc)
	re := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b(?:\[[^\]]*\])?`)
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		inside := false
		for _, span := range spans {
			if loc[0] >= span[0] && loc[1] <= span[1] {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(escapeCall(escapeFunc, text[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func findAssignmentOperator(line string) int {
	// Scan left to right for the first top-level =, +=, -=, *=, /=, .=
	// that is not part of ==, !=, <=, >=, =>, and is not inside a quoted
	// string literal (a "=" inside 'value="' must never be mistaken for
	// the assignment operator).
	var inQuote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inQuote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inQuote = c
			continue
		}
		if c != '=' {
			continue
		}
		if i+1 < len(line) && line[i+1] == '=' {
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == '>' {
			continue
		}
		if i > 0 && line[i-1] == '=' {
			continue
		}
		if i > 0 && (line[i-1] == '!' || line[i-1] == '<' || line[i-1] == '>') {
			continue
		}
		return i
	}
	return -1
}

// C. implode(..., $var ...) anywhere: wrap the whole implode(...) call.
func rewriteImplode(line, variable, escapeFunc string) (string, bool) {
	marker := "implode("
	start := 0
	for {
		idx := strings.Index(line[start:], marker)
		if idx < 0 {
			break
		}
		callStart := start + idx
		open := callStart + len(marker) - 1
		end := matchingParen(line, open)
		if end < 0 {
			start = open + 1
			continue
		}
		call := line[callStart : end+1]
		if strings.Contains(call, "$"+variable) {
			rewritten := line[:callStart] + escapeCall(escapeFunc, call) + line[end+1:]
			return rewritten, true
		}
		start = end + 1
	}
	return line, false
}

// D. Indexed reference $var[...] (possibly chained).
func rewriteIndexedReference(line, variable, escapeFunc string) (string, bool) {
	re := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `(\[[^\]]*\])+`)
	if !re.MatchString(line) {
		return line, false
	}
	out := re.ReplaceAllStringFunc(line, func(m string) string {
		return escapeCall(escapeFunc, m)
	})
	return out, out != line
}

// E. Output statement: echo/print, replace standalone occurrences in the
// tail of the statement.
func rewriteOutputStatement(line, variable, escapeFunc string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	var keyword string
	switch {
	case strings.HasPrefix(trimmed, "echo"):
		keyword = "echo"
	case strings.HasPrefix(trimmed, "print"):
		keyword = "print"
	default:
		return line, false
	}
	tailStart := len(keyword)
	tail := trimmed[tailStart:]

	newTail := rewriteInterpolatedOrStandalone(tail, variable, escapeFunc)
	if newTail == tail {
		return line, false
	}
	return indent + keyword + newTail, true
}

// rewriteInterpolatedOrStandalone handles both plain-code tails ("echo
// $x;") and double-quoted interpolated tails ("echo \"<p>$x</p>\";"),
// splicing the variable out of any double-quoted string it sits inside.
func rewriteInterpolatedOrStandalone(tail, variable, escapeFunc string) string {
	if out, ok := rewriteQuotedString(tail, variable, escapeFunc); ok {
		return out
	}
	return standaloneVarRE(variable).ReplaceAllStringFunc(tail, func(m string) string {
		return escapeCall(escapeFunc, m)
	})
}

// F. Double-quoted string containing $var: splice via concatenation:
// " . escapeFunc($var) . ". Single-quoted strings are not rewritten.
var doubleQuotedStringRE = regexp.MustCompile(`"([^"\\]|\\.)*"`)

func rewriteQuotedString(line, variable, escapeFunc string) (string, bool) {
	varRE := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b`)
	changed := false
	out := doubleQuotedStringRE.ReplaceAllStringFunc(line, func(str string) string {
		if !varRE.MatchString(str) {
			return str
		}
		spliced := varRE.ReplaceAllStringFunc(str, func(m string) string {
			return `" . ` + escapeCall(escapeFunc, m) + ` . "`
		})
		changed = true
		return spliced
	})
	if !changed {
		return line, false
	}
	return out, true
}

// G. HTML attribute value (value|placeholder|title)="...$var...": same
// splice as F, scoped to those attribute names.
var htmlAttrRE = regexp.MustCompile(`(value|placeholder|title)="([^"\\]|\\.)*"`)

func rewriteHTMLAttribute(line, variable, escapeFunc string) (string, bool) {
	varRE := regexp.MustCompile(`\$` + regexp.QuoteMeta(variable) + `\b`)
	changed := false
	out := htmlAttrRE.ReplaceAllStringFunc(line, func(attr string) string {
		if !varRE.MatchString(attr) {
			return attr
		}
		spliced := varRE.ReplaceAllStringFunc(attr, func(m string) string {
			return `" . ` + escapeCall(escapeFunc, m) + ` . "`
		})
		changed = true
		return spliced
	})
	if !changed {
		return line, false
	}
	return out, true
}

// H. Default: replace each standalone $var token, not followed by a word
// character, '[', or '->'.
var defaultVarRE = regexp.MustCompile(`\$(\w+)(\[|->)?`)

func rewriteDefault(line, variable, escapeFunc string) string {
	return defaultVarRE.ReplaceAllStringFunc(line, func(m string) string {
		sub := defaultVarRE.FindStringSubmatch(m)
		if sub[1] != variable {
			return m
		}
		if sub[2] != "" {
			return m
		}
		return escapeCall(escapeFunc, "$"+variable)
	})
}

func matchingParen(line string, open int) int {
	if open < 0 || open >= len(line) || line[open] != '(' {
		return -1
	}
	depth := 0
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
