package core

import (
	"strings"
)

// Classifier answers "what context is this line in" (spec §4.3: the
// HTML-output and database-binding halves of the 5-way classification). It
// is configured with a Vocabulary so the SQL keyword list and method/
// function allowlists can be overridden (Design Note (b), spec §9).
//
// The other three contexts spec §4.3 names — parameter-declaration,
// reference-required, and neutral — are not classified here. Both are
// reliably recognizable only from a line's literal text (an enclosing
// parenthesized parameter list, an isset/empty/unset/bind_param call
// argument), the same reason internal/core/astfacts.go scans those same
// constructs with regexes instead of AST node types: tree-sitter-php's
// grammar has shifted field names for them across versions, and text
// matching is the one source of truth already trusted for this. Rather
// than duplicate that logic here behind a second, AST-ancestry-walking
// implementation that would have to agree with it byte-for-byte,
// internal/rewrite.isParameterDeclaration and
// internal/rewrite.isInReferenceRequiredCall are the single place those
// two contexts are decided (see DESIGN.md).
type Classifier struct {
	Vocab Vocabulary
}

// NewClassifier builds a Classifier over vocab.
func NewClassifier(vocab Vocabulary) *Classifier {
	return &Classifier{Vocab: vocab}
}

// ContainsSQLKeyword reports whether text contains any keyword with ASCII
// word boundaries on both sides, case-insensitively.
func ContainsSQLKeyword(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range keywords {
		kw = strings.ToUpper(kw)
		start := 0
		for {
			idx := strings.Index(upper[start:], kw)
			if idx < 0 {
				break
			}
			pos := start + idx
			before := byte(' ')
			if pos > 0 {
				before = upper[pos-1]
			}
			after := byte(' ')
			end := pos + len(kw)
			if end < len(upper) {
				after = upper[end]
			}
			if !isWordByte(before) && !isWordByte(after) {
				return true
			}
			start = pos + 1
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// LineLooksLikeSQL is the Aggregator's line-level SQL predicate (spec
// §4.3): the line contains SELECT/INSERT/UPDATE/DELETE, or
// "mysqli_query", or "->query(".
func (c *Classifier) LineLooksLikeSQL(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return strings.Contains(line, "mysqli_query") || strings.Contains(line, "->query(")
}

// LineLooksLikeHTMLOutput reports whether a line is an HTML-output
// candidate per spec §4.6 step 4.
func (c *Classifier) LineLooksLikeHTMLOutput(line string) bool {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "echo") || strings.HasPrefix(t, "print") {
		return true
	}
	if strings.Contains(line, "<?=") {
		return true
	}
	for _, m := range c.Vocab.TemplateMethods {
		if strings.Contains(line, "->"+m+"(") {
			return true
		}
	}
	return false
}

// VariableLooksSQLCarrying reports whether name itself (lowercased) names
// a variable spec §4.3 treats as SQL-carrying by convention (`query`,
// `sql`, `stmt`, ...), or name is read on line as an indexed target whose
// own name is in that same convention (`filters`, `conditions`, `where`,
// `clauses`). Applied per-candidate-variable rather than per-AST-ancestor,
// since the Aggregator decides SQL-context one line and one variable at a
// time, not by walking node parents.
func (c *Classifier) VariableLooksSQLCarrying(line, name string) bool {
	if containsFold(c.Vocab.SQLVarNames, name) {
		return true
	}
	if containsFold(c.Vocab.SQLIndexedNames, name) && strings.Contains(line, "$"+name+"[") {
		return true
	}
	return false
}
