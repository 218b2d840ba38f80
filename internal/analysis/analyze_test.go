package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"escapeguard/internal/core"
)

func TestAnalyzeEmptySourceIsNoop(t *testing.T) {
	result := Analyze(context.Background(), "empty.php", nil, core.DefaultVocabulary())

	assert.Equal(t, "empty.php", result.Path)
	assert.Empty(t, result.Findings)
}

func TestAnalyzeEmptyByteSliceIsNoop(t *testing.T) {
	result := Analyze(context.Background(), "empty.php", []byte{}, core.DefaultVocabulary())

	assert.Equal(t, "empty.php", result.Path)
	assert.Empty(t, result.Findings)
}

// The following drive the real core.Parse -> core.NewCollector().Collect()
// pipeline against tainted PHP, matching spec.md §8's end-to-end scenarios.

func TestAnalyzeFlagsUnescapedPostVariableInEcho(t *testing.T) {
	src := []byte("<?php\n" +
		"$name = $_POST['n'];\n" +
		"echo $name;\n")

	result := Analyze(context.Background(), "greet.php", src, core.DefaultVocabulary())

	if assert.Len(t, result.Findings, 2) {
		assert.Equal(t, 2, result.Findings[0].Line)
		assert.Equal(t, core.KindOther, result.Findings[0].Kind, "the superglobal-element assignment line carries the companion re-assignment fix")
		f := result.Findings[1]
		assert.Equal(t, 3, f.Line)
		assert.Equal(t, []string{"name"}, f.Vars)
		assert.Equal(t, "echo $name;", f.Code)
		assert.Equal(t, "echo htmlspecialchars($name);", f.Fix)
		assert.Equal(t, core.KindHTMLOutput, f.Kind)
	}
}

func TestAnalyzeSuppressesWholeArrayReferenceInEcho(t *testing.T) {
	src := []byte("<?php\n" +
		"$items = array_map('trim', $_POST['items']);\n" +
		"echo $items;\n")

	result := Analyze(context.Background(), "list.php", src, core.DefaultVocabulary())

	assert.Empty(t, result.Findings, "a whole-Array reference in HTML output must be suppressed")
}

func TestAnalyzeSuppressesBindParamArgument(t *testing.T) {
	src := []byte("<?php\n" +
		"$id = $_GET['id'];\n" +
		"$stmt->bind_param('s', $id);\n")

	result := Analyze(context.Background(), "lookup.php", src, core.DefaultVocabulary())

	if assert.Len(t, result.Findings, 1, "database-binding context must suppress any finding on the bind_param line") {
		assert.Equal(t, 2, result.Findings[0].Line)
		assert.Equal(t, core.KindOther, result.Findings[0].Kind, "only the superglobal-element assignment line's companion fix remains")
	}
}

func TestAnalyzeFlagsSQLConcatenationForPreparedStatements(t *testing.T) {
	src := []byte("<?php\n" +
		"$id = $_GET['id'];\n" +
		"$sql = \"SELECT * FROM u WHERE id = \" . $id;\n")

	result := Analyze(context.Background(), "query.php", src, core.DefaultVocabulary())

	if assert.Len(t, result.Findings, 2) {
		assert.Equal(t, 2, result.Findings[0].Line)
		assert.Equal(t, core.KindOther, result.Findings[0].Kind)
		f := result.Findings[1]
		assert.Equal(t, 3, f.Line)
		assert.Contains(t, f.Vars, "id")
		assert.Equal(t, core.PreparedStatementsFix, f.Fix)
		assert.Equal(t, core.KindSQLInjection, f.Kind)
	}
}

func TestAnalyzeDoesNotFlagParameterDeclaration(t *testing.T) {
	src := []byte("<?php\n" +
		"$name = $_GET['n'];\n" +
		"function greet($name) { return $name; }\n" +
		"echo $name;\n")

	result := Analyze(context.Background(), "fn.php", src, core.DefaultVocabulary())

	for _, f := range result.Findings {
		assert.NotEqual(t, 3, f.Line, "the parameter declaration line must never be flagged")
	}
	if assert.Len(t, result.Findings, 2, "the later echo of the tainted variable must still be flagged") {
		assert.Equal(t, 2, result.Findings[0].Line)
		assert.Equal(t, core.KindOther, result.Findings[0].Kind)
		assert.Equal(t, 4, result.Findings[1].Line)
	}
}

func TestAnalyzeRewritesInterpolatedStringSegment(t *testing.T) {
	src := []byte("<?php\n" +
		"$val = $_GET['v'];\n" +
		"echo \"<p>value: $val</p>\";\n")

	result := Analyze(context.Background(), "interp.php", src, core.DefaultVocabulary())

	if assert.Len(t, result.Findings, 2) {
		assert.Equal(t, core.KindOther, result.Findings[0].Kind)
		assert.Equal(t, `echo "<p>value: " . htmlspecialchars($val) . "</p>";`, result.Findings[1].Fix)
	}
}

func TestAnalyzeDoesNotFlagAlreadyEscapedVariable(t *testing.T) {
	src := []byte("<?php\n" +
		"$name = $_POST['n'];\n" +
		"$clean = htmlspecialchars($name);\n" +
		"echo $clean;\n")

	result := Analyze(context.Background(), "escaped.php", src, core.DefaultVocabulary())

	if assert.Len(t, result.Findings, 1, "a variable assigned from htmlspecialchars(...) is already secured") {
		assert.Equal(t, 2, result.Findings[0].Line)
		assert.Equal(t, core.KindOther, result.Findings[0].Kind, "only the superglobal-element assignment line's companion fix remains")
	}
}
