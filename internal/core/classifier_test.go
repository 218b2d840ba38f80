package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSQLKeyword(t *testing.T) {
	keywords := DefaultVocabulary().SQLKeywords

	assert.True(t, ContainsSQLKeyword("SELECT * FROM users WHERE id = $id", keywords))
	assert.True(t, ContainsSQLKeyword("select * from users", keywords))
	assert.False(t, ContainsSQLKeyword("selection of users", keywords), "word-boundary check must reject substring matches")
	assert.False(t, ContainsSQLKeyword("$selected = true;", keywords))
}

func TestLineLooksLikeSQL(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	assert.True(t, c.LineLooksLikeSQL(`$res = $db->query("SELECT * FROM t");`))
	assert.True(t, c.LineLooksLikeSQL(`mysqli_query($conn, $q);`))
	assert.True(t, c.LineLooksLikeSQL(`$stmt = $conn->query($sql);`))
	assert.False(t, c.LineLooksLikeSQL(`echo $name;`))
}

func TestVariableLooksSQLCarrying(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	assert.True(t, c.VariableLooksSQLCarrying(`$cmd = buildQuery($sql);`, "sql"), "the variable's own name is SQL-carrying by convention")
	assert.False(t, c.VariableLooksSQLCarrying(`$cmd = buildQuery($sql);`, "cmd"))

	assert.True(t, c.VariableLooksSQLCarrying(`$id = $where[0];`, "where"), "an indexed read of a SQL-carrying container name")
	assert.False(t, c.VariableLooksSQLCarrying(`$id = $where;`, "where"), "must be indexed, not a bare reference")
	assert.False(t, c.VariableLooksSQLCarrying(`$id = $items[0];`, "items"), "items is not in SQLIndexedNames")
}

func TestLineLooksLikeHTMLOutput(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	assert.True(t, c.LineLooksLikeHTMLOutput(`echo $name;`))
	assert.True(t, c.LineLooksLikeHTMLOutput(`  print $msg;`))
	assert.True(t, c.LineLooksLikeHTMLOutput(`<?= $name ?>`))
	assert.True(t, c.LineLooksLikeHTMLOutput(`$view->render($data);`))
	assert.False(t, c.LineLooksLikeHTMLOutput(`$x = $name;`))
}
