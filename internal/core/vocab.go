package core

import "strings"

// Vocabulary holds the fixed name lists spec §6 calls exhaustive. They are
// "fixed" with respect to the language being analyzed, not with respect to
// escapeguard's configuration surface: Design Note (b) in spec §9 calls
// out the SQL keyword list by name as something implementers may expose as
// configuration, so the whole Vocabulary is loaded from
// internal/config and threaded down into the core rather than compiled in
// as package-level constants.
type Vocabulary struct {
	Superglobals     []string
	EscapeFunc       string
	ArrayFuncs       []string
	SQLFuncs         []string
	SQLMethods       []string
	TemplateMethods  []string
	SQLKeywords      []string
	SQLVarNames      []string
	SQLIndexedNames  []string
}

// DefaultVocabulary returns the exhaustive vocabularies listed in spec §6.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Superglobals: []string{"_POST", "_GET", "_REQUEST", "_COOKIE", "_SESSION"},
		EscapeFunc:   "htmlspecialchars",
		ArrayFuncs: []string{
			"array_keys", "array_values", "array_map", "array_filter",
			"explode", "preg_split", "range", "glob",
		},
		SQLFuncs: []string{
			"mysqli_query", "mysql_query", "pdo_query",
			"mysqli_prepare", "mysqli_stmt_bind_param",
		},
		SQLMethods: []string{
			"query", "prepare", "execute", "bind_param", "bindvalue", "bindparam",
		},
		TemplateMethods: []string{"render", "display", "view"},
		SQLKeywords: []string{
			"SELECT", "INSERT", "UPDATE", "DELETE", "WHERE", "FROM", "JOIN",
			"LEFT JOIN", "RIGHT JOIN", "INNER JOIN", "GROUP BY", "ORDER BY",
			"LIMIT", "OFFSET", "BETWEEN", "AND", "OR", "IN", "LIKE", "SUM",
			"COUNT", "COALESCE",
		},
		SQLVarNames:     []string{"query", "sql", "stmt", "filterquery", "wherequery", "searchquery"},
		SQLIndexedNames: []string{"filters", "conditions", "where", "clauses"},
	}
}

func contains(list []string, needle string) bool {
	for _, v := range list {
		if v == needle {
			return true
		}
	}
	return false
}

func containsFold(list []string, needle string) bool {
	for _, v := range list {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}
