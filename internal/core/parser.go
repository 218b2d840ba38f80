package core

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// parserPool pools tree-sitter PHP parser instances so concurrent callers
// (the external scanner, spec §5) each get an independent parser without
// contending on a single global one. Grounded on the teacher's
// sync.Pool-backed ParserPool, generalized from two pooled languages
// (C/C++) down to the one target language escapeguard analyzes.
type parserPool struct {
	pool sync.Pool
}

func newParserPool() *parserPool {
	return &parserPool{
		pool: sync.Pool{
			New: func() interface{} {
				p := sitter.NewParser()
				p.SetLanguage(php.GetLanguage())
				return p
			},
		},
	}
}

var globalParserPool = newParserPool()

func getParser() *sitter.Parser {
	return globalParserPool.pool.Get().(*sitter.Parser)
}

func putParser(p *sitter.Parser) {
	p.Reset()
	globalParserPool.pool.Put(p)
}

// ParsedUnit is one parsed file: its tree and source bytes.
type ParsedUnit struct {
	FilePath string
	Source   []byte
	Tree     *sitter.Tree
	Root     *sitter.Node
}

// ParseError reports a failure to parse source into a tree (spec §4.2,
// §7: surfaced by callers as a parse_error Finding).
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// Parse parses source (already-decoded UTF-8, lossily if necessary) into a
// ParsedUnit. Invalid UTF-8 is never a fatal error for the core (spec §6);
// tree-sitter itself tolerates malformed byte sequences by producing ERROR
// nodes, which Collect skips rather than failing on.
func Parse(ctx context.Context, path string, source []byte) (*ParsedUnit, error) {
	p := getParser()
	defer putParser(p)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Message: err.Error()}
	}
	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Line: 1, Message: "empty parse tree"}
	}

	unit := &ParsedUnit{
		FilePath: path,
		Source:   source,
		Tree:     tree,
		Root:     root,
	}
	return unit, nil
}

// Text returns node's literal source text.
func (u *ParsedUnit) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(u.Source)
}

// Line returns node's 1-based starting line.
func (u *ParsedUnit) Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

// Close releases the underlying tree-sitter tree.
func (u *ParsedUnit) Close() {
	if u.Tree != nil {
		u.Tree.Close()
	}
}
