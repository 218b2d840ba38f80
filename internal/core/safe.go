package core

import sitter "github.com/smacker/go-tree-sitter"

// SafeType returns node.Type(), or "" for a nil node. Internal invariant
// violations (an unexpected or nil node shape) are non-fatal: callers
// that walk with SafeType/SafeChild simply skip the offending subtree
// instead of panicking (spec §7).
func SafeType(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Type()
}

// SafeChildCount returns node.ChildCount(), or 0 for a nil node.
func SafeChildCount(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.ChildCount())
}

// SafeChild returns node's i'th child, or nil if node is nil or i is out
// of range.
func SafeChild(node *sitter.Node, i int) *sitter.Node {
	if node == nil || i < 0 || i >= int(node.ChildCount()) {
		return nil
	}
	return node.Child(i)
}

// SafeField returns the named field of node, or nil.
func SafeField(node *sitter.Node, name string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(name)
}
