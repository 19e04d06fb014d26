package treesitterhelper

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pattern defines a pattern that can be matched against a tree-sitter node
type Pattern interface {
	Matches(node *tree_sitter.Node, content []byte) bool
}

// Create a pattern from a function
func FuncPattern(matchFunc func(node *tree_sitter.Node, content []byte) bool) Pattern {
	return &funcPattern{matchFunc: matchFunc}
}

type funcPattern struct {
	matchFunc func(node *tree_sitter.Node, content []byte) bool
}

func (p *funcPattern) Matches(node *tree_sitter.Node, content []byte) bool {
	return node != nil && p.matchFunc(node, content)
}

// Chain multiple patterns using AND logic
func And(patterns ...Pattern) Pattern {
	return &andPattern{patterns: patterns}
}

type andPattern struct {
	patterns []Pattern
}

func (p *andPattern) Matches(node *tree_sitter.Node, content []byte) bool {
	for _, pattern := range p.patterns {
		if !pattern.Matches(node, content) {
			return false
		}
	}
	return true
}

// Chain multiple patterns using OR logic
func Or(patterns ...Pattern) Pattern {
	return &orPattern{patterns: patterns}
}

type orPattern struct {
	patterns []Pattern
}

func (p *orPattern) Matches(node *tree_sitter.Node, content []byte) bool {
	for _, pattern := range p.patterns {
		if pattern.Matches(node, content) {
			return true
		}
	}
	return false
}

// Match a node's kind
func NodeKind(kind string) Pattern {
	return AnyNodeKind(kind)
}

// Match any of the node kinds
func AnyNodeKind(kinds ...string) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return slices.Contains(kinds, node.Kind())
	})
}

// Match a node's text content against any of the given texts
func NodeText(texts ...string) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		return slices.Contains(texts, node.Utf8Text(content))
	})
}

// Match the child stored under a grammar field
func Field(name string, pattern Pattern) Pattern {
	return FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		child := node.ChildByFieldName(name)
		return child != nil && pattern.Matches(child, content)
	})
}

// Utility function to match a pattern and return the first matching node
func FindFirst(root *tree_sitter.Node, pattern Pattern, content []byte) *tree_sitter.Node {
	if root == nil {
		return nil
	}
	if pattern.Matches(root, content) {
		return root
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		if result := FindFirst(root.NamedChild(i), pattern, content); result != nil {
			return result
		}
	}

	return nil
}

// Utility function to find all nodes matching a pattern. Subtrees for which
// skip matches are not entered.
func FindAll(root *tree_sitter.Node, pattern Pattern, content []byte, skip ...Pattern) []*tree_sitter.Node {
	var results []*tree_sitter.Node
	if root == nil {
		return results
	}

	var visit func(node *tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		if pattern.Matches(node, content) {
			results = append(results, node)
		}

		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if len(skip) > 0 && Or(skip...).Matches(child, content) {
				continue
			}
			visit(child)
		}
	}

	visit(root)
	return results
}

// GetFirstNodeOfKind returns the first direct child of the given kind.
func GetFirstNodeOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// Line returns the 1-based line a node starts on.
func Line(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Row) + 1
}
