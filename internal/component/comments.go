package component

import (
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/jsdoc"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// leadingParents are the nodes a declaration may be wrapped in while its
// comment still precedes the wrapper, e.g. `/** doc */ const a = ref()`
// documents the declarator through the lexical_declaration.
var leadingParents = map[string]bool{
	"lexical_declaration":   true,
	"variable_declaration":  true,
	"variable_declarator":   true,
	"export_statement":      true,
	"expression_statement":  true,
	"assignment_expression": true,
	"await_expression":      true,
}

// isDocComment reports whether a comment node is a `/** ... */` block.
func isDocComment(node *tree_sitter.Node, source []byte) bool {
	return node.Kind() == "comment" && strings.HasPrefix(node.Utf8Text(source), "/**")
}

// findComment returns the doc comment immediately preceding node. Only
// whitespace, decorators and other comments may separate them; any other
// sibling breaks adjacency.
func findComment(node *tree_sitter.Node, source []byte) *tree_sitter.Node {
	for current := node; current != nil; current = current.Parent() {
		start := current.StartByte()
		for prev := current.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if !onlyWhitespace(source[prev.EndByte():start]) {
				return nil
			}
			switch {
			case isDocComment(prev, source):
				return prev
			case prev.Kind() == "comment", prev.Kind() == "decorator", !prev.IsNamed():
				// Other comments, decorators, keywords and punctuation.
				start = prev.StartByte()
			default:
				return nil
			}
		}

		parent := current.Parent()
		if parent == nil || !leadingParents[parent.Kind()] || !leadsParent(current, parent) {
			return nil
		}
	}
	return nil
}

// leadsParent reports whether node is the first named child of parent,
// ignoring decorators.
func leadsParent(node, parent *tree_sitter.Node) bool {
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child.Kind() == "decorator" || child.Kind() == "comment" {
			continue
		}
		return child.Id() == node.Id()
	}
	return false
}

func onlyWhitespace(b []byte) bool {
	return len(strings.TrimSpace(string(b))) == 0
}

// commentOf parses the doc comment of node, or returns nil.
func (p *parser) commentOf(node *tree_sitter.Node) *jsdoc.Comment {
	if node == nil {
		return nil
	}
	c := findComment(node, p.source)
	if c == nil {
		return nil
	}
	return jsdoc.Parse(p.text(c))
}

// document binds the doc comment of node onto e and returns it. The
// visibility is the comment's tag if any, else def, else marker, else
// public. Entries tagged @ignore or @hidden report false.
func (p *parser) document(e entry.Documented, node *tree_sitter.Node, def, marker entry.Visibility) (*jsdoc.Comment, bool) {
	c := p.commentOf(node)
	apply(e.Common(), c, def, marker)
	return c, !c.Ignored()
}

// apply merges a parsed comment into the shared fields of an entry.
func apply(base *entry.Base, c *jsdoc.Comment, def, marker entry.Visibility) {
	base.Visibility = resolveVisibility(c.Visibility(), def, marker)
	base.Keywords = c.Keywords()
	if c == nil {
		return
	}
	base.Description = c.Description
	base.Category = c.Value("category")
	base.Version = c.Value("version")
}

func resolveVisibility(candidates ...entry.Visibility) entry.Visibility {
	for _, v := range candidates {
		if v != entry.VisibilityUnset {
			return v
		}
	}
	return entry.VisibilityPublic
}
