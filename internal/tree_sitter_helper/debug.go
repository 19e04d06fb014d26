package treesitterhelper

import (
	"log"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// PrintAllNodes logs the named nodes below node, one per line, with their
// start position and a shortened text.
func PrintAllNodes(node *tree_sitter.Node, content []byte, indent string) {
	text := strings.Join(strings.Fields(node.Utf8Text(content)), " ")
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	pos := node.StartPosition()
	log.Printf("%s%s [%d:%d] (%s)", indent, node.Kind(), pos.Row+1, pos.Column, text)

	for i := uint(0); i < node.NamedChildCount(); i++ {
		PrintAllNodes(node.NamedChild(i), content, indent+"  ")
	}
}
