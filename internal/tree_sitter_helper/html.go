package treesitterhelper

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// HTMLAttribute is one attribute of a markup start tag.
type HTMLAttribute struct {
	Name  string
	Value string
	Node  *tree_sitter.Node
}

// HTMLTagName returns the tag name of an element, or "".
func HTMLTagName(element *tree_sitter.Node, content []byte) string {
	tag := HTMLStartTag(element)
	if tag == nil {
		return ""
	}
	if name := GetFirstNodeOfKind(tag, "tag_name"); name != nil {
		return name.Utf8Text(content)
	}
	return ""
}

// HTMLStartTag returns the start_tag or self_closing_tag of an element.
func HTMLStartTag(element *tree_sitter.Node) *tree_sitter.Node {
	if element == nil {
		return nil
	}
	switch element.Kind() {
	case "start_tag", "self_closing_tag":
		return element
	}
	if tag := GetFirstNodeOfKind(element, "start_tag"); tag != nil {
		return tag
	}
	return GetFirstNodeOfKind(element, "self_closing_tag")
}

// GetHTMLAttributes lists the attributes of an element in source order.
func GetHTMLAttributes(element *tree_sitter.Node, content []byte) []HTMLAttribute {
	tag := HTMLStartTag(element)
	if tag == nil {
		return nil
	}

	var result []HTMLAttribute
	for i := uint(0); i < tag.NamedChildCount(); i++ {
		child := tag.NamedChild(i)
		if child.Kind() != "attribute" {
			continue
		}
		nameNode := GetFirstNodeOfKind(child, "attribute_name")
		if nameNode == nil {
			continue
		}
		attr := HTMLAttribute{Name: nameNode.Utf8Text(content), Node: child}
		if value := GetFirstNodeOfKind(child, "quoted_attribute_value"); value != nil {
			if inner := GetFirstNodeOfKind(value, "attribute_value"); inner != nil {
				attr.Value = inner.Utf8Text(content)
			}
		} else if value := GetFirstNodeOfKind(child, "attribute_value"); value != nil {
			attr.Value = value.Utf8Text(content)
		}
		result = append(result, attr)
	}
	return result
}

// GetHTMLAttribute returns the value of the named attribute.
func GetHTMLAttribute(element *tree_sitter.Node, name string, content []byte) (string, bool) {
	for _, attr := range GetHTMLAttributes(element, content) {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return "", false
}
