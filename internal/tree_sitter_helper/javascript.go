package treesitterhelper

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Common patterns for Vue component scripts
var (
	// FunctionLiteralPattern matches function values.
	FunctionLiteralPattern = AnyNodeKind("arrow_function", "function_expression", "function", "generator_function")

	// ThisMemberPattern matches `this.<name>`.
	ThisMemberPattern = And(
		NodeKind("member_expression"),
		Field("object", NodeKind("this")),
	)

	// SlotsAccessPattern matches `this.$slots.x`, `this.$scopedSlots.x`,
	// `$slots.x` and `slots.x` reads.
	SlotsAccessPattern = And(
		NodeKind("member_expression"),
		Field("object", Or(
			NodeText("slots", "$slots", "$scopedSlots"),
			And(ThisMemberPattern, Field("property", NodeText("$slots", "$scopedSlots"))),
		)),
	)
)

// CallPattern matches a call whose callee is one of the given identifiers,
// e.g. CallPattern("defineProps", "withDefaults").
func CallPattern(names ...string) Pattern {
	return And(
		NodeKind("call_expression"),
		Field("function", And(NodeKind("identifier"), NodeText(names...))),
	)
}

// MemberCallPattern matches `<any>.<method>(...)` for one of the methods.
func MemberCallPattern(methods ...string) Pattern {
	return And(
		NodeKind("call_expression"),
		Field("function", And(
			NodeKind("member_expression"),
			Field("property", NodeText(methods...)),
		)),
	)
}

// ThisMethodCallPattern matches `this.<method>(...)`.
func ThisMethodCallPattern(methods ...string) Pattern {
	if len(methods) == 0 {
		return FuncPattern(func(*tree_sitter.Node, []byte) bool { return false })
	}
	return And(
		NodeKind("call_expression"),
		Field("function", And(
			ThisMemberPattern,
			Field("property", NodeText(methods...)),
		)),
	)
}

// CalleeName returns the identifier or dotted member path a call invokes,
// e.g. "defineProps" or "this.$emit".
func CalleeName(call *tree_sitter.Node, content []byte) string {
	if call == nil || call.Kind() != "call_expression" {
		return ""
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return strings.Join(strings.Fields(fn.Utf8Text(content)), "")
}

// Arguments returns the named argument nodes of a call, comments excluded.
func Arguments(call *tree_sitter.Node) []*tree_sitter.Node {
	if call == nil {
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if child := args.NamedChild(i); child.Kind() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

// TypeArgument returns the first type argument of a generic call such as
// `defineProps<Props>()`.
func TypeArgument(call *tree_sitter.Node) *tree_sitter.Node {
	if call == nil {
		return nil
	}
	args := call.ChildByFieldName("type_arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// PropertyName returns the key of an object member (pair, method, shorthand,
// getter) with quotes removed.
func PropertyName(member *tree_sitter.Node, content []byte) string {
	if member == nil {
		return ""
	}
	var key *tree_sitter.Node
	switch member.Kind() {
	case "pair", "method_definition", "public_field_definition", "field_definition", "property_signature", "method_signature":
		key = member.ChildByFieldName("key")
		if key == nil {
			key = member.ChildByFieldName("name")
		}
		if key == nil {
			key = member.ChildByFieldName("property")
		}
	case "shorthand_property_identifier", "property_identifier", "identifier", "string", "private_property_identifier":
		key = member
	}
	if key == nil {
		return ""
	}
	return strings.Trim(key.Utf8Text(content), "\"'`")
}

// ObjectMembers returns the members of an object literal, comments excluded.
func ObjectMembers(object *tree_sitter.Node) []*tree_sitter.Node {
	if object == nil || object.Kind() != "object" {
		return nil
	}
	var members []*tree_sitter.Node
	for i := uint(0); i < object.NamedChildCount(); i++ {
		if child := object.NamedChild(i); child.Kind() != "comment" {
			members = append(members, child)
		}
	}
	return members
}

// ObjectValue returns the value stored under key in an object literal. For
// methods and shorthand members the member node itself is returned.
func ObjectValue(object *tree_sitter.Node, key string, content []byte) *tree_sitter.Node {
	for _, member := range ObjectMembers(object) {
		if PropertyName(member, content) != key {
			continue
		}
		if member.Kind() == "pair" {
			return member.ChildByFieldName("value")
		}
		return member
	}
	return nil
}
