package valuefmt

import (
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Annotation renders a TypeScript type node. Unions are split into their
// members, every other type keeps its source text.
func (f *Formatter) Annotation(node *tree_sitter.Node) entry.TypeExpr {
	if node == nil {
		return entry.Scalar(entry.Unknown)
	}

	switch node.Kind() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation", "parenthesized_type":
		if inner := node.NamedChild(0); inner != nil {
			return f.Annotation(inner)
		}
	case "union_type":
		var members []entry.TypeExpr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			members = append(members, f.Annotation(node.NamedChild(i)))
		}
		return entry.Union(members...)
	case "literal_type":
		if inner := node.NamedChild(0); inner != nil && inner.Kind() == "string" {
			return entry.Scalar(quote(f.Text(inner)))
		}
	}

	text := strings.Join(strings.Fields(f.Text(node)), " ")
	if text == "" {
		return entry.Scalar(entry.Unknown)
	}
	return entry.Scalar(text)
}

// PropType renders the value of a prop's `type` option: constructors map to
// their primitive names, arrays of constructors become unions and
// `Object as PropType<T>` becomes T.
func (f *Formatter) PropType(node *tree_sitter.Node) entry.TypeExpr {
	if node == nil {
		return entry.Scalar(entry.Unknown)
	}

	switch node.Kind() {
	case "identifier":
		name := f.Text(node)
		if t, ok := constructorTypes[name]; ok {
			return entry.Scalar(t)
		}
		if name == "Date" || name == "Promise" {
			return entry.Scalar(name)
		}
		if f.scope != nil {
			value := f.scope.Resolve(node)
			if value.Resolved() && value.Node.Kind() != "identifier" {
				return f.PropType(value.Node)
			}
		}
		return entry.Scalar(name)
	case "null", "undefined":
		return entry.Scalar("any")
	case "array":
		var members []entry.TypeExpr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child.Kind() != "comment" {
				members = append(members, f.PropType(child))
			}
		}
		return entry.Union(members...)
	case "parenthesized_expression":
		return f.PropType(node.NamedChild(0))
	case "as_expression", "satisfies_expression":
		if node.NamedChildCount() < 2 {
			break
		}
		target := node.NamedChild(node.NamedChildCount() - 1)
		if arg := propTypeArgument(target, f.source); arg != nil {
			return f.Annotation(arg)
		}
		return f.Annotation(target)
	case "member_expression":
		return entry.Scalar(f.Text(node))
	}
	return entry.Scalar(entry.Unknown)
}

// propTypeArgument returns T of `PropType<T>`.
func propTypeArgument(node *tree_sitter.Node, source []byte) *tree_sitter.Node {
	if node.Kind() != "generic_type" {
		return nil
	}
	name := node.ChildByFieldName("name")
	if name == nil || !strings.HasSuffix(name.Utf8Text(source), "PropType") {
		return nil
	}
	args := node.ChildByFieldName("type_arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// TypeFromAnnotation returns the declared type of a node carrying a `type`
// field (parameters, class fields, property signatures), or nil.
func (f *Formatter) TypeFromAnnotation(node *tree_sitter.Node) entry.TypeExpr {
	if node == nil {
		return nil
	}
	if annotation := node.ChildByFieldName("type"); annotation != nil {
		return f.Annotation(annotation)
	}
	return nil
}

// ReturnType returns the declared return type of a function node, or nil.
func (f *Formatter) ReturnType(node *tree_sitter.Node) entry.TypeExpr {
	if node == nil {
		return nil
	}
	if annotation := node.ChildByFieldName("return_type"); annotation != nil {
		return f.Annotation(annotation)
	}
	return nil
}
