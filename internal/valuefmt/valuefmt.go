// Package valuefmt renders expression and type-annotation nodes into type
// names and literal strings.
package valuefmt

import (
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/scope"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Formatter renders nodes of one source. Identifiers are resolved through
// the scope when one is set.
type Formatter struct {
	source []byte
	scope  *scope.Scope
}

// New returns a formatter bound to the source and scope of a walk.
func New(source []byte, s *scope.Scope) *Formatter {
	return &Formatter{source: source, scope: s}
}

// Text returns the source text of a node, or "" for nil.
func (f *Formatter) Text(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(f.source)
}

var constructorTypes = map[string]string{
	"String":   "string",
	"Number":   "number",
	"Boolean":  "boolean",
	"Array":    "array",
	"Object":   "object",
	"Function": "function",
	"Symbol":   "symbol",
	"BigInt":   "bigint",
}

// TypeOf infers the type of an expression.
func (f *Formatter) TypeOf(node *tree_sitter.Node) entry.TypeExpr {
	return f.typeOf(node, 0)
}

func (f *Formatter) typeOf(node *tree_sitter.Node, depth int) entry.TypeExpr {
	if node == nil || depth > 8 {
		return entry.Scalar(entry.Unknown)
	}

	switch node.Kind() {
	case "string", "template_string":
		return entry.Scalar("string")
	case "number":
		return entry.Scalar("number")
	case "true", "false":
		return entry.Scalar("boolean")
	case "null":
		return entry.Scalar("null")
	case "undefined":
		return entry.Scalar("undefined")
	case "array":
		return entry.Scalar("array")
	case "object":
		return entry.Scalar("object")
	case "regex":
		return entry.Scalar("RegExp")
	case "arrow_function", "function_expression", "function", "generator_function":
		return entry.Scalar("function")
	case "class":
		return entry.Scalar("class")

	case "parenthesized_expression", "non_null_expression", "await_expression":
		return f.typeOf(node.NamedChild(0), depth+1)

	case "as_expression", "satisfies_expression":
		if node.NamedChildCount() > 1 {
			return f.Annotation(node.NamedChild(node.NamedChildCount() - 1))
		}

	case "new_expression":
		if ctor := node.ChildByFieldName("constructor"); ctor != nil {
			return entry.Scalar(f.Text(ctor))
		}

	case "unary_expression":
		switch op := node.ChildByFieldName("operator"); f.Text(op) {
		case "!":
			return entry.Scalar("boolean")
		case "-", "+", "~":
			return entry.Scalar("number")
		case "typeof":
			return entry.Scalar("string")
		case "void":
			return entry.Scalar("undefined")
		}

	case "binary_expression":
		return f.binaryType(node, depth)

	case "ternary_expression":
		return entry.Union(
			f.typeOf(node.ChildByFieldName("consequence"), depth+1),
			f.typeOf(node.ChildByFieldName("alternative"), depth+1),
		)

	case "call_expression":
		callee := f.Text(node.ChildByFieldName("function"))
		if t, ok := constructorTypes[callee]; ok {
			return entry.Scalar(t)
		}
		if callee == "Date.now" {
			return entry.Scalar("number")
		}

	case "identifier", "shorthand_property_identifier":
		if f.scope == nil {
			break
		}
		value := f.scope.Resolve(node)
		if value.Resolved() && value.Node.Kind() != "identifier" && value.Node.Kind() != "shorthand_property_identifier" {
			return f.typeOf(value.Node, depth+1)
		}
	}

	return entry.Scalar(entry.Unknown)
}

func (f *Formatter) binaryType(node *tree_sitter.Node, depth int) entry.TypeExpr {
	op := f.Text(node.ChildByFieldName("operator"))
	switch op {
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return entry.Scalar("boolean")
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		return entry.Scalar("number")
	case "+":
		left := f.typeOf(node.ChildByFieldName("left"), depth+1)
		right := f.typeOf(node.ChildByFieldName("right"), depth+1)
		if left.String() == "string" || right.String() == "string" {
			return entry.Scalar("string")
		}
		if left.String() == "number" && right.String() == "number" {
			return entry.Scalar("number")
		}
	case "&&", "||", "??":
		left := f.typeOf(node.ChildByFieldName("left"), depth+1)
		right := f.typeOf(node.ChildByFieldName("right"), depth+1)
		if left.String() == right.String() {
			return left
		}
	}
	return entry.Scalar(entry.Unknown)
}

// Literal renders the value of an expression as documentation text. String
// literals are always double-quoted, so `''` renders as `""`. Identifiers
// bound to a literal render that literal.
func (f *Formatter) Literal(node *tree_sitter.Node) string {
	return f.literal(node, 0)
}

func (f *Formatter) literal(node *tree_sitter.Node, depth int) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string":
		return quote(f.Text(node))
	case "template_string":
		text := f.Text(node)
		if !strings.Contains(text, "${") {
			return quote(text)
		}
		return text
	case "parenthesized_expression", "non_null_expression":
		if inner := node.NamedChild(0); inner != nil {
			return f.literal(inner, depth)
		}
	case "as_expression", "satisfies_expression":
		if inner := node.NamedChild(0); inner != nil {
			return f.literal(inner, depth)
		}
	case "identifier":
		if f.scope == nil || depth > 8 {
			break
		}
		value := f.scope.Resolve(node)
		if value.Resolved() && isLiteral(value.Node) {
			return f.literal(value.Node, depth+1)
		}
	}
	return f.Text(node)
}

func isLiteral(node *tree_sitter.Node) bool {
	switch node.Kind() {
	case "string", "template_string", "number", "true", "false", "null", "undefined", "array", "object", "regex":
		return true
	}
	return false
}

// quote turns a JavaScript string literal into its double-quoted form.
func quote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	delim := raw[0]
	if delim == '"' {
		return raw
	}
	content := raw[1 : len(raw)-1]
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch {
		case ch == '\\' && i+1 < len(content) && content[i+1] == delim:
			b.WriteByte(delim)
			i++
		case ch == '\\' && i+1 < len(content):
			b.WriteByte(ch)
			b.WriteByte(content[i+1])
			i++
		case ch == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Returned returns the expression a function literal returns: the body of
// an expression-bodied arrow function or the argument of the first
// top-level return statement. Non-function nodes are returned unchanged.
func Returned(node *tree_sitter.Node) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "arrow_function", "function_expression", "function", "method_definition", "function_declaration":
	default:
		return node
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Kind() != "statement_block" {
		for body.Kind() == "parenthesized_expression" && body.NamedChild(0) != nil {
			body = body.NamedChild(0)
		}
		return body
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt.Kind() == "return_statement" {
			value := stmt.NamedChild(0)
			for value != nil && value.Kind() == "parenthesized_expression" && value.NamedChild(0) != nil {
				value = value.NamedChild(0)
			}
			return value
		}
	}
	return nil
}

// IsFunction reports whether node is a function literal.
func IsFunction(node *tree_sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "arrow_function", "function_expression", "function", "generator_function", "method_definition":
		return true
	}
	return false
}
