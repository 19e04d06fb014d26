package component

import (
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/jsdoc"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// deferredCalls take callbacks that run later but still belong to the
// function they are written in.
var deferredCalls = map[string]bool{
	"setTimeout":            true,
	"setInterval":           true,
	"setImmediate":          true,
	"requestAnimationFrame": true,
	"requestIdleCallback":   true,
	"queueMicrotask":        true,
	"nextTick":              true,
	"$nextTick":             true,
	"then":                  true,
	"catch":                 true,
	"finally":               true,
	"watch":                 true,
	"watchEffect":           true,
	"$watch":                true,
	"$on":                   true,
	"$once":                 true,
	"onBeforeMount":         true,
	"onMounted":             true,
	"onBeforeUpdate":        true,
	"onUpdated":             true,
	"onBeforeUnmount":       true,
	"onUnmounted":           true,
	"onActivated":           true,
	"onDeactivated":         true,
}

// eventWalker finds emission calls in function bodies.
type eventWalker struct {
	p *parser
}

// walkFunction walks the body of a function literal in its own frame.
func (w *eventWalker) walkFunction(fn *tree_sitter.Node) {
	if fn == nil {
		return
	}
	w.p.withFunction(fn, func(body *tree_sitter.Node) {
		if body == nil {
			return
		}
		if body.Kind() == "statement_block" {
			w.walk(body)
			return
		}
		w.walkExpression(body)
	})
}

// walk visits the statements reachable through control flow.
func (w *eventWalker) walk(node *tree_sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "program", "statement_block", "switch_body", "class_body":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			w.walk(node.NamedChild(i))
		}

	case "lexical_declaration", "variable_declaration":
		// Rebinding in walk order makes later reads see this value.
		w.p.declareStatement(node)
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if decl := node.NamedChild(i); decl.Kind() == "variable_declarator" {
				w.walkExpression(decl.ChildByFieldName("value"))
			}
		}

	case "expression_statement":
		w.p.declareStatement(node)
		w.walkExpression(node.NamedChild(0))

	case "return_statement", "throw_statement":
		w.walkExpression(node.NamedChild(0))

	case "if_statement":
		w.walkExpression(node.ChildByFieldName("condition"))
		w.walkBlock(node.ChildByFieldName("consequence"))
		w.walkBlock(node.ChildByFieldName("alternative"))

	case "else_clause", "finally_clause":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			w.walkBlock(node.NamedChild(i))
		}

	case "for_statement", "for_in_statement", "while_statement", "do_statement", "labeled_statement":
		w.walkBlock(node.ChildByFieldName("body"))

	case "switch_statement":
		w.walk(node.ChildByFieldName("body"))

	case "switch_case", "switch_default":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if value := node.ChildByFieldName("value"); value != nil && value.Id() == child.Id() {
				continue
			}
			w.walkBlock(child)
		}

	case "try_statement":
		w.walkBlock(node.ChildByFieldName("body"))
		if handler := node.ChildByFieldName("handler"); handler != nil {
			w.p.scope.Within(func() {
				w.p.scope.DeclarePattern(handler.ChildByFieldName("parameter"), nil)
				w.walkBlock(handler.ChildByFieldName("body"))
			})
		}
		w.walkBlock(node.ChildByFieldName("finalizer"))
	}
}

// walkBlock walks a nested block in its own frame.
func (w *eventWalker) walkBlock(node *tree_sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() != "statement_block" {
		w.walk(node)
		return
	}
	w.p.scope.Within(func() {
		w.p.declareStatements(node)
		w.walk(node)
	})
}

// walkExpression looks for emissions in an expression evaluated by the
// statement being walked.
func (w *eventWalker) walkExpression(expr *tree_sitter.Node) {
	if expr == nil {
		return
	}

	switch expr.Kind() {
	case "call_expression":
		if w.isEmission(expr) {
			w.emission(expr)
			return
		}
		w.walkCall(expr)

	case "parenthesized_expression", "await_expression", "unary_expression", "non_null_expression", "as_expression":
		w.walkExpression(expr.NamedChild(0))

	case "sequence_expression":
		for i := uint(0); i < expr.NamedChildCount(); i++ {
			w.walkExpression(expr.NamedChild(i))
		}

	case "binary_expression":
		w.walkExpression(expr.ChildByFieldName("left"))
		w.walkExpression(expr.ChildByFieldName("right"))

	case "ternary_expression":
		w.walkExpression(expr.ChildByFieldName("condition"))
		w.walkExpression(expr.ChildByFieldName("consequence"))
		w.walkExpression(expr.ChildByFieldName("alternative"))

	case "assignment_expression", "augmented_assignment_expression":
		w.walkExpression(expr.ChildByFieldName("right"))
	}
}

// walkCall follows callbacks handed to deferred helpers and caller-declared
// wrappers, and the receivers of promise chains.
func (w *eventWalker) walkCall(call *tree_sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}

	name := w.p.text(fn)
	if fn.Kind() == "member_expression" {
		w.walkExpression(fn.ChildByFieldName("object"))
		name = w.p.text(fn.ChildByFieldName("property"))
	}
	if !deferredCalls[name] && !w.p.wrappers[name] {
		return
	}

	for _, arg := range treesitterhelper.Arguments(call) {
		w.walkCallback(arg)
	}
}

func (w *eventWalker) walkCallback(arg *tree_sitter.Node) {
	switch {
	case treesitterhelper.FunctionLiteralPattern.Matches(arg, w.p.source):
		w.walkFunction(arg)
	case arg.Kind() == "call_expression":
		// Wrapped callbacks such as `setTimeout(debounce(() => ...))`.
		w.walkExpression(arg)
	}
}

// isEmission reports whether call emits an event: `this.$emit(...)`,
// `vm.$emit(...)`, `$emit(...)` in templates, `emit(...)` bound to
// defineEmits or the setup context, and `context.emit(...)`.
func (w *eventWalker) isEmission(call *tree_sitter.Node) bool {
	fn := unwrapExpression(call.ChildByFieldName("function"))
	if fn == nil {
		return false
	}

	switch fn.Kind() {
	case "member_expression":
		property := w.p.text(fn.ChildByFieldName("property"))
		if property == "$emit" {
			return true
		}
		if property != "emit" {
			return false
		}
		object := fn.ChildByFieldName("object")
		if object == nil || object.Kind() != "identifier" {
			return false
		}
		b := w.p.scope.Lookup(w.p.text(object))
		return b != nil && b.Composition == compositionSetupContext
	case "identifier":
		name := w.p.text(fn)
		if name == "$emit" {
			return true
		}
		b := w.p.scope.Lookup(name)
		return b != nil && (b.Composition == "defineEmits" || b.Composition == compositionEmit)
	}
	return false
}

const (
	compositionEmit         = "emit"
	compositionSetupContext = "setupContext"
)

// emission builds the event entry of one emission call.
func (w *eventWalker) emission(call *tree_sitter.Node) {
	args := treesitterhelper.Arguments(call)
	if len(args) == 0 {
		return
	}

	name, ok := w.p.resolveString(args[0])
	if !ok {
		name = w.p.text(args[0])
		w.p.warn(args[0], "unable to resolve the event name %s", name)
	}

	event := &entry.EventEntry{Name: name, Arguments: []entry.Param{}}
	c, keep := w.p.document(event, call, entry.VisibilityUnset, entry.VisibilityUnset)
	if !keep {
		return
	}
	if renamed := c.Value("event"); renamed != "" {
		event.Name = strings.Fields(renamed)[0]
	}

	event.Arguments = w.arguments(args[1:], c, call)
	w.p.emit(call, event)
}

// arguments types the payload of an emission. Documented arguments replace
// the inferred ones.
func (w *eventWalker) arguments(args []*tree_sitter.Node, c *jsdoc.Comment, at *tree_sitter.Node) []entry.Param {
	if c != nil {
		params, errs := c.ParseParams("arg", "argument", "param")
		for _, err := range errs {
			w.p.warn(at, "%s", err)
		}
		if len(params) > 0 {
			return params
		}
	}

	out := make([]entry.Param, 0, len(args))
	for _, arg := range args {
		out = append(out, w.p.argumentOf(arg))
	}
	return out
}

// argumentOf infers name and type of a call argument.
func (p *parser) argumentOf(arg *tree_sitter.Node) entry.Param {
	param := entry.Param{}
	if arg.Kind() == "spread_element" {
		param.Rest = true
		arg = arg.NamedChild(0)
	}
	if arg == nil {
		param.Type = entry.Scalar(entry.Unknown)
		return param
	}

	switch arg.Kind() {
	case "identifier":
		param.Name = p.bindingName(arg)
	case "member_expression":
		param.Name = p.text(arg.ChildByFieldName("property"))
	default:
		param.Name = strings.Join(strings.Fields(p.text(arg)), " ")
	}

	param.Type = p.format.TypeOf(arg)
	if param.Rest && param.Type.String() == "array" {
		param.Type = entry.Scalar(entry.Unknown)
	}
	return param
}

// bindingName names an identifier after the path it was destructured from,
// `employee.name` for `const { name } = employee`. Members destructured from
// `this` keep their own name, as do members of call results.
func (p *parser) bindingName(ident *tree_sitter.Node) string {
	value := p.scope.Resolve(ident)
	if value.Node == nil || len(value.Member) == 0 {
		return p.text(ident)
	}
	switch unwrapExpression(value.Node).Kind() {
	case "this":
		return value.Member[len(value.Member)-1]
	case "identifier", "member_expression":
		return strings.TrimPrefix(value.Name(p.source), "this.")
	}
	return p.text(ident)
}

// resolveString resolves a node to the string it holds: literals, constants
// bound to literals and members of constant objects (`EVENTS.INPUT`).
func (p *parser) resolveString(node *tree_sitter.Node) (string, bool) {
	return p.resolveStringDepth(node, 0)
}

func (p *parser) resolveStringDepth(node *tree_sitter.Node, depth int) (string, bool) {
	node = unwrapExpression(node)
	if node == nil || depth > 8 {
		return "", false
	}

	switch node.Kind() {
	case "string":
		return stringContent(p.text(node)), true
	case "template_string":
		text := p.text(node)
		if strings.Contains(text, "${") {
			return "", false
		}
		return stringContent(text), true
	case "identifier", "shorthand_property_identifier":
		value := p.scope.Resolve(node)
		if !value.Resolved() || value.Node.Id() == node.Id() {
			return "", false
		}
		return p.resolveStringDepth(value.Node, depth+1)
	case "member_expression":
		object := node.ChildByFieldName("object")
		property := p.text(node.ChildByFieldName("property"))
		value := p.scope.Resolve(object)
		if !value.Resolved() {
			return "", false
		}
		target := unwrapExpression(value.Node)
		if target == nil || target.Kind() != "object" {
			return "", false
		}
		return p.resolveStringDepth(treesitterhelper.ObjectValue(target, property, p.source), depth+1)
	case "subscript_expression":
		index, ok := p.resolveStringDepth(node.ChildByFieldName("index"), depth+1)
		if !ok {
			return "", false
		}
		value := p.scope.Resolve(node.ChildByFieldName("object"))
		if !value.Resolved() || unwrapExpression(value.Node).Kind() != "object" {
			return "", false
		}
		return p.resolveStringDepth(treesitterhelper.ObjectValue(unwrapExpression(value.Node), index, p.source), depth+1)
	}
	return "", false
}

// stringContent strips the quotes of a string literal.
func stringContent(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	quote := raw[0]
	content := raw[1 : len(raw)-1]
	return strings.ReplaceAll(content, `\`+string(quote), string(quote))
}
