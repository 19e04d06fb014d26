package component

import (
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Dialect is the authoring convention a component is written in.
type Dialect int

const (
	DialectPlainObject Dialect = iota
	DialectDecoratedClass
	DialectComposition
)

func (d Dialect) String() string {
	switch d {
	case DialectDecoratedClass:
		return "class"
	case DialectComposition:
		return "composition"
	}
	return "object"
}

// maxUnwrap bounds the factory/mixin unwrapping done before detection.
const maxUnwrap = 8

// component is the normalized definition the builders work on.
type component struct {
	dialect Dialect
	// node is the options object, the class, or the program/setup body.
	node *tree_sitter.Node
	// anchors may carry the component's doc comment, the first one with a
	// comment wins.
	anchors []*tree_sitter.Node
	// options is the `@Component({...})` argument of a decorated class.
	options *tree_sitter.Node
	// mixins are in-file option objects merged before node.
	mixins []*tree_sitter.Node
}

// objects returns the option objects of the component, mixins first.
func (c *component) objects() []*tree_sitter.Node {
	objects := append([]*tree_sitter.Node{}, c.mixins...)
	switch {
	case c.dialect == DialectPlainObject:
		objects = append(objects, c.node)
	case c.options != nil:
		objects = append(objects, c.options)
	}
	return objects
}

type dispatchKey struct {
	dialect Dialect
	feature entry.Feature
}

type builder func(p *parser, c *component)

// dispatch maps every (dialect, feature) pair to its entry builder.
var dispatch = map[dispatchKey]builder{
	{DialectPlainObject, entry.FeatureName}:         buildObjectName,
	{DialectPlainObject, entry.FeatureDescription}:  buildDescription,
	{DialectPlainObject, entry.FeatureKeywords}:     buildKeywords,
	{DialectPlainObject, entry.FeatureSlots}:        buildObjectSlots,
	{DialectPlainObject, entry.FeatureProps}:        buildObjectProps,
	{DialectPlainObject, entry.FeatureData}:         buildObjectData,
	{DialectPlainObject, entry.FeatureComputed}:     buildObjectComputed,
	{DialectPlainObject, entry.FeatureEvents}:       buildObjectEvents,
	{DialectPlainObject, entry.FeatureMethods}:      buildObjectMethods,
	{DialectPlainObject, entry.FeatureModel}:        buildObjectModel,
	{DialectPlainObject, entry.FeatureInheritAttrs}: buildObjectInheritAttrs,

	{DialectDecoratedClass, entry.FeatureName}:         buildClassName,
	{DialectDecoratedClass, entry.FeatureDescription}:  buildDescription,
	{DialectDecoratedClass, entry.FeatureKeywords}:     buildKeywords,
	{DialectDecoratedClass, entry.FeatureSlots}:        buildClassSlots,
	{DialectDecoratedClass, entry.FeatureProps}:        buildClassProps,
	{DialectDecoratedClass, entry.FeatureData}:         buildClassData,
	{DialectDecoratedClass, entry.FeatureComputed}:     buildClassComputed,
	{DialectDecoratedClass, entry.FeatureEvents}:       buildClassEvents,
	{DialectDecoratedClass, entry.FeatureMethods}:      buildClassMethods,
	{DialectDecoratedClass, entry.FeatureModel}:        buildClassModel,
	{DialectDecoratedClass, entry.FeatureInheritAttrs}: buildObjectInheritAttrs,

	{DialectComposition, entry.FeatureName}:         buildCompositionName,
	{DialectComposition, entry.FeatureDescription}:  buildDescription,
	{DialectComposition, entry.FeatureKeywords}:     buildKeywords,
	{DialectComposition, entry.FeatureSlots}:        buildCompositionSlots,
	{DialectComposition, entry.FeatureProps}:        buildCompositionProps,
	{DialectComposition, entry.FeatureData}:         buildCompositionData,
	{DialectComposition, entry.FeatureComputed}:     buildCompositionComputed,
	{DialectComposition, entry.FeatureEvents}:       buildCompositionEvents,
	{DialectComposition, entry.FeatureMethods}:      buildCompositionMethods,
	{DialectComposition, entry.FeatureModel}:        buildCompositionModel,
	{DialectComposition, entry.FeatureInheritAttrs}: buildCompositionInheritAttrs,
}

// compositionMarkers force the composition dialect when called at the top
// level of a script.
var compositionMarkers = treesitterhelper.CallPattern(
	"defineProps", "defineEmits", "defineModel", "defineSlots", "defineOptions",
	"withDefaults", "ref", "reactive", "computed",
)

// locate finds the component definition and detects its dialect.
func (p *parser) locate() *component {
	exported, stmt := p.exportedValue()

	if p.setup || (exported == nil && p.hasTopLevelComposition()) {
		return &component{dialect: DialectComposition, node: p.root, anchors: []*tree_sitter.Node{p.firstDocComment()}}
	}
	if exported == nil {
		return nil
	}

	c := &component{anchors: []*tree_sitter.Node{stmt}}
	node := p.unwrapComponent(exported, 0, c)
	if node == nil {
		return nil
	}
	c.anchors = append(c.anchors, node, p.firstDocComment())

	switch node.Kind() {
	case "class", "class_declaration", "abstract_class_declaration":
		c.dialect = DialectDecoratedClass
		c.node = node
		c.options = p.classOptions(node)
	case "object":
		c.dialect = DialectPlainObject
		c.node = node
		c.mixins = p.mixins(node, 0)
	default:
		return nil
	}
	return c
}

// exportedValue returns the `export default` value or the right side of a
// `module.exports =` assignment, with its statement.
func (p *parser) exportedValue() (*tree_sitter.Node, *tree_sitter.Node) {
	for i := uint(0); i < p.root.NamedChildCount(); i++ {
		stmt := p.root.NamedChild(i)
		switch stmt.Kind() {
		case "export_statement":
			if treesitterhelper.GetFirstNodeOfKind(stmt, "default") == nil {
				continue
			}
			if value := stmt.ChildByFieldName("value"); value != nil {
				return value, stmt
			}
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				return decl, stmt
			}
		case "expression_statement":
			expr := stmt.NamedChild(0)
			if expr == nil || expr.Kind() != "assignment_expression" {
				continue
			}
			if p.text(expr.ChildByFieldName("left")) == "module.exports" {
				return expr.ChildByFieldName("right"), stmt
			}
		}
	}
	return nil, nil
}

func (p *parser) hasTopLevelComposition() bool {
	for i := uint(0); i < p.root.NamedChildCount(); i++ {
		stmt := p.root.NamedChild(i)
		if stmt.Kind() == "function_declaration" || stmt.Kind() == "class_declaration" {
			continue
		}
		skip := treesitterhelper.Or(treesitterhelper.FunctionLiteralPattern, treesitterhelper.NodeKind("function_declaration"))
		if len(treesitterhelper.FindAll(stmt, compositionMarkers, p.source, skip)) > 0 {
			return true
		}
	}
	return false
}

// firstDocComment returns the leading doc comment of a script when it is
// not attached to the declaration that follows it.
func (p *parser) firstDocComment() *tree_sitter.Node {
	first := p.root.NamedChild(0)
	if first == nil || !isDocComment(first, p.source) {
		return nil
	}
	next := first.NextNamedSibling()
	if next == nil || next.Kind() == "import_statement" {
		return first
	}
	gap := string(p.source[first.EndByte():next.StartByte()])
	if strings.Count(gap, "\n") > 1 {
		return first
	}
	return nil
}

// unwrapComponent normalizes factories, wrappers and references down to the
// object literal or class that defines the component.
func (p *parser) unwrapComponent(node *tree_sitter.Node, depth int, c *component) *tree_sitter.Node {
	node = unwrapExpression(node)
	if node == nil || depth > maxUnwrap {
		return nil
	}

	switch node.Kind() {
	case "object", "class", "class_declaration", "abstract_class_declaration":
		return node

	case "identifier":
		value := p.scope.Resolve(node)
		if !value.Resolved() || value.Node.Id() == node.Id() {
			return nil
		}
		c.anchors = append(c.anchors, declarationOf(value.Node))
		return p.unwrapComponent(value.Node, depth+1, c)

	case "arrow_function", "function_expression", "function", "function_declaration":
		return p.unwrapComponent(valuefmt.Returned(node), depth+1, c)

	case "call_expression":
		args := treesitterhelper.Arguments(node)
		// defineComponent({...}), Vue.extend({...}), Vue.component('x', {...})
		for i := len(args) - 1; i >= 0; i-- {
			switch unwrapExpression(args[i]).Kind() {
			case "object", "class":
				return unwrapExpression(args[i])
			}
		}
		// Factories defined in the same file.
		callee := p.scope.Resolve(node.ChildByFieldName("function"))
		if callee.Resolved() && (valuefmt.IsFunction(callee.Node) || callee.Node.Kind() == "function_declaration") {
			return p.unwrapComponent(callee.Node, depth+1, c)
		}
		for _, arg := range args {
			if found := p.unwrapComponent(arg, depth+1, c); found != nil {
				return found
			}
		}
	}
	return nil
}

// declarationOf returns the statement declaring a bound value, so the
// statement's comment documents the component.
func declarationOf(value *tree_sitter.Node) *tree_sitter.Node {
	for n := value; n != nil; n = n.Parent() {
		switch n.Kind() {
		case "lexical_declaration", "variable_declaration", "function_declaration", "class_declaration":
			return n
		case "program":
			return value
		}
	}
	return value
}

// mixins resolves the in-file option objects listed in `mixins` and
// `extends`, depth first.
func (p *parser) mixins(object *tree_sitter.Node, depth int) []*tree_sitter.Node {
	if depth > maxUnwrap {
		return nil
	}
	var out []*tree_sitter.Node
	add := func(node *tree_sitter.Node) {
		resolved := p.unwrapComponent(node, 0, &component{})
		if resolved == nil || resolved.Kind() != "object" {
			return
		}
		out = append(out, p.mixins(resolved, depth+1)...)
		out = append(out, resolved)
	}

	if ext := treesitterhelper.ObjectValue(object, "extends", p.source); ext != nil {
		add(ext)
	}
	if list := unwrapExpression(treesitterhelper.ObjectValue(object, "mixins", p.source)); list != nil && list.Kind() == "array" {
		for i := uint(0); i < list.NamedChildCount(); i++ {
			add(list.NamedChild(i))
		}
	}
	return out
}

// classOptions returns the object passed to the class decorator.
func (p *parser) classOptions(class *tree_sitter.Node) *tree_sitter.Node {
	for _, decorator := range p.classDecorators(class) {
		expr := decorator.NamedChild(0)
		if expr == nil || expr.Kind() != "call_expression" {
			continue
		}
		for _, arg := range treesitterhelper.Arguments(expr) {
			if arg = unwrapExpression(arg); arg.Kind() == "object" {
				return arg
			}
		}
	}
	return nil
}

// classDecorators lists the decorators of a class, including those written
// before `export default`.
func (p *parser) classDecorators(class *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	collect := func(node *tree_sitter.Node) {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child.Kind() == "decorator" {
				out = append(out, child)
			}
		}
	}
	collect(class)
	if parent := class.Parent(); parent != nil && parent.Kind() == "export_statement" {
		collect(parent)
	}
	return out
}
