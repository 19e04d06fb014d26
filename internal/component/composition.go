package component

import (
	"slices"

	"github.com/shopware/vuedoc/internal/entry"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// dataCalls produce reactive fields.
var dataCalls = []string{"ref", "shallowRef", "reactive", "shallowReactive"}

// topLevelDeclarators returns the variable declarators of a program or
// function body, exported ones included.
func topLevelDeclarators(container *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	var visit func(stmt *tree_sitter.Node)
	visit = func(stmt *tree_sitter.Node) {
		switch stmt.Kind() {
		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				visit(decl)
			}
		case "lexical_declaration", "variable_declaration":
			for i := uint(0); i < stmt.NamedChildCount(); i++ {
				if decl := stmt.NamedChild(i); decl.Kind() == "variable_declarator" {
					out = append(out, decl)
				}
			}
		}
	}
	for i := uint(0); i < container.NamedChildCount(); i++ {
		visit(container.NamedChild(i))
	}
	return out
}

type namedFunction struct {
	name   string
	node   *tree_sitter.Node
	anchor *tree_sitter.Node
}

// topLevelFunctions returns the function declarations of a container and
// the variables bound to function literals.
func topLevelFunctions(p *parser, container *tree_sitter.Node) []namedFunction {
	var out []namedFunction
	for i := uint(0); i < container.NamedChildCount(); i++ {
		stmt := container.NamedChild(i)
		if stmt.Kind() == "export_statement" && stmt.ChildByFieldName("declaration") != nil {
			stmt = stmt.ChildByFieldName("declaration")
		}
		switch stmt.Kind() {
		case "function_declaration", "generator_function_declaration":
			if name := stmt.ChildByFieldName("name"); name != nil {
				out = append(out, namedFunction{name: p.text(name), node: stmt, anchor: stmt})
			}
		}
	}
	for _, decl := range topLevelDeclarators(container) {
		name := decl.ChildByFieldName("name")
		if name == nil || name.Kind() != "identifier" {
			continue
		}
		if fn := p.functionValue(decl.ChildByFieldName("value")); fn != nil {
			out = append(out, namedFunction{name: p.text(name), node: fn, anchor: decl})
		}
	}
	return out
}

// topLevelCalls returns the calls to one of the names made by the
// statements of a container, either as a declarator value or as an
// expression statement.
func topLevelCalls(p *parser, container *tree_sitter.Node, names ...string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	add := func(expr *tree_sitter.Node) {
		expr = unwrapExpression(expr)
		if expr != nil && expr.Kind() == "call_expression" && slices.Contains(names, treesitterhelper.CalleeName(expr, p.source)) {
			out = append(out, expr)
		}
	}
	for i := uint(0); i < container.NamedChildCount(); i++ {
		stmt := container.NamedChild(i)
		if stmt.Kind() == "expression_statement" {
			add(stmt.NamedChild(0))
		}
	}
	for _, decl := range topLevelDeclarators(container) {
		add(decl.ChildByFieldName("value"))
	}
	slices.SortStableFunc(out, func(a, b *tree_sitter.Node) int {
		return int(a.StartByte()) - int(b.StartByte())
	})
	return out
}

// declaredName returns the identifier a call's result is bound to, or "".
func declaredName(p *parser, call *tree_sitter.Node) (string, *tree_sitter.Node) {
	for n := call.Parent(); n != nil; n = n.Parent() {
		switch n.Kind() {
		case "variable_declarator":
			name := n.ChildByFieldName("name")
			if name == nil || name.Kind() != "identifier" {
				return "", n
			}
			return p.text(name), n
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression", "await_expression":
			continue
		}
		return "", call
	}
	return "", call
}

func exposes(exposed map[string]bool, name string) bool {
	return exposed == nil || exposed[name]
}

func buildCompositionName(p *parser, c *component) {
	if p.nameTag(c) {
		return
	}
	for _, options := range defineOptions(p, c.node) {
		if value := treesitterhelper.ObjectValue(options, "name", p.source); value != nil {
			if name, ok := p.resolveString(value); ok {
				p.emit(value, &entry.NameEntry{Value: name})
			}
		}
	}
}

// defineOptions returns the objects passed to defineOptions().
func defineOptions(p *parser, container *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, call := range topLevelCalls(p, container, "defineOptions") {
		if arg := unwrapExpression(first(treesitterhelper.Arguments(call))); arg != nil && arg.Kind() == "object" {
			out = append(out, arg)
		}
	}
	return out
}

func buildCompositionInheritAttrs(p *parser, c *component) {
	for _, options := range defineOptions(p, c.node) {
		p.inheritAttrs(treesitterhelper.ObjectValue(options, "inheritAttrs", p.source))
	}
}

func buildCompositionSlots(p *parser, c *component) {
	p.tagSlots(c)
	compositionSlots(p, c.node)
}

// compositionSlots publishes the slots typed by defineSlots<T>() and the
// slots read in a container.
func compositionSlots(p *parser, container *tree_sitter.Node) {
	for _, call := range topLevelCalls(p, container, "defineSlots") {
		for _, member := range p.typeMembers(treesitterhelper.TypeArgument(call), 0) {
			name := treesitterhelper.PropertyName(member, p.source)
			if name == "" {
				continue
			}
			slot := &entry.SlotEntry{Name: name, Props: []entry.SlotProp{}}
			if _, keep := p.document(slot, member, entry.VisibilityUnset, entry.VisibilityUnset); !keep {
				continue
			}
			slot.Props = p.slotProps(member)
			p.emit(member, slot)
		}
	}
	p.renderSlots(container)
}

// slotProps types the props of a slot signature from its first parameter.
func (p *parser) slotProps(member *tree_sitter.Node) []entry.SlotProp {
	fn := member
	if member.Kind() == "property_signature" {
		annotation := member.ChildByFieldName("type")
		if annotation == nil || annotation.NamedChild(0) == nil {
			return []entry.SlotProp{}
		}
		fn = annotation.NamedChild(0)
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return []entry.SlotProp{}
	}
	props := []entry.SlotProp{}
	annotation := params.NamedChild(0).ChildByFieldName("type")
	if annotation == nil {
		return props
	}
	for _, prop := range p.typeMembers(annotation.NamedChild(0), 0) {
		sp := entry.SlotProp{
			Name: treesitterhelper.PropertyName(prop, p.source),
			Type: entry.Scalar(entry.Unknown),
		}
		if t := p.format.TypeFromAnnotation(prop); t != nil {
			sp.Type = t
		}
		if c := p.commentOf(prop); c != nil {
			sp.Description = c.Description
		}
		props = append(props, sp)
	}
	return props
}

// typeMembers lists the members of an object type, following same-file
// interfaces and type aliases.
func (p *parser) typeMembers(node *tree_sitter.Node, depth int) []*tree_sitter.Node {
	if node == nil || depth > maxUnwrap {
		return nil
	}
	switch node.Kind() {
	case "type_annotation", "parenthesized_type":
		return p.typeMembers(node.NamedChild(0), depth+1)
	case "object_type", "interface_body":
		var out []*tree_sitter.Node
		for i := uint(0); i < node.NamedChildCount(); i++ {
			switch child := node.NamedChild(i); child.Kind() {
			case "property_signature", "method_signature", "call_signature":
				out = append(out, child)
			}
		}
		return out
	case "intersection_type":
		var out []*tree_sitter.Node
		for i := uint(0); i < node.NamedChildCount(); i++ {
			out = append(out, p.typeMembers(node.NamedChild(i), depth+1)...)
		}
		return out
	case "type_identifier":
		decl := p.typeDeclaration(p.text(node))
		if decl == nil {
			return nil
		}
		if decl.Kind() == "type_alias_declaration" {
			return p.typeMembers(decl.ChildByFieldName("value"), depth+1)
		}
		var out []*tree_sitter.Node
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			if clause := decl.NamedChild(i); clause.Kind() == "extends_type_clause" {
				for j := uint(0); j < clause.NamedChildCount(); j++ {
					out = append(out, p.typeMembers(clause.NamedChild(j), depth+1)...)
				}
			}
		}
		return append(out, p.typeMembers(decl.ChildByFieldName("body"), depth+1)...)
	}
	return nil
}

// typeDeclaration finds a top-level interface or type alias by name.
func (p *parser) typeDeclaration(name string) *tree_sitter.Node {
	for i := uint(0); i < p.root.NamedChildCount(); i++ {
		stmt := p.root.NamedChild(i)
		if stmt.Kind() == "export_statement" && stmt.ChildByFieldName("declaration") != nil {
			stmt = stmt.ChildByFieldName("declaration")
		}
		switch stmt.Kind() {
		case "interface_declaration", "type_alias_declaration":
			if p.text(stmt.ChildByFieldName("name")) == name {
				return stmt
			}
		}
	}
	return nil
}

func buildCompositionProps(p *parser, c *component) {
	for _, call := range topLevelCalls(p, c.node, "defineProps", "withDefaults", "defineModel") {
		switch treesitterhelper.CalleeName(call, p.source) {
		case "withDefaults":
			args := treesitterhelper.Arguments(call)
			inner := unwrapExpression(first(args))
			if inner != nil && inner.Kind() == "call_expression" {
				p.defineProps(inner, unwrapExpression(first(after(args, 1))))
			}
		case "defineProps":
			p.defineProps(call, nil)
		case "defineModel":
			name, options, declared := p.defineModel(call)
			_, anchor := declaredName(p, call)
			if prop, keep := p.propEntry(name, options, anchor, declared); keep {
				p.emit(anchor, prop)
			}
		}
	}
}

// defineProps publishes the props of a defineProps() call, either from its
// runtime argument or from its type argument with optional defaults.
func (p *parser) defineProps(call, defaults *tree_sitter.Node) {
	if arg := first(treesitterhelper.Arguments(call)); arg != nil {
		p.propsDeclaration(arg)
		return
	}
	for _, member := range p.typeMembers(treesitterhelper.TypeArgument(call), 0) {
		if member.Kind() != "property_signature" && member.Kind() != "method_signature" {
			continue
		}
		name := treesitterhelper.PropertyName(member, p.source)
		declared := p.format.TypeFromAnnotation(member)
		if member.Kind() == "method_signature" {
			declared = entry.Scalar("function")
		}
		prop, keep := p.propEntry(name, nil, member, declared)
		if !keep {
			continue
		}
		prop.Required = !optionalMember(member)
		if def := treesitterhelper.ObjectValue(defaults, name, p.source); def != nil && prop.Default == "" {
			prop.Default = p.defaultValue(memberValue(def), prop.Type)
		}
		p.emit(member, prop)
	}
}

// memberValue returns the value of a shorthand or pair member, or the
// method itself.
func memberValue(node *tree_sitter.Node) *tree_sitter.Node {
	if node.Kind() == "pair" {
		return node.ChildByFieldName("value")
	}
	return node
}

func optionalMember(member *tree_sitter.Node) bool {
	for i := uint(0); i < member.ChildCount(); i++ {
		if member.Child(i).Kind() == "?" {
			return true
		}
	}
	return false
}

// defineModel returns the prop name, options and type argument of a
// defineModel() call.
func (p *parser) defineModel(call *tree_sitter.Node) (string, *tree_sitter.Node, entry.TypeExpr) {
	name := "modelValue"
	var options *tree_sitter.Node
	for _, arg := range treesitterhelper.Arguments(call) {
		if s, ok := p.resolveString(arg); ok {
			name = s
			continue
		}
		if arg = unwrapExpression(arg); arg.Kind() == "object" {
			options = arg
		}
	}
	var declared entry.TypeExpr
	if t := treesitterhelper.TypeArgument(call); t != nil {
		declared = p.format.Annotation(t)
	}
	return name, options, declared
}

func buildCompositionModel(p *parser, c *component) {
	for _, call := range topLevelCalls(p, c.node, "defineModel") {
		name, _, _ := p.defineModel(call)
		_, anchor := declaredName(p, call)
		if model, keep := p.modelEntry(name, "update:"+name, anchor); keep {
			p.emit(anchor, model)
		}
	}
}

func buildCompositionData(p *parser, c *component) {
	compositionData(p, c.node, nil)
}

// compositionData publishes the reactive variables of a container.
func compositionData(p *parser, container *tree_sitter.Node, exposed map[string]bool) {
	for _, decl := range topLevelDeclarators(container) {
		name := decl.ChildByFieldName("name")
		call := unwrapExpression(decl.ChildByFieldName("value"))
		if name == nil || name.Kind() != "identifier" || call == nil || call.Kind() != "call_expression" {
			continue
		}
		if !slices.Contains(dataCalls, treesitterhelper.CalleeName(call, p.source)) || !exposes(exposed, p.text(name)) {
			continue
		}
		var declared entry.TypeExpr
		if t := treesitterhelper.TypeArgument(call); t != nil {
			declared = p.format.Annotation(t)
		}
		if annotation := p.format.TypeFromAnnotation(decl); declared == nil && annotation != nil {
			declared = annotation
		}
		value := first(treesitterhelper.Arguments(call))
		if data, keep := p.dataEntry(p.text(name), value, decl, declared, entry.VisibilityUnset); keep {
			p.emit(decl, data)
		}
	}
}

func buildCompositionComputed(p *parser, c *component) {
	compositionComputed(p, c.node, nil)
}

// compositionComputed publishes the computed() variables of a container.
func compositionComputed(p *parser, container *tree_sitter.Node, exposed map[string]bool) {
	for _, decl := range topLevelDeclarators(container) {
		name := decl.ChildByFieldName("name")
		call := unwrapExpression(decl.ChildByFieldName("value"))
		if name == nil || name.Kind() != "identifier" || call == nil || call.Kind() != "call_expression" {
			continue
		}
		if treesitterhelper.CalleeName(call, p.source) != "computed" || !exposes(exposed, p.text(name)) {
			continue
		}
		arg := unwrapExpression(first(treesitterhelper.Arguments(call)))
		getter := p.functionValue(arg)
		if getter == nil && arg != nil && arg.Kind() == "object" {
			getter = p.memberFunction(optionOf(p, arg, "get"))
		}
		computed, keep := p.computedEntry(p.text(name), getter, decl, entry.VisibilityUnset)
		if !keep {
			continue
		}
		if t := treesitterhelper.TypeArgument(call); t != nil && computed.Type.IsUnknown() {
			computed.Type = p.format.Annotation(t)
		}
		p.emit(decl, computed)
	}
}

func buildCompositionMethods(p *parser, c *component) {
	compositionMethods(p, c.node, nil)
}

// compositionMethods publishes the functions of a container.
func compositionMethods(p *parser, container *tree_sitter.Node, exposed map[string]bool) {
	for _, fn := range topLevelFunctions(p, container) {
		if !exposes(exposed, fn.name) {
			continue
		}
		if method, keep := p.methodEntry(fn.name, fn.node, fn.anchor, entry.VisibilityUnset); keep {
			p.emit(fn.anchor, method)
		}
	}
}

func buildCompositionEvents(p *parser, c *component) {
	for _, call := range topLevelCalls(p, c.node, "defineEmits") {
		if arg := first(treesitterhelper.Arguments(call)); arg != nil {
			p.declaredEvents(arg)
			continue
		}
		p.typedEvents(treesitterhelper.TypeArgument(call))
	}
	for _, call := range topLevelCalls(p, c.node, "defineModel") {
		name, _, declared := p.defineModel(call)
		if declared == nil {
			declared = entry.Scalar(entry.Unknown)
		}
		_, anchor := declaredName(p, call)
		args := []entry.Param{{Name: "value", Type: declared}}
		if event, keep := p.eventEntry("update:"+name, anchor, args); keep {
			p.emit(anchor, event)
		}
	}

	w := &eventWalker{p: p}
	w.walk(c.node)
	for _, fn := range topLevelFunctions(p, c.node) {
		w.walkFunction(fn.node)
	}
}

// typedEvents publishes the events of a defineEmits<T>() type argument:
// call signatures `(e: 'change', id: number): void` or properties
// `change: [id: number]`.
func (p *parser) typedEvents(typeArg *tree_sitter.Node) {
	for _, member := range p.typeMembers(typeArg, 0) {
		switch member.Kind() {
		case "call_signature":
			params := member.ChildByFieldName("parameters")
			if params == nil || params.NamedChildCount() == 0 {
				continue
			}
			nameParam := params.NamedChild(0)
			var args []entry.Param
			for i := uint(1); i < params.NamedChildCount(); i++ {
				args = append(args, p.paramOf(params.NamedChild(i)))
			}
			for _, s := range treesitterhelper.FindAll(nameParam.ChildByFieldName("type"), treesitterhelper.NodeKind("string"), p.source) {
				name := stringContent(p.text(s))
				if event, keep := p.eventEntry(name, member, slices.Clone(args)); keep {
					p.emit(member, event)
				}
			}
		case "property_signature":
			name := treesitterhelper.PropertyName(member, p.source)
			var args []entry.Param
			if annotation := member.ChildByFieldName("type"); annotation != nil {
				if tuple := annotation.NamedChild(0); tuple != nil && tuple.Kind() == "tuple_type" {
					for i := uint(0); i < tuple.NamedChildCount(); i++ {
						args = append(args, p.tupleMember(tuple.NamedChild(i)))
					}
				}
			}
			if event, keep := p.eventEntry(name, member, args); keep {
				p.emit(member, event)
			}
		}
	}
}

func (p *parser) tupleMember(node *tree_sitter.Node) entry.Param {
	switch node.Kind() {
	case "required_parameter", "optional_parameter":
		return p.paramOf(node)
	case "rest_type":
		return entry.Param{Rest: true, Type: p.format.Annotation(node.NamedChild(0))}
	}
	return entry.Param{Type: p.format.Annotation(node)}
}

// returnedObject returns the object a setup-like function returns.
func returnedObject(fn *tree_sitter.Node) *tree_sitter.Node {
	returned := unwrapExpression(valuefmt.Returned(fn))
	if returned == nil || returned.Kind() != "object" {
		return nil
	}
	return returned
}
