package component

import (
	"slices"
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/jsdoc"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

type componentComment struct {
	node    *tree_sitter.Node
	comment *jsdoc.Comment
}

// componentDoc returns the doc comment of the component itself.
func (p *parser) componentDoc(c *component) *componentComment {
	if p.comment != nil {
		return p.comment
	}
	p.comment = &componentComment{}
	for _, anchor := range c.anchors {
		if anchor == nil {
			continue
		}
		node := anchor
		if !isDocComment(anchor, p.source) {
			node = findComment(anchor, p.source)
		}
		if node != nil {
			p.comment = &componentComment{node: node, comment: jsdoc.Parse(p.text(node))}
			break
		}
	}
	return p.comment
}

func buildDescription(p *parser, c *component) {
	doc := p.componentDoc(c)
	if doc.comment == nil || doc.comment.Description == "" {
		return
	}
	p.emit(doc.node, &entry.DescriptionEntry{Value: doc.comment.Description})
}

func buildKeywords(p *parser, c *component) {
	doc := p.componentDoc(c)
	if doc.comment == nil {
		return
	}
	p.emit(doc.node, &entry.KeywordsEntry{Value: doc.comment.Keywords()})
}

// nameTag publishes the name given by a `@name` tag and reports whether
// there was one.
func (p *parser) nameTag(c *component) bool {
	doc := p.componentDoc(c)
	name := strings.TrimSpace(doc.comment.Value("name"))
	if name == "" {
		return false
	}
	p.emit(doc.node, &entry.NameEntry{Value: name})
	return true
}

// tagSlots publishes the slots declared with `@slot name description`.
func (p *parser) tagSlots(c *component) {
	doc := p.componentDoc(c)
	for _, tag := range doc.comment.All("slot") {
		name, description, _ := strings.Cut(tag.Text, " ")
		if name == "" {
			continue
		}
		slot := &entry.SlotEntry{
			Base:  entry.Base{Visibility: entry.VisibilityPublic, Keywords: []entry.Keyword{}, Description: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(description), "-"))},
			Name:  name,
			Props: []entry.SlotProp{},
		}
		p.emit(doc.node, slot)
	}
}

// renderSlots publishes the slots read through `$slots`, `$scopedSlots` or
// `slots` below node. A call on a slot types its props from the object
// passed.
func (p *parser) renderSlots(node *tree_sitter.Node) {
	seen := make(map[string]bool)
	for _, access := range treesitterhelper.FindAll(node, treesitterhelper.SlotsAccessPattern, p.source) {
		name := p.text(access.ChildByFieldName("property"))
		if seen[name] {
			continue
		}
		seen[name] = true
		slot := &entry.SlotEntry{Name: name, Props: []entry.SlotProp{}}
		if _, keep := p.document(slot, statementOf(access), entry.VisibilityUnset, entry.VisibilityUnset); !keep {
			continue
		}
		if parent := access.Parent(); parent != nil && parent.Kind() == "call_expression" && parent.ChildByFieldName("function").Id() == access.Id() {
			args := treesitterhelper.Arguments(parent)
			if len(args) > 0 {
				if object := unwrapExpression(args[0]); object.Kind() == "object" {
					for _, member := range treesitterhelper.ObjectMembers(object) {
						value := member
						if member.Kind() == "pair" {
							value = member.ChildByFieldName("value")
						}
						slot.Props = append(slot.Props, entry.SlotProp{
							Name: treesitterhelper.PropertyName(member, p.source),
							Type: p.format.TypeOf(value),
						})
					}
				}
			}
		}
		p.emit(access, slot)
	}
}

// statementOf returns the statement enclosing node.
func statementOf(node *tree_sitter.Node) *tree_sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		if strings.HasSuffix(n.Kind(), "_statement") || strings.HasSuffix(n.Kind(), "_declaration") {
			return n
		}
	}
	return node
}

// functionParams describes the parameters of a function literal, merged
// with its @param tags.
func (p *parser) functionParams(fn *tree_sitter.Node, c *jsdoc.Comment, at *tree_sitter.Node) []entry.Param {
	params := []entry.Param{}
	if fn != nil {
		list := fn.ChildByFieldName("parameters")
		if list == nil {
			list = fn.ChildByFieldName("parameter")
		}
		if list != nil && list.Kind() != "formal_parameters" {
			params = append(params, p.paramOf(list))
		} else if list != nil {
			for i := uint(0); i < list.NamedChildCount(); i++ {
				child := list.NamedChild(i)
				if child.Kind() == "comment" || child.Kind() == "decorator" {
					continue
				}
				params = append(params, p.paramOf(child))
			}
		}
	}

	tagged, errs := c.ParseParams("param", "arg", "argument")
	for _, err := range errs {
		p.warn(at, "%s", err)
	}
	for _, tag := range tagged {
		idx := slices.IndexFunc(params, func(param entry.Param) bool { return param.Name == tag.Name })
		if idx < 0 {
			params = append(params, tag)
			continue
		}
		merged := params[idx]
		if !tag.Type.IsUnknown() {
			merged.Type = tag.Type
		}
		merged.Description = tag.Description
		merged.Rest = merged.Rest || tag.Rest
		merged.Optional = merged.Optional || tag.Optional
		if tag.DefaultValue != "" {
			merged.DefaultValue = tag.DefaultValue
		}
		params[idx] = merged
	}
	return params
}

// paramOf describes one formal parameter.
func (p *parser) paramOf(node *tree_sitter.Node) entry.Param {
	param := entry.Param{Type: entry.Scalar(entry.Unknown)}

	switch node.Kind() {
	case "identifier":
		param.Name = p.text(node)
	case "assignment_pattern":
		inner := p.paramOf(node.ChildByFieldName("left"))
		right := node.ChildByFieldName("right")
		inner.Optional = true
		inner.DefaultValue = p.format.Literal(right)
		if inner.Type.IsUnknown() {
			inner.Type = p.format.TypeOf(right)
		}
		return inner
	case "rest_pattern":
		inner := p.paramOf(node.NamedChild(0))
		inner.Rest = true
		return inner
	case "object_pattern":
		param.Name = compact(p.text(node))
		param.Type = entry.Scalar("object")
	case "array_pattern":
		param.Name = compact(p.text(node))
		param.Type = entry.Scalar("array")
	case "required_parameter", "optional_parameter":
		inner := p.paramOf(node.ChildByFieldName("pattern"))
		if t := p.format.TypeFromAnnotation(node); t != nil {
			inner.Type = t
		}
		if value := node.ChildByFieldName("value"); value != nil {
			inner.Optional = true
			inner.DefaultValue = p.format.Literal(value)
			if inner.Type.IsUnknown() {
				inner.Type = p.format.TypeOf(value)
			}
		}
		if node.Kind() == "optional_parameter" {
			inner.Optional = true
		}
		return inner
	default:
		param.Name = compact(p.text(node))
	}
	return param
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// returnOf describes what a function returns: the @returns tag, the
// declared return type, or the type of the returned expression.
func (p *parser) returnOf(fn *tree_sitter.Node, c *jsdoc.Comment, at *tree_sitter.Node) entry.Return {
	if tag := c.Tag("returns", "return"); tag != nil {
		ret, err := jsdoc.ParseReturn(tag.Text)
		if err != nil {
			p.warn(at, "@%s: %s", tag.Name, err)
		}
		return ret
	}
	if t := p.format.ReturnType(fn); t != nil {
		return entry.Return{Type: t}
	}
	if returned := valuefmt.Returned(fn); returned != nil {
		return entry.Return{Type: p.format.TypeOf(returned)}
	}
	return entry.Return{Type: entry.Scalar("void")}
}

// methodEntry builds a method from a function literal.
func (p *parser) methodEntry(name string, fn, anchor *tree_sitter.Node, marker entry.Visibility) (*entry.MethodEntry, bool) {
	method := &entry.MethodEntry{Name: name}
	c, keep := p.document(method, anchor, entry.VisibilityUnset, marker)
	if !keep {
		return nil, false
	}

	var params []entry.Param
	var ret entry.Return
	p.withFunction(fn, func(*tree_sitter.Node) {
		params = p.functionParams(fn, c, anchor)
		ret = p.returnOf(fn, c, anchor)
	})
	method.Params = params
	method.Returns = ret
	method.Syntax = syntaxOf(c, name, params, ret.Type)
	return method, true
}

func syntaxOf(c *jsdoc.Comment, name string, params []entry.Param, returns entry.TypeExpr) []string {
	var syntax []string
	for _, tag := range c.All("syntax") {
		if tag.Text != "" {
			syntax = append(syntax, tag.Text)
		}
	}
	if len(syntax) == 0 {
		syntax = []string{entry.Signature(name, params, returns)}
	}
	return syntax
}

// computedEntry builds a computed value from its getter.
func (p *parser) computedEntry(name string, getter, anchor *tree_sitter.Node, marker entry.Visibility) (*entry.ComputedEntry, bool) {
	computed := &entry.ComputedEntry{Name: name, Dependencies: []string{}}
	c, keep := p.document(computed, anchor, entry.VisibilityUnset, marker)
	if !keep {
		return nil, false
	}

	computed.Type = entry.Scalar(entry.Unknown)
	switch {
	case c.Has("type"):
		t, err := jsdoc.ParseTypeTag(c.Value("type"))
		if err != nil {
			p.warn(anchor, "@type: %s", err)
		}
		computed.Type = t
	case getter != nil:
		p.withFunction(getter, func(*tree_sitter.Node) {
			computed.Type = p.returnOf(getter, c, anchor).Type
		})
		computed.Dependencies = p.dependencies(getter)
	}
	if computed.Type.String() == "void" {
		computed.Type = entry.Scalar(entry.Unknown)
	}
	return computed, true
}

// dependencies lists the reactive reads of a getter: `this.x`, reads
// through its first parameter (`vm => vm.x`), `x.value` of refs and
// `props.x`.
func (p *parser) dependencies(getter *tree_sitter.Node) []string {
	deps := []string{}
	add := func(name string) {
		if name != "" && !slices.Contains(deps, name) {
			deps = append(deps, name)
		}
	}

	receiver := ""
	if params := getter.ChildByFieldName("parameters"); params != nil && params.NamedChildCount() > 0 {
		receiver = p.text(params.NamedChild(0))
	} else if param := getter.ChildByFieldName("parameter"); param != nil {
		receiver = p.text(param)
	}

	for _, member := range treesitterhelper.FindAll(getter, treesitterhelper.NodeKind("member_expression"), p.source) {
		object := member.ChildByFieldName("object")
		property := p.text(member.ChildByFieldName("property"))
		switch {
		case object.Kind() == "this":
			add(property)
		case object.Kind() == "identifier" && receiver != "" && p.text(object) == receiver:
			add(property)
		case object.Kind() == "identifier":
			b := p.scope.Lookup(p.text(object))
			if b == nil {
				continue
			}
			switch {
			case b.Composition == "defineProps":
				add(property)
			case property == "value" && slices.Contains([]string{"ref", "shallowRef", "computed", "defineModel"}, b.Composition):
				add(p.text(object))
			}
		}
	}
	return deps
}

// dataEntry builds a reactive field from its initial value.
func (p *parser) dataEntry(name string, value, anchor *tree_sitter.Node, declared entry.TypeExpr, marker entry.Visibility) (*entry.DataEntry, bool) {
	data := &entry.DataEntry{Name: name}
	c, keep := p.document(data, anchor, entry.VisibilityUnset, marker)
	if !keep {
		return nil, false
	}

	data.Type = declared
	if data.Type == nil {
		data.Type = p.format.TypeOf(value)
	}
	if c.Has("type") {
		t, err := jsdoc.ParseTypeTag(c.Value("type"))
		if err != nil {
			p.warn(anchor, "@type: %s", err)
		}
		data.Type = t
	}

	data.InitialValue = "undefined"
	if value != nil {
		data.InitialValue = p.format.Literal(value)
	}
	if c.Has("initialValue") {
		data.InitialValue = c.Value("initialValue")
	}
	return data, true
}

// dataObject publishes the fields of a data object literal.
func (p *parser) dataObject(object *tree_sitter.Node) {
	for _, member := range treesitterhelper.ObjectMembers(object) {
		name := treesitterhelper.PropertyName(member, p.source)
		var value *tree_sitter.Node
		switch member.Kind() {
		case "pair":
			value = member.ChildByFieldName("value")
		case "shorthand_property_identifier":
			value = member
		case "method_definition":
			value = member
		default:
			continue
		}
		if data, ok := p.dataEntry(name, value, member, nil, entry.VisibilityUnset); ok {
			p.emit(member, data)
		}
	}
}

// propEntry builds a prop from its declaration value: a constructor, a
// constructor list, an options object, or nil for array-declared props.
func (p *parser) propEntry(name string, value, anchor *tree_sitter.Node, declared entry.TypeExpr) (*entry.PropEntry, bool) {
	prop := &entry.PropEntry{Name: name}
	c, keep := p.document(prop, anchor, entry.VisibilityUnset, entry.VisibilityUnset)
	if !keep {
		return nil, false
	}

	prop.Type = declared
	value = unwrapExpression(value)
	switch {
	case value == nil:
		if prop.Type == nil {
			prop.Type = entry.Scalar("any")
		}
	case value.Kind() == "object":
		if t := treesitterhelper.ObjectValue(value, "type", p.source); t != nil {
			prop.Type = p.format.PropType(t)
		}
		if required := treesitterhelper.ObjectValue(value, "required", p.source); required != nil {
			prop.Required = p.text(required) == "true"
		}
		if def := treesitterhelper.ObjectValue(value, "default", p.source); def != nil {
			prop.Default = p.defaultValue(def, prop.Type)
		}
	default:
		prop.Type = p.format.PropType(value)
	}
	if prop.Type == nil {
		prop.Type = entry.Scalar("any")
	}

	if c.Has("type") {
		t, err := jsdoc.ParseTypeTag(c.Value("type"))
		if err != nil {
			p.warn(anchor, "@type: %s", err)
		}
		prop.Type = t
	}
	if c.Has("default") {
		prop.Default = c.Value("default")
	}
	if c.Value("kind") == "function" || prop.Type.String() == "function" {
		params, errs := c.ParseParams("param", "arg", "argument")
		for _, err := range errs {
			p.warn(anchor, "%s", err)
		}
		if params == nil {
			params = []entry.Param{}
		}
		ret := entry.Return{Type: entry.Scalar("void")}
		if tag := c.Tag("returns", "return"); tag != nil {
			ret, _ = jsdoc.ParseReturn(tag.Text)
		}
		prop.Function = &entry.FunctionSignature{
			Params:  params,
			Returns: ret,
			Syntax:  syntaxOf(c, name, params, ret.Type),
		}
	}
	return prop, true
}

// defaultValue renders a prop default. Factories of object and array
// defaults render the value they return.
func (p *parser) defaultValue(node *tree_sitter.Node, typ entry.TypeExpr) string {
	node = unwrapExpression(node)
	if valuefmt.IsFunction(node) && typ.String() != "function" {
		if returned := valuefmt.Returned(node); returned != nil {
			return compact(p.format.Literal(returned))
		}
	}
	return compact(p.format.Literal(node))
}

// eventEntry builds a declared event.
func (p *parser) eventEntry(name string, anchor *tree_sitter.Node, args []entry.Param) (*entry.EventEntry, bool) {
	event := &entry.EventEntry{Name: name, Arguments: args}
	c, keep := p.document(event, anchor, entry.VisibilityUnset, entry.VisibilityUnset)
	if !keep {
		return nil, false
	}
	if params, _ := c.ParseParams("arg", "argument", "param"); len(params) > 0 {
		event.Arguments = params
	}
	if event.Arguments == nil {
		event.Arguments = []entry.Param{}
	}
	return event, true
}

// declaredEvents publishes the events of an `emits` option or a
// defineEmits argument: an array of names or an object of validators.
func (p *parser) declaredEvents(node *tree_sitter.Node) {
	node = unwrapExpression(node)
	if node == nil {
		return
	}
	switch node.Kind() {
	case "array":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			item := node.NamedChild(i)
			name, ok := p.resolveString(item)
			if !ok {
				continue
			}
			if event, keep := p.eventEntry(name, item, nil); keep {
				p.emit(item, event)
			}
		}
	case "object":
		for _, member := range treesitterhelper.ObjectMembers(node) {
			name := treesitterhelper.PropertyName(member, p.source)
			var args []entry.Param
			validator := member
			if member.Kind() == "pair" {
				validator = unwrapExpression(member.ChildByFieldName("value"))
			}
			if valuefmt.IsFunction(validator) {
				args = p.functionParams(validator, nil, member)
			}
			if event, keep := p.eventEntry(name, member, args); keep {
				p.emit(member, event)
			}
		}
	}
}

// modelEntry builds a two-way binding descriptor.
func (p *parser) modelEntry(prop, event string, anchor *tree_sitter.Node) (*entry.ModelEntry, bool) {
	model := &entry.ModelEntry{Prop: prop, Event: event}
	_, keep := p.document(model, anchor, entry.VisibilityUnset, entry.VisibilityUnset)
	return model, keep
}

func (p *parser) inheritAttrs(value *tree_sitter.Node) {
	value = unwrapExpression(value)
	if value == nil {
		return
	}
	switch value.Kind() {
	case "true", "false":
		p.emit(value, &entry.InheritAttrsEntry{Value: value.Kind() == "true"})
	}
}
