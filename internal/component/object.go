package component

import (
	"github.com/shopware/vuedoc/internal/entry"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// option returns the last value of an option across the component's
// objects, mixins first.
func (p *parser) option(c *component, name string) *tree_sitter.Node {
	var found *tree_sitter.Node
	for _, object := range c.objects() {
		if value := treesitterhelper.ObjectValue(object, name, p.source); value != nil {
			found = value
		}
	}
	return found
}

// optionMembers returns the members of an object-valued option, for every
// object of the component.
func (p *parser) optionMembers(c *component, name string) []*tree_sitter.Node {
	var members []*tree_sitter.Node
	for _, object := range c.objects() {
		value := unwrapExpression(treesitterhelper.ObjectValue(object, name, p.source))
		members = append(members, treesitterhelper.ObjectMembers(value)...)
	}
	return members
}

// memberFunction returns the function of an object member: a method, a
// function-valued pair, or a function passed through a wrapper helper.
func (p *parser) memberFunction(member *tree_sitter.Node) *tree_sitter.Node {
	if member == nil {
		return nil
	}
	switch member.Kind() {
	case "method_definition":
		return member
	case "pair":
		return p.functionValue(member.ChildByFieldName("value"))
	}
	return nil
}

// functionValue unwraps a value down to the function literal it holds,
// following caller-declared wrappers such as `debounce(fn, 100)`.
func (p *parser) functionValue(value *tree_sitter.Node) *tree_sitter.Node {
	for range maxUnwrap {
		value = unwrapExpression(value)
		if value == nil {
			return nil
		}
		if valuefmt.IsFunction(value) {
			return value
		}
		if value.Kind() != "call_expression" || !p.wrappers[treesitterhelper.CalleeName(value, p.source)] {
			return nil
		}
		args := treesitterhelper.Arguments(value)
		if len(args) == 0 {
			return nil
		}
		value = args[0]
	}
	return nil
}

// withSetup runs fn inside the frame of the `setup()` option, with the
// setup context bound so that `emit` and `context.emit` are recognized.
// exposed holds the names setup returns.
func (p *parser) withSetup(c *component, fn func(body *tree_sitter.Node, exposed map[string]bool)) {
	setup := p.memberFunction(optionMember(p, c, "setup"))
	if setup == nil {
		return
	}
	p.withFunction(setup, func(body *tree_sitter.Node) {
		p.declareSetupContext(setup)
		if body == nil || body.Kind() != "statement_block" {
			return
		}
		fn(body, p.exposedNames(setup))
	})
}

func optionMember(p *parser, c *component, name string) *tree_sitter.Node {
	var found *tree_sitter.Node
	for _, object := range c.objects() {
		for _, member := range treesitterhelper.ObjectMembers(object) {
			if treesitterhelper.PropertyName(member, p.source) == name {
				found = member
			}
		}
	}
	return found
}

// declareSetupContext binds the second parameter of setup(props, ctx).
func (p *parser) declareSetupContext(setup *tree_sitter.Node) {
	params := setup.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() < 2 {
		return
	}
	ctx := params.NamedChild(1)
	if ctx.Kind() == "required_parameter" || ctx.Kind() == "optional_parameter" {
		ctx = ctx.ChildByFieldName("pattern")
	}
	switch ctx.Kind() {
	case "identifier":
		p.scope.DeclareComposition(ctx, nil, compositionSetupContext)
	case "object_pattern":
		for i := uint(0); i < ctx.NamedChildCount(); i++ {
			child := ctx.NamedChild(i)
			switch child.Kind() {
			case "shorthand_property_identifier_pattern":
				if p.text(child) == "emit" {
					p.scope.DeclareComposition(child, nil, compositionEmit)
				}
			case "pair_pattern":
				if p.text(child.ChildByFieldName("key")) == "emit" {
					p.scope.DeclareComposition(child.ChildByFieldName("value"), nil, compositionEmit)
				}
			}
		}
	}
	if props := params.NamedChild(0); props != nil {
		if props.Kind() == "required_parameter" || props.Kind() == "optional_parameter" {
			props = props.ChildByFieldName("pattern")
		}
		p.scope.DeclareComposition(props, nil, "defineProps")
	}
}

// exposedNames lists the keys of the object a setup function returns. A
// setup returning anything else exposes nothing.
func (p *parser) exposedNames(setup *tree_sitter.Node) map[string]bool {
	exposed := make(map[string]bool)
	for _, member := range treesitterhelper.ObjectMembers(returnedObject(setup)) {
		if member.Kind() == "spread_element" {
			continue
		}
		exposed[treesitterhelper.PropertyName(member, p.source)] = true
	}
	return exposed
}

func buildObjectName(p *parser, c *component) {
	if p.nameTag(c) {
		return
	}
	value := p.option(c, "name")
	if value == nil {
		return
	}
	if name, ok := p.resolveString(value); ok {
		p.emit(value, &entry.NameEntry{Value: name})
	}
}

func buildObjectSlots(p *parser, c *component) {
	p.tagSlots(c)
	if render := p.memberFunction(optionMember(p, c, "render")); render != nil {
		p.withFunction(render, func(body *tree_sitter.Node) {
			p.renderSlots(body)
		})
	}
	p.withSetup(c, func(body *tree_sitter.Node, _ map[string]bool) {
		compositionSlots(p, body)
	})
}

func buildObjectProps(p *parser, c *component) {
	for _, object := range c.objects() {
		p.propsDeclaration(treesitterhelper.ObjectValue(object, "props", p.source))
	}
}

// propsDeclaration publishes the props of an array or object declaration.
func (p *parser) propsDeclaration(value *tree_sitter.Node) {
	value = unwrapExpression(value)
	if value == nil {
		return
	}
	switch value.Kind() {
	case "array":
		for i := uint(0); i < value.NamedChildCount(); i++ {
			item := value.NamedChild(i)
			name, ok := p.resolveString(item)
			if !ok {
				continue
			}
			if prop, keep := p.propEntry(name, nil, item, nil); keep {
				p.emit(item, prop)
			}
		}
	case "object":
		for _, member := range treesitterhelper.ObjectMembers(value) {
			if member.Kind() == "spread_element" {
				continue
			}
			name := treesitterhelper.PropertyName(member, p.source)
			var declaration *tree_sitter.Node
			if member.Kind() == "pair" {
				declaration = member.ChildByFieldName("value")
			}
			if prop, keep := p.propEntry(name, declaration, member, nil); keep {
				p.emit(member, prop)
			}
		}
	}
}

func buildObjectData(p *parser, c *component) {
	for _, object := range c.objects() {
		value := treesitterhelper.ObjectValue(object, "data", p.source)
		if value == nil {
			continue
		}
		if fn := p.functionValue(value); fn != nil {
			p.withFunction(fn, func(*tree_sitter.Node) {
				if returned := unwrapExpression(valuefmt.Returned(fn)); returned != nil && returned.Kind() == "object" {
					p.dataObject(returned)
				}
			})
			continue
		}
		if value = unwrapExpression(value); value.Kind() == "object" {
			p.dataObject(value)
		}
	}
	p.withSetup(c, func(body *tree_sitter.Node, exposed map[string]bool) {
		compositionData(p, body, exposed)
	})
}

func buildObjectComputed(p *parser, c *component) {
	for _, member := range p.optionMembers(c, "computed") {
		p.computedMember(member, entry.VisibilityUnset)
	}
	p.withSetup(c, func(body *tree_sitter.Node, exposed map[string]bool) {
		compositionComputed(p, body, exposed)
	})
}

// computedMember publishes a computed option member: a getter function or
// a `{ get, set }` object.
func (p *parser) computedMember(member *tree_sitter.Node, marker entry.Visibility) {
	name := treesitterhelper.PropertyName(member, p.source)
	if name == "" {
		return
	}
	getter := p.memberFunction(member)
	if getter == nil && member.Kind() == "pair" {
		if object := unwrapExpression(member.ChildByFieldName("value")); object != nil && object.Kind() == "object" {
			getter = p.memberFunction(optionOf(p, object, "get"))
		}
	}
	if getter == nil {
		return
	}
	if computed, keep := p.computedEntry(name, getter, member, marker); keep {
		p.emit(member, computed)
	}
}

func optionOf(p *parser, object *tree_sitter.Node, name string) *tree_sitter.Node {
	for _, member := range treesitterhelper.ObjectMembers(object) {
		if treesitterhelper.PropertyName(member, p.source) == name {
			return member
		}
	}
	return nil
}

func buildObjectEvents(p *parser, c *component) {
	for _, object := range c.objects() {
		p.declaredEvents(treesitterhelper.ObjectValue(object, "emits", p.source))
	}

	w := &eventWalker{p: p}
	for _, object := range c.objects() {
		for _, member := range treesitterhelper.ObjectMembers(object) {
			name := treesitterhelper.PropertyName(member, p.source)
			switch name {
			case "setup":
				if setup := p.memberFunction(member); setup != nil {
					w.walkSetup(setup)
				}
				continue
			case "methods", "computed", "watch":
				w.walkOptionObject(member.ChildByFieldName("value"))
				continue
			}
			w.walkFunction(p.memberFunction(member))
		}
	}
}

// walkSetup walks a setup() option with its context bound.
func (w *eventWalker) walkSetup(setup *tree_sitter.Node) {
	w.p.withFunction(setup, func(body *tree_sitter.Node) {
		w.p.declareSetupContext(setup)
		if body == nil {
			return
		}
		if body.Kind() != "statement_block" {
			w.walkExpression(body)
			return
		}
		w.walk(body)
		for _, fn := range topLevelFunctions(w.p, body) {
			w.walkFunction(fn.node)
		}
	})
}

// walkOptionObject walks the functions of `methods`, `computed` and `watch`,
// including `{ get, set }` and `{ handler }` objects.
func (w *eventWalker) walkOptionObject(value *tree_sitter.Node) {
	for _, member := range treesitterhelper.ObjectMembers(unwrapExpression(value)) {
		if fn := w.p.memberFunction(member); fn != nil {
			w.walkFunction(fn)
			continue
		}
		if member.Kind() != "pair" {
			continue
		}
		nested := unwrapExpression(member.ChildByFieldName("value"))
		if nested == nil || nested.Kind() != "object" {
			continue
		}
		for _, inner := range treesitterhelper.ObjectMembers(nested) {
			w.walkFunction(w.p.memberFunction(inner))
		}
	}
}

func buildObjectMethods(p *parser, c *component) {
	for _, member := range p.optionMembers(c, "methods") {
		fn := p.memberFunction(member)
		if fn == nil {
			continue
		}
		name := treesitterhelper.PropertyName(member, p.source)
		if method, keep := p.methodEntry(name, fn, member, entry.VisibilityUnset); keep {
			p.emit(member, method)
		}
	}
	p.withSetup(c, func(body *tree_sitter.Node, exposed map[string]bool) {
		compositionMethods(p, body, exposed)
	})
}

func buildObjectModel(p *parser, c *component) {
	member := optionMember(p, c, "model")
	if member == nil || member.Kind() != "pair" {
		return
	}
	object := unwrapExpression(member.ChildByFieldName("value"))
	if object == nil || object.Kind() != "object" {
		return
	}
	prop, event := "value", "input"
	if value := treesitterhelper.ObjectValue(object, "prop", p.source); value != nil {
		if name, ok := p.resolveString(value); ok {
			prop = name
		}
	}
	if value := treesitterhelper.ObjectValue(object, "event", p.source); value != nil {
		if name, ok := p.resolveString(value); ok {
			event = name
		}
	}
	if model, keep := p.modelEntry(prop, event, member); keep {
		p.emit(member, model)
	}
}

func buildObjectInheritAttrs(p *parser, c *component) {
	p.inheritAttrs(p.option(c, "inheritAttrs"))
}
