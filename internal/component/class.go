package component

import (
	"strings"
	"unicode"

	"github.com/shopware/vuedoc/internal/entry"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// lifecycleMethods are class methods the framework calls itself. They are
// neither methods nor computed values of the component.
var lifecycleMethods = map[string]bool{
	"constructor":       true,
	"data":              true,
	"render":            true,
	"setup":             true,
	"beforeCreate":      true,
	"created":           true,
	"beforeMount":       true,
	"mounted":           true,
	"beforeUpdate":      true,
	"updated":           true,
	"activated":         true,
	"deactivated":       true,
	"beforeDestroy":     true,
	"destroyed":         true,
	"beforeUnmount":     true,
	"unmounted":         true,
	"errorCaptured":     true,
	"serverPrefetch":    true,
	"renderTracked":     true,
	"renderTriggered":   true,
	"beforeRouteEnter":  true,
	"beforeRouteUpdate": true,
	"beforeRouteLeave":  true,
}

// classMember is one member of a class body with its decorators.
type classMember struct {
	node       *tree_sitter.Node
	name       string
	decorators []*tree_sitter.Node
	marker     entry.Visibility
	static     bool
	accessor   string
}

func (m classMember) isMethod() bool {
	return m.node.Kind() == "method_definition"
}

func (m classMember) isField() bool {
	switch m.node.Kind() {
	case "public_field_definition", "field_definition":
		return true
	}
	return false
}

// decorator returns the first decorator of the member with one of the
// names, and its call arguments.
func (p *parser) decorator(m classMember, names ...string) (*tree_sitter.Node, []*tree_sitter.Node) {
	for _, d := range m.decorators {
		name, call := p.decoratorName(d)
		for _, n := range names {
			if name == n {
				return d, treesitterhelper.Arguments(call)
			}
		}
	}
	return nil, nil
}

func (p *parser) decoratorName(d *tree_sitter.Node) (string, *tree_sitter.Node) {
	expr := d.NamedChild(0)
	if expr == nil {
		return "", nil
	}
	if expr.Kind() == "call_expression" {
		return treesitterhelper.CalleeName(expr, p.source), expr
	}
	return p.text(expr), nil
}

// classMembers lists the members of a class body. Decorators written as
// preceding siblings are attached to the member they precede.
func (p *parser) classMembers(class *tree_sitter.Node) []classMember {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var members []classMember
	var pending []*tree_sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		switch child.Kind() {
		case "decorator":
			pending = append(pending, child)
			continue
		case "method_definition", "public_field_definition", "field_definition":
		default:
			pending = nil
			continue
		}

		m := classMember{node: child, decorators: pending}
		pending = nil
		for j := uint(0); j < child.ChildCount(); j++ {
			part := child.Child(j)
			switch part.Kind() {
			case "decorator":
				m.decorators = append(m.decorators, part)
			case "accessibility_modifier":
				m.marker = entry.ParseVisibility(p.text(part))
			case "static":
				m.static = true
			case "get", "set":
				m.accessor = part.Kind()
			case "private_property_identifier":
				m.marker = entry.VisibilityPrivate
			}
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			name = child.ChildByFieldName("property")
		}
		if name == nil {
			continue
		}
		if name.Kind() == "private_property_identifier" {
			m.marker = entry.VisibilityPrivate
		}
		m.name = strings.Trim(p.text(name), "\"'")
		members = append(members, m)
	}
	return members
}

func buildClassName(p *parser, c *component) {
	if p.nameTag(c) {
		return
	}
	if value := treesitterhelper.ObjectValue(c.options, "name", p.source); value != nil {
		if name, ok := p.resolveString(value); ok {
			p.emit(value, &entry.NameEntry{Value: name})
			return
		}
	}
	if name := c.node.ChildByFieldName("name"); name != nil {
		p.emit(name, &entry.NameEntry{Value: p.text(name)})
	}
}

func buildClassSlots(p *parser, c *component) {
	buildObjectSlots(p, c)
	for _, m := range p.classMembers(c.node) {
		if m.isMethod() && m.name == "render" {
			p.withFunction(m.node, func(body *tree_sitter.Node) {
				p.renderSlots(body)
			})
		}
	}
}

func buildClassProps(p *parser, c *component) {
	buildObjectProps(p, c)

	for _, m := range p.classMembers(c.node) {
		if !m.isField() {
			continue
		}
		declared := p.format.TypeFromAnnotation(m.node)

		switch {
		case p.hasDecorator(m, "Prop"):
			_, args := p.decorator(m, "Prop")
			p.classProp(m.name, first(args), m.node, declared)
		case p.hasDecorator(m, "Model"):
			// @Model('change', options) carries the options second.
			_, args := p.decorator(m, "Model")
			p.classProp(m.name, first(after(args, 1)), m.node, declared)
		case p.hasDecorator(m, "PropSync"):
			_, args := p.decorator(m, "PropSync")
			if name, ok := p.resolveString(first(args)); ok {
				p.classProp(name, first(after(args, 1)), m.node, declared)
			}
		case p.hasDecorator(m, "ModelSync"):
			_, args := p.decorator(m, "ModelSync")
			if name, ok := p.resolveString(first(args)); ok {
				p.classProp(name, first(after(args, 2)), m.node, declared)
			}
		}
	}
}

func (p *parser) hasDecorator(m classMember, names ...string) bool {
	d, _ := p.decorator(m, names...)
	return d != nil
}

// classProp publishes a decorated prop. The field's annotation types it
// unless the options name a type.
func (p *parser) classProp(name string, options, anchor *tree_sitter.Node, declared entry.TypeExpr) {
	if prop, keep := p.propEntry(name, options, anchor, declared); keep {
		p.emit(anchor, prop)
	}
}

func first(nodes []*tree_sitter.Node) *tree_sitter.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func after(nodes []*tree_sitter.Node, n int) []*tree_sitter.Node {
	if len(nodes) <= n {
		return nil
	}
	return nodes[n:]
}

func buildClassData(p *parser, c *component) {
	buildObjectData(p, c)

	for _, m := range p.classMembers(c.node) {
		switch {
		case m.isMethod() && m.name == "data" && !m.static:
			p.withFunction(m.node, func(*tree_sitter.Node) {
				if returned := unwrapExpression(valuefmt.Returned(m.node)); returned != nil && returned.Kind() == "object" {
					p.dataObject(returned)
				}
			})
		case m.isField() && !m.static && len(m.decorators) == 0:
			value := m.node.ChildByFieldName("value")
			if data, keep := p.dataEntry(m.name, value, m.node, p.format.TypeFromAnnotation(m.node), m.marker); keep {
				p.emit(m.node, data)
			}
		}
	}
}

func buildClassComputed(p *parser, c *component) {
	buildObjectComputed(p, c)

	for _, m := range p.classMembers(c.node) {
		switch {
		case m.isMethod() && m.accessor == "get" && !m.static:
			if computed, keep := p.computedEntry(m.name, m.node, m.node, m.marker); keep {
				p.emit(m.node, computed)
			}
		case m.isField() && p.hasDecorator(m, "PropSync", "ModelSync"):
			// The synced field reads and writes the prop through a computed.
			computed, keep := p.computedEntry(m.name, nil, m.node, m.marker)
			if !keep {
				continue
			}
			if declared := p.format.TypeFromAnnotation(m.node); declared != nil && computed.Type.IsUnknown() {
				computed.Type = declared
			}
			p.emit(m.node, computed)
		}
	}
}

func buildClassEvents(p *parser, c *component) {
	buildObjectEvents(p, c)

	w := &eventWalker{p: p}
	for _, m := range p.classMembers(c.node) {
		if _, args := p.decorator(m, "PropSync"); len(args) > 0 {
			if name, ok := p.resolveString(args[0]); ok {
				if event, keep := p.eventEntry("update:"+name, m.node, nil); keep {
					p.emit(m.node, event)
				}
			}
		}
		if !m.isMethod() {
			continue
		}
		if d, args := p.decorator(m, "Emit"); d != nil {
			p.decoratedEmit(m, first(args))
		}
		w.walkFunction(m.node)
	}
}

// decoratedEmit publishes the event of an `@Emit()` method. The event is
// named after the decorator argument or the kebab-cased method name; the
// method's return value, when there is one, is emitted before its
// parameters.
func (p *parser) decoratedEmit(m classMember, nameArg *tree_sitter.Node) {
	name := kebabCase(m.name)
	if nameArg != nil {
		if resolved, ok := p.resolveString(nameArg); ok {
			name = resolved
		}
	}

	var args []entry.Param
	p.withFunction(m.node, func(*tree_sitter.Node) {
		if returned := valuefmt.Returned(m.node); returned != nil {
			args = append(args, p.argumentOf(returned))
		}
		args = append(args, p.functionParams(m.node, nil, m.node)...)
	})

	if event, keep := p.eventEntry(name, m.node, args); keep {
		p.emit(m.node, event)
	}
}

func kebabCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func buildClassMethods(p *parser, c *component) {
	buildObjectMethods(p, c)

	for _, m := range p.classMembers(c.node) {
		if !m.isMethod() || m.static || m.accessor != "" || lifecycleMethods[m.name] {
			continue
		}
		if method, keep := p.methodEntry(m.name, m.node, m.node, m.marker); keep {
			p.emit(m.node, method)
		}
	}
}

func buildClassModel(p *parser, c *component) {
	buildObjectModel(p, c)

	for _, m := range p.classMembers(c.node) {
		if !m.isField() {
			continue
		}
		if d, args := p.decorator(m, "Model"); d != nil {
			event := "input"
			if len(args) > 0 {
				if name, ok := p.resolveString(args[0]); ok {
					event = name
				}
			}
			if model, keep := p.modelEntry(m.name, event, m.node); keep {
				p.emit(m.node, model)
			}
			continue
		}
		if _, args := p.decorator(m, "ModelSync"); len(args) > 0 {
			prop, ok := p.resolveString(args[0])
			if !ok {
				continue
			}
			event := "input"
			if len(args) > 1 {
				if name, ok := p.resolveString(args[1]); ok {
					event = name
				}
			}
			if model, keep := p.modelEntry(prop, event, m.node); keep {
				p.emit(m.node, model)
			}
		}
	}
}
