package component

import (
	"fmt"
	"strings"

	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/jsdoc"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// templateWalker finds slots and emitted events in a markup tree.
type templateWalker struct {
	src      *Source
	features entry.FeatureSet
	sink     emitter.Sink
	// js parses the expressions of event handler attributes.
	js *tree_sitter.Parser
}

// walkTemplate publishes the slots and events of a template to sink.
func walkTemplate(src *Source, features entry.FeatureSet, sink emitter.Sink) {
	if src == nil || src.Root == nil {
		return
	}
	js := tree_sitter.NewParser()
	defer js.Close()
	if err := js.SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		sink.Error(fmt.Errorf("template expressions: %w", err))
		return
	}

	w := &templateWalker{src: src, features: features, sink: sink, js: js}
	w.walk(src.Root)
}

func (w *templateWalker) walk(node *tree_sitter.Node) {
	if node.Kind() == "element" {
		w.element(node)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.walk(node.NamedChild(i))
	}
}

func (w *templateWalker) element(element *tree_sitter.Node) {
	tag := treesitterhelper.HTMLTagName(element, w.src.Content)
	attrs := treesitterhelper.GetHTMLAttributes(element, w.src.Content)

	if tag == "slot" && w.features.Has(entry.FeatureSlots) {
		w.slot(element, attrs)
	}
	if !w.features.Has(entry.FeatureEvents) {
		return
	}
	for _, attr := range attrs {
		if strings.HasPrefix(attr.Name, "@") || strings.HasPrefix(attr.Name, "v-on:") {
			w.handler(element, attr)
		}
	}
}

// comment returns the markup comment directly preceding element.
func (w *templateWalker) comment(element *tree_sitter.Node) *jsdoc.Comment {
	for prev := element.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		switch {
		case prev.Kind() == "comment":
			return jsdoc.Parse(prev.Utf8Text(w.src.Content))
		case prev.Kind() == "text" && strings.TrimSpace(prev.Utf8Text(w.src.Content)) == "":
			continue
		}
		return nil
	}
	return nil
}

func (w *templateWalker) slot(element *tree_sitter.Node, attrs []treesitterhelper.HTMLAttribute) {
	c := w.comment(element)
	slot := &entry.SlotEntry{Name: "default", Props: []entry.SlotProp{}}
	apply(slot.Common(), c, entry.VisibilityUnset, entry.VisibilityUnset)
	if c.Ignored() {
		return
	}

	documented, errs := c.ParseParams("prop")
	for _, err := range errs {
		w.warn(element, "%s", err)
	}

	for _, attr := range attrs {
		name, bound := bindingName(attr.Name)
		switch {
		case name == "name":
			slot.Name = attr.Value
			continue
		case !bound || name == "":
			continue
		}

		prop := entry.SlotProp{Name: name, Type: entry.Scalar(entry.Unknown)}
		for _, d := range documented {
			if d.Name == name {
				prop.Type = d.Type
				prop.Description = d.Description
			}
		}
		slot.Props = append(slot.Props, prop)
	}

	// Documented props the template does not bind explicitly, e.g. through
	// `v-bind="item"`.
	for _, d := range documented {
		if !hasSlotProp(slot.Props, d.Name) {
			slot.Props = append(slot.Props, entry.SlotProp{Name: d.Name, Type: d.Type, Description: d.Description})
		}
	}
	w.sink.Publish(slot)
}

func hasSlotProp(props []entry.SlotProp, name string) bool {
	for _, p := range props {
		if p.Name == name {
			return true
		}
	}
	return false
}

// bindingName returns the bound name of a `:x` or `v-bind:x` attribute.
func bindingName(attr string) (string, bool) {
	switch {
	case strings.HasPrefix(attr, ":"):
		return strings.TrimPrefix(attr, ":"), true
	case strings.HasPrefix(attr, "v-bind:"):
		return strings.TrimPrefix(attr, "v-bind:"), true
	}
	return attr, false
}

// handler publishes the events emitted by an event handler attribute.
func (w *templateWalker) handler(element *tree_sitter.Node, attr treesitterhelper.HTMLAttribute) {
	if !strings.Contains(attr.Value, "emit") {
		return
	}
	code := []byte(attr.Value)
	tree := w.js.Parse(code, nil)
	if tree == nil {
		return
	}
	defer tree.Close()

	format := valuefmt.New(code, nil)
	calls := treesitterhelper.FindAll(tree.RootNode(), treesitterhelper.NodeKind("call_expression"), code)
	for _, call := range calls {
		fn := unwrapExpression(call.ChildByFieldName("function"))
		if fn == nil {
			continue
		}
		callee := fn.Utf8Text(code)
		if callee != "$emit" && callee != "emit" && !strings.HasSuffix(callee, ".$emit") {
			continue
		}
		args := treesitterhelper.Arguments(call)
		if len(args) == 0 {
			continue
		}

		name := eventSuffix(attr.Name)
		if nameArg := unwrapExpression(args[0]); nameArg.Kind() == "string" {
			name = stringContent(nameArg.Utf8Text(code))
		} else {
			w.warn(attr.Node, "unable to resolve the event name %s", nameArg.Utf8Text(code))
		}

		c := w.comment(element)
		event := &entry.EventEntry{Name: name}
		apply(event.Common(), c, entry.VisibilityUnset, entry.VisibilityUnset)
		if c.Ignored() {
			continue
		}
		if params, _ := c.ParseParams("arg", "argument", "param"); len(params) > 0 {
			event.Arguments = params
		} else {
			event.Arguments = make([]entry.Param, 0, len(args)-1)
			for _, arg := range args[1:] {
				event.Arguments = append(event.Arguments, templateArgument(format, arg, code))
			}
		}
		w.sink.Publish(event)
	}
}

func templateArgument(format *valuefmt.Formatter, arg *tree_sitter.Node, code []byte) entry.Param {
	param := entry.Param{}
	if arg.Kind() == "spread_element" && arg.NamedChild(0) != nil {
		param.Rest = true
		arg = arg.NamedChild(0)
	}
	switch arg.Kind() {
	case "identifier":
		param.Name = arg.Utf8Text(code)
	case "member_expression":
		param.Name = arg.ChildByFieldName("property").Utf8Text(code)
	default:
		param.Name = compact(arg.Utf8Text(code))
	}
	param.Type = format.TypeOf(arg)
	return param
}

// eventSuffix returns the event of `@x.stop` or `v-on:x`.
func eventSuffix(attr string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(attr, "@"), "v-on:")
	name, _, _ = strings.Cut(name, ".")
	return name
}

func (w *templateWalker) warn(node *tree_sitter.Node, format string, args ...any) {
	line := 0
	if node != nil {
		line = treesitterhelper.Line(node) + max(w.src.Line, 1) - 1
	}
	w.sink.Warn(emitter.Warning{Message: fmt.Sprintf(format, args...), Line: line})
}
