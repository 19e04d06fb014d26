package component

import (
	"slices"

	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
)

// ModelPropName is the rendered name of a two-way binding prop. A binding
// on a prop other than the dialect default is qualified, `v-model:title`.
const ModelPropName = "v-model"

// defaultModelProps are the props bound by a bare `v-model`, by dialect, in
// order of preference. Only the first one a component declares is bound.
var defaultModelProps = map[Dialect][]string{
	DialectPlainObject:    {"value", "modelValue"},
	DialectDecoratedClass: {"value", "modelValue"},
	DialectComposition:    {"modelValue", "value"},
}

// synchronize reconciles props with model descriptors: a model flags its
// prop, synthesizing one when the component declares none; with props
// requested, the dialect's default binding prop is flagged too, and every
// flagged prop is renamed to its two-way binding name.
func synchronize(dialect Dialect, items []pending, template *emitter.Recorder, propsRequested bool) []pending {
	props := make(map[string]*entry.PropEntry)
	events := make(map[string]bool)
	for _, item := range items {
		switch e := item.entry.(type) {
		case *entry.PropEntry:
			props[e.Name] = e
		case *entry.EventEntry:
			events[e.Name] = true
		}
	}
	for _, e := range template.Entries() {
		if event, ok := e.(*entry.EventEntry); ok {
			events[event.Name] = true
		}
	}

	out := make([]pending, 0, len(items))
	for _, item := range items {
		out = append(out, item)
		model, ok := item.entry.(*entry.ModelEntry)
		if !ok {
			continue
		}
		if prop, found := props[model.Prop]; found {
			prop.DescribeModel = true
			continue
		}
		prop := &entry.PropEntry{
			Base: entry.Base{
				Visibility:  model.Visibility,
				Description: model.Description,
				Keywords:    model.Keywords,
			},
			Name:          model.Prop,
			Type:          entry.Scalar("any"),
			DescribeModel: true,
		}
		props[model.Prop] = prop
		out = append(out, pending{pos: item.pos, entry: prop})
	}

	if !propsRequested {
		return out
	}

	defaults := defaultModelProps[dialect]
	for _, name := range defaults {
		if prop, ok := props[name]; ok {
			prop.DescribeModel = true
			break
		}
	}
	for name, prop := range props {
		if !prop.DescribeModel {
			continue
		}
		prop.Name = ModelPropName
		if !slices.Contains(defaults, name) && events["update:"+name] {
			prop.Name = ModelPropName + ":" + name
		}
	}
	return out
}
