package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
)

const classComponent = `
import { Component, Prop, Emit, Vue } from 'vue-property-decorator'

/**
 * A counter.
 */
@Component({ name: 'Counter' })
export default class Counter extends Vue {
  /** Start value */
  @Prop({ type: Number, default: 0 }) readonly start!: number

  count = 0

  get doubled(): number {
    return this.count * 2
  }

  increment(): void {
    this.count++
    this.$emit('changed', this.count)
  }

  @Emit()
  resetAll() {}

  private reset(): void {}
}
`

func TestParse_DecoratedClass(t *testing.T) {
	r := run(t, Options{Script: tsSource(t, classComponent)})
	d := r.doc()

	assert.Empty(t, r.errors)
	assert.Equal(t, "Counter", d.Name)
	assert.Equal(t, "A counter.", d.Description)

	require.Len(t, d.Props, 1)
	assert.Equal(t, "start", d.Props[0].Name)
	assert.Equal(t, "Start value", d.Props[0].Description)
	assert.Equal(t, entry.Scalar("number"), d.Props[0].Type)
	assert.Equal(t, "0", d.Props[0].Default)

	require.Len(t, d.Data, 1)
	assert.Equal(t, "count", d.Data[0].Name)
	assert.Equal(t, entry.Scalar("number"), d.Data[0].Type)

	require.Len(t, d.Computed, 1)
	assert.Equal(t, "doubled", d.Computed[0].Name)
	assert.Equal(t, []string{"count"}, d.Computed[0].Dependencies)

	var methods []string
	for _, m := range d.Methods {
		methods = append(methods, m.Name)
	}
	assert.Equal(t, []string{"increment", "resetAll"}, methods)

	assert.Equal(t, []string{"changed", "reset-all"}, eventNames(d))
}

func TestParse_DecoratedClassPrivateMember(t *testing.T) {
	r := run(t, Options{Script: tsSource(t, classComponent), Features: []entry.Feature{entry.FeatureMethods}, Ignore: []string{}})
	d := r.doc()

	require.Len(t, d.Methods, 3)
	assert.Equal(t, "reset", d.Methods[2].Name)
	assert.Equal(t, entry.VisibilityPrivate, d.Methods[2].Visibility)
}

func TestParse_DecoratedClassModel(t *testing.T) {
	code := `
import { Component, Model, Vue } from 'vue-property-decorator'

@Component
export default class Toggle extends Vue {
  @Model('change', { type: Boolean }) readonly checked!: boolean
}
`
	r := run(t, Options{Script: tsSource(t, code)})
	d := r.doc()

	assert.Equal(t, "Toggle", d.Name)
	require.Len(t, d.Models, 1)
	assert.Equal(t, "checked", d.Models[0].Prop)
	assert.Equal(t, "change", d.Models[0].Event)

	require.Len(t, d.Props, 1)
	assert.Equal(t, ModelPropName, d.Props[0].Name)
	assert.True(t, d.Props[0].DescribeModel)
	assert.Equal(t, entry.Scalar("boolean"), d.Props[0].Type)
}

const setupComponent = `
import { ref, computed } from 'vue'

interface Props {
  /** The title */
  title: string
  size?: number
}

const props = withDefaults(defineProps<Props>(), { size: 2 })

const emit = defineEmits<{
  (e: 'change', id: number): void
}>()

/** Clicks */
const count = ref(0)

const doubled = computed(() => count.value * 2)

function increment(step: number) {
  count.value += step
  emit('change', count.value)
}
`

func TestParse_Composition(t *testing.T) {
	r := run(t, Options{Script: tsSource(t, setupComponent), Setup: true})
	d := r.doc()

	assert.Empty(t, r.errors)

	require.Len(t, d.Props, 2)
	title := findProp(d, "title")
	require.NotNil(t, title)
	assert.True(t, title.Required)
	assert.Equal(t, "The title", title.Description)
	assert.Equal(t, entry.Scalar("string"), title.Type)

	size := findProp(d, "size")
	require.NotNil(t, size)
	assert.False(t, size.Required)
	assert.Equal(t, "2", size.Default)

	require.Len(t, d.Data, 1)
	assert.Equal(t, "count", d.Data[0].Name)
	assert.Equal(t, "Clicks", d.Data[0].Description)
	assert.Equal(t, entry.Scalar("number"), d.Data[0].Type)

	require.Len(t, d.Computed, 1)
	assert.Equal(t, "doubled", d.Computed[0].Name)
	assert.Equal(t, []string{"count"}, d.Computed[0].Dependencies)

	require.Len(t, d.Methods, 1)
	assert.Equal(t, "increment", d.Methods[0].Name)
	require.Len(t, d.Methods[0].Params, 1)
	assert.Equal(t, entry.Param{Name: "step", Type: entry.Scalar("number")}, d.Methods[0].Params[0])

	require.Len(t, d.Events, 1)
	assert.Equal(t, "change", d.Events[0].Name)
	require.Len(t, d.Events[0].Arguments, 1)
	assert.Equal(t, "id", d.Events[0].Arguments[0].Name)
	assert.Equal(t, entry.Scalar("number"), d.Events[0].Arguments[0].Type)
}

func TestParse_CompositionWithoutSetupFlag(t *testing.T) {
	r := run(t, Options{Script: tsSource(t, setupComponent), Features: []entry.Feature{entry.FeatureData}})

	require.Len(t, r.entries, 1)
	assert.Equal(t, entry.KindData, r.entries[0].Kind())
}

func TestParse_DefineModel(t *testing.T) {
	code := `
const model = defineModel<string>()
const title = defineModel<string>('title')
`
	r := run(t, Options{Script: tsSource(t, code), Setup: true})
	d := r.doc()

	require.Len(t, d.Models, 2)
	assert.Equal(t, "modelValue", d.Models[0].Prop)
	assert.Equal(t, "update:modelValue", d.Models[0].Event)
	assert.Equal(t, "title", d.Models[1].Prop)

	assert.Equal(t, []string{"update:modelValue", "update:title"}, eventNames(d))

	require.Len(t, d.Props, 2)
	assert.Equal(t, ModelPropName, d.Props[0].Name)
	assert.Equal(t, entry.Scalar("string"), d.Props[0].Type)
	assert.Equal(t, ModelPropName+":title", d.Props[1].Name)
}

func TestParse_DefineEmitsRuntime(t *testing.T) {
	code := `
const emit = defineEmits(['open', 'close'])

function toggle(open) {
  if (open) {
    emit('open')
  }
  emit('toggled')
}
`
	r := run(t, Options{Script: jsSource(t, code), Setup: true, Features: []entry.Feature{entry.FeatureEvents}})

	assert.Equal(t, []string{"open", "close", "toggled"}, eventNames(r.doc()))
}

const slotTemplate = `
<div>
  <!-- @prop {string} item - the item -->
  <slot name="row" :item="item" :index="i"></slot>
  <slot></slot>
  <button @click="$emit('select', item)">Go</button>
  <input @input="emit(name)" />
</div>
`

func TestParse_Template(t *testing.T) {
	r := run(t, Options{Template: htmlSource(t, slotTemplate)})
	d := r.doc()

	assert.Empty(t, r.errors)
	assert.Equal(t, 1, r.ended)

	require.Len(t, d.Slots, 2)
	assert.Equal(t, "row", d.Slots[0].Name)
	assert.Equal(t, []entry.SlotProp{
		{Name: "item", Type: entry.Scalar("string"), Description: "the item"},
		{Name: "index", Type: entry.Scalar(entry.Unknown)},
	}, d.Slots[0].Props)
	assert.Equal(t, "default", d.Slots[1].Name)
	assert.Empty(t, d.Slots[1].Props)

	assert.Equal(t, []string{"select", "input"}, eventNames(d))
	require.Len(t, d.Events[0].Arguments, 1)
	assert.Equal(t, "item", d.Events[0].Arguments[0].Name)

	require.Len(t, r.warnings, 1)
	assert.Contains(t, r.warnings[0].Message, "unable to resolve the event name")
}

func TestParse_TemplateAfterScript(t *testing.T) {
	script := `
export default {
  methods: {
    close() { this.$emit('select') },
  },
}
`
	r := run(t, Options{
		Script:   jsSource(t, script),
		Template: htmlSource(t, slotTemplate),
		Features: []entry.Feature{entry.FeatureEvents},
	})
	d := r.doc()

	// The script's emission is published first and wins.
	assert.Equal(t, []string{"select", "input"}, eventNames(d))
	assert.Empty(t, d.Events[0].Arguments)
}

func TestSynchronize(t *testing.T) {
	prop := func(name string) *entry.PropEntry {
		return &entry.PropEntry{Name: name, Type: entry.Scalar("string")}
	}

	tests := []struct {
		name      string
		dialect   Dialect
		items     []entry.Entry
		requested bool
		want      []string
	}{
		{
			name:      "default prop of the object dialect",
			dialect:   DialectPlainObject,
			items:     []entry.Entry{prop("value"), prop("label")},
			requested: true,
			want:      []string{"v-model", "label"},
		},
		{
			name:      "only the preferred default prop is bound",
			dialect:   DialectPlainObject,
			items:     []entry.Entry{prop("modelValue"), prop("value")},
			requested: true,
			want:      []string{"modelValue", "v-model"},
		},
		{
			name:      "composition prefers modelValue",
			dialect:   DialectComposition,
			items:     []entry.Entry{prop("value"), prop("modelValue")},
			requested: true,
			want:      []string{"value", "v-model"},
		},
		{
			name:      "default prop of the composition dialect",
			dialect:   DialectComposition,
			items:     []entry.Entry{prop("modelValue")},
			requested: true,
			want:      []string{"v-model"},
		},
		{
			name:    "named binding with its update event",
			dialect: DialectComposition,
			items: []entry.Entry{
				prop("title"),
				&entry.ModelEntry{Prop: "title", Event: "update:title"},
				&entry.EventEntry{Name: "update:title"},
			},
			requested: true,
			want:      []string{"v-model:title"},
		},
		{
			name:      "model without update event",
			dialect:   DialectPlainObject,
			items:     []entry.Entry{prop("checked"), &entry.ModelEntry{Prop: "checked", Event: "change"}},
			requested: true,
			want:      []string{"v-model"},
		},
		{
			name:      "props not requested",
			dialect:   DialectPlainObject,
			items:     []entry.Entry{prop("value")},
			requested: false,
			want:      []string{"value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []pending
			for i, e := range tt.items {
				items = append(items, pending{pos: uint(i), entry: e})
			}

			out := synchronize(tt.dialect, items, &emitter.Recorder{}, tt.requested)

			var names []string
			for _, item := range out {
				if p, ok := item.entry.(*entry.PropEntry); ok {
					names = append(names, p.Name)
				}
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSynchronize_SynthesizesProp(t *testing.T) {
	model := &entry.ModelEntry{Base: entry.Base{Description: "Checked state"}, Prop: "checked", Event: "change"}
	out := synchronize(DialectPlainObject, []pending{{pos: 4, entry: model}}, &emitter.Recorder{}, true)

	require.Len(t, out, 2)
	prop, ok := out[1].entry.(*entry.PropEntry)
	require.True(t, ok)
	assert.Equal(t, ModelPropName, prop.Name)
	assert.Equal(t, entry.Scalar("any"), prop.Type)
	assert.Equal(t, "Checked state", prop.Description)
	assert.Equal(t, uint(4), out[1].pos)
}

func TestSynchronize_TemplateEvents(t *testing.T) {
	rec := &emitter.Recorder{}
	rec.Publish(&entry.EventEntry{Name: "update:label"})

	items := []pending{
		{pos: 0, entry: &entry.PropEntry{Name: "label", Type: entry.Scalar("string")}},
		{pos: 1, entry: &entry.ModelEntry{Prop: "label", Event: "update:label"}},
	}
	out := synchronize(DialectPlainObject, items, rec, true)

	assert.Equal(t, "v-model:label", out[0].entry.(*entry.PropEntry).Name)
}
