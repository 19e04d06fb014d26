package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
)

func parse(t *testing.T, language *tree_sitter.Language, code string) *Source {
	parser := tree_sitter.NewParser()
	t.Cleanup(func() { parser.Close() })

	require.NoError(t, parser.SetLanguage(language))

	content := []byte(code)
	tree := parser.Parse(content, nil)
	t.Cleanup(func() { tree.Close() })

	return &Source{Root: tree.RootNode(), Content: content, Line: 1}
}

func jsSource(t *testing.T, code string) *Source {
	return parse(t, tree_sitter.NewLanguage(tree_sitter_javascript.Language()), code)
}

func tsSource(t *testing.T, code string) *Source {
	return parse(t, tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), code)
}

func htmlSource(t *testing.T, code string) *Source {
	return parse(t, tree_sitter.NewLanguage(tree_sitter_html.Language()), code)
}

type result struct {
	entries  []entry.Entry
	errors   []error
	warnings []emitter.Warning
	ended    int
}

func (r *result) doc() *entry.Documentation {
	d := &entry.Documentation{}
	for _, e := range r.entries {
		d.Collect(e)
	}
	return d
}

func (r *result) kinds() []entry.Kind {
	var kinds []entry.Kind
	for _, e := range r.entries {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

func run(t *testing.T, opts Options) *result {
	t.Helper()
	em := emitter.New()
	r := &result{}
	em.OnEntry(func(e entry.Entry) { r.entries = append(r.entries, e) })
	em.OnError(func(err error) { r.errors = append(r.errors, err) })
	em.OnWarning(func(w emitter.Warning) { r.warnings = append(r.warnings, w) })
	em.OnEnd(func() { r.ended++ })

	require.NoError(t, Parse(opts, em))
	return r
}

func findProp(d *entry.Documentation, name string) *entry.PropEntry {
	for _, p := range d.Props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func eventNames(d *entry.Documentation) []string {
	var names []string
	for _, e := range d.Events {
		names = append(names, e.Name)
	}
	return names
}

const optionsComponent = `
/**
 * A button.
 * @author Jane
 */
export default {
  name: 'MyButton',
  props: {
    /** The label */
    label: { type: String, required: true },
    size: { type: [String, Number], default: 'md' },
    items: { type: Array, default: () => [] },
  },
  data: () => ({ initialValue: '' }),
  computed: {
    upper() { return this.label.toUpperCase() },
  },
  methods: {
    /**
     * Shows the button.
     * @param {number} delay
     */
    show(delay) {
      this.$emit('show', delay)
    },
  },
}
`

func TestParse_PlainObject(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, optionsComponent)})
	d := r.doc()

	assert.Empty(t, r.errors)
	assert.Equal(t, 1, r.ended)
	assert.Equal(t, "MyButton", d.Name)
	assert.Equal(t, "A button.", d.Description)
	assert.Equal(t, []entry.Keyword{{Name: "author", Description: "Jane"}}, d.Keywords)

	require.Len(t, d.Props, 3)
	label := findProp(d, "label")
	require.NotNil(t, label)
	assert.Equal(t, "The label", label.Description)
	assert.Equal(t, entry.Scalar("string"), label.Type)
	assert.True(t, label.Required)
	assert.Equal(t, entry.VisibilityPublic, label.Visibility)

	size := findProp(d, "size")
	require.NotNil(t, size)
	assert.Equal(t, entry.TypeExpr{"string", "number"}, size.Type)
	assert.Equal(t, `"md"`, size.Default)

	items := findProp(d, "items")
	require.NotNil(t, items)
	assert.Equal(t, "[]", items.Default)

	require.Len(t, d.Computed, 1)
	assert.Equal(t, "upper", d.Computed[0].Name)
	assert.Equal(t, []string{"label"}, d.Computed[0].Dependencies)

	require.Len(t, d.Methods, 1)
	show := d.Methods[0]
	assert.Equal(t, "Shows the button.", show.Description)
	require.Len(t, show.Params, 1)
	assert.Equal(t, entry.Param{Name: "delay", Type: entry.Scalar("number")}, show.Params[0])
	assert.Equal(t, []string{"show(delay: number): void"}, show.Syntax)

	require.Len(t, d.Events, 1)
	assert.Equal(t, "show", d.Events[0].Name)
	assert.Equal(t, []entry.Param{{Name: "delay", Type: entry.Scalar(entry.Unknown)}}, d.Events[0].Arguments)
}

func TestParse_DataInitialValue(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, `export default { data: () => ({ initialValue: '' }) }`)})
	d := r.doc()

	require.Len(t, d.Data, 1)
	assert.Equal(t, "initialValue", d.Data[0].Name)
	assert.Equal(t, entry.Scalar("string"), d.Data[0].Type)
	assert.Equal(t, `""`, d.Data[0].InitialValue)
}

func TestParse_SourceOrder(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, optionsComponent)})

	assert.Equal(t, []entry.Kind{
		entry.KindDescription,
		entry.KindKeywords,
		entry.KindName,
		entry.KindProp,
		entry.KindProp,
		entry.KindProp,
		entry.KindData,
		entry.KindComputed,
		entry.KindMethod,
		entry.KindEvent,
	}, r.kinds())
}

func TestParse_Idempotent(t *testing.T) {
	opts := Options{Script: jsSource(t, optionsComponent)}

	first := run(t, opts)
	second := run(t, opts)

	assert.Equal(t, first.entries, second.entries)
	assert.Equal(t, first.warnings, second.warnings)
}

func TestParse_DistinctEvents(t *testing.T) {
	code := `
export default {
  methods: {
    run(list, x) {
      if (x) {
        this.$emit('one')
      } else {
        this.$emit('two', 1)
      }
      for (const i of list) {
        this.$emit('one', i)
      }
      setTimeout(() => this.$emit('three'), 10)
      try {
        this.$emit('two')
      } catch (e) {
        this.$emit('four', e)
      }
      switch (x) {
        case 1:
          this.$emit('five')
          break
      }
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})

	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, eventNames(r.doc()))

	var published int
	for _, e := range r.entries {
		if e.Kind() == entry.KindEvent {
			published++
		}
	}
	assert.Equal(t, 5, published)
}

func TestParse_EventArgumentTag(t *testing.T) {
	code := `
export default {
  methods: {
    submit() {
      /**
       * Emitted on submit.
       * @arg {...string[]} values - List of values
       */
      this.$emit('input', ...this.values)
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()

	require.Len(t, d.Events, 1)
	event := d.Events[0]
	assert.Equal(t, "input", event.Name)
	assert.Equal(t, "Emitted on submit.", event.Description)
	assert.Equal(t, []entry.Param{{
		Name:        "values",
		Type:        entry.Scalar("string[]"),
		Rest:        true,
		Description: "List of values",
	}}, event.Arguments)
}

func TestParse_UnresolvedEventName(t *testing.T) {
	code := `
export default {
  methods: {
    forward(name) {
      this.$emit(name)
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})

	assert.Equal(t, []string{"name"}, eventNames(r.doc()))
	require.Len(t, r.warnings, 1)
	assert.Contains(t, r.warnings[0].Message, "unable to resolve the event name")
	assert.Equal(t, 5, r.warnings[0].Line)
}

func TestParse_ResolvedEventNames(t *testing.T) {
	code := `
const EVENTS = { SAVE: 'save' }
const closing = 'close'

export default {
  methods: {
    save() {
      this.$emit(EVENTS.SAVE)
      let name = 'first'
      name = 'second'
      this.$emit(name)
      this.$emit(closing)
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})

	assert.Equal(t, []string{"save", "second", "close"}, eventNames(r.doc()))
	assert.Empty(t, r.warnings)
}

func TestParse_ValuePropIsModel(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, `export default { props: { value: String, title: String } }`)})
	d := r.doc()

	prop := findProp(d, ModelPropName)
	require.NotNil(t, prop)
	assert.True(t, prop.DescribeModel)
	assert.Equal(t, entry.Scalar("string"), prop.Type)

	title := findProp(d, "title")
	require.NotNil(t, title)
	assert.False(t, title.DescribeModel)
}

func TestParse_ModelOption(t *testing.T) {
	code := `
export default {
  model: { prop: 'checked', event: 'change' },
  props: ['checked'],
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()

	require.Len(t, d.Models, 1)
	assert.Equal(t, "checked", d.Models[0].Prop)
	assert.Equal(t, "change", d.Models[0].Event)

	prop := findProp(d, ModelPropName)
	require.NotNil(t, prop)
	assert.True(t, prop.DescribeModel)
	assert.Equal(t, entry.Scalar("any"), prop.Type)
}

func TestParse_ExcludedFeature(t *testing.T) {
	r := run(t, Options{
		Script:   jsSource(t, optionsComponent),
		Features: []entry.Feature{entry.FeatureProps},
	})

	for _, e := range r.entries {
		assert.Equal(t, entry.KindProp, e.Kind())
	}
	assert.Len(t, r.entries, 3)
}

func TestParse_Ignored(t *testing.T) {
	code := `
export default {
  methods: {
    /** @ignore */
    hidden() {},
    /** @private */
    internal() {},
    visible() {},
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()
	require.Len(t, d.Methods, 1)
	assert.Equal(t, "visible", d.Methods[0].Name)

	r = run(t, Options{Script: jsSource(t, code), Ignore: []string{}})
	d = r.doc()
	require.Len(t, d.Methods, 2)
	assert.Equal(t, "internal", d.Methods[0].Name)
	assert.Equal(t, entry.VisibilityPrivate, d.Methods[0].Visibility)
}

func TestParse_FactoryAndMixins(t *testing.T) {
	code := `
const base = {
  props: { id: Number },
}

function create() {
  return defineComponent({
    mixins: [base],
    props: { label: String },
  })
}

export default create()
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()

	assert.Empty(t, r.errors)
	require.Len(t, d.Props, 2)
	assert.Equal(t, "id", d.Props[0].Name)
	assert.Equal(t, entry.Scalar("number"), d.Props[0].Type)
	assert.Equal(t, "label", d.Props[1].Name)
}

func TestParse_WrappedMethod(t *testing.T) {
	code := `
export default {
  methods: {
    /** Searches. */
    search: debounce(function (query) {
      this.$emit('search', query)
    }, 200),
  },
}
`
	r := run(t, Options{Script: jsSource(t, code), Wrappers: []string{"debounce"}})
	d := r.doc()

	require.Len(t, d.Methods, 1)
	assert.Equal(t, "search", d.Methods[0].Name)
	assert.Equal(t, "Searches.", d.Methods[0].Description)
	assert.Equal(t, []string{"search"}, eventNames(d))
}

func TestParse_SetupOption(t *testing.T) {
	code := `
export default {
  emits: ['ready'],
  setup(props, { emit }) {
    /** Counter */
    const count = ref(0)
    const hidden = ref('')
    function increment() {
      count.value++
      emit('changed', count.value)
    }
    return { count, increment }
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()

	require.Len(t, d.Data, 1)
	assert.Equal(t, "count", d.Data[0].Name)
	assert.Equal(t, "Counter", d.Data[0].Description)
	assert.Equal(t, entry.Scalar("number"), d.Data[0].Type)

	require.Len(t, d.Methods, 1)
	assert.Equal(t, "increment", d.Methods[0].Name)

	assert.Equal(t, []string{"ready", "changed"}, eventNames(d))
}

func TestParse_SyntaxError(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "broken props", code: "export default {\n  props: { a: String,, }\n"},
		{name: "no component left", code: "const x = ;;; (((\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, Options{Script: jsSource(t, tt.code)})

			require.Len(t, r.errors, 1)
			var parseErr *ParseError
			require.ErrorAs(t, r.errors[0], &parseErr)
			assert.Contains(t, parseErr.Message, "syntax error")
			assert.Equal(t, 1, r.ended)
		})
	}
}

func TestParse_NoComponent(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, "const a = 1\n")})

	assert.Empty(t, r.entries)
	require.Len(t, r.errors, 1)
	assert.EqualError(t, r.errors[0], "unable to locate the component definition")
	assert.Equal(t, 1, r.ended)
}

func TestParse_InvalidOptions(t *testing.T) {
	em := emitter.New()

	err := Parse(Options{}, em)
	assert.ErrorIs(t, err, ErrNoSource)

	err = Parse(Options{Script: jsSource(t, "export default {}"), Features: []entry.Feature{"styles"}}, em)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	err = Parse(Options{Script: jsSource(t, "export default {}"), Ignore: []string{"internal"}}, em)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestParse_DefaultModelPropOnce(t *testing.T) {
	r := run(t, Options{Script: jsSource(t, `export default { props: { value: Number, modelValue: String } }`)})
	d := r.doc()

	require.Len(t, d.Props, 2)
	model := findProp(d, ModelPropName)
	require.NotNil(t, model)
	assert.Equal(t, entry.Scalar("number"), model.Type)

	other := findProp(d, "modelValue")
	require.NotNil(t, other)
	assert.False(t, other.DescribeModel)
}

func TestParse_DestructuredEventArgument(t *testing.T) {
	code := `
export default {
  methods: {
    save() {
      const { employee } = this
      const { name } = employee
      this.$emit('save', name, ...this.values)
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	d := r.doc()

	require.Len(t, d.Events, 1)
	args := d.Events[0].Arguments
	require.Len(t, args, 2)
	assert.Equal(t, "employee.name", args[0].Name)
	assert.Equal(t, "values", args[1].Name)
	assert.True(t, args[1].Rest)
}

func TestParse_IgnoredFirstEmissionOwnsEvent(t *testing.T) {
	code := `
export default {
  methods: {
    save() {
      /** @private */
      this.$emit('save')
      /** Public save */
      this.$emit('save', 1)
    },
  },
}
`
	r := run(t, Options{Script: jsSource(t, code)})
	assert.Empty(t, r.doc().Events)

	r = run(t, Options{Script: jsSource(t, code), Ignore: []string{}})
	d := r.doc()
	require.Len(t, d.Events, 1)
	assert.Equal(t, entry.VisibilityPrivate, d.Events[0].Visibility)
	assert.Empty(t, d.Events[0].Arguments)
}
