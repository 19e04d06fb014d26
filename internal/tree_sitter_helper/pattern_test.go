package treesitterhelper

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

func parse(t *testing.T, language unsafe.Pointer, code string) *tree_sitter.Node {
	parser := tree_sitter.NewParser()
	t.Cleanup(func() { parser.Close() })

	require.NoError(t, parser.SetLanguage(tree_sitter.NewLanguage(language)))

	tree := parser.Parse([]byte(code), nil)
	t.Cleanup(func() { tree.Close() })

	return tree.RootNode()
}

func parseJS(t *testing.T, code string) *tree_sitter.Node {
	return parse(t, tree_sitter_javascript.Language(), code)
}

func TestCallPatterns(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		pattern Pattern
		want    int
	}{
		{
			name:    "define props",
			code:    `const props = defineProps(['a']); withDefaults(defineProps(), {});`,
			pattern: CallPattern("defineProps"),
			want:    2,
		},
		{
			name:    "this emit",
			code:    `this.$emit('input'); vm.$emit('change'); $emit('x');`,
			pattern: ThisMethodCallPattern("$emit"),
			want:    1,
		},
		{
			name:    "any member emit",
			code:    `this.$emit('input'); vm.$emit('change'); $emit('x');`,
			pattern: MemberCallPattern("$emit"),
			want:    2,
		},
		{
			name:    "empty method list never matches",
			code:    `this.$emit('input');`,
			pattern: ThisMethodCallPattern(),
			want:    0,
		},
		{
			name:    "slot reads",
			code:    `this.$slots.header; this.$scopedSlots.row; slots.footer; this.slots.none;`,
			pattern: SlotsAccessPattern,
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseJS(t, tt.code)
			matches := FindAll(root, tt.pattern, []byte(tt.code))
			assert.Len(t, matches, tt.want)
		})
	}
}

func TestFindAll_Skip(t *testing.T) {
	code := `emit('a'); function inner() { emit('b') }`
	root := parseJS(t, code)

	all := FindAll(root, CallPattern("emit"), []byte(code))
	assert.Len(t, all, 2)

	outer := FindAll(root, CallPattern("emit"), []byte(code), NodeKind("function_declaration"))
	require.Len(t, outer, 1)
	assert.Equal(t, "emit('a')", outer[0].Utf8Text([]byte(code)))
}

func TestFieldPattern(t *testing.T) {
	code := `export default { name: 'my-button' }`
	root := parseJS(t, code)

	pattern := And(
		NodeKind("pair"),
		Field("key", NodeText("name")),
		Field("value", NodeKind("string")),
	)

	pair := FindFirst(root, pattern, []byte(code))
	require.NotNil(t, pair)
	assert.Equal(t, "'my-button'", pair.ChildByFieldName("value").Utf8Text([]byte(code)))
	assert.Equal(t, 1, Line(pair))

	assert.Nil(t, FindFirst(root, And(NodeKind("pair"), Field("value", NodeKind("number"))), []byte(code)))
}

func TestObjectHelpers(t *testing.T) {
	code := `({ 'quoted': 1, plain: 2, method() {}, short })`
	root := parseJS(t, code)
	content := []byte(code)
	object := FindFirst(root, NodeKind("object"), content)
	require.NotNil(t, object)

	members := ObjectMembers(object)
	require.Len(t, members, 4)

	var names []string
	for _, m := range members {
		names = append(names, PropertyName(m, content))
	}
	assert.Equal(t, []string{"quoted", "plain", "method", "short"}, names)

	assert.Equal(t, "2", ObjectValue(object, "plain", content).Utf8Text(content))
	assert.Equal(t, "method_definition", ObjectValue(object, "method", content).Kind())
	assert.Nil(t, ObjectValue(object, "missing", content))
}

func TestCalleeAndArguments(t *testing.T) {
	code := `this.$emit('input', /* value */ value, 2)`
	root := parseJS(t, code)
	content := []byte(code)
	call := FindFirst(root, NodeKind("call_expression"), content)
	require.NotNil(t, call)

	assert.Equal(t, "this.$emit", CalleeName(call, content))
	args := Arguments(call)
	require.Len(t, args, 3)
	assert.Equal(t, "value", args[1].Utf8Text(content))
}

func TestHTMLAttributes(t *testing.T) {
	code := `<slot name="header" :item="item" disabled></slot>`
	root := parse(t, tree_sitter_html.Language(), code)
	content := []byte(code)

	element := FindFirst(root, NodeKind("element"), content)
	require.NotNil(t, element)
	assert.Equal(t, "slot", HTMLTagName(element, content))

	attrs := GetHTMLAttributes(element, content)
	require.Len(t, attrs, 3)
	assert.Equal(t, HTMLAttribute{Name: "name", Value: "header", Node: attrs[0].Node}, attrs[0])
	assert.Equal(t, ":item", attrs[1].Name)
	assert.Equal(t, "item", attrs[1].Value)
	assert.Equal(t, "disabled", attrs[2].Name)

	value, ok := GetHTMLAttribute(element, "name", content)
	assert.True(t, ok)
	assert.Equal(t, "header", value)
}
