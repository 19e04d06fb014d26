package jsdoc

import (
	"testing"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DescriptionAndTags(t *testing.T) {
	c := Parse(`/**
 * Generic button.
 *
 * Use it everywhere.
 * @param {string} label - Visible label
 *   spanning two lines
 * @since 2.0.0
 * @deprecated
 */`)

	assert.Equal(t, "Generic button.\n\nUse it everywhere.", c.Description)
	require.Len(t, c.Tags, 3)
	assert.Equal(t, "param", c.Tags[0].Name)
	assert.Equal(t, "{string} label - Visible label\nspanning two lines", c.Tags[0].Text)
	assert.Equal(t, "since", c.Tags[1].Name)
	assert.Equal(t, "2.0.0", c.Tags[1].Text)
	assert.Equal(t, "deprecated", c.Tags[2].Name)
	assert.Equal(t, "", c.Tags[2].Text)

	assert.Equal(t, []entry.Keyword{
		{Name: "since", Description: "2.0.0"},
		{Name: "deprecated"},
	}, c.Keywords())
}

func TestParse_CommentForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "single line block", raw: `/** Label text */`, want: "Label text"},
		{name: "line comment", raw: `// Label text`, want: "Label text"},
		{name: "markup comment", raw: `<!-- Label text -->`, want: "Label text"},
		{name: "empty", raw: `/** */`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).Description)
		})
	}
}

func TestComment_LastTagWins(t *testing.T) {
	c := Parse(`/**
 * @default 1
 * @type {number}
 * @default 2
 * @type {string}
 */`)

	assert.Equal(t, "2", c.Value("default"))
	typ, err := ParseTypeTag(c.Value("type"))
	require.NoError(t, err)
	assert.Equal(t, entry.Scalar("string"), typ)
	assert.Empty(t, c.Keywords())
}

func TestComment_Visibility(t *testing.T) {
	assert.Equal(t, entry.VisibilityUnset, Parse(`/** nothing */`).Visibility())
	assert.Equal(t, entry.VisibilityPrivate, Parse(`/** @private */`).Visibility())
	assert.Equal(t, entry.VisibilityProtected, Parse("/**\n * @public\n * @protected\n */").Visibility())
	assert.True(t, Parse(`/** @hidden */`).Ignored())
	assert.False(t, Parse(`/** @hide */`).Ignored())

	var missing *Comment
	assert.Nil(t, missing.Tag("type"))
	assert.NotNil(t, missing.Keywords())
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want entry.Param
	}{
		{
			name: "optional union with default",
			text: `{string|string[]} [somebody="John Doe"]`,
			want: entry.Param{Name: "somebody", Type: entry.TypeExpr{"string", "string[]"}, Optional: true, DefaultValue: `"John Doe"`},
		},
		{
			name: "rest type",
			text: `{...string[]} values - List of values`,
			want: entry.Param{Name: "values", Type: entry.Scalar("string[]"), Rest: true, Description: "List of values"},
		},
		{
			name: "no type",
			text: `value The value`,
			want: entry.Param{Name: "value", Type: entry.Scalar(entry.Unknown), Description: "The value"},
		},
		{
			name: "empty type",
			text: `{} value`,
			want: entry.Param{Name: "value", Type: entry.Scalar(entry.Unknown)},
		},
		{
			name: "any",
			text: `{*} value`,
			want: entry.Param{Name: "value", Type: entry.Scalar("any")},
		},
		{
			name: "unknown question",
			text: `{?} value`,
			want: entry.Param{Name: "value", Type: entry.Scalar(UnknownQuestion)},
		},
		{
			name: "nullable",
			text: `{?number} count`,
			want: entry.Param{Name: "count", Type: entry.TypeExpr{"number", "null"}},
		},
		{
			name: "non nullable",
			text: `{!Object} options`,
			want: entry.Param{Name: "options", Type: entry.Scalar("Object")},
		},
		{
			name: "optional marker",
			text: `{number=} limit`,
			want: entry.Param{Name: "limit", Type: entry.Scalar("number"), Optional: true},
		},
		{
			name: "parenthesized union",
			text: `{(string|number)} id`,
			want: entry.Param{Name: "id", Type: entry.TypeExpr{"string", "number"}},
		},
		{
			name: "generic kept whole",
			text: `{Map<string, number|string>} index`,
			want: entry.Param{Name: "index", Type: entry.Scalar("Map<string, number|string>")},
		},
		{
			name: "dotted name",
			text: `{string} employee.name - Name of the employee`,
			want: entry.Param{Name: "employee.name", Type: entry.Scalar("string"), Description: "Name of the employee"},
		},
		{
			name: "rest name",
			text: `{string} ...names`,
			want: entry.Param{Name: "names", Type: entry.Scalar("string"), Rest: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param, err := ParseParam(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, param)
		})
	}
}

func TestParseParam_Format(t *testing.T) {
	param, err := ParseParam(`{string|string[]} [somebody="John Doe"]`)
	require.NoError(t, err)
	assert.Equal(t, `somebody?: string | string[] = "John Doe"`, entry.FormatParam(param))
}

func TestParseParam_Malformed(t *testing.T) {
	for _, text := range []string{`{string`, `{string}`, `{string} [name`, ``} {
		param, err := ParseParam(text)
		require.Error(t, err, text)
		assert.ErrorIs(t, err, ErrMalformedTag)
		assert.Equal(t, entry.Scalar(entry.Unknown), param.Type)
		assert.Empty(t, param.Name)
		assert.Empty(t, param.Description)
	}
}

func TestParseReturn(t *testing.T) {
	ret, err := ParseReturn(`{Promise<void>} - resolves when done`)
	require.NoError(t, err)
	assert.Equal(t, entry.Scalar("Promise<void>"), ret.Type)
	assert.Equal(t, "resolves when done", ret.Description)

	ret, err = ParseReturn(`the sum`)
	require.NoError(t, err)
	assert.True(t, ret.Type.IsUnknown())
	assert.Equal(t, "the sum", ret.Description)
}

func TestComment_ParseParams(t *testing.T) {
	c := Parse(`/**
 * @param {Object} employee
 * @param {string} employee.name
 * @arg {string
 * @argument {number} [age=18]
 */`)

	params, errs := c.ParseParams("param", "arg", "argument")
	require.Len(t, params, 3)
	assert.Equal(t, "employee", params[0].Name)
	assert.Equal(t, "employee.name", params[1].Name)
	assert.Equal(t, "age", params[2].Name)
	assert.Equal(t, "18", params[2].DefaultValue)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "@arg")

	assert.Equal(t, "show(employee: Object, age?: number = 18): void", entry.Signature("show", params, nil))
}
