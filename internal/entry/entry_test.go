package entry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParam(t *testing.T) {
	tests := []struct {
		name     string
		param    Param
		expected string
	}{
		{
			name:     "optional union with default",
			param:    Param{Name: "somebody", Type: TypeExpr{"string", "string[]"}, Optional: true, DefaultValue: `"John Doe"`},
			expected: `somebody?: string | string[] = "John Doe"`,
		},
		{
			name:     "rest",
			param:    Param{Name: "values", Type: Scalar("string[]"), Rest: true},
			expected: "...values: string[]",
		},
		{
			name:     "plain",
			param:    Param{Name: "id", Type: Scalar("number")},
			expected: "id: number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatParam(tt.param))
		})
	}
}

func TestSignature(t *testing.T) {
	params := []Param{
		{Name: "employee", Type: Scalar("Object")},
		{Name: "employee.name", Type: Scalar("string")},
		{Name: "rest", Type: Scalar("number[]"), Rest: true},
	}

	assert.Equal(t, "hire(employee: Object, ...rest: number[]): boolean", Signature("hire", params, Scalar("boolean")))
	assert.Equal(t, "reset(): void", Signature("reset", nil, nil))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, TypeExpr{"string"}, Union(Scalar("string"), Scalar("string")))
	assert.Equal(t, TypeExpr{"string", "number", "null"}, Union(TypeExpr{"string", "number"}, Scalar("null")))
	assert.True(t, Union().IsUnknown())
}

func TestTypeExprJSON(t *testing.T) {
	data, err := json.Marshal(Scalar("string"))
	require.NoError(t, err)
	assert.JSONEq(t, `"string"`, string(data))

	data, err = json.Marshal(TypeExpr{"string", "string[]"})
	require.NoError(t, err)
	assert.JSONEq(t, `["string","string[]"]`, string(data))
}

func TestFeatureSet(t *testing.T) {
	all := NewFeatureSet()
	for _, f := range AllFeatures {
		assert.True(t, all.Has(f))
	}

	some := NewFeatureSet(FeatureProps)
	assert.True(t, some.Has(FeatureProps))
	assert.False(t, some.Has(FeatureEvents))
	assert.Equal(t, KindProp, FeatureProps.Kind())
}

func TestVisibility(t *testing.T) {
	assert.Equal(t, VisibilityPrivate, ParseVisibility("private"))
	assert.Equal(t, VisibilityUnset, ParseVisibility("internal"))
	assert.Less(t, int(VisibilityPublic), int(VisibilityProtected))
	assert.Less(t, int(VisibilityProtected), int(VisibilityPrivate))
}
