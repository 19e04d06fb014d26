package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/shopware/vuedoc/internal/entry"
)

func sampleDoc() *entry.Documentation {
	inherit := false
	return &entry.Documentation{
		Name:         "MyButton",
		InheritAttrs: &inherit,
		Props: []*entry.PropEntry{{
			Base:     entry.Base{Visibility: entry.VisibilityPublic, Keywords: []entry.Keyword{}},
			Name:     "size",
			Type:     entry.Union(entry.Scalar("string"), entry.Scalar("number")),
			Default:  `"md"`,
			Required: true,
		}},
		Events: []*entry.EventEntry{{
			Base:      entry.Base{Visibility: entry.VisibilityPublic, Keywords: []entry.Keyword{}},
			Name:      "show",
			Arguments: []entry.Param{{Name: "delay", Type: entry.Scalar("number")}},
		}},
	}
}

func TestRender(t *testing.T) {
	out, err := Render("src/MyButton.vue", sampleDoc(), FormatJSON)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(out))

	doc := gjson.ParseBytes(out)
	assert.Equal(t, "src/MyButton.vue", doc.Get("file").String())
	assert.Equal(t, "MyButton", doc.Get("name").String())
	assert.False(t, doc.Get("description").Exists())
	assert.True(t, doc.Get("keywords").IsArray())
	assert.False(t, doc.Get("inheritAttrs").Bool())
	assert.True(t, doc.Get("inheritAttrs").Exists())

	assert.Equal(t, "size", doc.Get("props.0.name").String())
	assert.Equal(t, `["string","number"]`, doc.Get("props.0.type").Raw)
	assert.Equal(t, "public", doc.Get("props.0.visibility").String())
	assert.True(t, doc.Get("props.0.required").Bool())

	assert.Equal(t, "number", doc.Get("events.0.arguments.0.type").String())
	assert.False(t, doc.Get("slots").Exists())

	assert.NotContains(t, string(out), "\n")
}

func TestRender_Pretty(t *testing.T) {
	out, err := Render("", &entry.Documentation{Name: "Empty"}, FormatPretty)
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"name\": \"Empty\",\n  \"keywords\": []\n}\n", string(out))
}

func TestUpdateIndex(t *testing.T) {
	first, err := Render("", &entry.Documentation{Name: "a.b"}, FormatJSON)
	require.NoError(t, err)
	second, err := Render("", &entry.Documentation{Name: "Other"}, FormatJSON)
	require.NoError(t, err)

	index, err := UpdateIndex(nil, "a.b", first, FormatJSON)
	require.NoError(t, err)
	index, err = UpdateIndex(index, "Other", second, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "a.b", gjson.GetBytes(index, `a\.b.name`).String())
	assert.Equal(t, "Other", gjson.GetBytes(index, "Other.name").String())

	index, err = UpdateIndex(index, "a.b", nil, FormatJSON)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(index, `a\.b`).Exists())
	assert.True(t, gjson.GetBytes(index, "Other").Exists())
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, `v-model`, EscapeKey("v-model"))
	assert.Equal(t, `a\.b\*`, EscapeKey("a.b*"))
}
