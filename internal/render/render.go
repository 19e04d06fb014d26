// Package render writes component documentation as JSON.
package render

import (
	"fmt"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/shopware/vuedoc/internal/entry"
)

// Formats accepted by Render.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Render builds the JSON document of a component. Sections are written in
// a fixed order; empty sections are left out, keywords are always present.
func Render(file string, doc *entry.Documentation, format string) ([]byte, error) {
	out := []byte("{}")

	type field struct {
		path  string
		value any
		skip  bool
	}
	fields := []field{
		{path: "file", value: file, skip: file == ""},
		{path: "name", value: doc.Name, skip: doc.Name == ""},
		{path: "description", value: doc.Description, skip: doc.Description == ""},
		{path: "keywords", value: keywords(doc.Keywords)},
		{path: "inheritAttrs", value: doc.InheritAttrs, skip: doc.InheritAttrs == nil},
		{path: "props", value: doc.Props, skip: len(doc.Props) == 0},
		{path: "data", value: doc.Data, skip: len(doc.Data) == 0},
		{path: "computed", value: doc.Computed, skip: len(doc.Computed) == 0},
		{path: "methods", value: doc.Methods, skip: len(doc.Methods) == 0},
		{path: "events", value: doc.Events, skip: len(doc.Events) == 0},
		{path: "slots", value: doc.Slots, skip: len(doc.Slots) == 0},
		{path: "models", value: doc.Models, skip: len(doc.Models) == 0},
		{path: "errors", value: doc.Errors, skip: len(doc.Errors) == 0},
		{path: "warnings", value: doc.Warnings, skip: len(doc.Warnings) == 0},
	}

	var err error
	for _, f := range fields {
		if f.skip {
			continue
		}
		if out, err = sjson.SetBytes(out, f.path, f.value); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", f.path, err)
		}
	}
	return Format(out, format), nil
}

func keywords(list []entry.Keyword) []entry.Keyword {
	if list == nil {
		return []entry.Keyword{}
	}
	return list
}

// Format indents or compacts a JSON document.
func Format(data []byte, format string) []byte {
	if format == FormatJSON {
		return pretty.Ugly(data)
	}
	return pretty.Pretty(data)
}

// UpdateIndex sets the rendered document of a component in an index
// document keyed by component name. A nil document removes the key.
func UpdateIndex(index []byte, key string, document []byte, format string) ([]byte, error) {
	if len(index) == 0 {
		index = []byte("{}")
	}

	var err error
	if document == nil {
		index, err = sjson.DeleteBytes(index, EscapeKey(key))
	} else {
		index, err = sjson.SetRawBytes(index, EscapeKey(key), pretty.Ugly(document))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update index key %s: %w", key, err)
	}
	return Format(index, format), nil
}

var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

// EscapeKey escapes the path syntax characters of an object key.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}
