package jsdoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
)

// ErrMalformedTag is returned for tag bodies the type grammar cannot read.
var ErrMalformedTag = errors.New("malformed tag")

// UnknownQuestion is the type a bare `{?}` resolves to.
const UnknownQuestion = "unknow"

// TypeSpan is the parsed `{...}` part of a structured tag.
type TypeSpan struct {
	Type     entry.TypeExpr
	Rest     bool
	Optional bool
}

// ParseType reads an optional leading `{...}` type span and returns it with
// the remaining text. Text without a span yields an unknown type.
func ParseType(text string) (TypeSpan, string, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return TypeSpan{Type: entry.Scalar(entry.Unknown)}, text, nil
	}

	end := matching(text, 0, '{', '}')
	if end < 0 {
		return TypeSpan{Type: entry.Scalar(entry.Unknown)}, "", fmt.Errorf("%w: unbalanced type braces in %q", ErrMalformedTag, text)
	}

	span := parseTypeBody(text[1:end])
	return span, strings.TrimSpace(text[end+1:]), nil
}

func parseTypeBody(body string) TypeSpan {
	body = strings.TrimSpace(body)
	span := TypeSpan{}

	switch body {
	case "":
		span.Type = entry.Scalar(entry.Unknown)
		return span
	case "*":
		span.Type = entry.Scalar("any")
		return span
	case "?":
		span.Type = entry.Scalar(UnknownQuestion)
		return span
	}

	nullable := false
	for {
		switch {
		case strings.HasPrefix(body, "..."):
			span.Rest = true
			body = strings.TrimSpace(body[3:])
			continue
		case strings.HasPrefix(body, "?"):
			nullable = true
			body = strings.TrimSpace(body[1:])
			continue
		case strings.HasPrefix(body, "!"):
			body = strings.TrimSpace(body[1:])
			continue
		}
		break
	}
	if strings.HasSuffix(body, "=") {
		span.Optional = true
		body = strings.TrimSpace(strings.TrimSuffix(body, "="))
	}

	body = stripOuterParens(body)
	members := splitTopLevel(body, '|')
	union := make([]entry.TypeExpr, 0, len(members)+1)
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			union = append(union, entry.Scalar(m))
		}
	}
	if nullable {
		union = append(union, entry.Scalar("null"))
	}
	span.Type = entry.Union(union...)
	return span
}

// ParseParam reads `{type} name - description`, `{type} [name=default]
// description` and their variants. Unreadable input returns an unknown-typed
// param with an empty name together with the error.
func ParseParam(text string) (entry.Param, error) {
	span, rest, err := ParseType(text)
	if err != nil {
		return entry.Param{Type: entry.Scalar(entry.Unknown)}, err
	}

	param := entry.Param{
		Type:     span.Type,
		Rest:     span.Rest,
		Optional: span.Optional,
	}

	if strings.HasPrefix(rest, "[") {
		end := matching(rest, 0, '[', ']')
		if end < 0 {
			return entry.Param{Type: entry.Scalar(entry.Unknown)}, fmt.Errorf("%w: unbalanced optional name in %q", ErrMalformedTag, text)
		}
		inner := strings.TrimSpace(rest[1:end])
		name, def, hasDefault := strings.Cut(inner, "=")
		param.Name = strings.TrimSpace(name)
		if hasDefault {
			param.DefaultValue = strings.TrimSpace(def)
		}
		param.Optional = true
		rest = rest[end+1:]
	} else {
		name, remainder := splitWord(rest)
		if strings.HasPrefix(name, "...") {
			param.Rest = true
			name = strings.TrimPrefix(name, "...")
		}
		param.Name = name
		rest = remainder
	}

	if param.Name == "" || param.Name == "-" {
		return entry.Param{Type: entry.Scalar(entry.Unknown)}, fmt.Errorf("%w: missing name in %q", ErrMalformedTag, text)
	}

	param.Description = description(rest)
	return param, nil
}

// ParseReturn reads `{type} description`.
func ParseReturn(text string) (entry.Return, error) {
	span, rest, err := ParseType(text)
	if err != nil {
		return entry.Return{Type: entry.Scalar(entry.Unknown)}, err
	}
	return entry.Return{Type: span.Type, Description: description(rest)}, nil
}

// ParseTypeTag reads the body of a @type tag. The braces are optional.
func ParseTypeTag(text string) (entry.TypeExpr, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		if text == "" {
			return entry.Scalar(entry.Unknown), nil
		}
		return parseTypeBody(text).Type, nil
	}
	span, _, err := ParseType(text)
	return span.Type, err
}

// ParseParams parses every tag with one of the names. Params whose name
// continues a previous one (`employee.name`, `employees[].id`) stay separate
// entries. Malformed tags are reported and skipped.
func (c *Comment) ParseParams(names ...string) ([]entry.Param, []error) {
	var params []entry.Param
	var errs []error
	for _, tag := range c.All(names...) {
		param, err := ParseParam(tag.Text)
		if err != nil {
			errs = append(errs, fmt.Errorf("@%s: %w", tag.Name, err))
			continue
		}
		params = append(params, param)
	}
	return params, errs
}

func description(rest string) string {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "-")
	return strings.TrimSpace(rest)
}

func splitWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], text[idx:]
}

// matching returns the index of the delimiter closing the one at start,
// skipping nested pairs and quoted strings, or -1.
func matching(text string, start int, open, closing byte) int {
	depth := 0
	var quote byte
	for i := start; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on sep outside of (), <>, [] and {}.
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, text[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, text[last:])
}

func stripOuterParens(text string) string {
	for strings.HasPrefix(text, "(") && matching(text, 0, '(', ')') == len(text)-1 {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}
