// Package jsdoc parses documentation comments into a description and an
// ordered list of tags, and understands the type-expression grammar used by
// the structured tags (@param, @returns, @type, ...).
package jsdoc

import (
	"regexp"
	"strings"

	"github.com/shopware/vuedoc/internal/entry"
)

// Tag is one `@name text` block of a comment.
type Tag struct {
	Name string
	Text string
	// Line is the 0-based line of the tag within the comment.
	Line int
}

// Comment is a parsed documentation comment.
type Comment struct {
	Description string
	Tags        []Tag
}

var tagLinePattern = regexp.MustCompile(`^@([A-Za-z][\w-]*)(?:\s+(.*))?$`)

// reservedTags are consumed by the entry builders and never become keywords.
var reservedTags = map[string]bool{
	"param": true, "arg": true, "argument": true, "prop": true,
	"return": true, "returns": true, "type": true, "default": true,
	"initialValue": true, "kind": true, "category": true, "version": true,
	"public": true, "protected": true, "private": true, "ignore": true,
	"hidden": true, "event": true, "slot": true, "syntax": true,
	"model": true, "name": true,
}

// Parse splits a raw comment (block, line or markup comment) into its
// description and tags. A tag's text runs until the next tag at line start.
func Parse(raw string) *Comment {
	lines := Strip(raw)
	c := &Comment{}

	var description []string
	var current *Tag
	var text []string
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(text, "\n"))
			c.Tags = append(c.Tags, *current)
		}
		current = nil
		text = nil
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := tagLinePattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &Tag{Name: m[1], Line: i}
			text = []string{m[2]}
			continue
		}
		if current != nil {
			text = append(text, trimmed)
			continue
		}
		description = append(description, strings.TrimRight(line, " \t"))
	}
	flush()

	c.Description = strings.TrimSpace(strings.Join(description, "\n"))
	return c
}

// Strip removes the comment delimiters and leading `*` decorations and
// returns the content lines.
func Strip(raw string) []string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimLeft(text, "*")
		text = strings.TrimSuffix(text, "*/")
	case strings.HasPrefix(text, "<!--"):
		text = strings.TrimPrefix(text, "<!--")
		text = strings.TrimSuffix(text, "-->")
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "//"):
			line = strings.TrimLeft(line, "/")
		case strings.HasPrefix(line, "*"):
			line = strings.TrimPrefix(line, "*")
		}
		lines[i] = strings.TrimPrefix(line, " ")
	}

	// Drop the empty lines left by `/**` and ` */`.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Tag returns the last tag with one of the given names. Repeated tags such
// as @default or @type resolve to their last occurrence.
func (c *Comment) Tag(names ...string) *Tag {
	if c == nil {
		return nil
	}
	for i := len(c.Tags) - 1; i >= 0; i-- {
		for _, name := range names {
			if c.Tags[i].Name == name {
				return &c.Tags[i]
			}
		}
	}
	return nil
}

// Has reports whether any tag with one of the names is present.
func (c *Comment) Has(names ...string) bool {
	return c.Tag(names...) != nil
}

// All returns every tag with one of the names, in order.
func (c *Comment) All(names ...string) []Tag {
	if c == nil {
		return nil
	}
	var tags []Tag
	for _, tag := range c.Tags {
		for _, name := range names {
			if tag.Name == name {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// Keywords returns the tags no builder interprets.
func (c *Comment) Keywords() []entry.Keyword {
	keywords := []entry.Keyword{}
	if c == nil {
		return keywords
	}
	for _, tag := range c.Tags {
		if reservedTags[tag.Name] {
			continue
		}
		keywords = append(keywords, entry.Keyword{Name: tag.Name, Description: tag.Text})
	}
	return keywords
}

// Visibility returns the visibility set by @public, @protected or
// @private, the last one winning.
func (c *Comment) Visibility() entry.Visibility {
	tag := c.Tag("public", "protected", "private")
	if tag == nil {
		return entry.VisibilityUnset
	}
	return entry.ParseVisibility(tag.Name)
}

// Ignored reports whether the entry is suppressed with @ignore or @hidden.
func (c *Comment) Ignored() bool {
	return c.Has("ignore", "hidden")
}

// Value returns the text of the last tag with the name, or "".
func (c *Comment) Value(name string) string {
	if tag := c.Tag(name); tag != nil {
		return tag.Text
	}
	return ""
}
