// Package sfc splits Vue single-file components into their script and
// template blocks and parses them with tree-sitter.
package sfc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopware/vuedoc/internal/component"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ErrUnsupportedFile is returned for files that are neither components nor
// scripts.
var ErrUnsupportedFile = errors.New("sfc: unsupported file type")

// ScannedFileTypes are the extensions Load accepts.
var ScannedFileTypes = []string{".vue", ".js", ".mjs", ".ts"}

// File is a loaded component. Close releases its syntax trees.
type File struct {
	Path     string
	Script   *component.Source
	Template *component.Source
	// Setup is set for `<script setup>` blocks.
	Setup bool
	// Lang is the script language, "js" or "ts".
	Lang string

	trees []*tree_sitter.Tree
}

// Options fills the sources of opts from the file.
func (f *File) Options(opts component.Options) component.Options {
	opts.Script = f.Script
	opts.Template = f.Template
	opts.Setup = f.Setup
	return opts
}

// Close releases the syntax trees of the file.
func (f *File) Close() {
	for _, tree := range f.trees {
		tree.Close()
	}
	f.trees = nil
}

// Loader parses component files. A Loader owns its parsers and must not be
// shared between goroutines.
type Loader struct {
	parsers map[string]*tree_sitter.Parser
}

// NewLoader creates a loader with parsers for markup, JavaScript and
// TypeScript.
func NewLoader() (*Loader, error) {
	languages := map[string]*tree_sitter.Language{
		"html": tree_sitter.NewLanguage(tree_sitter_html.Language()),
		"js":   tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		"ts":   tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		"tsx":  tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}

	l := &Loader{parsers: make(map[string]*tree_sitter.Parser)}
	for name, language := range languages {
		parser := tree_sitter.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			parser.Close()
			l.Close()
			return nil, fmt.Errorf("failed to set %s language: %w", name, err)
		}
		l.parsers[name] = parser
	}
	return l, nil
}

// Close releases the parsers.
func (l *Loader) Close() {
	for _, parser := range l.parsers {
		parser.Close()
	}
	l.parsers = nil
}

// Load reads and parses a component or script file.
func (l *Loader) Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Parse(path, content)
}

// Parse parses content as the file at path. The extension decides whether
// content is a single-file component or a plain script.
func (l *Loader) Parse(path string, content []byte) (*File, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vue":
		return l.parseComponent(path, content)
	case ".js", ".mjs":
		f := &File{Path: path, Lang: "js"}
		f.Script = l.parseScript(f, "js", content, 1)
		return f, nil
	case ".ts":
		f := &File{Path: path, Lang: "ts"}
		f.Script = l.parseScript(f, "ts", content, 1)
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}

func (l *Loader) parseComponent(path string, content []byte) (*File, error) {
	tree := l.parsers["html"].Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	f := &File{Path: path, Lang: "js", trees: []*tree_sitter.Tree{tree}}
	root := tree.RootNode()

	var scripts []*tree_sitter.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		block := root.NamedChild(i)
		switch block.Kind() {
		case "script_element":
			scripts = append(scripts, block)
		case "element":
			if f.Template != nil || treesitterhelper.HTMLTagName(block, content) != "template" {
				continue
			}
			if lang, ok := treesitterhelper.GetHTMLAttribute(block, "lang", content); ok && lang != "html" {
				// Pug and other preprocessed templates have no markup tree.
				continue
			}
			f.Template = &component.Source{Root: block, Content: content, Line: 1}
		}
	}

	script := pickScript(scripts, content)
	if script == nil {
		return f, nil
	}
	_, f.Setup = treesitterhelper.GetHTMLAttribute(script, "setup", content)
	if lang, ok := treesitterhelper.GetHTMLAttribute(script, "lang", content); ok {
		switch lang {
		case "ts", "tsx":
			f.Lang = lang
		}
	}

	raw := treesitterhelper.GetFirstNodeOfKind(script, "raw_text")
	if raw == nil {
		return f, nil
	}
	code := []byte(raw.Utf8Text(content))
	f.Script = l.parseScript(f, f.Lang, code, int(raw.StartPosition().Row)+1)
	if f.Lang == "tsx" {
		f.Lang = "ts"
	}
	return f, nil
}

// pickScript returns the `<script setup>` block when there is one, the
// first script block otherwise.
func pickScript(scripts []*tree_sitter.Node, content []byte) *tree_sitter.Node {
	for _, script := range scripts {
		if _, ok := treesitterhelper.GetHTMLAttribute(script, "setup", content); ok {
			return script
		}
	}
	if len(scripts) == 0 {
		return nil
	}
	return scripts[0]
}

func (l *Loader) parseScript(f *File, lang string, code []byte, line int) *component.Source {
	tree := l.parsers[lang].Parse(code, nil)
	src := &component.Source{Content: code, Line: line}
	if tree == nil {
		return src
	}
	f.trees = append(f.trees, tree)
	src.Root = tree.RootNode()
	return src
}
