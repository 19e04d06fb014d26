// Package component extracts the documentation model of a Vue component from
// its parsed script and template trees.
//
// Parse detects which authoring dialect the script uses (options object,
// decorated class or composition functions), runs the entry builders of the
// requested features for that dialect, walks the template for slots and
// events, reconciles two-way binding props and publishes the result through
// an emitter.
package component

import (
	"fmt"
	"slices"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/scope"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
	"github.com/shopware/vuedoc/internal/valuefmt"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"
)

// Source is one parsed block of a component.
type Source struct {
	Root    *tree_sitter.Node
	Content []byte
	// Line is the 1-based line the block starts on in its file.
	Line int
}

// Options configure a parse.
type Options struct {
	Script   *Source `validate:"-"`
	Template *Source `validate:"-"`
	// Setup marks the script as a `<script setup>` block.
	Setup bool
	// Features selects the entry kinds to extract. Empty selects all.
	Features []entry.Feature `validate:"dive,oneof=name description keywords props data computed methods events slots model inheritAttrs"`
	// Ignore lists the visibilities that are never published. Nil means
	// DefaultIgnore.
	Ignore []string `validate:"dive,oneof=public protected private"`
	// Wrappers are helper names a function value is passed through
	// unchanged, such as `debounce`.
	Wrappers []string `validate:"dive,required"`
}

// DefaultIgnore is the visibility ignore set used when none is given.
var DefaultIgnore = []string{"private"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the options before any walk starts.
func (o *Options) Validate() error {
	if o.Script == nil && o.Template == nil {
		return ErrNoSource
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Parse walks the script and template of a component and publishes every
// entry found to em. The script and template walks run concurrently; the
// template's entries are published after the script's, followed by the end
// signal. Only invalid options are returned as an error, everything else is
// reported on the emitter.
func Parse(opts Options, em *emitter.Emitter) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	em.Begin()
	defer em.End()

	features := entry.NewFeatureSet(opts.Features...)
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	out := newFilter(em, features, ignore)

	var g errgroup.Group
	template := &emitter.Recorder{}
	if opts.Template != nil && (features.Has(entry.FeatureSlots) || features.Has(entry.FeatureEvents)) {
		g.Go(func() error {
			walkTemplate(opts.Template, features, template)
			return nil
		})
	}

	var p *parser
	if opts.Script != nil {
		p = newParser(opts, features, out)
		p.run()
	}

	if err := g.Wait(); err != nil {
		out.Error(err)
	}

	var pending []pending
	dialect := DialectPlainObject
	if p != nil {
		pending = p.pending
		dialect = p.dialect
	}
	pending = synchronize(dialect, pending, template, features.Has(entry.FeatureProps))

	for _, item := range pending {
		out.Publish(item.entry)
	}
	template.Replay(out)
	return nil
}

// filter drops entries of unselected features and ignored visibilities.
type filter struct {
	sink     emitter.Sink
	features entry.FeatureSet
	ignore   map[entry.Visibility]bool
	events   map[string]bool
}

func newFilter(sink emitter.Sink, features entry.FeatureSet, ignore []string) *filter {
	f := &filter{
		sink:     sink,
		features: features,
		ignore:   make(map[entry.Visibility]bool),
		events:   make(map[string]bool),
	}
	for _, name := range ignore {
		f.ignore[entry.ParseVisibility(name)] = true
	}
	return f
}

func (f *filter) Publish(e entry.Entry) {
	if !f.features.Has(featureOf(e.Kind())) {
		return
	}
	// The first emission of an event owns its name, even when ignored.
	if e.Kind() == entry.KindEvent {
		if f.events[e.Identity()] {
			return
		}
		f.events[e.Identity()] = true
	}
	if d, ok := e.(entry.Documented); ok && f.ignore[d.Common().Visibility] {
		return
	}
	f.sink.Publish(e)
}

func (f *filter) Error(err error) {
	f.sink.Error(err)
}

func (f *filter) Warn(w emitter.Warning) {
	f.sink.Warn(w)
}

func featureOf(kind entry.Kind) entry.Feature {
	for _, f := range entry.AllFeatures {
		if f.Kind() == kind {
			return f
		}
	}
	return ""
}

type pending struct {
	pos   uint
	entry entry.Entry
}

// parser is the state of one script walk. It is never shared.
type parser struct {
	source   []byte
	root     *tree_sitter.Node
	line     int
	setup    bool
	scope    *scope.Scope
	format   *valuefmt.Formatter
	features entry.FeatureSet
	wrappers map[string]bool
	sink     emitter.Sink
	dialect  Dialect
	pending  []pending

	component *component
	comment   *componentComment
}

func newParser(opts Options, features entry.FeatureSet, sink emitter.Sink) *parser {
	s := scope.New(opts.Script.Content)
	p := &parser{
		source:   opts.Script.Content,
		root:     opts.Script.Root,
		line:     max(opts.Script.Line, 1),
		setup:    opts.Setup,
		scope:    s,
		format:   valuefmt.New(opts.Script.Content, s),
		features: features,
		wrappers: make(map[string]bool),
		sink:     sink,
	}
	for _, name := range opts.Wrappers {
		p.wrappers[name] = true
	}
	return p
}

func (p *parser) run() {
	if p.root == nil {
		if len(p.source) > 0 {
			p.sink.Error(&ParseError{Message: "script could not be parsed"})
		}
		return
	}
	broken := p.root.HasError()
	if broken {
		p.reportSyntaxError()
	}

	p.declareStatements(p.root)

	c := p.locate()
	if c == nil {
		// A broken script has already reported its one error.
		if !broken {
			p.sink.Error(&ParseError{Message: "unable to locate the component definition"})
		}
		return
	}
	p.component = c
	p.dialect = c.dialect

	for _, feature := range entry.AllFeatures {
		if !p.features.Has(feature) {
			continue
		}
		if build, ok := dispatch[dispatchKey{c.dialect, feature}]; ok {
			build(p, c)
		}
	}

	sort.SliceStable(p.pending, func(i, j int) bool {
		return p.pending[i].pos < p.pending[j].pos
	})
}

func (p *parser) reportSyntaxError() {
	errNode := treesitterhelper.FindFirst(p.root, treesitterhelper.FuncPattern(func(node *tree_sitter.Node, _ []byte) bool {
		return node.IsError() || node.IsMissing()
	}), p.source)
	if errNode == nil {
		p.sink.Error(&ParseError{Message: "syntax error"})
		return
	}
	pos := errNode.StartPosition()
	p.sink.Error(&ParseError{
		Message: fmt.Sprintf("syntax error near %q", p.text(errNode)),
		Line:    int(pos.Row) + p.line,
		Column:  int(pos.Column) + 1,
	})
}

// emit queues an entry found at node.
func (p *parser) emit(node *tree_sitter.Node, e entry.Entry) {
	var pos uint
	if node != nil {
		pos = node.StartByte()
	}
	p.pending = append(p.pending, pending{pos: pos, entry: e})
}

func (p *parser) warn(node *tree_sitter.Node, format string, args ...any) {
	p.sink.Warn(emitter.Warning{Message: fmt.Sprintf(format, args...), Line: p.lineOf(node)})
}

func (p *parser) lineOf(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	return treesitterhelper.Line(node) + p.line - 1
}

func (p *parser) text(node *tree_sitter.Node) string {
	return p.format.Text(node)
}

// compositionCalls are the reactive primitives a declaration is tagged with.
var compositionCalls = []string{
	"ref", "shallowRef", "reactive", "shallowReactive", "readonly", "computed",
	"defineProps", "withDefaults", "defineEmits", "defineModel", "defineSlots",
	"defineOptions", "useSlots", "useAttrs", "toRefs",
}

// declareStatements binds the declarations of a program or function body in
// the current frame.
func (p *parser) declareStatements(container *tree_sitter.Node) {
	if container == nil {
		return
	}
	for i := uint(0); i < container.NamedChildCount(); i++ {
		p.declareStatement(container.NamedChild(i))
	}
}

func (p *parser) declareStatement(stmt *tree_sitter.Node) {
	switch stmt.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < stmt.NamedChildCount(); i++ {
			decl := stmt.NamedChild(i)
			if decl.Kind() != "variable_declarator" {
				continue
			}
			name := decl.ChildByFieldName("name")
			value := decl.ChildByFieldName("value")
			if composition := p.compositionOf(value); composition != "" {
				p.scope.DeclareComposition(name, value, composition)
				continue
			}
			p.scope.DeclarePattern(name, value)
		}
	case "function_declaration", "generator_function_declaration", "class_declaration", "abstract_class_declaration":
		if name := stmt.ChildByFieldName("name"); name != nil {
			p.scope.DeclareValue(p.text(name), stmt)
		}
	case "expression_statement":
		expr := stmt.NamedChild(0)
		if expr != nil && expr.Kind() == "assignment_expression" {
			left := expr.ChildByFieldName("left")
			if left != nil && left.Kind() == "identifier" {
				p.scope.Assign(p.text(left), expr.ChildByFieldName("right"))
			}
		}
	case "export_statement":
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			p.declareStatement(decl)
		}
	case "import_statement":
		for _, ident := range treesitterhelper.FindAll(stmt, treesitterhelper.NodeKind("identifier"), p.source) {
			if parent := ident.Parent(); parent != nil && parent.Kind() == "import_specifier" && parent.ChildByFieldName("alias") != nil && parent.ChildByFieldName("alias").Id() != ident.Id() {
				continue
			}
			p.scope.Declare(p.text(ident), &scope.Binding{})
		}
	}
}

// compositionOf returns the reactive primitive that produced value.
func (p *parser) compositionOf(value *tree_sitter.Node) string {
	value = unwrapExpression(value)
	if value == nil || value.Kind() != "call_expression" {
		return ""
	}
	callee := treesitterhelper.CalleeName(value, p.source)
	if !slices.Contains(compositionCalls, callee) {
		return ""
	}
	if callee == "withDefaults" {
		return "defineProps"
	}
	return callee
}

// unwrapExpression strips parentheses, TypeScript assertions and `await`.
func unwrapExpression(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "non_null_expression", "await_expression", "as_expression", "satisfies_expression":
			inner := node.NamedChild(0)
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return nil
}

// withFunction runs fn in a frame holding the parameters and body
// declarations of a function literal.
func (p *parser) withFunction(function *tree_sitter.Node, fn func(body *tree_sitter.Node)) {
	p.scope.Within(func() {
		if params := function.ChildByFieldName("parameters"); params != nil {
			p.scope.DeclareParameters(params)
		} else if param := function.ChildByFieldName("parameter"); param != nil {
			p.scope.DeclareParameters(param)
		}
		body := function.ChildByFieldName("body")
		if body != nil && body.Kind() == "statement_block" {
			p.declareStatements(body)
		}
		fn(body)
	})
}
