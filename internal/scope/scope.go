// Package scope resolves identifiers to the values they were last bound to
// while a syntax tree is walked.
//
// Frames live in an arena and point at their enclosing frame by index, so a
// lookup from a nested function crosses into the frames it closes over.
package scope

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// maxChain bounds reassignment-chain lookups (`a = b; b = c; ...`).
const maxChain = 32

// Binding is what a name was last bound to.
type Binding struct {
	Name string
	// Value is the bound expression. Nil for bindings without a known value,
	// such as plain function parameters.
	Value *tree_sitter.Node
	// Member is the property path taken from Value by destructuring.
	Member []string
	// Composition names the reactive primitive the value was produced by
	// (ref, reactive, computed, defineProps, defineEmits, emit, ...).
	Composition string
}

type frame struct {
	parent   int
	bindings map[string]*Binding
}

// Scope is a stack of lexical frames. A Scope belongs to exactly one walk.
type Scope struct {
	source  []byte
	frames  []frame
	current int
}

// New returns a scope holding only the root frame.
func New(source []byte) *Scope {
	s := &Scope{source: source, current: -1}
	s.Push()
	return s
}

// Source returns the text the bound nodes point into.
func (s *Scope) Source() []byte {
	return s.source
}

// Push opens a frame nested in the current one.
func (s *Scope) Push() {
	s.frames = append(s.frames, frame{parent: s.current, bindings: make(map[string]*Binding)})
	s.current = len(s.frames) - 1
}

// Pop closes the current frame. The root frame is never popped.
func (s *Scope) Pop() {
	if s.current <= 0 {
		return
	}
	s.current = s.frames[s.current].parent
}

// Depth returns the number of open frames.
func (s *Scope) Depth() int {
	depth := 0
	for i := s.current; i >= 0; i = s.frames[i].parent {
		depth++
	}
	return depth
}

// Within runs fn in a fresh frame that is popped on every exit path.
func (s *Scope) Within(fn func()) {
	s.Push()
	saved := s.current
	defer func() {
		s.current = saved
		s.Pop()
	}()
	fn()
}

// Declare binds name in the current frame.
func (s *Scope) Declare(name string, b *Binding) {
	if name == "" || b == nil {
		return
	}
	b.Name = name
	s.frames[s.current].bindings[name] = b
}

// DeclareValue binds name to an expression node.
func (s *Scope) DeclareValue(name string, value *tree_sitter.Node) {
	s.Declare(name, &Binding{Value: value})
}

// Assign rebinds name in the frame it was declared in. Undeclared names are
// bound in the root frame, like an implicit global.
func (s *Scope) Assign(name string, value *tree_sitter.Node) {
	for i := s.current; i >= 0; i = s.frames[i].parent {
		if b, ok := s.frames[i].bindings[name]; ok {
			s.frames[i].bindings[name] = &Binding{Name: name, Value: value, Composition: b.Composition}
			return
		}
	}
	s.frames[0].bindings[name] = &Binding{Name: name, Value: value}
}

// Lookup returns the innermost binding of name, or nil.
func (s *Scope) Lookup(name string) *Binding {
	for i := s.current; i >= 0; i = s.frames[i].parent {
		if b, ok := s.frames[i].bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Value is the outcome of resolving an expression.
type Value struct {
	// Node is the resolved expression. Nil when nothing was bound.
	Node *tree_sitter.Node
	// Binding is the last binding on the chain, nil for unresolved names.
	Binding *Binding
	// Member is the property path still to apply on Node.
	Member []string
	// Raw is the source text of the expression that was resolved.
	Raw string
}

// Resolved reports whether the chain ended on a concrete expression.
func (v Value) Resolved() bool {
	return v.Node != nil && len(v.Member) == 0
}

// Name renders a compound name such as `employee.name` for destructured
// bindings, falling back to the raw expression text.
func (v Value) Name(source []byte) string {
	if v.Node == nil {
		return v.Raw
	}
	if len(v.Member) == 0 {
		return v.Node.Utf8Text(source)
	}
	var b strings.Builder
	b.WriteString(v.Node.Utf8Text(source))
	for _, m := range v.Member {
		if strings.HasPrefix(m, "[") {
			b.WriteString(m)
			continue
		}
		b.WriteString(".")
		b.WriteString(m)
	}
	return b.String()
}

// Composition returns the reactive primitive on the chain, if any.
func (v Value) Composition() string {
	if v.Binding == nil {
		return ""
	}
	return v.Binding.Composition
}

// Resolve follows identifiers through their bindings until a non-identifier
// expression, an unbound name, or the chain bound is reached. Destructured
// members are looked up in object and array literals when possible.
func (s *Scope) Resolve(node *tree_sitter.Node) Value {
	if node == nil {
		return Value{}
	}
	result := Value{Node: node, Raw: node.Utf8Text(s.source)}
	visited := make(map[string]bool)

	for range maxChain {
		node = unwrap(result.Node)
		result.Node = node
		if node.Kind() != "identifier" && node.Kind() != "shorthand_property_identifier" {
			break
		}
		name := node.Utf8Text(s.source)
		if visited[name] {
			break
		}
		visited[name] = true

		b := s.Lookup(name)
		if b == nil {
			if result.Binding == nil {
				return Value{Raw: result.Raw}
			}
			break
		}
		if b.Value == nil {
			result.Binding = b
			if len(b.Member) > 0 || result.Binding.Composition != "" {
				result.Node = nil
			}
			break
		}
		result.Binding = b
		result.Node = b.Value
		result.Member = append(append([]string{}, b.Member...), result.Member...)
		result = s.applyMembers(result)
		if len(result.Member) > 0 {
			break
		}
	}

	return result
}

// applyMembers walks a member path into object and array literals.
func (s *Scope) applyMembers(v Value) Value {
	for len(v.Member) > 0 {
		node := unwrap(v.Node)
		key := v.Member[0]
		var next *tree_sitter.Node
		switch node.Kind() {
		case "object":
			next = objectProperty(node, key, s.source)
		case "array":
			if strings.HasPrefix(key, "[") {
				idx, err := strconv.Atoi(strings.Trim(key, "[]"))
				if err == nil && idx < int(node.NamedChildCount()) {
					next = node.NamedChild(uint(idx))
				}
			}
		case "identifier":
			resolved := s.Resolve(node)
			if resolved.Resolved() && resolved.Node.Kind() != "identifier" {
				v.Node = resolved.Node
				continue
			}
		}
		if next == nil {
			return v
		}
		v.Node = next
		v.Member = v.Member[1:]
	}
	return v
}

func objectProperty(object *tree_sitter.Node, key string, source []byte) *tree_sitter.Node {
	for i := uint(0); i < object.NamedChildCount(); i++ {
		child := object.NamedChild(i)
		switch child.Kind() {
		case "pair":
			k := child.ChildByFieldName("key")
			if k != nil && strings.Trim(k.Utf8Text(source), `"'`+"`") == key {
				return child.ChildByFieldName("value")
			}
		case "shorthand_property_identifier":
			if child.Utf8Text(source) == key {
				return child
			}
		}
	}
	return nil
}

// unwrap strips parentheses and TypeScript assertions around an expression.
func unwrap(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "non_null_expression":
			inner := node.NamedChild(0)
			if inner == nil {
				return node
			}
			node = inner
		case "as_expression", "satisfies_expression", "type_assertion":
			inner := node.NamedChild(0)
			if node.Kind() == "type_assertion" {
				inner = node.NamedChild(node.NamedChildCount() - 1)
			}
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return node
}
