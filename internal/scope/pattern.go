package scope

import (
	"strconv"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// DeclarePattern binds every name a declaration pattern introduces. Each
// destructured name references value through its property path, so
// `const { name } = employee` binds name to employee with member "name".
func (s *Scope) DeclarePattern(pattern, value *tree_sitter.Node) {
	s.declarePattern(pattern, value, nil, "")
}

// DeclareComposition binds the names of pattern and tags them with the
// reactive primitive that produced value.
func (s *Scope) DeclareComposition(pattern, value *tree_sitter.Node, composition string) {
	s.declarePattern(pattern, value, nil, composition)
}

// DeclareParameters binds the names of a formal_parameters node.
func (s *Scope) DeclareParameters(params *tree_sitter.Node) {
	if params == nil {
		return
	}
	if params.Kind() == "identifier" {
		s.Declare(params.Utf8Text(s.source), &Binding{})
		return
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		s.declarePattern(params.NamedChild(i), nil, nil, "")
	}
}

func (s *Scope) declarePattern(pattern, value *tree_sitter.Node, path []string, composition string) {
	if pattern == nil {
		return
	}
	member := func(key string) []string {
		return append(append([]string{}, path...), key)
	}

	switch pattern.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		s.Declare(pattern.Utf8Text(s.source), &Binding{Value: value, Member: path, Composition: composition})

	case "assignment_pattern", "object_assignment_pattern":
		left := pattern.ChildByFieldName("left")
		if value == nil {
			// Parameter default: the default is the only value known.
			s.declarePattern(left, pattern.ChildByFieldName("right"), nil, composition)
			return
		}
		s.declarePattern(left, value, path, composition)

	case "rest_pattern":
		s.declarePattern(pattern.NamedChild(0), value, path, composition)

	case "required_parameter", "optional_parameter":
		target := pattern.ChildByFieldName("pattern")
		if def := pattern.ChildByFieldName("value"); def != nil && value == nil {
			s.declarePattern(target, def, nil, composition)
			return
		}
		s.declarePattern(target, value, path, composition)

	case "object_pattern":
		for i := uint(0); i < pattern.NamedChildCount(); i++ {
			child := pattern.NamedChild(i)
			switch child.Kind() {
			case "shorthand_property_identifier_pattern":
				name := child.Utf8Text(s.source)
				s.Declare(name, &Binding{Value: value, Member: member(name), Composition: composition})
			case "object_assignment_pattern":
				left := child.ChildByFieldName("left")
				if left == nil {
					continue
				}
				name := left.Utf8Text(s.source)
				s.Declare(name, &Binding{Value: value, Member: member(name), Composition: composition})
			case "pair_pattern":
				key := child.ChildByFieldName("key")
				if key == nil {
					continue
				}
				s.declarePattern(child.ChildByFieldName("value"), value, member(key.Utf8Text(s.source)), composition)
			case "rest_pattern":
				s.declarePattern(child.NamedChild(0), value, path, composition)
			}
		}

	case "array_pattern":
		index := 0
		for i := uint(0); i < pattern.NamedChildCount(); i++ {
			child := pattern.NamedChild(i)
			if child.Kind() == "comment" {
				continue
			}
			s.declarePattern(child, value, member("["+strconv.Itoa(index)+"]"), composition)
			index++
		}
	}
}
