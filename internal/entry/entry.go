// Package entry holds the documentation model produced by the component parser.
//
// Every fact about a component is an Entry. Entries are identified by their
// Kind and Name: for events the first entry with a given identity wins, for
// every other kind the last one does.
package entry

import (
	"encoding/json"
	"slices"
	"strings"
)

// Kind is the tag of an Entry variant.
type Kind string

const (
	KindName         Kind = "name"
	KindDescription  Kind = "description"
	KindKeywords     Kind = "keywords"
	KindProp         Kind = "prop"
	KindData         Kind = "data"
	KindComputed     Kind = "computed"
	KindMethod       Kind = "method"
	KindEvent        Kind = "event"
	KindSlot         Kind = "slot"
	KindModel        Kind = "model"
	KindInheritAttrs Kind = "inheritAttrs"
)

// Feature is a caller-selectable entry category.
type Feature string

const (
	FeatureName         Feature = "name"
	FeatureDescription  Feature = "description"
	FeatureKeywords     Feature = "keywords"
	FeatureProps        Feature = "props"
	FeatureData         Feature = "data"
	FeatureComputed     Feature = "computed"
	FeatureMethods      Feature = "methods"
	FeatureEvents       Feature = "events"
	FeatureSlots        Feature = "slots"
	FeatureModel        Feature = "model"
	FeatureInheritAttrs Feature = "inheritAttrs"
)

// AllFeatures is the default feature set, in publication order.
var AllFeatures = []Feature{
	FeatureName,
	FeatureDescription,
	FeatureKeywords,
	FeatureSlots,
	FeatureProps,
	FeatureData,
	FeatureComputed,
	FeatureEvents,
	FeatureMethods,
	FeatureModel,
	FeatureInheritAttrs,
}

var featureKinds = map[Feature]Kind{
	FeatureName:         KindName,
	FeatureDescription:  KindDescription,
	FeatureKeywords:     KindKeywords,
	FeatureProps:        KindProp,
	FeatureData:         KindData,
	FeatureComputed:     KindComputed,
	FeatureMethods:      KindMethod,
	FeatureEvents:       KindEvent,
	FeatureSlots:        KindSlot,
	FeatureModel:        KindModel,
	FeatureInheritAttrs: KindInheritAttrs,
}

// Kind returns the entry kind published for the feature.
func (f Feature) Kind() Kind {
	return featureKinds[f]
}

// FeatureSet is a set of selected features.
type FeatureSet map[Feature]bool

// NewFeatureSet builds a set from a list. An empty list selects every feature.
func NewFeatureSet(features ...Feature) FeatureSet {
	if len(features) == 0 {
		features = AllFeatures
	}
	set := make(FeatureSet, len(features))
	for _, f := range features {
		set[f] = true
	}
	return set
}

// Has reports whether the feature is selected.
func (s FeatureSet) Has(f Feature) bool {
	return s[f]
}

// Visibility of an entry. Ordered public < protected < private.
type Visibility int

const (
	VisibilityUnset Visibility = iota
	VisibilityPublic
	VisibilityProtected
	VisibilityPrivate
)

var visibilityNames = map[Visibility]string{
	VisibilityPublic:    "public",
	VisibilityProtected: "protected",
	VisibilityPrivate:   "private",
}

func (v Visibility) String() string {
	return visibilityNames[v]
}

// ParseVisibility returns the visibility for its name, or VisibilityUnset.
func ParseVisibility(name string) Visibility {
	for v, n := range visibilityNames {
		if n == name {
			return v
		}
	}
	return VisibilityUnset
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Keyword is a free-form `@tag text` annotation.
type Keyword struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TypeExpr is a scalar type name or an ordered union of type names.
type TypeExpr []string

// Unknown is the type of anything the parser could not type.
const Unknown = "unknown"

// Scalar builds a single-name type.
func Scalar(name string) TypeExpr {
	return TypeExpr{name}
}

// Union builds a union, flattening nested unions and collapsing a single
// member into a scalar.
func Union(members ...TypeExpr) TypeExpr {
	var out TypeExpr
	for _, m := range members {
		for _, name := range m {
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 {
		return Scalar(Unknown)
	}
	return out
}

// IsUnion reports whether the type has more than one member.
func (t TypeExpr) IsUnion() bool {
	return len(t) > 1
}

// IsUnknown reports whether the type carries no information.
func (t TypeExpr) IsUnknown() bool {
	return len(t) == 0 || (len(t) == 1 && t[0] == Unknown)
}

func (t TypeExpr) String() string {
	if len(t) == 0 {
		return Unknown
	}
	return strings.Join(t, " | ")
}

// MarshalJSON renders a scalar as a string and a union as an array.
func (t TypeExpr) MarshalJSON() ([]byte, error) {
	if len(t) == 0 {
		return json.Marshal(Unknown)
	}
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// Param describes a method parameter or an event argument.
type Param struct {
	Name         string   `json:"name"`
	Type         TypeExpr `json:"type"`
	Description  string   `json:"description,omitempty"`
	Rest         bool     `json:"rest"`
	Optional     bool     `json:"optional,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"`
}

// Return describes a method's return value.
type Return struct {
	Type        TypeExpr `json:"type"`
	Description string   `json:"description,omitempty"`
}

// SlotProp is a value bound on a scoped slot.
type SlotProp struct {
	Name        string   `json:"name"`
	Type        TypeExpr `json:"type"`
	Description string   `json:"description,omitempty"`
}

// Base carries the fields shared by every documented entry.
type Base struct {
	Visibility  Visibility `json:"visibility"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Version     string     `json:"version,omitempty"`
	Keywords    []Keyword  `json:"keywords"`
}

// Common returns the shared fields for mutation by the comment binder.
func (b *Base) Common() *Base {
	return b
}

// Entry is one structured fact about a component.
type Entry interface {
	Kind() Kind
	// Identity is the name an entry is deduplicated on.
	Identity() string
}

// Documented is an Entry carrying the shared Base fields.
type Documented interface {
	Entry
	Common() *Base
}

type NameEntry struct {
	Value string `json:"value"`
}

func (e *NameEntry) Kind() Kind       { return KindName }
func (e *NameEntry) Identity() string { return "" }

type DescriptionEntry struct {
	Value string `json:"value"`
}

func (e *DescriptionEntry) Kind() Kind       { return KindDescription }
func (e *DescriptionEntry) Identity() string { return "" }

type KeywordsEntry struct {
	Value []Keyword `json:"value"`
}

func (e *KeywordsEntry) Kind() Kind       { return KindKeywords }
func (e *KeywordsEntry) Identity() string { return "" }

type InheritAttrsEntry struct {
	Value bool `json:"value"`
}

func (e *InheritAttrsEntry) Kind() Kind       { return KindInheritAttrs }
func (e *InheritAttrsEntry) Identity() string { return "" }

type PropEntry struct {
	Base
	Name          string   `json:"name"`
	Type          TypeExpr `json:"type"`
	Default       string   `json:"default,omitempty"`
	Required      bool     `json:"required"`
	DescribeModel bool     `json:"describeModel"`
	// Function is set when the prop expects a callback (`@kind function`).
	Function *FunctionSignature `json:"function,omitempty"`
}

func (e *PropEntry) Kind() Kind       { return KindProp }
func (e *PropEntry) Identity() string { return e.Name }

// FunctionSignature documents a function-typed prop.
type FunctionSignature struct {
	Params  []Param  `json:"params"`
	Returns Return   `json:"returns"`
	Syntax  []string `json:"syntax"`
}

type DataEntry struct {
	Base
	Name         string   `json:"name"`
	Type         TypeExpr `json:"type"`
	InitialValue string   `json:"initialValue"`
}

func (e *DataEntry) Kind() Kind       { return KindData }
func (e *DataEntry) Identity() string { return e.Name }

type ComputedEntry struct {
	Base
	Name         string   `json:"name"`
	Type         TypeExpr `json:"type"`
	Dependencies []string `json:"dependencies"`
}

func (e *ComputedEntry) Kind() Kind       { return KindComputed }
func (e *ComputedEntry) Identity() string { return e.Name }

type MethodEntry struct {
	Base
	Name    string   `json:"name"`
	Params  []Param  `json:"params"`
	Returns Return   `json:"returns"`
	Syntax  []string `json:"syntax"`
}

func (e *MethodEntry) Kind() Kind       { return KindMethod }
func (e *MethodEntry) Identity() string { return e.Name }

type EventEntry struct {
	Base
	Name      string  `json:"name"`
	Arguments []Param `json:"arguments"`
}

func (e *EventEntry) Kind() Kind       { return KindEvent }
func (e *EventEntry) Identity() string { return e.Name }

type SlotEntry struct {
	Base
	Name  string     `json:"name"`
	Props []SlotProp `json:"props"`
}

func (e *SlotEntry) Kind() Kind       { return KindSlot }
func (e *SlotEntry) Identity() string { return e.Name }

type ModelEntry struct {
	Base
	Prop  string `json:"prop"`
	Event string `json:"event"`
}

func (e *ModelEntry) Kind() Kind       { return KindModel }
func (e *ModelEntry) Identity() string { return e.Prop }
