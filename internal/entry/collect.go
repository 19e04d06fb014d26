package entry

// Documentation is the aggregated view of a component. Collect applies the
// identity rules: the last entry of a given identity replaces earlier ones,
// except for events where the first one is kept.
type Documentation struct {
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Keywords     []Keyword        `json:"keywords"`
	InheritAttrs *bool            `json:"inheritAttrs,omitempty"`
	Props        []*PropEntry     `json:"props,omitempty"`
	Data         []*DataEntry     `json:"data,omitempty"`
	Computed     []*ComputedEntry `json:"computed,omitempty"`
	Methods      []*MethodEntry   `json:"methods,omitempty"`
	Events       []*EventEntry    `json:"events,omitempty"`
	Slots        []*SlotEntry     `json:"slots,omitempty"`
	Models       []*ModelEntry    `json:"models,omitempty"`
	Errors       []string         `json:"errors,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// Collect merges an entry into the documentation.
func (d *Documentation) Collect(e Entry) {
	switch v := e.(type) {
	case *NameEntry:
		d.Name = v.Value
	case *DescriptionEntry:
		d.Description = v.Value
	case *KeywordsEntry:
		d.Keywords = v.Value
	case *InheritAttrsEntry:
		value := v.Value
		d.InheritAttrs = &value
	case *PropEntry:
		d.Props = replace(d.Props, v)
	case *DataEntry:
		d.Data = replace(d.Data, v)
	case *ComputedEntry:
		d.Computed = replace(d.Computed, v)
	case *MethodEntry:
		d.Methods = replace(d.Methods, v)
	case *SlotEntry:
		d.Slots = replace(d.Slots, v)
	case *ModelEntry:
		d.Models = replace(d.Models, v)
	case *EventEntry:
		for _, existing := range d.Events {
			if existing.Name == v.Name {
				return
			}
		}
		d.Events = append(d.Events, v)
	}
}

func replace[T Entry](list []T, e T) []T {
	for i, existing := range list {
		if existing.Identity() == e.Identity() {
			list[i] = e
			return list
		}
	}
	return append(list, e)
}
