package storage

import "github.com/RiddheshMore/ros-component-explorer/vocabulary"

// Detail is the full property map of one component.
type Detail struct {
	URI   string `json:"uri"`
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
	// Properties holds every other predicate keyed by local name. Values keep the
	// order they were returned in, so multi-valued predicates such as hasInput
	// keep all entries.
	Properties map[string][]string `json:"properties"`
}

// Property returns the first value of a property, or "" when absent.
func (d Detail) Property(name string) string {
	if values := d.Properties[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Values returns every value of a property.
func (d Detail) Values(name string) []string {
	return d.Properties[name]
}

// Inputs returns the hasInput annotations.
func (d Detail) Inputs() []string {
	return d.Values(vocabulary.LocalName(vocabulary.HasInput))
}

// Outputs returns the hasOutput annotations.
func (d Detail) Outputs() []string {
	return d.Values(vocabulary.LocalName(vocabulary.HasOutput))
}

// PropertyValue is one (predicate, object) pair of a subject.
type PropertyValue struct {
	Predicate string
	Value     string
}

// ShapeDetail reshapes the predicate/object pairs of uri into a Detail. The type
// predicate becomes Class (local name) and the label becomes Name; the first value of
// each wins. The boolean is false when no label was found.
func ShapeDetail(uri string, pairs []PropertyValue) (Detail, bool) {
	d := Detail{
		URI:        uri,
		Properties: make(map[string][]string),
	}

	for _, p := range pairs {
		name := vocabulary.LocalName(p.Predicate)
		switch name {
		case "type":
			if d.Class == "" {
				d.Class = vocabulary.LocalName(p.Value)
			}
		case "label":
			if d.Name == "" {
				d.Name = p.Value
			}
		default:
			d.Properties[name] = append(d.Properties[name], p.Value)
		}
	}

	if d.Name == "" {
		return Detail{}, false
	}
	return d, true
}
