package storage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/RiddheshMore/ros-component-explorer/vocabulary"
)

// DefaultDescription is shown when a component has no description triple.
const DefaultDescription = "No description available"

// Record is the flat summary of one component used by list and search results.
type Record struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Description string `json:"description"`
}

// NewRecord builds a record from raw query values. classIRI is reduced to its local
// name and an empty description is replaced by DefaultDescription.
func NewRecord(uri, label, classIRI, description string) Record {
	if description == "" {
		description = DefaultDescription
	}
	return Record{
		URI:         uri,
		Name:        label,
		Class:       vocabulary.LocalName(classIRI),
		Description: description,
	}
}

// SortByName orders records by name, then by URI so equal names stay deterministic.
func SortByName(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.URI, b.URI)
	})
}

// Dedupe keeps the first record of each URI. Rows that differ only in label, class or
// description collapse onto the one seen first.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.URI]; ok {
			continue
		}
		seen[r.URI] = struct{}{}
		out = append(out, r)
	}
	return out
}

// IsBlankTerm reports whether a search term is empty or whitespace only.
func IsBlankTerm(term string) bool {
	return strings.TrimSpace(term) == ""
}
