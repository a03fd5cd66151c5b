package graphstore

import (
	"github.com/RiddheshMore/ros-component-explorer/graph"
	"github.com/RiddheshMore/ros-component-explorer/storage"
	"github.com/RiddheshMore/ros-component-explorer/vocabulary"
)

// candidates evaluates the list-all shape: one record per labelled subject typed with an
// allow-listed class. The first allow-listed type, first label and first description
// in file order are used.
func candidates(g *graph.Graph) []storage.Record {
	records := []storage.Record{}
	seen := make(map[string]struct{})
	for _, class := range vocabulary.ComponentClasses() {
		for _, subject := range g.Subjects(vocabulary.RdfType, class) {
			if _, ok := seen[subject]; ok {
				continue
			}
			seen[subject] = struct{}{}

			label, ok := g.FirstObject(subject, vocabulary.RdfsLabel)
			if !ok {
				continue
			}
			var description string
			if d, ok := g.FirstObject(subject, vocabulary.Description); ok {
				description = d.Value
			}
			records = append(records, storage.NewRecord(subject, label.Value, firstClass(g, subject), description))
		}
	}
	return records
}

// firstClass returns the first allow-listed rdf:type of subject.
func firstClass(g *graph.Graph, subject string) string {
	for _, t := range g.Objects(subject, vocabulary.RdfType) {
		if vocabulary.IsComponentClass(t.Value) {
			return t.Value
		}
	}
	return ""
}

// annotations returns the input and output values of a subject.
func annotations(g *graph.Graph, subject string) []string {
	var values []string
	for _, predicate := range []string{vocabulary.HasInput, vocabulary.HasOutput} {
		for _, o := range g.Objects(subject, predicate) {
			values = append(values, o.Value)
		}
	}
	return values
}

// countComponents returns the number of distinct subjects typed with an allow-listed
// class.
func countComponents(g *graph.Graph) int {
	seen := make(map[string]struct{})
	for _, class := range vocabulary.ComponentClasses() {
		for _, subject := range g.Subjects(vocabulary.RdfType, class) {
			seen[subject] = struct{}{}
		}
	}
	return len(seen)
}
