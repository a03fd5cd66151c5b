// Package storage defines the capability every component store implements and the
// record shapes the presentation layers consume.
//
// Two implementations exist:
//   - graphstore.Store: parses a static triple file into an in-process graph
//   - triplestore.Store: bootstraps and queries a remote SPARQL endpoint
//
// Both are selected at construction time and are interchangeable behind Store.
package storage

import "context"

// Backend names used in logs and metric labels.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Store answers the three fixed query shapes over a component graph.
//
// Failures never cross this boundary: implementations log them and answer with an
// empty slice or a not-found result instead.
type Store interface {
	// ListAll returns every allow-listed component, sorted by name.
	ListAll(ctx context.Context) []Record

	// Search returns the components whose name, class, description or input/output
	// annotations match term as a case-insensitive regular expression. A blank term
	// behaves like ListAll.
	Search(ctx context.Context, term string) []Record

	// GetDetails returns every property of uri. The boolean is false when the subject
	// is unknown or carries no label.
	GetDetails(ctx context.Context, uri string) (Detail, bool)

	// Count returns the number of allow-listed components, zero on failure.
	Count(ctx context.Context) int

	// Backend returns BackendLocal or BackendRemote.
	Backend() string
}

// Reloader is implemented by stores whose snapshot can be rebuilt from its source.
type Reloader interface {
	Load(ctx context.Context) error
}
