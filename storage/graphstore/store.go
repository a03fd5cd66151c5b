// Package graphstore implements storage.Store over an in-process graph parsed from a
// static triple file.
package graphstore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/graph"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

var _ storage.Store = (*Store)(nil)
var _ storage.Reloader = (*Store)(nil)

// Store answers component queries from the current graph snapshot. The snapshot is
// replaced wholesale by Load and never mutated, so queries need no locking.
type Store struct {
	path    string
	format  graph.Format
	logger  *slog.Logger
	metrics *metric.Metrics

	snapshot atomic.Pointer[graph.Graph]
	loadErr  atomic.Pointer[error]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records query and load metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a store for the triple file at path. The store starts empty; call Load
// to read the file.
func New(path string, format graph.Format, opts ...Option) *Store {
	s := &Store{
		path:   path,
		format: format,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "graphstore", "file", path)
	s.snapshot.Store(graph.New(nil))
	return s
}

// Backend implements storage.Store.
func (s *Store) Backend() string {
	return storage.BackendLocal
}

// Path returns the triple file path.
func (s *Store) Path() string {
	return s.path
}

// Load discards the current snapshot and re-parses the file. On failure the store is
// left empty and the classified error is returned after being logged.
func (s *Store) Load(ctx context.Context) error {
	g, err := graph.ParseFile(s.path, s.format)
	if err != nil {
		err = errors.Wrap(err, "graphstore.Store", "Load", "parse triple file")
		s.snapshot.Store(graph.New(nil))
		s.loadErr.Store(&err)
		s.logger.ErrorContext(ctx, "Failed to load triple file", "error", err)
		s.metrics.RecordLoad(s.Backend(), 0, 0, err)
		return err
	}

	s.snapshot.Store(g)
	s.loadErr.Store(nil)
	components := countComponents(g)
	s.logger.InfoContext(ctx, "Loaded triple file", "triples", g.Len(), "components", components)
	s.metrics.RecordLoad(s.Backend(), g.Len(), components, nil)
	return nil
}

// LoadError returns the error of the last Load, or nil after a successful one.
func (s *Store) LoadError() error {
	if err := s.loadErr.Load(); err != nil {
		return *err
	}
	return nil
}

// TripleCount returns the number of triples in the current snapshot.
func (s *Store) TripleCount() int {
	return s.snapshot.Load().Len()
}

// Count implements storage.Store.
func (s *Store) Count(_ context.Context) int {
	return countComponents(s.snapshot.Load())
}

// ListAll implements storage.Store.
func (s *Store) ListAll(ctx context.Context) []storage.Record {
	started := time.Now()
	records := candidates(s.snapshot.Load())
	storage.SortByName(records)

	s.logger.DebugContext(ctx, "Listed components", "count", len(records))
	s.metrics.RecordQuery(s.Backend(), "list_all", started, len(records), nil)
	return records
}

// Search implements storage.Store.
func (s *Store) Search(ctx context.Context, term string) []storage.Record {
	if storage.IsBlankTerm(term) {
		return s.ListAll(ctx)
	}

	started := time.Now()
	re, err := storage.CompileTerm(term)
	if err != nil {
		s.logger.ErrorContext(ctx, "Search failed", "term", term, "error", err)
		s.metrics.RecordQuery(s.Backend(), "search", started, 0, err)
		return []storage.Record{}
	}

	g := s.snapshot.Load()
	var matches []storage.Record
	for _, r := range candidates(g) {
		if storage.Matches(re, r, annotations(g, r.URI)) {
			matches = append(matches, r)
		}
	}
	matches = storage.Dedupe(matches)
	storage.SortByName(matches)

	s.logger.InfoContext(ctx, "Search completed", "term", term, "count", len(matches))
	s.metrics.RecordQuery(s.Backend(), "search", started, len(matches), nil)
	return matches
}

// GetDetails implements storage.Store.
func (s *Store) GetDetails(ctx context.Context, uri string) (storage.Detail, bool) {
	started := time.Now()
	triples := s.snapshot.Load().Triples(uri)

	pairs := make([]storage.PropertyValue, 0, len(triples))
	for _, t := range triples {
		pairs = append(pairs, storage.PropertyValue{Predicate: t.Predicate, Value: t.Object.Value})
	}

	detail, ok := storage.ShapeDetail(uri, pairs)
	if !ok {
		s.logger.WarnContext(ctx, "No details found for component", "uri", uri)
		s.metrics.RecordQuery(s.Backend(), "get_details", started, 0, nil)
		return storage.Detail{}, false
	}

	s.logger.DebugContext(ctx, "Retrieved component details", "uri", uri, "name", detail.Name)
	s.metrics.RecordQuery(s.Backend(), "get_details", started, 1, nil)
	return detail, true
}
