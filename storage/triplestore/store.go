// Package triplestore implements storage.Store against a remote SPARQL endpoint. The
// endpoint is bootstrapped once from the static triple file when it holds no data.
package triplestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/graph"
	"github.com/RiddheshMore/ros-component-explorer/graph/query"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

var _ storage.Store = (*Store)(nil)

// Config holds the remote store settings.
type Config struct {
	QueryURL      string
	StatementsURL string
	DataFile      string
	Format        graph.Format
	Timeout       time.Duration
}

// Store answers component queries by sending the fixed query shapes to the endpoint.
type Store struct {
	client  *Client
	logger  *slog.Logger
	metrics *metric.Metrics
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

// WithMetrics records query and upload metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates the store and bootstraps the endpoint: when the existence check reports
// no data the triple file is uploaded once. Bootstrap failures are logged and the store
// is returned regardless; only an unusable configuration is an error.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	client, err := NewClient(cfg.QueryURL, cfg.StatementsURL, cfg.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "triplestore.Store", "New", "create client")
	}

	s := &Store{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "triplestore", "endpoint", cfg.QueryURL)

	s.bootstrap(ctx, cfg)
	return s, nil
}

func (s *Store) bootstrap(ctx context.Context, cfg Config) {
	populated, err := s.client.Ask(ctx, query.Ask())
	if err != nil {
		s.logger.ErrorContext(ctx, "Existence check failed", "error", err)
		return
	}
	if populated {
		s.logger.InfoContext(ctx, "Remote store already holds data, skipping upload")
		return
	}

	err = s.upload(ctx, cfg)
	s.metrics.RecordUpload(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Bootstrap upload failed", "file", cfg.DataFile, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Uploaded triple file to remote store", "file", cfg.DataFile)
}

func (s *Store) upload(ctx context.Context, cfg Config) error {
	if cfg.DataFile == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "triplestore.Store", "upload", "resolve data file")
	}
	body, err := os.ReadFile(cfg.DataFile)
	if err != nil {
		return errors.WrapInvalid(err, "triplestore.Store", "upload", "read data file")
	}
	return s.client.Upload(ctx, body, cfg.Format.ContentType())
}

// Backend implements storage.Store.
func (s *Store) Backend() string {
	return storage.BackendRemote
}

// Ping runs the existence check, reporting whether the endpoint answers.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Ask(ctx, query.Ask())
	return err
}

// ListAll implements storage.Store.
func (s *Store) ListAll(ctx context.Context) []storage.Record {
	started := time.Now()
	records, err := s.records(ctx, query.ListAll())
	s.metrics.RecordQuery(s.Backend(), "list_all", started, len(records), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "List failed", "error", err)
		return []storage.Record{}
	}

	s.logger.DebugContext(ctx, "Listed components", "count", len(records))
	return records
}

// Search implements storage.Store. The term is validated as a regular expression
// before any request is sent so both backends reject the same patterns.
func (s *Store) Search(ctx context.Context, term string) []storage.Record {
	if storage.IsBlankTerm(term) {
		return s.ListAll(ctx)
	}

	started := time.Now()
	records, err := s.search(ctx, term)
	s.metrics.RecordQuery(s.Backend(), "search", started, len(records), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Search failed", "term", term, "error", err)
		return []storage.Record{}
	}

	s.logger.InfoContext(ctx, "Search completed", "term", term, "count", len(records))
	return records
}

func (s *Store) search(ctx context.Context, term string) ([]storage.Record, error) {
	if _, err := storage.CompileTerm(term); err != nil {
		return nil, err
	}
	q, err := query.Search(term)
	if err != nil {
		return nil, err
	}
	return s.records(ctx, q)
}

func (s *Store) records(ctx context.Context, q string) ([]storage.Record, error) {
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]storage.Record, 0, len(rows))
	for _, row := range rows {
		uri, label := row[query.VarComponent], row[query.VarLabel]
		if uri == "" || label == "" {
			continue
		}
		records = append(records, storage.NewRecord(uri, label, row[query.VarType], row[query.VarDescription]))
	}

	records = storage.Dedupe(records)
	storage.SortByName(records)
	return records, nil
}

// GetDetails implements storage.Store.
func (s *Store) GetDetails(ctx context.Context, uri string) (storage.Detail, bool) {
	started := time.Now()
	detail, ok, err := s.details(ctx, uri)

	results := 0
	if ok {
		results = 1
	}
	s.metrics.RecordQuery(s.Backend(), "get_details", started, results, err)

	switch {
	case err != nil:
		s.logger.ErrorContext(ctx, "Detail lookup failed", "uri", uri, "error", err)
		return storage.Detail{}, false
	case !ok:
		s.logger.WarnContext(ctx, "No details found for component", "uri", uri)
		return storage.Detail{}, false
	}

	s.logger.DebugContext(ctx, "Retrieved component details", "uri", uri, "name", detail.Name)
	return detail, true
}

func (s *Store) details(ctx context.Context, uri string) (storage.Detail, bool, error) {
	q, err := query.Details(uri)
	if err != nil {
		return storage.Detail{}, false, err
	}
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return storage.Detail{}, false, err
	}

	pairs := make([]storage.PropertyValue, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, storage.PropertyValue{
			Predicate: row[query.VarPredicate],
			Value:     row[query.VarObject],
		})
	}
	detail, ok := storage.ShapeDetail(uri, pairs)
	return detail, ok, nil
}

// Count implements storage.Store.
func (s *Store) Count(ctx context.Context) int {
	started := time.Now()
	n, err := s.count(ctx)
	s.metrics.RecordQuery(s.Backend(), "count", started, n, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Count failed", "error", err)
		return 0
	}
	return n
}

func (s *Store) count(ctx context.Context) (int, error) {
	rows, err := s.client.Select(ctx, query.Count())
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	raw := rows[0][query.VarCount]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WrapInvalid(fmt.Errorf("%w: count %q", errors.ErrInvalidData, raw),
			"triplestore.Store", "count", "parse count")
	}
	return n, nil
}
