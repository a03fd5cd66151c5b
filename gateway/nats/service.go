// Package nats exposes the component store as NATS request/reply subjects.
//
// Subjects, under a configurable prefix (default "explorer"):
//
//	<prefix>.list    -> JSON array of records
//	<prefix>.search  {"term": "..."} -> JSON array of records
//	<prefix>.detail  {"uri": "..."} -> detail object, or {"error": "not found"}
//	<prefix>.reload  -> rebuilds the local snapshot; a no-op for the remote backend
package nats

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/natsclient"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "explorer"

// Subscriber registers request handlers. natsclient.Client implements it.
type Subscriber interface {
	Handle(ctx context.Context, subject string, handler natsclient.RequestHandler) error
}

// SearchRequest is the body of a search request.
type SearchRequest struct {
	Term string `json:"term"`
}

// DetailRequest is the body of a detail request.
type DetailRequest struct {
	URI string `json:"uri"`
}

// ReloadResponse answers a reload request.
type ReloadResponse struct {
	Backend  string `json:"backend"`
	Reloaded bool   `json:"reloaded"`
	Count    int    `json:"count"`
}

// Service serves the store over NATS.
type Service struct {
	sub     Subscriber
	store   storage.Store
	prefix  string
	logger  *slog.Logger
	metrics *metric.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records served requests.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a service answering under prefix.
func NewService(sub Subscriber, store storage.Store, prefix string, opts ...Option) (*Service, error) {
	if sub == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Service", "NewService", "subscriber is required")
	}
	if store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Service", "NewService", "store is required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	s := &Service{
		sub:    sub,
		store:  store,
		prefix: prefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "nats-gateway")
	return s, nil
}

// Subject returns the full subject for an operation name.
func (s *Service) Subject(op string) string {
	return s.prefix + "." + op
}

// Start registers every subject handler.
func (s *Service) Start(ctx context.Context) error {
	handlers := map[string]natsclient.RequestHandler{
		"list":   s.handleList,
		"search": s.handleSearch,
		"detail": s.handleDetail,
		"reload": s.handleReload,
	}
	for _, op := range []string{"list", "search", "detail", "reload"} {
		subject := s.Subject(op)
		if err := s.sub.Handle(ctx, subject, s.instrument(subject, handlers[op])); err != nil {
			return errors.Wrap(err, "Service", "Start", "register "+subject)
		}
	}
	s.logger.InfoContext(ctx, "NATS gateway started", "prefix", s.prefix)
	return nil
}

func (s *Service) instrument(subject string, h natsclient.RequestHandler) natsclient.RequestHandler {
	return func(ctx context.Context, data []byte) ([]byte, error) {
		reply, err := h(ctx, data)
		s.metrics.RecordNATSRequest(subject, err)
		if err != nil {
			s.logger.DebugContext(ctx, "NATS request failed", "subject", subject, "error", err)
			return nil, publicError(err)
		}
		return reply, nil
	}
}

// publicError reduces err to a sentinel whose text is safe to return to callers.
func publicError(err error) error {
	switch {
	case errors.IsNotFound(err):
		return errors.ErrNotFound
	case stderrors.Is(err, errors.ErrParsingFailed):
		return errors.ErrParsingFailed
	case errors.IsInvalid(err):
		return errors.ErrInvalidData
	default:
		return errors.ErrStorageUnavailable
	}
}

func (s *Service) handleList(ctx context.Context, _ []byte) ([]byte, error) {
	return marshalRecords(s.store.ListAll(ctx))
}

func (s *Service) handleSearch(ctx context.Context, data []byte) ([]byte, error) {
	var req SearchRequest
	if err := decode(data, &req); err != nil {
		return nil, errors.WrapInvalid(err, "Service", "handleSearch", "decode request")
	}
	return marshalRecords(s.store.Search(ctx, req.Term))
}

func (s *Service) handleDetail(ctx context.Context, data []byte) ([]byte, error) {
	var req DetailRequest
	if err := decode(data, &req); err != nil {
		return nil, errors.WrapInvalid(err, "Service", "handleDetail", "decode request")
	}

	detail, ok := s.store.GetDetails(ctx, strings.TrimSpace(req.URI))
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "Service", "handleDetail", "look up "+req.URI)
	}
	return json.Marshal(detail)
}

func (s *Service) handleReload(ctx context.Context, _ []byte) ([]byte, error) {
	resp := ReloadResponse{Backend: s.store.Backend()}

	if r, ok := s.store.(storage.Reloader); ok {
		if err := r.Load(ctx); err != nil {
			return nil, errors.Wrap(err, "Service", "handleReload", "reload snapshot")
		}
		resp.Reloaded = true
		s.logger.InfoContext(ctx, "Snapshot reloaded over NATS")
	}
	resp.Count = s.store.Count(ctx)
	return json.Marshal(resp)
}

// decode accepts an empty body as the zero request.
func decode(data []byte, v any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func marshalRecords(records []storage.Record) ([]byte, error) {
	if records == nil {
		records = []storage.Record{}
	}
	return json.Marshal(records)
}
