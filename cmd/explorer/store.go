package main

import (
	"context"
	"log/slog"

	"github.com/RiddheshMore/ros-component-explorer/config"
	"github.com/RiddheshMore/ros-component-explorer/health"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/storage"
	"github.com/RiddheshMore/ros-component-explorer/storage/graphstore"
	"github.com/RiddheshMore/ros-component-explorer/storage/triplestore"
)

// openStore builds the configured backend. A local file that fails to load leaves an
// empty store rather than an error; only unusable configuration fails.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metric.Metrics) (storage.Store, error) {
	format, err := cfg.GraphFormat()
	if err != nil {
		return nil, err
	}

	if cfg.Store.Backend == config.BackendRemote {
		remote, err := triplestore.New(ctx, triplestore.Config{
			QueryURL:      cfg.Store.QueryURL,
			StatementsURL: cfg.Store.StatementsURL,
			DataFile:      cfg.Store.DataFile,
			Format:        format,
			Timeout:       cfg.Store.Timeout,
		}, triplestore.WithLogger(logger), triplestore.WithMetrics(m))
		if err != nil {
			return nil, err
		}
		return remote, nil
	}

	s := graphstore.New(cfg.Store.DataFile, format, graphstore.WithLogger(logger), graphstore.WithMetrics(m))
	// Load logs its own failure.
	_ = s.Load(ctx)
	return s, nil
}

// storeCheck returns the health probe for a store.
func storeCheck(s storage.Store) health.Check {
	switch s := s.(type) {
	case *graphstore.Store:
		return func(context.Context) error { return s.LoadError() }
	case *triplestore.Store:
		return s.Ping
	default:
		return func(context.Context) error { return nil }
	}
}
