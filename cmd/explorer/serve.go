package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/gateway/http"
	natsgw "github.com/RiddheshMore/ros-component-explorer/gateway/nats"
	"github.com/RiddheshMore/ros-component-explorer/health"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/natsclient"
	"github.com/RiddheshMore/ros-component-explorer/storage"
	"github.com/RiddheshMore/ros-component-explorer/storage/graphstore"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the component explorer over HTTP and NATS until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return opts.serve(ctx)
		},
	}
}

// serve runs every enabled surface until ctx is cancelled or one of them fails.
func (o *rootOptions) serve(ctx context.Context) error {
	cfg, logger := o.cfg, o.logger

	logger.InfoContext(ctx, "Starting ROS component explorer",
		"version", Version,
		"build_time", BuildTime,
		"backend", cfg.Store.Backend)

	registry := metric.NewMetricsRegistry()
	m := registry.CoreMetrics()
	monitor := health.NewMonitor()

	store, err := openStore(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Component store ready",
		"backend", store.Backend(),
		"components", store.Count(ctx))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Watch(gctx, "store", cfg.Store.ProbeInterval, storeCheck(store), logger)
	})

	if local, ok := store.(*graphstore.Store); ok && cfg.Store.Watch {
		watcher := graphstore.NewWatcher(local, cfg.Store.Debounce)
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if cfg.HTTP.Enabled {
		server, err := http.NewServer(store, http.Config{
			Addr:         cfg.HTTP.Addr,
			RateLimit:    cfg.HTTP.RateLimit,
			Burst:        cfg.HTTP.Burst,
			CORSOrigins:  cfg.HTTP.CORSOrigins,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}, http.WithLogger(logger), http.WithMetrics(registry), http.WithHealth(monitor))
		if err != nil {
			return err
		}
		g.Go(func() error { return server.Run(gctx) })
	}

	if cfg.NATS.Enabled() {
		client, err := o.connectNATS(gctx, store, monitor, m)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return client.Close(context.WithoutCancel(gctx))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("ROS component explorer stopped")
	return nil
}

// connectNATS connects to the configured servers and registers the request subjects.
func (o *rootOptions) connectNATS(ctx context.Context, store storage.Store, monitor *health.Monitor, m *metric.Metrics) (*natsclient.Client, error) {
	cfg, logger := o.cfg.NATS, o.logger

	client, err := o.newNATSClient(monitor, m)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		monitor.UpdateUnhealthy("nats", "Connection failed")
		return nil, errors.Wrap(err, "explorer", "connectNATS", "connect to NATS")
	}

	svc, err := natsgw.NewService(client, store, cfg.SubjectPrefix, natsgw.WithLogger(logger), natsgw.WithMetrics(m))
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return client, nil
}

// newNATSClient builds an unconnected client from the NATS settings.
func (o *rootOptions) newNATSClient(monitor *health.Monitor, m *metric.Metrics) (*natsclient.Client, error) {
	cfg := o.cfg.NATS
	return natsclient.NewClient(strings.Join(cfg.URLs, ","),
		natsclient.WithClientName(appName),
		natsclient.WithMaxReconnects(cfg.MaxReconnects),
		natsclient.WithReconnectWait(cfg.ReconnectWait),
		natsclient.WithRequestTimeout(cfg.RequestTimeout),
		natsclient.WithCredentials(cfg.Username, cfg.Password),
		natsclient.WithToken(cfg.Token),
		natsclient.WithLogger(o.logger),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			m.RecordNATSStatus(healthy)
			if healthy {
				monitor.UpdateHealthy("nats", "Connected")
			} else {
				monitor.UpdateUnhealthy("nats", "Disconnected")
			}
		}),
	)
}
