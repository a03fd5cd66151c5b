// Package http serves the explorer's web surface: server-rendered list and detail
// pages, a JSON API, a search-as-you-type websocket, health and metrics.
package http

import (
	"context"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/health"
	"github.com/RiddheshMore/ros-component-explorer/metric"
	"github.com/RiddheshMore/ros-component-explorer/storage"
)

// SystemName is the aggregate name reported by /healthz.
const SystemName = "ros-component-explorer"

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	RateLimit    float64 // requests per second, 0 disables limiting
	Burst        int
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server renders the store over HTTP.
type Server struct {
	store    storage.Store
	cfg      Config
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	metrics  *metric.Metrics
	monitor  *health.Monitor
	limiter  *rate.Limiter
	pages    *template.Template
	upgrader websocket.Upgrader

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics and serves /metrics from registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(s *Server) {
		s.registry = registry
		s.metrics = registry.CoreMetrics()
	}
}

// WithHealth serves /healthz from monitor.
func WithHealth(monitor *health.Monitor) Option {
	return func(s *Server) {
		s.monitor = monitor
	}
}

// NewServer creates a server over store.
func NewServer(store storage.Store, cfg Config, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Server", "NewServer", "store is required")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, errors.WrapFatal(err, "Server", "NewServer", "parse page templates")
	}

	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		pages:  pages,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(cfg.CORSOrigins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		}
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /{$}", s.handleListPage)
	s.route(mux, "GET /components/detail", s.handleDetailPage)
	s.route(mux, "GET /api/components", s.handleListAPI)
	s.route(mux, "GET /api/search", s.handleSearchAPI)
	s.route(mux, "GET /api/components/detail", s.handleDetailAPI)
	s.route(mux, "GET /ws/search", s.handleSearchSocket)
	s.route(mux, "GET /healthz", s.handleHealth)
	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = s.cors(h)
	h = s.logRequests(h)
	return s.requestID(h)
}

// Run serves on the configured address until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.WrapFatal(err, "Server", "Run", "listen on "+s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WrapFatal(err, "Server", "Serve", "serve HTTP")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.closeSockets()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapTransient(err, "Server", "Serve", "shut down")
	}
	<-errCh
	s.logger.InfoContext(ctx, "HTTP server stopped")
	return nil
}

func (s *Server) trackSocket(conn *websocket.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	s.metrics.AddWebSocketClients(1)
}

func (s *Server) untrackSocket(conn *websocket.Conn) {
	s.connsMu.Lock()
	_, ok := s.conns[conn]
	delete(s.conns, conn)
	s.connsMu.Unlock()
	if ok {
		s.metrics.AddWebSocketClients(-1)
	}
}

// closeSockets closes hijacked websocket connections, which Shutdown does not track.
func (s *Server) closeSockets() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}
