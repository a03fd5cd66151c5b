// Package natsclient manages the NATS connection used by the explorer's request/reply
// surface.
package natsclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusClosed
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by operations that need an open connection.
var ErrNotConnected = stderrors.New("not connected to NATS")

// RequestHandler answers one request. A returned error is sent to the requester as
// an error reply.
type RequestHandler func(ctx context.Context, data []byte) ([]byte, error)

// ErrorReply encodes err as the JSON error body sent to requesters.
func ErrorReply(err error) []byte {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return data
}

// Client manages one NATS connection and its subscriptions.
type Client struct {
	url    string
	status atomic.Int32
	logger *slog.Logger

	maxReconnects  int
	reconnectWait  time.Duration
	requestTimeout time.Duration
	clientName     string
	username       string
	password       string
	token          string
	onHealthChange func(bool)

	mu   sync.RWMutex
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewClient creates a client for url. No connection is made until Connect.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "NATS URL is required")
	}

	c := &Client{
		url:            url,
		logger:         slog.Default(),
		maxReconnects:  -1,
		reconnectWait:  2 * time.Second,
		requestTimeout: 10 * time.Second,
		clientName:     "ros-component-explorer",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}
	c.logger = c.logger.With("component", "natsclient")
	return c, nil
}

// URL returns the server URL
func (c *Client) URL() string {
	return c.url
}

// Name returns the connection name announced to the server
func (c *Client) Name() string {
	return c.clientName
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	return ConnectionStatus(c.status.Load())
}

// IsHealthy reports whether the connection is up.
func (c *Client) IsHealthy() bool {
	return c.Status() == StatusConnected
}

func (c *Client) setStatus(status ConnectionStatus) {
	previous := ConnectionStatus(c.status.Swap(int32(status)))
	healthy := status == StatusConnected
	if c.onHealthChange != nil && (previous == StatusConnected) != healthy {
		c.onHealthChange(healthy)
	}
}

func (c *Client) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(c.clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.logger.Warn("NATS disconnected", "error", err)
			c.setStatus(StatusReconnecting)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.logger.Info("NATS reconnected")
			c.setStatus(StatusConnected)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.setStatus(StatusClosed)
		}),
	}

	if c.username != "" && c.password != "" {
		opts = append(opts, nats.UserInfo(c.username, c.password))
	}
	if c.token != "" {
		opts = append(opts, nats.Token(c.token))
	}
	return opts
}

// Connect establishes the connection, giving up when ctx is done.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	c.logger.InfoContext(ctx, "Connecting to NATS", "url", c.url)

	done := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(c.url, c.connectionOptions()...)
		if err != nil {
			done <- err
			return
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			c.setStatus(StatusDisconnected)
			return errors.WrapTransient(err, "Client", "Connect", "establish connection")
		}
	case <-ctx.Done():
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(ctx.Err(), "Client", "Connect", "connection cancelled")
	}

	c.setStatus(StatusConnected)
	c.logger.InfoContext(ctx, "Connected to NATS", "url", c.url)
	return nil
}

// Handle subscribes handler to subject as a request/reply responder. Each request is
// served with a context bounded by the request timeout.
func (c *Client) Handle(ctx context.Context, subject string, handler RequestHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.WrapTransient(ErrNotConnected, "Client", "Handle", "subscribe "+subject)
	}

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		reply, err := handler(reqCtx, msg.Data)
		if err != nil {
			reply = ErrorReply(err)
		}
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			c.logger.Warn("Failed to respond", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return errors.WrapTransient(err, "Client", "Handle", "subscribe "+subject)
	}

	c.subs = append(c.subs, sub)
	return nil
}

// Request sends data to subject and waits for the reply.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "Request", "request "+subject)
	}

	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "Request", "request "+subject)
	}
	return msg.Data, nil
}

// Close drains subscriptions and closes the connection.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	var errs []error
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil && !stderrors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	c.subs = nil

	if err := c.conn.Drain(); err != nil && !stderrors.Is(err, nats.ErrConnectionClosed) {
		errs = append(errs, err)
		c.conn.Close()
	}
	c.conn = nil
	c.setStatus(StatusClosed)
	c.logger.InfoContext(ctx, "NATS connection closed")

	if len(errs) > 0 {
		return errors.WrapTransient(stderrors.Join(errs...), "Client", "Close", "drain connection")
	}
	return nil
}
