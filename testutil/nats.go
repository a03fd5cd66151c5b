package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/RiddheshMore/ros-component-explorer/natsclient"
)

// MockNATSClient is an in-memory request/reply bus that satisfies the subset of
// natsclient.Client used by the NATS gateway. Safe for concurrent use.
type MockNATSClient struct {
	mu       sync.RWMutex
	handlers map[string]natsclient.RequestHandler
	requests map[string]int
	closed   bool
}

// NewMockNATSClient creates a new mock NATS client.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{
		handlers: make(map[string]natsclient.RequestHandler),
		requests: make(map[string]int),
	}
}

// Handle registers handler for subject, replacing any previous one.
func (c *MockNATSClient) Handle(_ context.Context, subject string, handler natsclient.RequestHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	c.handlers[subject] = handler
	return nil
}

// Request invokes the handler registered for subject. Handler errors come back as
// error replies, matching the real client.
func (c *MockNATSClient) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("client is closed")
	}
	handler, ok := c.handlers[subject]
	c.requests[subject]++
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no responders for %s", subject)
	}

	reply, err := handler(ctx, data)
	if err != nil {
		return natsclient.ErrorReply(err), nil
	}
	return reply, nil
}

// Subjects returns the number of registered subjects.
func (c *MockNATSClient) Subjects() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// HasHandler reports whether subject has a registered handler.
func (c *MockNATSClient) HasHandler(subject string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.handlers[subject]
	return ok
}

// RequestCount returns how many requests were sent to subject.
func (c *MockNATSClient) RequestCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requests[subject]
}

// Close marks the client as closed and drops all handlers.
func (c *MockNATSClient) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.handlers = make(map[string]natsclient.RequestHandler)
	return nil
}
