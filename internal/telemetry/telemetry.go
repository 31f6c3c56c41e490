// Package telemetry provides opt-in anonymous usage analytics.
//
// Telemetry is disabled unless the user enables it in config. Events
// carry only run-shape data (counts, strategy, budget) — never file
// paths, assumption text, or findings.
package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients.
// This abstraction allows for mocking in tests and swapping implementations.
type Client interface {
	// Track sends an event asynchronously. Returns immediately without
	// blocking. If telemetry is disabled, this is a no-op.
	Track(event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is an internal interface for the PostHog client methods we
// use. This allows us to mock the client for testing.
type enqueuer interface {
	Enqueue(msg posthog.Message) error
	Close() error
}

// PostHogClient wraps the PostHog SDK for async telemetry.
type PostHogClient struct {
	client      enqueuer
	distinctID  string
	version     string
	mu          sync.RWMutex
	initialized bool
}

// Config holds what the client needs to start.
type Config struct {
	APIKey      string
	Version     string
	AnonymousID string
	Enabled     bool
}

// NewClient creates a telemetry client. A disabled config or missing API
// key yields a client whose Track is a no-op.
func NewClient(cfg Config) *PostHogClient {
	c := &PostHogClient{version: cfg.Version}
	if !cfg.Enabled || cfg.APIKey == "" {
		return c
	}
	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Interval:  5 * time.Second,
		BatchSize: 10,
	})
	if err != nil {
		return c
	}
	id := cfg.AnonymousID
	if id == "" {
		id = uuid.NewString()
	}
	c.client = ph
	c.distinctID = id
	c.initialized = true
	return c
}

// newWithEnqueuer is used by tests to inject a mock client.
func newWithEnqueuer(e enqueuer, distinctID string) *PostHogClient {
	return &PostHogClient{client: e, distinctID: distinctID, initialized: true}
}

// Track sends one event. No-op when uninitialized.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.initialized {
		return
	}
	props := posthog.NewProperties().Set("version", c.version)
	for k, v := range properties {
		props = props.Set(k, v)
	}
	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes and shuts down the underlying client.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil
	}
	c.initialized = false
	return c.client.Close()
}
