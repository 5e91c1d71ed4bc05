// Package hub ties the routing core together into a message hub: clients
// connect, register pattern subscriptions, and receive every published
// signal whose topic matches. All state is in memory; delivery is
// fan-out to per-client buffered channels with drop-on-full semantics.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cauce-ai/cauce-go/internal/routing"
	"github.com/cauce-ai/cauce-go/internal/submanager"
)

var (
	// ErrHubClosed is returned when operations are attempted on a closed hub.
	ErrHubClosed = errors.New("hub is closed")

	// ErrHubNotStarted is returned when operations require a started hub.
	ErrHubNotStarted = errors.New("hub is not started")

	// ErrClientNotConnected is returned when a client id has no live connection.
	ErrClientNotConnected = errors.New("client is not connected")
)

// Stats is a point-in-time snapshot of hub counters.
type Stats struct {
	ConnectedClients int   `json:"connected_clients"`
	Subscriptions    int   `json:"subscriptions"`
	Patterns         int   `json:"patterns"`
	Published        int64 `json:"published"`
	Delivered        int64 `json:"delivered"`
	Dropped          int64 `json:"dropped"`
}

// HealthStatus reports whether the hub is accepting traffic.
type HealthStatus struct {
	Healthy bool  `json:"healthy"`
	Stats   Stats `json:"stats"`
}

// Hub orchestrates the router, the subscription manager and the connected
// clients. It is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	config *Config
	logger hclog.Logger

	router *routing.TrieRouter
	subs   *submanager.Manager

	clients map[string]*Client

	started bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

// New creates a hub with the given configuration. Call Start to begin the
// expiry sweep loop.
func New(config *Config, logger hclog.Logger) (*Hub, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	router := routing.NewTrieRouterWithLimits(config.TopicLimits)
	return &Hub{
		config:  config,
		logger:  logger.Named("hub"),
		router:  router,
		subs:    submanager.NewManager(router, config.SubscriptionLimits),
		clients: make(map[string]*Client),
	}, nil
}

// Start begins the expiry sweep loop. Start is idempotent.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if h.started {
		return nil
	}

	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	if h.config.SweepInterval > 0 {
		go h.sweepLoop(h.stop, h.done)
	} else {
		close(h.done)
	}

	h.started = true
	h.logger.Info("hub started", "sweep_interval", h.config.SweepInterval.String())
	return nil
}

// Stop halts the sweep loop but keeps state intact. Stop is idempotent.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopLocked()
}

func (h *Hub) stopLocked() error {
	if !h.started {
		return nil
	}
	close(h.stop)
	<-h.done
	h.started = false
	return nil
}

// Close shuts the hub down: stops the sweep loop, closes every client
// channel and releases the router and subscription manager. Idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	_ = h.stopLocked()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)

	if err := h.subs.Close(); err != nil {
		return fmt.Errorf("failed to close subscription manager: %w", err)
	}
	if err := h.router.Close(); err != nil {
		return fmt.Errorf("failed to close router: %w", err)
	}

	h.closed = true
	h.logger.Info("hub closed")
	return nil
}

// Connect registers a client connection and returns its signal channel
// handle. Connecting an already connected id returns the existing client.
func (h *Hub) Connect(ctx context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, submanager.ErrClientIDRequired
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if existing, ok := h.clients[clientID]; ok {
		return existing, nil
	}

	client := newClient(clientID, h.config.ClientBuffer)
	h.clients[clientID] = client
	h.logger.Debug("client connected", "client_id", clientID)
	return client, nil
}

// Disconnect closes a client's channel and removes its subscriptions.
func (h *Hub) Disconnect(ctx context.Context, clientID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	client, ok := h.clients[clientID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotConnected, clientID)
	}

	client.close()
	delete(h.clients, clientID)

	removed, err := h.subs.DeleteByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to remove subscriptions: %w", err)
	}
	h.logger.Debug("client disconnected", "client_id", clientID, "subscriptions_removed", removed)
	return nil
}

// Subscribe creates a subscription for a client. The client does not have
// to be connected; signals matched while disconnected are simply dropped.
func (h *Hub) Subscribe(ctx context.Context, clientID string, patterns []string, ttl time.Duration) (*submanager.Subscription, error) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil, ErrHubClosed
	}
	h.mu.RUnlock()

	sub, err := h.subs.Create(ctx, clientID, patterns, ttl)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("subscription created", "subscription_id", sub.ID, "client_id", clientID, "patterns", len(patterns))
	return sub, nil
}

// Unsubscribe deletes a subscription by id.
func (h *Hub) Unsubscribe(ctx context.Context, subscriptionID string) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	h.mu.RUnlock()

	if err := h.subs.Delete(ctx, subscriptionID); err != nil {
		return err
	}
	h.logger.Debug("subscription deleted", "subscription_id", subscriptionID)
	return nil
}

// Subscription returns a subscription by id.
func (h *Hub) Subscription(ctx context.Context, subscriptionID string) (*submanager.Subscription, error) {
	return h.subs.Get(ctx, subscriptionID)
}

// Subscriptions lists subscriptions, optionally filtered by client id.
func (h *Hub) Subscriptions(ctx context.Context, clientID string) ([]*submanager.Subscription, error) {
	if clientID == "" {
		return h.subs.List(ctx)
	}
	return h.subs.ListByClient(ctx, clientID)
}

// Publish validates the topic, builds the signal envelope and fans it out
// to every connected client with a matching subscription. It returns the
// signal and the number of subscriptions that matched. Slow consumers do
// not block the publish path; their signals are dropped and counted.
func (h *Hub) Publish(ctx context.Context, topicName string, payload []byte, metadata map[string]string) (*Signal, int, error) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil, 0, ErrHubClosed
	}
	if !h.started {
		h.mu.RUnlock()
		return nil, 0, ErrHubNotStarted
	}
	h.mu.RUnlock()

	ids, err := h.router.Route(topicName)
	if err != nil {
		return nil, 0, err
	}

	sig := NewSignal(topicName, payload, metadata)
	h.published.Add(1)

	if len(ids) == 0 {
		return sig, 0, nil
	}

	byClient, err := h.subs.Resolve(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for clientID := range byClient {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		if client.deliver(sig) {
			h.delivered.Add(1)
		} else {
			h.dropped.Add(1)
			h.logger.Warn("signal dropped, client buffer full", "client_id", clientID, "signal_id", sig.ID, "topic", topicName)
		}
	}
	return sig, len(ids), nil
}

// Route returns the subscription ids a topic would be delivered to,
// without publishing anything.
func (h *Hub) Route(ctx context.Context, topicName string) ([]string, error) {
	return h.router.Route(topicName)
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		ConnectedClients: len(h.clients),
		Subscriptions:    h.subs.Count(),
		Patterns:         h.router.PatternCount(),
		Published:        h.published.Load(),
		Delivered:        h.delivered.Load(),
		Dropped:          h.dropped.Load(),
	}
}

// Health reports whether the hub accepts traffic, with current stats.
func (h *Hub) Health(ctx context.Context) HealthStatus {
	h.mu.RLock()
	healthy := h.started && !h.closed
	h.mu.RUnlock()
	return HealthStatus{Healthy: healthy, Stats: h.Stats()}
}

// sweepLoop periodically removes expired subscriptions until stop closes.
func (h *Hub) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			removed, err := h.subs.CleanupExpired(context.Background())
			if err != nil {
				h.logger.Error("expiry sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				h.logger.Info("expired subscriptions removed", "count", removed)
			}
		}
	}
}
