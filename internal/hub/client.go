package hub

import (
	"sync"
	"sync/atomic"
	"time"
)

// Client is one connected consumer. The hub delivers matched signals into
// a buffered channel; a consumer that stops draining loses signals rather
// than stalling the publish path.
type Client struct {
	id          string
	connectedAt time.Time
	signals     chan *Signal

	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

func newClient(id string, buffer int) *Client {
	return &Client{
		id:          id,
		connectedAt: time.Now(),
		signals:     make(chan *Signal, buffer),
	}
}

// ID returns the client identifier.
func (c *Client) ID() string {
	return c.id
}

// ConnectedAt returns when this client connected.
func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

// Signals returns the channel the hub delivers matched signals on. The
// channel is closed when the client disconnects or the hub shuts down.
func (c *Client) Signals() <-chan *Signal {
	return c.signals
}

// Dropped returns how many signals were discarded because the buffer was full.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// deliver enqueues a signal without blocking. A full buffer counts a drop
// and reports false.
func (c *Client) deliver(sig *Signal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.signals <- sig:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// close shuts the signal channel exactly once. Holding the same lock as
// deliver keeps a concurrent send off a closed channel.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.signals)
}
