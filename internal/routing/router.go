package routing

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cauce-ai/cauce-go/pkg/routing"
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

var (
	// ErrRouterClosed is returned when operations are attempted on a closed router.
	ErrRouterClosed = errors.New("router is closed")

	// ErrEmptySubscriptionID is returned when a subscription id is empty.
	ErrEmptySubscriptionID = errors.New("subscription id cannot be empty")
)

// TrieRouter is the trie-backed implementation of routing.Router. A single
// RWMutex guards the index: Route takes the read lock and can run
// concurrently with other Route calls, Subscribe and Unsubscribe take the
// write lock, so a lookup never observes a half-registered pattern.
type TrieRouter struct {
	mu     sync.RWMutex
	limits topic.Limits
	index  *trie
	count  int
	closed bool
}

// Compile-time interface checks.
var (
	_ routing.Router  = (*TrieRouter)(nil)
	_ routing.Counter = (*TrieRouter)(nil)
)

// NewTrieRouter creates an empty router with the default topic limits.
func NewTrieRouter() *TrieRouter {
	return NewTrieRouterWithLimits(topic.DefaultLimits())
}

// NewTrieRouterWithLimits creates an empty router that validates topics and
// patterns against the given limits.
func NewTrieRouterWithLimits(limits topic.Limits) *TrieRouter {
	return &TrieRouter{
		limits: limits,
		index:  newTrie(),
	}
}

// Subscribe registers a pattern for a subscription id. The pattern is
// validated before the lock is taken, so an invalid pattern never touches
// the index. Registering the same (id, pattern) pair again is a no-op.
func (r *TrieRouter) Subscribe(id, pattern string) error {
	if id == "" {
		return ErrEmptySubscriptionID
	}

	p, err := r.limits.ParsePattern(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRouterClosed
	}

	if r.index.insert(p.Segments(), id) {
		r.count++
	}
	return nil
}

// Unsubscribe removes a previously registered (id, pattern) pair. The
// pattern is validated so that typos surface as errors rather than silent
// no-ops; removing a valid pair that was never registered is a no-op.
func (r *TrieRouter) Unsubscribe(id, pattern string) error {
	if id == "" {
		return ErrEmptySubscriptionID
	}

	p, err := r.limits.ParsePattern(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRouterClosed
	}

	if r.index.remove(p.Segments(), id) {
		r.count--
	}
	return nil
}

// Route returns the ids of every subscription whose pattern matches the
// topic, sorted and deduplicated. A valid topic that matches nothing
// returns an empty, non-nil slice.
func (r *TrieRouter) Route(rawTopic string) ([]string, error) {
	t, err := r.limits.ParseTopic(rawTopic)
	if err != nil {
		return nil, fmt.Errorf("invalid topic: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRouterClosed
	}

	matched := make(map[string]struct{})
	r.index.lookup(t.Segments(), matched)

	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PatternCount returns the number of registered (id, pattern) entries.
func (r *TrieRouter) PatternCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Close marks the router closed and drops the index. Close is idempotent;
// operations after Close return ErrRouterClosed.
func (r *TrieRouter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.index = newTrie()
	r.count = 0
	return nil
}
