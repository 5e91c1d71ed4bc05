// Package submanager owns subscription metadata: which client created a
// subscription, under which patterns, and when it expires. The router
// remains the only matching authority; the manager keeps it in sync as
// subscriptions come and go.
package submanager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cauce-ai/cauce-go/pkg/routing"
)

var (
	// ErrManagerClosed is returned when operations are attempted on a closed manager.
	ErrManagerClosed = errors.New("subscription manager is closed")

	// ErrSubscriptionNotFound is returned when a subscription id is unknown.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrClientIDRequired is returned when a client id is empty.
	ErrClientIDRequired = errors.New("client id cannot be empty")

	// ErrNoPatterns is returned when a subscription is created without patterns.
	ErrNoPatterns = errors.New("subscription requires at least one pattern")

	// ErrTooManyPatterns is returned when a subscription exceeds the per-subscription pattern limit.
	ErrTooManyPatterns = errors.New("too many patterns for one subscription")

	// ErrClientLimitReached is returned when a client exceeds its subscription limit.
	ErrClientLimitReached = errors.New("client subscription limit reached")
)

// Subscription is the metadata record for one registered subscription.
// Pattern matching itself lives in the router; the manager only keys the
// router's registrations by the subscription id.
type Subscription struct {
	ID        string
	ClientID  string
	Patterns  []string
	CreatedAt time.Time
	// ExpiresAt is zero for subscriptions without a TTL.
	ExpiresAt time.Time
}

// Expired reports whether the subscription has a TTL that passed at now.
func (s *Subscription) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

func (s *Subscription) clone() *Subscription {
	out := *s
	out.Patterns = append([]string(nil), s.Patterns...)
	return &out
}

// Limits bounds what a single client can register.
type Limits struct {
	// MaxPerClient caps live subscriptions per client id. Zero means unlimited.
	MaxPerClient int

	// MaxPatterns caps patterns per subscription. Zero means unlimited.
	MaxPatterns int

	// DefaultTTL applies when Create is called with ttl zero. Zero means
	// subscriptions never expire by default.
	DefaultTTL time.Duration
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxPerClient: 100,
		MaxPatterns:  16,
		DefaultTTL:   0,
	}
}

// Manager tracks subscriptions and mirrors their patterns into a router.
// All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	limits Limits
	router routing.Router

	subs     map[string]*Subscription
	byClient map[string]map[string]struct{}

	closed bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager creates a manager that registers patterns with the given router.
func NewManager(router routing.Router, limits Limits) *Manager {
	return &Manager{
		limits:   limits,
		router:   router,
		subs:     make(map[string]*Subscription),
		byClient: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Create validates the request, registers every pattern with the router and
// records the subscription. Registration is all-or-nothing: if any pattern
// is rejected, the ones already registered are rolled back and the error is
// returned.
func (m *Manager) Create(ctx context.Context, clientID string, patterns []string, ttl time.Duration) (*Subscription, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	if m.limits.MaxPatterns > 0 && len(patterns) > m.limits.MaxPatterns {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPatterns, len(patterns), m.limits.MaxPatterns)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if m.limits.MaxPerClient > 0 && len(m.byClient[clientID]) >= m.limits.MaxPerClient {
		return nil, fmt.Errorf("%w: client %q has %d subscriptions", ErrClientLimitReached, clientID, len(m.byClient[clientID]))
	}

	id := "sub_" + uuid.NewString()

	for i, pattern := range patterns {
		if err := m.router.Subscribe(id, pattern); err != nil {
			for _, done := range patterns[:i] {
				// Rollback of freshly registered patterns cannot fail
				// validation; they just passed it.
				_ = m.router.Unsubscribe(id, done)
			}
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
	}

	if ttl == 0 {
		ttl = m.limits.DefaultTTL
	}
	now := m.now()
	sub := &Subscription{
		ID:        id,
		ClientID:  clientID,
		Patterns:  append([]string(nil), patterns...),
		CreatedAt: now,
	}
	if ttl > 0 {
		sub.ExpiresAt = now.Add(ttl)
	}

	m.subs[id] = sub
	if m.byClient[clientID] == nil {
		m.byClient[clientID] = make(map[string]struct{})
	}
	m.byClient[clientID][id] = struct{}{}

	return sub.clone(), nil
}

// Get returns a copy of the subscription with the given id.
func (m *Manager) Get(ctx context.Context, id string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	sub, ok := m.subs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)
	}
	return sub.clone(), nil
}

// List returns copies of all subscriptions, sorted by id.
func (m *Manager) List(ctx context.Context) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	out := make([]*Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, sub.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByClient returns copies of the client's subscriptions, sorted by id.
func (m *Manager) ListByClient(ctx context.Context, clientID string) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	ids := m.byClient[clientID]
	out := make([]*Subscription, 0, len(ids))
	for id := range ids {
		out = append(out, m.subs[id].clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a subscription and its router registrations. Unknown ids
// return ErrSubscriptionNotFound; callers treating deletion as idempotent
// can check with errors.Is.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	sub, ok := m.subs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)
	}
	m.removeLocked(sub)
	return nil
}

// DeleteByClient removes every subscription owned by the client and returns
// how many were removed. A client with no subscriptions is a no-op.
func (m *Manager) DeleteByClient(ctx context.Context, clientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrManagerClosed
	}
	removed := 0
	for id := range m.byClient[clientID] {
		m.removeLocked(m.subs[id])
		removed++
	}
	return removed, nil
}

// CleanupExpired removes every subscription whose TTL has passed and
// returns how many were removed. The hub calls this from its sweep loop.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrManagerClosed
	}
	now := m.now()
	removed := 0
	for _, sub := range m.subs {
		if sub.Expired(now) {
			m.removeLocked(sub)
			removed++
		}
	}
	return removed, nil
}

// Resolve maps subscription ids to their owning client ids, grouping the
// matched subscription ids per client. Unknown ids are skipped, not
// errors: a routing result can race with a deletion and the stale id just
// has nobody left to deliver to.
func (m *Manager) Resolve(ctx context.Context, ids []string) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	out := make(map[string][]string)
	for _, id := range ids {
		if sub, ok := m.subs[id]; ok {
			out[sub.ClientID] = append(out[sub.ClientID], id)
		}
	}
	return out, nil
}

// Count returns the number of live subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Close marks the manager closed and drops its records. The router is owned
// by the caller and is not closed here. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	for _, sub := range m.subs {
		for _, pattern := range sub.Patterns {
			_ = m.router.Unsubscribe(sub.ID, pattern)
		}
	}
	m.subs = make(map[string]*Subscription)
	m.byClient = make(map[string]map[string]struct{})
	m.closed = true
	return nil
}

// removeLocked drops a subscription from both indexes and the router.
// Callers hold the write lock.
func (m *Manager) removeLocked(sub *Subscription) {
	for _, pattern := range sub.Patterns {
		_ = m.router.Unsubscribe(sub.ID, pattern)
	}
	delete(m.subs, sub.ID)

	clientSubs := m.byClient[sub.ClientID]
	delete(clientSubs, sub.ID)
	if len(clientSubs) == 0 {
		delete(m.byClient, sub.ClientID)
	}
}
