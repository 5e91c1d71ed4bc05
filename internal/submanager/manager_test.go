package submanager

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrouting "github.com/cauce-ai/cauce-go/internal/routing"
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

func newTestManager(t *testing.T, limits Limits) (*Manager, *internalrouting.TrieRouter) {
	t.Helper()
	router := internalrouting.NewTrieRouter()
	m := NewManager(router, limits)
	t.Cleanup(func() {
		_ = m.Close()
		_ = router.Close()
	})
	return m, router
}

func TestManager_CreateAndRoute(t *testing.T) {
	m, router := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	sub, err := m.Create(ctx, "client-1", []string{"signal.email.*", "action.**"}, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sub.ID, "sub_"))
	assert.Equal(t, "client-1", sub.ClientID)
	assert.Equal(t, []string{"signal.email.*", "action.**"}, sub.Patterns)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.True(t, sub.ExpiresAt.IsZero())

	ids, err := router.Route("signal.email.sent")
	require.NoError(t, err)
	assert.Equal(t, []string{sub.ID}, ids)

	ids, err = router.Route("action.send.mail")
	require.NoError(t, err)
	assert.Equal(t, []string{sub.ID}, ids)

	ids, err = router.Route("signal.slack.message")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_CreateValidatesInput(t *testing.T) {
	m, _ := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	_, err := m.Create(ctx, "", []string{"signal.*"}, 0)
	assert.ErrorIs(t, err, ErrClientIDRequired)

	_, err = m.Create(ctx, "client-1", nil, 0)
	assert.ErrorIs(t, err, ErrNoPatterns)
}

func TestManager_CreateRollsBackOnBadPattern(t *testing.T) {
	m, router := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	_, err := m.Create(ctx, "client-1", []string{"signal.email.*", "*bad"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, topic.ErrWildcardNotWholeSegment))

	// The valid pattern registered before the failure must be gone.
	assert.Equal(t, 0, router.PatternCount())
	assert.Equal(t, 0, m.Count())
}

func TestManager_PatternLimit(t *testing.T) {
	m, _ := newTestManager(t, Limits{MaxPatterns: 2})
	ctx := context.Background()

	_, err := m.Create(ctx, "client-1", []string{"a.*", "b.*", "c.*"}, 0)
	assert.ErrorIs(t, err, ErrTooManyPatterns)

	_, err = m.Create(ctx, "client-1", []string{"a.*", "b.*"}, 0)
	assert.NoError(t, err)
}

func TestManager_PerClientLimit(t *testing.T) {
	m, _ := newTestManager(t, Limits{MaxPerClient: 2})
	ctx := context.Background()

	_, err := m.Create(ctx, "client-1", []string{"a.*"}, 0)
	require.NoError(t, err)
	_, err = m.Create(ctx, "client-1", []string{"b.*"}, 0)
	require.NoError(t, err)

	_, err = m.Create(ctx, "client-1", []string{"c.*"}, 0)
	assert.ErrorIs(t, err, ErrClientLimitReached)

	// The limit is per client, not global.
	_, err = m.Create(ctx, "client-2", []string{"c.*"}, 0)
	assert.NoError(t, err)
}

func TestManager_GetReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	created, err := m.Create(ctx, "client-1", []string{"signal.*"}, 0)
	require.NoError(t, err)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	got.Patterns[0] = "mutated"

	again, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"signal.*"}, again.Patterns)
}

func TestManager_GetUnknown(t *testing.T) {
	m, _ := newTestManager(t, DefaultLimits())

	_, err := m.Get(context.Background(), "sub_missing")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestManager_ListByClient(t *testing.T) {
	m, _ := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	a, err := m.Create(ctx, "client-1", []string{"a.*"}, 0)
	require.NoError(t, err)
	b, err := m.Create(ctx, "client-1", []string{"b.*"}, 0)
	require.NoError(t, err)
	_, err = m.Create(ctx, "client-2", []string{"c.*"}, 0)
	require.NoError(t, err)

	subs, err := m.ListByClient(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	ids := []string{subs[0].ID, subs[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)
	assert.True(t, ids[0] < ids[1])

	all, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestManager_DeleteRemovesRouting(t *testing.T) {
	m, router := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	sub, err := m.Create(ctx, "client-1", []string{"signal.*", "action.*"}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, router.PatternCount())

	require.NoError(t, m.Delete(ctx, sub.ID))
	assert.Equal(t, 0, router.PatternCount())
	assert.Equal(t, 0, m.Count())

	err = m.Delete(ctx, sub.ID)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestManager_DeleteByClient(t *testing.T) {
	m, router := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	_, err := m.Create(ctx, "client-1", []string{"a.*"}, 0)
	require.NoError(t, err)
	_, err = m.Create(ctx, "client-1", []string{"b.*"}, 0)
	require.NoError(t, err)
	keep, err := m.Create(ctx, "client-2", []string{"c.*"}, 0)
	require.NoError(t, err)

	removed, err := m.DeleteByClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 1, router.PatternCount())

	removed, err = m.DeleteByClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = m.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestManager_CleanupExpired(t *testing.T) {
	m, router := newTestManager(t, DefaultLimits())
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	short, err := m.Create(ctx, "client-1", []string{"a.*"}, time.Minute)
	require.NoError(t, err)
	forever, err := m.Create(ctx, "client-1", []string{"b.*"}, 0)
	require.NoError(t, err)

	assert.Equal(t, current.Add(time.Minute), short.ExpiresAt)

	removed, err := m.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	current = current.Add(2 * time.Minute)
	removed, err = m.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = m.Get(ctx, short.ID)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	_, err = m.Get(ctx, forever.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, router.PatternCount())
}

func TestManager_DefaultTTL(t *testing.T) {
	m, _ := newTestManager(t, Limits{DefaultTTL: time.Hour})
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	sub, err := m.Create(ctx, "client-1", []string{"a.*"}, 0)
	require.NoError(t, err)
	assert.Equal(t, current.Add(time.Hour), sub.ExpiresAt)
}

func TestManager_Close(t *testing.T) {
	router := internalrouting.NewTrieRouter()
	defer router.Close()
	m := NewManager(router, DefaultLimits())
	ctx := context.Background()

	_, err := m.Create(ctx, "client-1", []string{"signal.*"}, 0)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	// Close returns its registrations to the router before shutting down.
	assert.Equal(t, 0, router.PatternCount())

	_, err = m.Create(ctx, "client-1", []string{"signal.*"}, 0)
	assert.ErrorIs(t, err, ErrManagerClosed)
	_, err = m.List(ctx)
	assert.ErrorIs(t, err, ErrManagerClosed)
}
