package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cauce-ai/cauce-go/internal/submanager"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStartedHub(t *testing.T, config *Config) *Hub {
	t.Helper()
	h, err := New(config, nil)
	require.NoError(t, err)
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHub_PublishFanOut(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	alice, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	bob, err := h.Connect(ctx, "bob")
	require.NoError(t, err)

	_, err = h.Subscribe(ctx, "alice", []string{"signal.email.*"}, 0)
	require.NoError(t, err)
	_, err = h.Subscribe(ctx, "bob", []string{"signal.**"}, 0)
	require.NoError(t, err)

	sig, matched, err := h.Publish(ctx, "signal.email.sent", []byte(`{"to":"x"}`), map[string]string{"source": "test"})
	require.NoError(t, err)
	assert.Equal(t, 2, matched)
	assert.Contains(t, sig.ID, "sig_")

	for _, client := range []*Client{alice, bob} {
		select {
		case got := <-client.Signals():
			assert.Equal(t, sig.ID, got.ID)
			assert.Equal(t, "signal.email.sent", got.Topic)
			assert.Equal(t, []byte(`{"to":"x"}`), got.Payload)
			assert.Equal(t, "test", got.Metadata["source"])
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the signal", client.ID())
		}
	}
}

func TestHub_PublishNoMatch(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	_, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	_, err = h.Subscribe(ctx, "alice", []string{"signal.email.*"}, 0)
	require.NoError(t, err)

	sig, matched, err := h.Publish(ctx, "action.send", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
	assert.NotNil(t, sig)
}

func TestHub_PublishInvalidTopic(t *testing.T) {
	h := newStartedHub(t, nil)

	_, _, err := h.Publish(context.Background(), "signal.*", nil, nil)
	assert.Error(t, err)
}

func TestHub_SignalDeliveredOncePerClient(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	alice, err := h.Connect(ctx, "alice")
	require.NoError(t, err)

	// Two overlapping subscriptions, one delivery.
	_, err = h.Subscribe(ctx, "alice", []string{"signal.**", "signal.email.*"}, 0)
	require.NoError(t, err)

	_, matched, err := h.Publish(ctx, "signal.email.sent", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, matched)

	select {
	case <-alice.Signals():
	case <-time.After(time.Second):
		t.Fatal("expected one signal")
	}
	select {
	case sig := <-alice.Signals():
		t.Fatalf("unexpected second delivery: %v", sig.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropOnFullBuffer(t *testing.T) {
	h := newStartedHub(t, &Config{ClientBuffer: 1})
	ctx := context.Background()

	alice, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	_, err = h.Subscribe(ctx, "alice", []string{"signal.*"}, 0)
	require.NoError(t, err)

	_, _, err = h.Publish(ctx, "signal.first", nil, nil)
	require.NoError(t, err)
	_, _, err = h.Publish(ctx, "signal.second", nil, nil)
	require.NoError(t, err)

	got := <-alice.Signals()
	assert.Equal(t, "signal.first", got.Topic)
	assert.Equal(t, int64(1), alice.Dropped())

	stats := h.Stats()
	assert.Equal(t, int64(2), stats.Published)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestHub_DisconnectRemovesSubscriptions(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	alice, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	sub, err := h.Subscribe(ctx, "alice", []string{"signal.*"}, 0)
	require.NoError(t, err)

	require.NoError(t, h.Disconnect(ctx, "alice"))

	_, open := <-alice.Signals()
	assert.False(t, open)

	_, err = h.Subscription(ctx, sub.ID)
	assert.ErrorIs(t, err, submanager.ErrSubscriptionNotFound)

	ids, err := h.Route(ctx, "signal.email")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, h.Disconnect(ctx, "alice"), ErrClientNotConnected)
}

func TestHub_ConnectIsIdempotent(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	first, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	second, err := h.Connect(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, h.Stats().ConnectedClients)
}

func TestHub_RoutePreview(t *testing.T) {
	h := newStartedHub(t, nil)
	ctx := context.Background()

	subA, err := h.Subscribe(ctx, "alice", []string{"signal.email.*"}, 0)
	require.NoError(t, err)
	_, err = h.Subscribe(ctx, "bob", []string{"signal.slack.**"}, 0)
	require.NoError(t, err)

	ids, err := h.Route(ctx, "signal.email.sent")
	require.NoError(t, err)
	assert.Equal(t, []string{subA.ID}, ids)
}

func TestHub_ExpirySweep(t *testing.T) {
	h := newStartedHub(t, &Config{SweepInterval: 10 * time.Millisecond})
	ctx := context.Background()

	_, err := h.Subscribe(ctx, "alice", []string{"signal.*"}, time.Millisecond)
	require.NoError(t, err)
	keep, err := h.Subscribe(ctx, "alice", []string{"action.*"}, 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		subs, err := h.Subscriptions(ctx, "alice")
		return err == nil && len(subs) == 1
	}, time.Second, 5*time.Millisecond)

	subs, err := h.Subscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, keep.ID, subs[0].ID)
}

func TestHub_Lifecycle(t *testing.T) {
	h, err := New(nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// Publish requires a started hub.
	_, _, err = h.Publish(ctx, "signal.email", nil, nil)
	assert.ErrorIs(t, err, ErrHubNotStarted)

	require.NoError(t, h.Start(ctx))
	require.NoError(t, h.Start(ctx))

	health := h.Health(ctx)
	assert.True(t, health.Healthy)

	require.NoError(t, h.Stop(ctx))
	require.NoError(t, h.Stop(ctx))
	assert.False(t, h.Health(ctx).Healthy)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err = h.Connect(ctx, "alice")
	assert.ErrorIs(t, err, ErrHubClosed)
	_, _, err = h.Publish(ctx, "signal.email", nil, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.ErrorIs(t, h.Start(ctx), ErrHubClosed)
}

func TestHub_CloseClosesClientChannels(t *testing.T) {
	h, err := New(nil, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	alice, err := h.Connect(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, h.Close())

	_, open := <-alice.Signals()
	assert.False(t, open)
}

func TestNewSignal_CopiesInputs(t *testing.T) {
	payload := []byte("hello")
	metadata := map[string]string{"k": "v"}

	sig := NewSignal("signal.email", payload, metadata)
	payload[0] = 'X'
	metadata["k"] = "mutated"

	assert.Equal(t, []byte("hello"), sig.Payload)
	assert.Equal(t, "v", sig.Metadata["k"])
	assert.False(t, sig.Timestamp.IsZero())
}

func TestConfig_Validate(t *testing.T) {
	c := &Config{ClientBuffer: -1}
	assert.Error(t, c.Validate())

	c = &Config{SweepInterval: -time.Second}
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	assert.NoError(t, c.Validate())
	assert.Equal(t, 256, c.ClientBuffer)
}
