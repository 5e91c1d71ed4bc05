// Package tests exercises the full stack in process: hub, HTTP API and the
// typed client, end to end over a real HTTP listener.
package tests

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cauce-ai/cauce-go/internal/httpapi"
	"github.com/cauce-ai/cauce-go/internal/hub"
	"github.com/cauce-ai/cauce-go/internal/submanager"
	"github.com/cauce-ai/cauce-go/pkg/hubclient"
)

func startStack(t *testing.T, cfg *hub.Config) string {
	t.Helper()
	h, err := hub.New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, h.Start(context.Background()))

	srv := httpapi.NewServer(h, httpapi.Config{Addr: ":0", KeepaliveInterval: 50 * time.Millisecond}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = h.Close()
	})
	return ts.URL
}

func TestEndToEnd_PublishSubscribeStream(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	url := startStack(t, nil)
	ctx := context.Background()

	consumer, err := hubclient.NewClient(hubclient.Config{ServerURL: url, ClientID: "consumer"})
	require.NoError(t, err)
	producer, err := hubclient.NewClient(hubclient.Config{ServerURL: url, ClientID: "producer"})
	require.NoError(t, err)

	stream, err := consumer.Stream(ctx, hubclient.StreamConfig{})
	require.NoError(t, err)
	defer stream.Close()

	require.Eventually(t, func() bool {
		stats, err := consumer.Stats(ctx)
		return err == nil && stats.ConnectedClients == 1
	}, 2*time.Second, 10*time.Millisecond)

	sub, err := consumer.Subscribe(ctx, []string{"signal.email.*", "action.**"}, 0)
	require.NoError(t, err)

	// Route preview agrees with the registered subscription.
	route, err := producer.Route(ctx, "signal.email.sent")
	require.NoError(t, err)
	assert.Equal(t, []string{sub.ID}, route.SubscriptionIDs)

	// Matched publish reaches the stream.
	resp, err := producer.Publish(ctx, "signal.email.sent", map[string]string{"to": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Matched)

	select {
	case msg := <-stream.Signals():
		assert.Equal(t, resp.SignalID, msg.SignalID)
		assert.Equal(t, "signal.email.sent", msg.Topic)
		assert.JSONEq(t, `{"to":"x"}`, string(msg.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("no signal received on stream")
	}

	// Unmatched publish is accepted but delivered nowhere.
	resp, err = producer.Publish(ctx, "signal.slack.message", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Matched)

	select {
	case msg := <-stream.Signals():
		t.Fatalf("unexpected delivery: %s", msg.Topic)
	case <-time.After(200 * time.Millisecond):
	}

	// Unsubscribe stops delivery.
	require.NoError(t, consumer.Unsubscribe(ctx, sub.ID))

	resp, err = producer.Publish(ctx, "signal.email.sent", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Matched)
}

func TestEndToEnd_SubscriptionExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	url := startStack(t, &hub.Config{
		SweepInterval: 20 * time.Millisecond,
		SubscriptionLimits: submanager.Limits{
			MaxPerClient: 10,
			MaxPatterns:  4,
		},
	})
	ctx := context.Background()

	c, err := hubclient.NewClient(hubclient.Config{ServerURL: url, ClientID: "alice"})
	require.NoError(t, err)

	_, err = c.Subscribe(ctx, []string{"signal.*"}, time.Second)
	require.NoError(t, err)

	subs, err := c.Subscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].ExpiresAt)

	// The sweep removes it once the TTL passes.
	require.Eventually(t, func() bool {
		subs, err := c.Subscriptions(ctx)
		return err == nil && len(subs) == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEndToEnd_Limits(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	url := startStack(t, &hub.Config{
		SubscriptionLimits: submanager.Limits{MaxPerClient: 1, MaxPatterns: 2},
	})
	ctx := context.Background()

	c, err := hubclient.NewClient(hubclient.Config{ServerURL: url, ClientID: "alice"})
	require.NoError(t, err)

	_, err = c.Subscribe(ctx, []string{"a.*", "b.*", "c.*"}, 0)
	assert.Error(t, err)

	_, err = c.Subscribe(ctx, []string{"a.*"}, 0)
	require.NoError(t, err)

	_, err = c.Subscribe(ctx, []string{"b.*"}, 0)
	assert.Error(t, err)
}
