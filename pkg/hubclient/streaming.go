package hubclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StreamClient consumes the hub's SSE signal stream
type StreamClient struct {
	client  *Client
	signals chan SignalStreamMessage
	errors  chan error
	done    chan struct{}
	cancel  context.CancelFunc
}

// StreamConfig configures the streaming client
type StreamConfig struct {
	// BufferSize for the signal channel
	BufferSize int

	// ReconnectDelay for automatic reconnection
	ReconnectDelay time.Duration

	// MaxReconnectAttempts (0 = infinite)
	MaxReconnectAttempts int
}

// SetDefaults sets reasonable default values
func (sc *StreamConfig) SetDefaults() {
	if sc.BufferSize == 0 {
		sc.BufferSize = 100
	}
	if sc.ReconnectDelay == 0 {
		sc.ReconnectDelay = 2 * time.Second
	}
}

// Stream opens the SSE signal stream for this client. Matched signals
// arrive on Signals() until Close is called or the context ends.
func (c *Client) Stream(ctx context.Context, config StreamConfig) (*StreamClient, error) {
	config.SetDefaults()

	streamCtx, cancel := context.WithCancel(ctx)
	sc := &StreamClient{
		client:  c,
		signals: make(chan SignalStreamMessage, config.BufferSize),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	go sc.run(streamCtx, config)
	return sc, nil
}

// Signals returns the channel for receiving signals
func (sc *StreamClient) Signals() <-chan SignalStreamMessage {
	return sc.signals
}

// Errors returns the channel for receiving stream errors
func (sc *StreamClient) Errors() <-chan error {
	return sc.errors
}

// Done returns a channel that's closed when streaming ends
func (sc *StreamClient) Done() <-chan struct{} {
	return sc.done
}

// Close stops the streaming client and waits for the reader to finish
func (sc *StreamClient) Close() error {
	sc.cancel()
	<-sc.done
	return nil
}

// run handles the streaming loop with reconnection
func (sc *StreamClient) run(ctx context.Context, config StreamConfig) {
	defer close(sc.done)
	defer close(sc.signals)
	defer close(sc.errors)

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := sc.connectAndStream(ctx); err != nil && ctx.Err() == nil {
			select {
			case sc.errors <- fmt.Errorf("streaming error: %w", err):
			default:
			}
		}
		if ctx.Err() != nil {
			return
		}

		attempts++
		if config.MaxReconnectAttempts > 0 && attempts >= config.MaxReconnectAttempts {
			select {
			case sc.errors <- fmt.Errorf("max reconnect attempts (%d) exceeded", config.MaxReconnectAttempts):
			default:
			}
			return
		}

		select {
		case <-time.After(config.ReconnectDelay):
		case <-ctx.Done():
			return
		}
	}
}

// connectAndStream establishes the SSE connection and processes signals
func (sc *StreamClient) connectAndStream(ctx context.Context) error {
	streamURL := sc.client.baseURL.ResolveReference(&url.URL{Path: "/api/v1/signals/stream"})
	values := streamURL.Query()
	values.Set("client_id", sc.client.config.ClientID)
	streamURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create streaming request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// Streaming requests must not time out; use a dedicated transport-only client.
	httpClient := &http.Client{Transport: sc.client.httpClient.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("streaming failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return sc.processStream(ctx, resp.Body)
}

// processStream reads and parses the SSE stream line by line
func (sc *StreamClient) processStream(ctx context.Context, reader io.Reader) error {
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			// Keepalive comments, blank separators and unknown SSE fields.
			continue
		}

		var msg SignalStreamMessage
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
			select {
			case sc.errors <- fmt.Errorf("failed to parse signal: %w", err):
			default:
			}
			continue
		}

		select {
		case sc.signals <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Consumer is behind; drop rather than stall the reader.
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return nil
}
