// Package hubclient is the typed HTTP client for the cauce hub API: JSON
// endpoints for publishing, subscriptions and route previews, plus an SSE
// stream client for live signal delivery.
package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the hub base URL, e.g. "http://localhost:8080".
	ServerURL string

	// ClientID identifies this client on the stream and its subscriptions.
	ClientID string

	// Timeout applies to non-streaming requests.
	Timeout time.Duration
}

// SetDefaults sets reasonable default values
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client provides an HTTP client for the hub API
type Client struct {
	config     Config
	httpClient *http.Client
	baseURL    *url.URL
}

// NewClient creates a new hub HTTP client
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	if config.ServerURL == "" {
		return nil, fmt.Errorf("ServerURL is required")
	}
	if config.ClientID == "" {
		return nil, fmt.Errorf("ClientID is required")
	}

	baseURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
	}, nil
}

// ClientID returns the configured client id.
func (c *Client) ClientID() string {
	return c.config.ClientID
}

// Publish publishes a signal to a topic. The payload must marshal to JSON.
func (c *Client) Publish(ctx context.Context, topic string, payload interface{}) (*PublishResponse, error) {
	return c.PublishWithMetadata(ctx, topic, payload, nil)
}

// PublishWithMetadata publishes a signal with metadata attached.
func (c *Client) PublishWithMetadata(ctx context.Context, topic string, payload interface{}, metadata map[string]string) (*PublishResponse, error) {
	req := PublishRequest{Topic: topic, Metadata: metadata}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	var resp PublishResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/signals", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to publish signal: %w", err)
	}
	return &resp, nil
}

// Subscribe creates a subscription for this client.
func (c *Client) Subscribe(ctx context.Context, patterns []string, ttl time.Duration) (*SubscriptionResponse, error) {
	req := SubscriptionRequest{
		ClientID:   c.config.ClientID,
		Patterns:   patterns,
		TTLSeconds: int(ttl / time.Second),
	}

	var resp SubscriptionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/subscriptions", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &resp, nil
}

// Subscriptions returns this client's subscriptions.
func (c *Client) Subscriptions(ctx context.Context) ([]SubscriptionResponse, error) {
	query := url.Values{"client_id": {c.config.ClientID}}

	var resp SubscriptionsListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/subscriptions", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return resp.Subscriptions, nil
}

// Unsubscribe removes a subscription by id.
func (c *Client) Unsubscribe(ctx context.Context, subscriptionID string) error {
	path := fmt.Sprintf("/api/v1/subscriptions/%s", url.PathEscape(subscriptionID))
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// Route previews which subscription ids a topic would route to.
func (c *Client) Route(ctx context.Context, topic string) (*RouteResponse, error) {
	query := url.Values{"topic": {topic}}

	var resp RouteResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/route", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to preview route: %w", err)
	}
	return &resp, nil
}

// Health returns the hub's health status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get health status: %w", err)
	}
	return &resp, nil
}

// Stats returns the hub's counters.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/stats", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &resp, nil
}

// doRequest performs an HTTP request with optional query and JSON bodies
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, reqBody interface{}, respBody interface{}) error {
	u := &url.URL{Path: path}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	fullURL := c.baseURL.ResolveReference(u)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(bodyBytes))
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Message)
	}

	if respBody != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
