package httpapi

import (
	"encoding/json"
	"time"
)

// Request/Response types for the HTTP API

// PublishRequest represents a signal publishing request
type PublishRequest struct {
	Topic    string            `json:"topic"`
	Payload  json.RawMessage   `json:"payload,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PublishResponse represents a signal publishing response
type PublishResponse struct {
	SignalID  string    `json:"signalId"`
	Topic     string    `json:"topic"`
	Matched   int       `json:"matched"`
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionRequest represents a subscription creation request
type SubscriptionRequest struct {
	ClientID string   `json:"clientId"`
	Patterns []string `json:"patterns"`
	// TTLSeconds is optional; zero means the server default applies.
	TTLSeconds int `json:"ttlSeconds,omitempty"`
}

// SubscriptionResponse represents a subscription
type SubscriptionResponse struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"clientId"`
	Patterns  []string   `json:"patterns"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SubscriptionsListResponse represents a list of subscriptions
type SubscriptionsListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// RouteResponse represents a route preview: which subscriptions a topic
// would be delivered to, without publishing anything.
type RouteResponse struct {
	Topic           string   `json:"topic"`
	SubscriptionIDs []string `json:"subscriptionIds"`
}

// StatsResponse represents hub counters
type StatsResponse struct {
	ConnectedClients int   `json:"connectedClients"`
	Subscriptions    int   `json:"subscriptions"`
	Patterns         int   `json:"patterns"`
	Published        int64 `json:"published"`
	Delivered        int64 `json:"delivered"`
	Dropped          int64 `json:"dropped"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Healthy bool          `json:"healthy"`
	Stats   StatsResponse `json:"stats"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SignalStreamMessage represents a server-sent signal
type SignalStreamMessage struct {
	SignalID  string            `json:"signalId"`
	Topic     string            `json:"topic"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
