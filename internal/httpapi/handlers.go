package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cauce-ai/cauce-go/internal/hub"
	"github.com/cauce-ai/cauce-go/internal/submanager"
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	hub       *hub.Hub
	logger    hclog.Logger
	keepalive time.Duration
}

// NewHandlers creates a new handlers instance
func NewHandlers(h *hub.Hub, logger hclog.Logger, keepalive time.Duration) *Handlers {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return &Handlers{hub: h, logger: logger, keepalive: keepalive}
}

// Signal endpoints

// PublishSignal handles POST /api/v1/signals
func (h *Handlers) PublishSignal(w http.ResponseWriter, r *http.Request) {
	if err := h.validateJSON(r); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		h.writeError(w, "Topic is required", http.StatusBadRequest)
		return
	}

	sig, matched, err := h.hub.Publish(r.Context(), req.Topic, req.Payload, req.Metadata)
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to publish: %v", err), statusForError(err))
		return
	}

	h.writeJSON(w, PublishResponse{
		SignalID:  sig.ID,
		Topic:     sig.Topic,
		Matched:   matched,
		Timestamp: sig.Timestamp,
	}, http.StatusCreated)
}

// StreamSignals handles GET /api/v1/signals/stream
//
// The client identifies itself with the client_id query parameter (or the
// X-Client-ID header) and receives every signal matched by its
// subscriptions as SSE data messages. The connection, and with it the
// client's subscriptions, lives as long as the stream.
func (h *Handlers) StreamSignals(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = r.Header.Get("X-Client-ID")
	}
	if clientID == "" {
		h.writeError(w, "client_id is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.hub.Connect(r.Context(), clientID)
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to connect: %v", err), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, ": connected client_id=%s\n\n", clientID)
	flusher.Flush()

	h.streamSignals(w, r, flusher, client)
}

// streamSignals forwards the client's signal channel to the SSE stream
// with periodic keepalives until the request context ends.
func (h *Handlers) streamSignals(w http.ResponseWriter, r *http.Request, flusher http.Flusher, client *hub.Client) {
	ctx := r.Context()
	clientID := client.ID()

	disconnect := func() {
		// The request context is usually cancelled by the time we clean up.
		cleanupCtx := context.Background()
		if err := h.hub.Disconnect(cleanupCtx, clientID); err != nil && !errors.Is(err, hub.ErrClientNotConnected) && !errors.Is(err, hub.ErrHubClosed) {
			h.logger.Warn("stream cleanup failed", "client_id", clientID, "error", err)
		}
	}

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			disconnect()
			return

		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				disconnect()
				return
			}
			flusher.Flush()

		case sig, open := <-client.Signals():
			if !open {
				// Hub shut down or the client was disconnected elsewhere.
				return
			}
			if err := h.writeSSEMessage(w, streamMessage(sig)); err != nil {
				disconnect()
				return
			}
			flusher.Flush()
		}
	}
}

// Subscription endpoints

// CreateSubscription handles POST /api/v1/subscriptions
func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.validateJSON(r); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TTLSeconds < 0 {
		h.writeError(w, "ttlSeconds cannot be negative", http.StatusBadRequest)
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	sub, err := h.hub.Subscribe(r.Context(), req.ClientID, req.Patterns, ttl)
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to subscribe: %v", err), statusForError(err))
		return
	}

	h.writeJSON(w, subscriptionResponse(sub), http.StatusCreated)
}

// ListSubscriptions handles GET /api/v1/subscriptions
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")

	subs, err := h.hub.Subscriptions(r.Context(), clientID)
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to list subscriptions: %v", err), statusForError(err))
		return
	}

	resp := SubscriptionsListResponse{Subscriptions: make([]SubscriptionResponse, 0, len(subs))}
	for _, sub := range subs {
		resp.Subscriptions = append(resp.Subscriptions, subscriptionResponse(sub))
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// GetSubscription handles GET /api/v1/subscriptions/{id}
func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.hub.Subscription(r.Context(), GetSubscriptionID(r))
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to get subscription: %v", err), statusForError(err))
		return
	}
	h.writeJSON(w, subscriptionResponse(sub), http.StatusOK)
}

// DeleteSubscription handles DELETE /api/v1/subscriptions/{id}
func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Unsubscribe(r.Context(), GetSubscriptionID(r)); err != nil {
		h.writeError(w, fmt.Sprintf("Failed to delete subscription: %v", err), statusForError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routing endpoints

// RoutePreview handles GET /api/v1/route?topic=...
func (h *Handlers) RoutePreview(w http.ResponseWriter, r *http.Request) {
	topicName := r.URL.Query().Get("topic")
	if topicName == "" {
		h.writeError(w, "topic query parameter is required", http.StatusBadRequest)
		return
	}

	ids, err := h.hub.Route(r.Context(), topicName)
	if err != nil {
		h.writeError(w, fmt.Sprintf("Failed to route: %v", err), statusForError(err))
		return
	}

	h.writeJSON(w, RouteResponse{Topic: topicName, SubscriptionIDs: ids}, http.StatusOK)
}

// Health endpoints

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.hub.Health(r.Context())

	resp := HealthResponse{
		Healthy: health.Healthy,
		Stats:   statsResponse(health.Stats),
	}

	statusCode := http.StatusOK
	if !health.Healthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeJSON(w, resp, statusCode)
}

// Stats handles GET /api/v1/stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, statsResponse(h.hub.Stats()), http.StatusOK)
}

// Helper methods

func subscriptionResponse(sub *submanager.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:        sub.ID,
		ClientID:  sub.ClientID,
		Patterns:  sub.Patterns,
		CreatedAt: sub.CreatedAt,
	}
	if !sub.ExpiresAt.IsZero() {
		expires := sub.ExpiresAt
		resp.ExpiresAt = &expires
	}
	return resp
}

func statsResponse(s hub.Stats) StatsResponse {
	return StatsResponse{
		ConnectedClients: s.ConnectedClients,
		Subscriptions:    s.Subscriptions,
		Patterns:         s.Patterns,
		Published:        s.Published,
		Delivered:        s.Delivered,
		Dropped:          s.Dropped,
	}
}

func streamMessage(sig *hub.Signal) SignalStreamMessage {
	msg := SignalStreamMessage{
		SignalID:  sig.ID,
		Topic:     sig.Topic,
		Metadata:  sig.Metadata,
		Timestamp: sig.Timestamp,
	}
	if len(sig.Payload) > 0 {
		if json.Valid(sig.Payload) {
			msg.Payload = json.RawMessage(sig.Payload)
		} else {
			// Payloads published through the library API are opaque bytes;
			// quote them so the stream stays valid JSON.
			quoted, _ := json.Marshal(string(sig.Payload))
			msg.Payload = quoted
		}
	}
	return msg
}

// statusForError maps hub and validation errors to HTTP status codes.
func statusForError(err error) int {
	var verr *topic.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, submanager.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, submanager.ErrClientLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, submanager.ErrClientIDRequired),
		errors.Is(err, submanager.ErrNoPatterns),
		errors.Is(err, submanager.ErrTooManyPatterns):
		return http.StatusBadRequest
	case errors.Is(err, hub.ErrHubClosed), errors.Is(err, hub.ErrHubNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an error response as JSON
func (h *Handlers) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// validateJSON validates that the request has valid JSON content-type
func (h *Handlers) validateJSON(r *http.Request) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" {
		return fmt.Errorf("Content-Type must be application/json")
	}
	return nil
}

// writeSSEMessage writes a SignalStreamMessage as an SSE data message
func (h *Handlers) writeSSEMessage(w http.ResponseWriter, message SignalStreamMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE message: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
