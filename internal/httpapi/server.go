// Package httpapi exposes the hub over HTTP: JSON endpoints for publishing
// and subscription management, and an SSE stream for signal delivery.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cauce-ai/cauce-go/internal/hub"
)

// ContextKey type for context keys to avoid collisions
type ContextKey string

// SubscriptionIDKey is the context key for the subscription id from the URL path
const SubscriptionIDKey ContextKey = "subscription_id"

// GetSubscriptionID extracts the subscription id from the request context
func GetSubscriptionID(r *http.Request) string {
	if id, ok := r.Context().Value(SubscriptionIDKey).(string); ok {
		return id
	}
	return ""
}

// Config holds server configuration
type Config struct {
	Addr string
	// KeepaliveInterval is how often SSE streams send a ping comment.
	KeepaliveInterval time.Duration
}

// Server represents the HTTP API server
type Server struct {
	hub        *hub.Hub
	handlers   *Handlers
	middleware *Middleware
	server     *http.Server
}

// NewServer creates a new HTTP API server around a hub.
func NewServer(h *hub.Hub, config Config, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("httpapi")

	server := &Server{
		hub:        h,
		handlers:   NewHandlers(h, logger, config.KeepaliveInterval),
		middleware: NewMiddleware(logger),
	}

	mux := server.setupRoutes()
	server.server = &http.Server{
		Addr:           config.Addr,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	// No WriteTimeout: SSE streams are long-lived by design.

	return server
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the configured route handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	withMiddleware := func(handler http.HandlerFunc) http.Handler {
		return s.middleware.Recovery(
			s.middleware.Logging(
				s.middleware.CORS(
					s.middleware.ContentType(handler))))
	}

	// Signal endpoints. The SSE stream skips the ContentType middleware so
	// it can set text/event-stream itself.
	mux.Handle("/api/v1/signals", withMiddleware(s.handleSignals))
	mux.Handle("/api/v1/signals/stream", s.middleware.Recovery(
		s.middleware.Logging(
			s.middleware.CORS(s.handlers.StreamSignals))))

	// Subscription endpoints
	mux.Handle("/api/v1/subscriptions", withMiddleware(s.handleSubscriptions))
	mux.Handle("/api/v1/subscriptions/", withMiddleware(s.handleSubscriptionByID))

	// Routing preview
	mux.Handle("/api/v1/route", withMiddleware(s.requireMethod(http.MethodGet, s.handlers.RoutePreview)))

	// Monitoring endpoints
	mux.Handle("/api/v1/health", withMiddleware(s.requireMethod(http.MethodGet, s.handlers.Health)))
	mux.Handle("/api/v1/stats", withMiddleware(s.requireMethod(http.MethodGet, s.handlers.Stats)))

	// Root endpoint with API info
	mux.Handle("/", withMiddleware(s.handleRoot))

	return mux
}

// requireMethod rejects requests with any other HTTP method.
func (s *Server) requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// handleSignals routes signal requests based on HTTP method
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlers.PublishSignal(w, r)
	default:
		s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSubscriptions routes subscription requests based on HTTP method
func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handlers.ListSubscriptions(w, r)
	case http.MethodPost:
		s.handlers.CreateSubscription(w, r)
	default:
		s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSubscriptionByID handles individual subscription operations
func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	subscriptionID := strings.TrimPrefix(r.URL.Path, "/api/v1/subscriptions/")
	if subscriptionID == "" || strings.Contains(subscriptionID, "/") {
		s.writeError(w, "Subscription ID required", http.StatusBadRequest)
		return
	}

	ctx := context.WithValue(r.Context(), SubscriptionIDKey, subscriptionID)
	r = r.WithContext(ctx)

	switch r.Method {
	case http.MethodGet:
		s.handlers.GetSubscription(w, r)
	case http.MethodDelete:
		s.handlers.DeleteSubscription(w, r)
	default:
		s.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	info := map[string]interface{}{
		"service":     "cauce hub",
		"version":     "1.0.0",
		"description": "Topic-based signal routing hub",
		"endpoints": map[string]interface{}{
			"signals": map[string]string{
				"publish": "POST /api/v1/signals",
				"stream":  "GET /api/v1/signals/stream?client_id={id}",
			},
			"subscriptions": map[string]string{
				"list":   "GET /api/v1/subscriptions?client_id={id}",
				"create": "POST /api/v1/subscriptions",
				"get":    "GET /api/v1/subscriptions/{id}",
				"delete": "DELETE /api/v1/subscriptions/{id}",
			},
			"route":  "GET /api/v1/route?topic={topic}",
			"health": "GET /api/v1/health",
			"stats":  "GET /api/v1/stats",
		},
	}

	s.writeJSON(w, info, http.StatusOK)
}

// writeError writes an error response as JSON
func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
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
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
