package routing

import (
	"io"
)

// Router maps published topics to the subscription ids whose patterns match.
// Implementations must be safe for concurrent use: Route calls may run in
// parallel with each other and must never observe a partially registered
// pattern.
//
// All operations are synchronous in-memory computation bounded by topic and
// pattern depth; none of them blocks, so they are safe to call from
// latency-sensitive paths. There is deliberately no context parameter.
type Router interface {
	io.Closer

	// Subscribe registers a pattern for a subscription id. The pattern is
	// validated first; registration is atomic from the caller's point of
	// view. Registering the same (id, pattern) twice is idempotent.
	Subscribe(id, pattern string) error

	// Unsubscribe removes a previously registered (id, pattern). Removing
	// a registration that does not exist is a no-op, not an error: the
	// subscription manager is the source of truth for subscription
	// existence, the router only tracks routing facts.
	Unsubscribe(id, pattern string) error

	// Route validates the topic and returns the ids of every subscription
	// whose pattern matches it, sorted and without duplicates.
	Route(topic string) ([]string, error)
}

// Counter is implemented by routers that expose registration counts for
// monitoring.
type Counter interface {
	// PatternCount returns the number of currently registered
	// (id, pattern) entries.
	PatternCount() int
}
