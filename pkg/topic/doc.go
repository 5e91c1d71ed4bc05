// Package topic provides the validated topic and pattern types used for
// pub/sub routing, together with the pairwise wildcard matcher.
//
// The package defines the wire-format rules for the routing core:
//   - Topic: dot-separated hierarchical identifier ("signal.email.received")
//   - Pattern: topic syntax plus wildcard segments registered by subscribers
//   - Match: the reference matching semantics between one topic and one pattern
//
// Wildcard semantics:
//   - "*" matches exactly one segment
//   - "**" matches one or more consecutive segments and may appear anywhere
//     in a pattern, any number of times
//
// Validation rules (applied to both topics and patterns):
//   - whole string at most 255 bytes
//   - 1 to 10 segments by default (configurable via Limits)
//   - each segment matches [A-Za-z0-9_-]+ (no empty segments, so no leading,
//     trailing, or consecutive dots)
//   - a wildcard token must occupy an entire segment: "*foo" is invalid
//
// All validation failures are typed error values; nothing in this package
// panics on malformed input. The types are immutable once constructed and
// safe for concurrent use.
//
// Match is exponential in the worst case when a pattern contains several "**"
// segments. It exists as the correctness reference and for one-off ad hoc
// checks; bulk routing should go through the trie-backed router in
// internal/routing, which is equivalent by contract.
package topic
