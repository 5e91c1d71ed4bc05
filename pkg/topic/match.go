package topic

// Match reports whether a concrete topic matches a subscription pattern.
//
// Matching proceeds segment by segment: a literal pattern segment requires
// an equal topic segment, "*" consumes exactly one topic segment of any
// value, and "**" consumes one or more topic segments. A pattern matches
// only when both the topic and the pattern are exhausted together, so
// "signal.*" does not match "signal.email.received" and "signal.**" does
// not match the bare topic "signal".
//
// With several "**" segments the recursion is exponential in the worst
// case. Patterns are short in practice and this function is the reference
// semantics; bulk routing belongs on the trie-backed router, which is
// contract-equivalent to calling Match per registered pattern.
func Match(t Topic, p Pattern) bool {
	return matchSegments(t.segments, p.segments)
}

// MatchAny reports whether the topic matches at least one of the patterns.
func MatchAny(t Topic, patterns []Pattern) bool {
	for _, p := range patterns {
		if Match(t, p) {
			return true
		}
	}
	return false
}

// MatchStrings validates both raw strings and then matches them. It is a
// convenience for one-off ad hoc checks, e.g. testing a candidate pattern
// against a sample topic without registering it anywhere.
func MatchStrings(rawTopic, rawPattern string) (bool, error) {
	t, err := Parse(rawTopic)
	if err != nil {
		return false, err
	}
	p, err := ParsePattern(rawPattern)
	if err != nil {
		return false, err
	}
	return Match(t, p), nil
}

// matchSegments is the recursive core. For "**" it tries two branches:
// keep consuming topic segments under the same "**", or stop after the
// segment just consumed and continue with the rest of the pattern. Both
// branches advance the topic, so "**" always consumes at least one segment.
func matchSegments(t, p []string) bool {
	if len(p) == 0 {
		return len(t) == 0
	}
	switch p[0] {
	case MultiWildcard:
		if len(t) == 0 {
			return false
		}
		return matchSegments(t[1:], p) || matchSegments(t[1:], p[1:])
	case SingleWildcard:
		if len(t) == 0 {
			return false
		}
		return matchSegments(t[1:], p[1:])
	default:
		if len(t) == 0 || t[0] != p[0] {
			return false
		}
		return matchSegments(t[1:], p[1:])
	}
}
