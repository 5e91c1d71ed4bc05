package topic

import (
	"strings"
)

const (
	// Separator joins the segments of a topic or pattern.
	Separator = "."
	// SingleWildcard matches exactly one segment in a pattern.
	SingleWildcard = "*"
	// MultiWildcard matches one or more consecutive segments in a pattern.
	MultiWildcard = "**"

	// MaxLength is the maximum byte length of a topic or pattern string.
	MaxLength = 255
	// DefaultMaxSegments is the default maximum segment count.
	DefaultMaxSegments = 10
)

// Limits holds the configurable validation limits for topics and patterns.
// The zero value is not useful; use DefaultLimits as a starting point.
type Limits struct {
	// MaxLength is the maximum byte length of the whole string.
	MaxLength int
	// MaxSegments is the maximum number of dot-separated segments. The
	// limit applies to patterns as well as topics, so a registered pattern
	// can never be deeper than any topic it could match.
	MaxSegments int
}

// DefaultLimits returns the wire-format limits: 255 bytes, 10 segments.
func DefaultLimits() Limits {
	return Limits{MaxLength: MaxLength, MaxSegments: DefaultMaxSegments}
}

// Topic is a validated, wildcard-free dotted identifier published with a
// message, such as "signal.email.received". The zero value is invalid;
// construct topics with Parse or Limits.ParseTopic.
type Topic struct {
	raw      string
	segments []string
}

// Parse validates a raw string against DefaultLimits and returns it as a
// Topic. The returned error is a *ValidationError.
func Parse(raw string) (Topic, error) {
	return DefaultLimits().ParseTopic(raw)
}

// MustParse is like Parse but panics on invalid input. Use only for
// known-valid literals in tests and examples.
func MustParse(raw string) Topic {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTopic validates a raw string as a concrete topic under these limits.
func (l Limits) ParseTopic(raw string) (Topic, error) {
	segments, err := l.splitAndCheck("topic", raw)
	if err != nil {
		return Topic{}, err
	}
	for i, seg := range segments {
		if strings.ContainsRune(seg, '*') {
			return Topic{}, newSegmentError("topic", raw, seg, i, ErrWildcardInTopic)
		}
		if !validSegment(seg) {
			return Topic{}, newSegmentError("topic", raw, seg, i, ErrInvalidSegment)
		}
	}
	return Topic{raw: raw, segments: segments}, nil
}

// String returns the topic as its raw dotted string.
func (t Topic) String() string {
	return t.raw
}

// Segments returns the topic's segments in order. The returned slice is a
// copy; mutating it does not affect the topic.
func (t Topic) Segments() []string {
	out := make([]string, len(t.segments))
	copy(out, t.segments)
	return out
}

// Depth returns the number of segments.
func (t Topic) Depth() int {
	return len(t.segments)
}

// IsZero reports whether the topic is the unvalidated zero value.
func (t Topic) IsZero() bool {
	return t.raw == "" && t.segments == nil
}

// splitAndCheck applies the string-level rules shared by topics and
// patterns and returns the dot-separated segments.
func (l Limits) splitAndCheck(kind, raw string) ([]string, error) {
	if raw == "" {
		return nil, newStringError(kind, raw, ErrEmpty)
	}
	if len(raw) > l.MaxLength {
		return nil, newStringError(kind, raw, ErrTooLong)
	}
	segments := strings.Split(raw, Separator)
	if len(segments) > l.MaxSegments {
		return nil, newStringError(kind, raw, ErrTooManySegments)
	}
	for i, seg := range segments {
		if seg == "" {
			return nil, newSegmentError(kind, raw, seg, i, ErrInvalidSegment)
		}
	}
	return segments, nil
}

// validSegment reports whether every byte of a non-wildcard segment is in
// [A-Za-z0-9_-]. Byte-wise is correct here: multi-byte UTF-8 sequences
// always contain bytes outside the allowed set.
func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
