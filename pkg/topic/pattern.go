package topic

import (
	"strings"
)

// Pattern is a validated subscription pattern: topic syntax where a segment
// may additionally be the wildcard token "*" or "**". The zero value is
// invalid; construct patterns with ParsePattern or Limits.ParsePattern.
type Pattern struct {
	raw      string
	segments []string
}

// ParsePattern validates a raw string against DefaultLimits and returns it
// as a Pattern. The returned error is a *ValidationError.
func ParsePattern(raw string) (Pattern, error) {
	return DefaultLimits().ParsePattern(raw)
}

// MustParsePattern is like ParsePattern but panics on invalid input. Use
// only for known-valid literals in tests and examples.
func MustParsePattern(raw string) Pattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePattern validates a raw string as a subscription pattern under these
// limits. A segment is either a literal from [A-Za-z0-9_-]+ or exactly one
// of the wildcard tokens; "**" may appear any number of times, anywhere.
func (l Limits) ParsePattern(raw string) (Pattern, error) {
	segments, err := l.splitAndCheck("pattern", raw)
	if err != nil {
		return Pattern{}, err
	}
	for i, seg := range segments {
		if seg == SingleWildcard || seg == MultiWildcard {
			continue
		}
		if strings.ContainsRune(seg, '*') {
			return Pattern{}, newSegmentError("pattern", raw, seg, i, ErrWildcardNotWholeSegment)
		}
		if !validSegment(seg) {
			return Pattern{}, newSegmentError("pattern", raw, seg, i, ErrInvalidSegment)
		}
	}
	return Pattern{raw: raw, segments: segments}, nil
}

// String returns the pattern as its raw dotted string.
func (p Pattern) String() string {
	return p.raw
}

// Segments returns the pattern's segments in order, wildcard tokens
// included. The returned slice is a copy.
func (p Pattern) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Depth returns the number of segments.
func (p Pattern) Depth() int {
	return len(p.segments)
}

// IsZero reports whether the pattern is the unvalidated zero value.
func (p Pattern) IsZero() bool {
	return p.raw == "" && p.segments == nil
}

// HasWildcards reports whether the pattern contains any wildcard segment.
func (p Pattern) HasWildcards() bool {
	for _, seg := range p.segments {
		if seg == SingleWildcard || seg == MultiWildcard {
			return true
		}
	}
	return false
}
