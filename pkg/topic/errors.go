package topic

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when a topic or pattern string is empty.
	ErrEmpty = errors.New("must not be empty")
	// ErrTooLong is returned when a topic or pattern exceeds MaxLength bytes.
	ErrTooLong = errors.New("exceeds maximum length")
	// ErrTooManySegments is returned when the segment count exceeds the
	// configured maximum.
	ErrTooManySegments = errors.New("too many segments")
	// ErrInvalidSegment is returned when a segment is empty or contains
	// characters outside [A-Za-z0-9_-].
	ErrInvalidSegment = errors.New("invalid segment")
	// ErrWildcardNotWholeSegment is returned when a pattern segment contains
	// a '*' without the wildcard token occupying the entire segment.
	ErrWildcardNotWholeSegment = errors.New("wildcard must occupy the whole segment")
	// ErrWildcardInTopic is returned when a concrete topic contains a
	// wildcard token. Wildcards are only valid in patterns.
	ErrWildcardInTopic = errors.New("topic must not contain wildcards")
)

// ValidationError describes why a topic or pattern string was rejected.
// It wraps one of the package sentinel errors, so callers can classify
// failures with errors.Is and recover segment details with errors.As.
type ValidationError struct {
	// Kind is "topic" or "pattern".
	Kind string
	// Input is the rejected raw string.
	Input string
	// Segment and Position identify the offending segment for segment-level
	// failures. Position is the zero-based segment index; it is -1 for
	// string-level failures such as ErrEmpty and ErrTooLong.
	Segment  string
	Position int

	err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("invalid %s %q: segment %q at position %d: %v",
			e.Kind, e.Input, e.Segment, e.Position, e.err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.err)
}

// Unwrap returns the sentinel error this validation failure wraps.
func (e *ValidationError) Unwrap() error {
	return e.err
}

func newStringError(kind, input string, sentinel error) *ValidationError {
	return &ValidationError{Kind: kind, Input: input, Position: -1, err: sentinel}
}

func newSegmentError(kind, input, segment string, position int, sentinel error) *ValidationError {
	return &ValidationError{Kind: kind, Input: input, Segment: segment, Position: position, err: sentinel}
}
