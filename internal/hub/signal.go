package hub

import (
	"time"

	"github.com/google/uuid"
)

// Signal is the message envelope the hub fans out to subscribers: a topic,
// an opaque payload and optional string metadata. Signals are assigned
// their id and timestamp at creation and are not mutated afterwards.
type Signal struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewSignal builds a signal envelope, copying payload and metadata so the
// caller can reuse its buffers after publishing.
func NewSignal(topic string, payload []byte, metadata map[string]string) *Signal {
	s := &Signal{
		ID:        "sig_" + uuid.NewString(),
		Topic:     topic,
		Timestamp: time.Now().UTC(),
	}
	if len(payload) > 0 {
		s.Payload = append([]byte(nil), payload...)
	}
	if len(metadata) > 0 {
		s.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			s.Metadata[k] = v
		}
	}
	return s
}
