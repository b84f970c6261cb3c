package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome classifies an audited action.
type Outcome string

const (
	// OutcomeOK marks an action that completed.
	OutcomeOK Outcome = "ok"
	// OutcomeDenied marks a normal security refusal: bad password, locked
	// account, expired or unknown session.
	OutcomeDenied Outcome = "denied"
	// OutcomeError marks an infrastructure failure.
	OutcomeError Outcome = "error"
)

// Event is one security-relevant transition of an account or session.
type Event struct {
	ID        string            `json:"id"`
	At        time.Time         `json:"at"`
	Kind      string            `json:"kind"`
	AccountID string            `json:"account_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Outcome   Outcome           `json:"outcome"`
	Code      string            `json:"code,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// NewEventID returns a random event id.
func NewEventID() string {
	return uuid.NewString()
}

// Sink receives events from the dispatcher goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to a consumer through a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink appends one JSON document per event to a writer, typically
// a rotating audit file.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}

// LogSink writes events to a structured logger. Denials log at Info and
// infrastructure errors at Error.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Emit(_ context.Context, event Event) {
	if s.Log == nil {
		return
	}
	fields := logrus.Fields{
		"audit_id": event.ID,
		"outcome":  string(event.Outcome),
	}
	if event.AccountID != "" {
		fields["account_id"] = event.AccountID
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
	}
	if event.ClientIP != "" {
		fields["client_ip"] = event.ClientIP
	}
	if event.Code != "" {
		fields["code"] = event.Code
	}
	for k, v := range event.Detail {
		fields[k] = v
	}

	entry := s.Log.WithFields(fields)
	if event.Outcome == OutcomeError {
		entry.Error(event.Kind)
		return
	}
	entry.Info(event.Kind)
}

// Tee fans every event out to each sink in order.
type Tee []Sink

func (t Tee) Emit(ctx context.Context, event Event) {
	for _, s := range t {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
