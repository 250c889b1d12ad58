// Package flow defines the push-notification boundary: out-of-band events
// delivered to a user's live connections after their originating request has
// already completed.
package flow

import (
	"context"
	"sync"
)

// Actions understood by connected clients.
const (
	// ActionShowNotification displays a transient message to the user.
	ActionShowNotification = "featuresets/SHOW_NOTIFICATION"
	// ActionFetchFeaturesets tells the client to re-fetch its featureset list.
	ActionFetchFeaturesets = "featuresets/FETCH_FEATURESETS"
)

// Severity values for notification payloads.
const (
	SeverityInfo  = "info"
	SeverityError = "error"
)

// Payload is the structured body of a notification message.
type Payload struct {
	Note string `json:"note,omitempty"`
	Type string `json:"type,omitempty"`
}

// Message is one event pushed to a client.
type Message struct {
	Action  string  `json:"action"`
	Payload Payload `json:"payload,omitzero"`
}

// Notification builds a SHOW_NOTIFICATION message.
func Notification(note, severity string) Message {
	return Message{
		Action:  ActionShowNotification,
		Payload: Payload{Note: note, Type: severity},
	}
}

// Refresh builds the FETCH_FEATURESETS message.
func Refresh() Message {
	return Message{Action: ActionFetchFeaturesets}
}

// Emitter delivers messages to a user's live connections. Delivery is
// best-effort: no confirmation, no retry obligation on the caller.
type Emitter interface {
	Push(ctx context.Context, userID string, msg Message) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, userID string, msg Message) error

// Push implements Emitter.
func (f EmitterFunc) Push(ctx context.Context, userID string, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, userID, msg)
}

// Recorder is an in-memory emitter that preserves per-user message order.
// Used by tests and the dev single-process setup.
type Recorder struct {
	mu       sync.Mutex
	messages map[string][]Message
}

var _ Emitter = (*Recorder)(nil)

// NewRecorder constructs an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{messages: make(map[string][]Message)}
}

// Push appends the message to the user's stream.
func (r *Recorder) Push(_ context.Context, userID string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[userID] = append(r.messages[userID], msg)
	return nil
}

// Messages returns a copy of the user's stream in delivery order.
func (r *Recorder) Messages(userID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages[userID]...)
}
