// Package eventlog is the append-only sink service events are published
// into. Every mutating call emits zero or more events; order is
// preserved within a call, and the host consumes each event as one
// opaque serialized record.
package eventlog

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single emitted record.
type Event struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`
	// Service names the emitting service, e.g. "asset" or "crosschain".
	Service string `json:"service"`
	// Name is the event name within the service, e.g. "transfer".
	Name string `json:"name"`
	// Data is the serialized event body.
	Data json.RawMessage `json:"data"`
	// Emitted is the wall-clock emission time, for log consumers only.
	Emitted time.Time `json:"emitted"`
}

// New builds an event with a fresh id, serializing body as the data.
func New(service, name string, body any) (Event, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:      uuid.New().String(),
		Service: service,
		Name:    name,
		Data:    data,
		Emitted: time.Now().UTC(),
	}, nil
}

// Sink accepts emitted events in order.
type Sink interface {
	Append(ev Event) error
}

// MemorySink retains events in memory, in append order.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append records the event.
func (s *MemorySink) Append(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of appended events.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
