package service

import (
	"sync"

	"suitcase/internal/domain"
)

// EventType defines the type of event
type EventType string

const (
	EventDocument    EventType = "document"
	EventFileWritten EventType = "file_written"
	EventFileRead    EventType = "file_read"
)

// Direction tells which way a document travelled
type Direction string

const (
	DirectionExport Direction = "export"
	DirectionIngest Direction = "ingest"
)

// Event represents something that happened during a translation
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// DocumentPayload accompanies EventDocument
type DocumentPayload struct {
	Direction Direction   `json:"direction"`
	Kind      domain.Kind `json:"kind"`
	UID       string      `json:"uid"`
}

// FilePayload accompanies EventFileWritten and EventFileRead
type FilePayload struct {
	Path  string      `json:"path"`
	Kind  domain.Kind `json:"kind"`
	Field string      `json:"field,omitempty"`
	Bytes int64       `json:"bytes"`
}

// Handler receives published events
type Handler func(Event)

// EventBus delivers events to subscribers synchronously, in subscription
// order, on the publishing goroutine. A nil *EventBus discards events.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []Handler
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]Handler, 0),
	}
}

// Subscribe adds a handler to receive events
func (eb *EventBus) Subscribe(h Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, h)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	subscribers := eb.subscribers
	eb.mu.RUnlock()

	for _, h := range subscribers {
		h(event)
	}
}
