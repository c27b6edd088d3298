package pipeline

import (
	"sync"
	"time"
)

// EventType classifies pipeline events.
type EventType string

const (
	EventRunStarted    EventType = "run-started"
	EventStepStarted   EventType = "step-started"
	EventStepProgress  EventType = "step-progress"
	EventStepCompleted EventType = "step-completed"
	EventStepFailed    EventType = "step-failed"
	EventRunCompleted  EventType = "run-completed"
	EventRunFailed     EventType = "run-failed"
)

// Event is one pipeline notification. Seq is assigned by a Bus when the
// event is recorded; events delivered straight to observers carry Seq 0.
type Event struct {
	Type     EventType
	RecipeID string
	StepID   string
	Progress int
	Message  string
	Err      error
	At       time.Time
	Seq      uint64
}

// Observer receives pipeline events. Implementations must tolerate
// concurrent calls when the executor runs steps in parallel.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(event Event) {
	f(event)
}

// Observers fans events out to a set of observers.
type Observers struct {
	mu   sync.RWMutex
	list []Observer
}

// NewObservers builds a fan-out over the given observers.
func NewObservers(observers ...Observer) *Observers {
	o := &Observers{}
	for _, observer := range observers {
		o.Add(observer)
	}
	return o
}

// Add registers an observer. Nil observers are ignored.
func (o *Observers) Add(observer Observer) {
	if observer == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, observer)
}

// Notify delivers the event to every registered observer in registration
// order.
func (o *Observers) Notify(event Event) {
	if o == nil {
		return
	}
	o.mu.RLock()
	observers := append([]Observer(nil), o.list...)
	o.mu.RUnlock()
	for _, observer := range observers {
		observer.Notify(event)
	}
}

// Bus is an Observer that retains the most recent events for polling.
// Events get monotonically increasing sequence numbers; the buffer is
// bounded and drops the oldest events first.
type Bus struct {
	mu       sync.Mutex
	capacity int
	next     uint64
	events   []Event
}

// NewBus builds a bus retaining up to capacity events.
func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{capacity: capacity}
}

// Notify implements Observer.
func (b *Bus) Notify(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	event.Seq = b.next
	b.events = append(b.events, event)
	if overflow := len(b.events) - b.capacity; overflow > 0 {
		b.events = append([]Event(nil), b.events[overflow:]...)
	}
}

// Since returns the retained events with sequence numbers greater than
// after, oldest first.
func (b *Bus) Since(after uint64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, event := range b.events {
		if event.Seq > after {
			out = append(out, event)
		}
	}
	return out
}
