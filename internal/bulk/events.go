package bulk

import (
	"sync"

	"github.com/jonathan/profile-scraper/internal/types"
)

// EventType names a controller notification.
type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
	EventStopped  EventType = "stopped"
)

// Event is one notification in a run's stream.
type Event struct {
	Type     EventType      `json:"type"`
	Message  string         `json:"message,omitempty"`
	Severity types.Severity `json:"severity,omitempty"`
	Current  int            `json:"current,omitempty"`
	Total    int            `json:"total,omitempty"`
}

// Emitter receives one-way notifications from the controller.
type Emitter interface {
	Status(text string, severity types.Severity)
	Progress(current, total int)
	Complete(message string)
	Error(message string)
	Stopped(message string)
}

// EmitFunc adapts a single event handler to Emitter.
type EmitFunc func(Event)

func (f EmitFunc) Status(text string, severity types.Severity) {
	f(Event{Type: EventStatus, Message: text, Severity: severity})
}

func (f EmitFunc) Progress(current, total int) {
	f(Event{Type: EventProgress, Current: current, Total: total})
}

func (f EmitFunc) Complete(message string) { f(Event{Type: EventComplete, Message: message}) }
func (f EmitFunc) Error(message string)    { f(Event{Type: EventError, Message: message}) }
func (f EmitFunc) Stopped(message string)  { f(Event{Type: EventStopped, Message: message}) }

// Recorder keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emitter returns an Emitter that appends to the recorder.
func (r *Recorder) Emitter() Emitter {
	return EmitFunc(func(e Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Broadcaster fans events out to subscribers. A slow subscriber drops events rather
// than stalling the run.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Emitter returns an Emitter that publishes to every subscriber.
func (b *Broadcaster) Emitter() Emitter {
	return EmitFunc(b.publish)
}

func (b *Broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Tee forwards every notification to each emitter in order.
func Tee(emitters ...Emitter) Emitter {
	return EmitFunc(func(e Event) {
		for _, em := range emitters {
			dispatch(em, e)
		}
	})
}

func dispatch(em Emitter, e Event) {
	switch e.Type {
	case EventStatus:
		em.Status(e.Message, e.Severity)
	case EventProgress:
		em.Progress(e.Current, e.Total)
	case EventComplete:
		em.Complete(e.Message)
	case EventError:
		em.Error(e.Message)
	case EventStopped:
		em.Stopped(e.Message)
	}
}
