package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run on the dispatcher's
// goroutines, never on the publisher's.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case RecorderStateEvent:
		event.Publish(b.dispatcher, e)
	case TapeFinishedEvent:
		event.Publish(b.dispatcher, e)
	case AudioErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type it accepts and returns the
// unsubscribe function. Unknown handler types get a no-op unsubscribe.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RecorderStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TapeFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AudioErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
