package sim

import "github.com/rs/xid"

// VTimeInUs defines time in the simulated space, in integer microseconds.
type VTimeInUs int64

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the time that the event should happen.
	Time() VTimeInUs

	// Handler returns the handler that should handle the event.
	Handler() Handler
}

// A Handler defines a domain for the events.
//
// One event is always constrained to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID      string
	time    VTimeInUs
	handler Handler
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInUs, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = xid.New().String()
	e.time = t
	e.handler = handler
	return e
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() VTimeInUs {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}
