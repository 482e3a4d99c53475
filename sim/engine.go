package sim

import "github.com/sarchlab/memscope/react"

// TimeTeller can be used to get the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInUs
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the events until there is no more event scheduled or
	// until the engine is halted.
	Run() error

	// Pause pauses the simulation until Continue is called.
	Pause()

	// Continue continues the paused simulation.
	Continue()

	// Halt asks the engine to stop before triggering the next event. Unlike
	// Pause, Halt is safe to call from within an event handler and is
	// permanent for the current Run.
	Halt()
}

// A Session is the host context that rules and log destinations are bound
// to. It tells the current simulated time, exposes the running state as a
// signal, accepts halt requests, and collects teardown hooks that run once
// at session end.
type Session interface {
	TimeTeller

	// Running reports whether the simulation is currently advancing. The
	// signal transitions to false whenever the run stops, which log sinks
	// use to flush buffered output.
	Running() *react.Signal[bool]

	// RequestHalt asks the host to stop advancing simulated time. It is
	// safe to call from within signal propagation.
	RequestHalt()

	// AtTeardown registers a hook invoked once when the session ends.
	// Hook errors are reported and do not block other hooks.
	AtTeardown(hook func() error)
}
