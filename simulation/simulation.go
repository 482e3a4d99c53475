// Package simulation wires the engine, the rule registry, memory
// publishers, and the optional monitor into one session object that hosts
// an observation run.
package simulation

import (
	"log"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/monitoring"
	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

// A Simulation provides the services required to run one observation
// session. It implements sim.Session.
type Simulation struct {
	id string

	engine   *sim.SerialEngine
	registry *rules.Registry
	monitor  *monitoring.Monitor

	running  *react.Signal[bool]
	torndown bool

	teardownHooks []func() error
}

var _ sim.Session = (*Simulation)(nil)

// GetEngine returns the engine driving the simulation.
func (s *Simulation) GetEngine() *sim.SerialEngine {
	return s.engine
}

// GetRegistry returns the rule registry owned by the session.
func (s *Simulation) GetRegistry() *rules.Registry {
	return s.registry
}

// GetMonitor returns the monitor, or nil when monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// ID returns the session's unique ID.
func (s *Simulation) ID() string {
	return s.id
}

// CurrentTime returns the current simulated time in microseconds.
func (s *Simulation) CurrentTime() sim.VTimeInUs {
	return s.engine.CurrentTime()
}

// Running exposes the running state as a signal. It transitions to true
// when Run starts and to false when the run stops for any reason.
func (s *Simulation) Running() *react.Signal[bool] {
	return s.running
}

// RequestHalt asks the engine to stop before the next event. Safe to call
// from within signal propagation, e.g. from an assertion.
func (s *Simulation) RequestHalt() {
	s.engine.Halt()
}

// AtTeardown registers a hook invoked once when the session terminates.
func (s *Simulation) AtTeardown(hook func() error) {
	s.teardownHooks = append(s.teardownHooks, hook)
}

// RegisterPublisher hooks a memory publisher to the engine so that all
// materialized signals observe the state each event leaves behind.
func (s *Simulation) RegisterPublisher(p mem.Publisher) {
	s.engine.AcceptHook(publishHook{publisher: p})
}

type publishHook struct {
	publisher mem.Publisher
}

func (h publishHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == sim.HookPosAfterEvent {
		h.publisher.Publish()
	}
}

// Run processes all scheduled events, tracking the running state.
func (s *Simulation) Run() error {
	s.running.Set(true)
	err := s.engine.Run()
	s.running.Set(false)

	return err
}

// Terminate ends the session: rules are detached and every teardown hook
// runs exactly once. Hook errors are reported and do not block the
// remaining hooks.
func (s *Simulation) Terminate() {
	if s.torndown {
		return
	}
	s.torndown = true

	s.running.Set(false)
	s.registry.Reset()

	for _, hook := range s.teardownHooks {
		if err := hook(); err != nil {
			log.Printf("session teardown: %v", err)
		}
	}
	s.teardownHooks = nil
}
