package simulation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
	"github.com/sarchlab/memscope/simulation"
)

type funcHandler func(e sim.Event) error

func (h funcHandler) Handle(e sim.Event) error {
	return h(e)
}

type tickEvent struct {
	*sim.EventBase
}

func schedule(s *simulation.Simulation, t sim.VTimeInUs, f func()) {
	handler := funcHandler(func(sim.Event) error {
		f()
		return nil
	})
	s.GetEngine().Schedule(tickEvent{sim.NewEventBase(t, handler)})
}

func TestRunTracksRunningState(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	var observedDuringRun bool
	schedule(s, 1, func() {
		observedDuringRun = s.Running().Now()
	})

	assert.False(t, s.Running().Now())
	require.NoError(t, s.Run())
	assert.True(t, observedDuringRun)
	assert.False(t, s.Running().Now())
}

func TestRequestHaltStopsRun(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	var handled []sim.VTimeInUs
	schedule(s, 1, func() {
		handled = append(handled, s.CurrentTime())
		s.RequestHalt()
	})
	schedule(s, 2, func() {
		handled = append(handled, s.CurrentTime())
	})

	require.NoError(t, s.Run())
	assert.Equal(t, []sim.VTimeInUs{1}, handled)
}

func TestAssertionHaltsRun(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	healthy := react.NewSignal(true)
	a := rules.NewAssertion(s.GetRegistry(), healthy, "stays healthy", s)

	var handled int
	for i := 1; i <= 5; i++ {
		at := sim.VTimeInUs(i)
		schedule(s, at, func() {
			handled++
			if at == 3 {
				healthy.Set(false)
			}
		})
	}

	require.NoError(t, s.Run())
	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, a.Violations())
}

func TestRegisteredPublisherRunsAfterEachEvent(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	storage := mem.NewStorage(1 << 12)
	memory := mem.NewDeviceMemory(storage, 4, nil)
	factory, err := mem.NewPollingFactory(memory)
	require.NoError(t, err)
	s.RegisterPublisher(factory)

	accessor := mem.NewAccessor(memory, factory)
	counter := accessor.Int32Variable(0x10)

	var seen []int32
	counter.OnChange(func(x int32) { seen = append(seen, x) })

	for i := 1; i <= 3; i++ {
		at := sim.VTimeInUs(i)
		v := int32(i)
		schedule(s, at, func() {
			require.NoError(t, storage.Write(0x10, []byte{byte(v), 0, 0, 0}))
		})
	}

	require.NoError(t, s.Run())
	assert.Equal(t, []int32{1, 2, 3}, seen)
	assert.Equal(t, int32(3), counter.Now())
}

func TestTerminateRunsHooksOnce(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	calls := 0
	s.AtTeardown(func() error {
		calls++
		return nil
	})
	s.AtTeardown(func() error {
		return errors.New("closing failed")
	})
	ranLast := false
	s.AtTeardown(func() error {
		ranLast = true
		return nil
	})

	s.Terminate()
	s.Terminate()

	assert.Equal(t, 1, calls)
	assert.True(t, ranLast)
}

func TestTerminateResetsRegistry(t *testing.T) {
	s := simulation.MakeBuilder().Build()

	cond := react.NewSignal(true)
	a := rules.NewAssertion(s.GetRegistry(), cond, "cond holds", s)

	s.Terminate()
	cond.Set(false)

	assert.Equal(t, 0, a.Violations())
	assert.Equal(t, 0, s.GetRegistry().Len())
}

func TestBuilderValidation(t *testing.T) {
	assert.Panics(t, func() {
		simulation.MakeBuilder().WithMonitorPort(8080).Build()
	})
	assert.Panics(t, func() {
		simulation.MakeBuilder().WithBrowser().Build()
	})
}

func TestSessionIDsAreUnique(t *testing.T) {
	s1 := simulation.MakeBuilder().Build()
	s2 := simulation.MakeBuilder().Build()

	assert.NotEmpty(t, s1.ID())
	assert.NotEqual(t, s1.ID(), s2.ID())
}
