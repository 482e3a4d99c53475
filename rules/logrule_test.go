package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

type loggedRow struct {
	t      sim.VTimeInUs
	values []any
}

type fakeDestination struct {
	active bool
	rows   []loggedRow
}

func (d *fakeDestination) Log(t sim.VTimeInUs, values []any) {
	d.rows = append(d.rows, loggedRow{t: t, values: values})
}

func (d *fakeDestination) Active() bool {
	return d.active
}

func TestLogRuleSnapshotsAllColumns(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	a := react.NewSignal(int32(0))
	b := react.NewSignal(byte(0))

	rules.NewLogRule(registry, dest, session, a, b)

	session.now = 1
	a.Set(1)
	session.now = 2
	b.Set(10)
	session.now = 3
	a.Set(2)
	session.now = 4
	b.Set(20)

	assert.Equal(t, []loggedRow{
		{t: 1, values: []any{int32(1), byte(0)}},
		{t: 2, values: []any{int32(1), byte(10)}},
		{t: 3, values: []any{int32(2), byte(10)}},
		{t: 4, values: []any{int32(2), byte(20)}},
	}, dest.rows)
}

func TestLogRuleSuppressesIdenticalRows(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	// No equality suppression on the signal itself, so repeated writes of
	// the same value still tick the rule.
	s := react.NewSignalFunc(int32(0), nil)
	rules.NewLogRule(registry, dest, session, s)

	s.Set(1)
	s.Set(1)
	s.Set(1)
	s.Set(2)

	assert.Equal(t, []loggedRow{
		{t: 0, values: []any{int32(1)}},
		{t: 0, values: []any{int32(2)}},
	}, dest.rows)
}

func TestLogRuleStopsPermanentlyOnInactiveDestination(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	s := react.NewSignal(int32(0))
	rules.NewLogRule(registry, dest, session, s)

	s.Set(1)
	assert.Len(t, dest.rows, 1)

	dest.active = false
	s.Set(2)
	assert.Len(t, dest.rows, 1)

	// Reactivating the destination must not revive the rule.
	dest.active = true
	s.Set(3)
	assert.Len(t, dest.rows, 1)
}

func TestLogRuleFromRows(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	rows := react.NewEventStream[[]any]()
	rules.NewLogRuleFromRows(registry, dest, session, rows)

	session.now = 5
	rows.Emit([]any{1, 2})
	rows.Emit([]any{1, 2})

	// Direct row streams are not deduplicated.
	assert.Equal(t, []loggedRow{
		{t: 5, values: []any{1, 2}},
		{t: 5, values: []any{1, 2}},
	}, dest.rows)
}

func TestLogRuleFromEvents(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	events := react.NewEventStream[any]()
	rules.NewLogRuleFromEvents(registry, dest, session, events)

	session.now = 7
	events.Emit(int32(42))

	assert.Equal(t, []loggedRow{
		{t: 7, values: []any{int32(42)}},
	}, dest.rows)
}

func TestLogRuleRequiresSignals(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	assert.Panics(t, func() {
		rules.NewLogRule(registry, dest, session)
	})
}

func TestLogRuleDisposeDetaches(t *testing.T) {
	session := newFakeSession()
	registry := rules.NewRegistry()
	dest := &fakeDestination{active: true}

	s := react.NewSignal(int32(0))
	r := rules.NewLogRule(registry, dest, session, s)

	s.Set(1)
	r.Dispose()
	s.Set(2)

	assert.Len(t, dest.rows, 1)
}
