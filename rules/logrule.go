package rules

import (
	"reflect"

	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/sim"
)

// A Destination is a sink receiving timestamped rows of logged values.
// Log must reject a row whose value count disagrees with the declared
// column count before writing anything.
type Destination interface {
	Log(t sim.VTimeInUs, values []any)
	Active() bool
}

// A LogRule combines one row stream, or the changes of several signals,
// into timestamped rows routed to a destination. Once the destination
// reports inactive the rule stops emitting permanently, even if the
// destination later becomes active again.
type LogRule struct {
	dest    Destination
	session sim.Session

	subs []*react.Subscription
}

// NewLogRuleFromRows creates a log rule fed directly by a row stream. Every
// event is one row.
func NewLogRuleFromRows(
	registry *Registry,
	dest Destination,
	session sim.Session,
	rows *react.EventStream[[]any],
) *LogRule {
	r := &LogRule{dest: dest, session: session}
	r.attach(rows)
	registry.Register(r)

	return r
}

// NewLogRuleFromEvents creates a log rule over a stream of single values,
// each wrapped into a one-column row.
func NewLogRuleFromEvents(
	registry *Registry,
	dest Destination,
	session sim.Session,
	events *react.EventStream[any],
) *LogRule {
	rows := react.MapStream(events, func(e any) []any { return []any{e} })
	return NewLogRuleFromRows(registry, dest, session, rows)
}

// NewLogRule creates a log rule over one or more signals. The input order
// is fixed and defines the row column order. Any signal change produces a
// row holding the current snapshot of every signal; two structurally
// identical consecutive rows are logged once.
func NewLogRule(
	registry *Registry,
	dest Destination,
	session sim.Session,
	signals ...react.AnySignal,
) *LogRule {
	if len(signals) == 0 {
		panic("a log rule needs at least one signal")
	}

	r := &LogRule{dest: dest, session: session}

	snapshot := func() []any {
		row := make([]any, len(signals))
		for i, s := range signals {
			row[i] = s.NowAny()
		}
		return row
	}

	ticks := react.NewEventStream[[]any]()
	for _, s := range signals {
		sub := s.OnChangeAny(func() { ticks.Emit(snapshot()) })
		r.subs = append(r.subs, sub)
	}

	rows := react.DistinctStream(ticks, func(a, b []any) bool {
		return reflect.DeepEqual(a, b)
	})

	r.attach(rows)
	registry.Register(r)

	return r
}

func (r *LogRule) attach(rows *react.EventStream[[]any]) {
	gated := react.TakeWhile(rows, func([]any) bool {
		return r.dest.Active()
	})

	sub := gated.Subscribe(func(row []any) {
		r.dest.Log(r.session.CurrentTime(), row)
	})
	r.subs = append(r.subs, sub)
}

// Dispose detaches the rule from its sources.
func (r *LogRule) Dispose() {
	for _, sub := range r.subs {
		sub.Cancel()
	}
	r.subs = nil
}
