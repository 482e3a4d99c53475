// Package react provides the minimal push-based reactive primitives that the
// memory model and the rule engine are built on. A Signal holds a current
// value and notifies subscribers synchronously on change; an EventStream is
// the degenerate case without a retained value. Propagation is synchronous
// and depth-first from the triggering change, on a single logical thread.
package react

// A Subscription represents one attached listener. Cancel detaches it
// permanently.
type Subscription struct {
	cancel func()
}

// Cancel detaches the listener. Calling Cancel more than once is a no-op.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type listener[T any] struct {
	fn     func(T)
	closed bool
}

// An EventStream is a stream of discrete events without a retained current
// value. Emitting notifies the listeners in subscription order, inline.
type EventStream[T any] struct {
	listeners []*listener[T]
	emitting  int
}

// NewEventStream creates an empty EventStream.
func NewEventStream[T any]() *EventStream[T] {
	return &EventStream[T]{}
}

// Subscribe attaches fn to the stream. fn runs synchronously for every
// subsequent Emit, in the order listeners were attached.
func (s *EventStream[T]) Subscribe(fn func(T)) *Subscription {
	l := &listener[T]{fn: fn}
	s.listeners = append(s.listeners, l)

	return &Subscription{cancel: func() {
		l.closed = true
		s.compact()
	}}
}

// Emit delivers v to all listeners, depth-first.
func (s *EventStream[T]) Emit(v T) {
	s.emitting++
	for _, l := range s.listeners {
		if !l.closed {
			l.fn(v)
		}
	}
	s.emitting--

	s.compact()
}

// compact drops closed listeners. Deferred while an Emit is walking the
// listener list so cancellation from within a callback stays safe.
func (s *EventStream[T]) compact() {
	if s.emitting > 0 {
		return
	}

	live := s.listeners[:0]
	for _, l := range s.listeners {
		if !l.closed {
			live = append(live, l)
		}
	}
	s.listeners = live
}

// Hold converts an EventStream into a Signal with an initial value.
func Hold[T comparable](s *EventStream[T], initial T) *Signal[T] {
	sig := NewSignal(initial)
	s.Subscribe(func(v T) { sig.Set(v) })
	return sig
}

// TakeWhile forwards events while pred holds. The first event for which pred
// returns false cancels the upstream subscription permanently; that event is
// not forwarded and no later event can revive the stream.
func TakeWhile[T any](s *EventStream[T], pred func(T) bool) *EventStream[T] {
	out := NewEventStream[T]()

	var sub *Subscription
	sub = s.Subscribe(func(v T) {
		if !pred(v) {
			sub.Cancel()
			return
		}
		out.Emit(v)
	})

	return out
}

// DistinctStream suppresses events that compare equal, under eq, to the
// immediately preceding event.
func DistinctStream[T any](s *EventStream[T], eq func(a, b T) bool) *EventStream[T] {
	out := NewEventStream[T]()

	var last T
	seen := false
	s.Subscribe(func(v T) {
		if seen && eq(last, v) {
			return
		}
		last = v
		seen = true
		out.Emit(v)
	})

	return out
}

// MapStream transforms every event with f.
func MapStream[T, U any](s *EventStream[T], f func(T) U) *EventStream[U] {
	out := NewEventStream[U]()
	s.Subscribe(func(v T) { out.Emit(f(v)) })
	return out
}
