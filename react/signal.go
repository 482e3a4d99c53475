package react

// A Signal is a reactive container with a current value and a stream of
// change events. Set updates the value and pushes the change through all
// subscribers synchronously. Equality is used to suppress writes of an
// unchanged value.
type Signal[T any] struct {
	value   T
	eq      func(a, b T) bool
	changes *EventStream[T]
}

// NewSignal creates a Signal over a comparable value type.
func NewSignal[T comparable](initial T) *Signal[T] {
	return NewSignalFunc(initial, func(a, b T) bool { return a == b })
}

// NewSignalFunc creates a Signal with an explicit equality function, for
// value types that are not comparable with ==. A nil eq disables change
// suppression so every Set emits.
func NewSignalFunc[T any](initial T, eq func(a, b T) bool) *Signal[T] {
	return &Signal[T]{
		value:   initial,
		eq:      eq,
		changes: NewEventStream[T](),
	}
}

// Const creates a signal that is never written again by its creator.
func Const[T comparable](v T) *Signal[T] {
	return NewSignal(v)
}

// Now returns the current value.
func (s *Signal[T]) Now() T {
	return s.value
}

// Set updates the current value. If the new value equals the current one the
// write is suppressed and no change event is emitted.
func (s *Signal[T]) Set(v T) {
	if s.eq != nil && s.eq(s.value, v) {
		return
	}

	s.value = v
	s.changes.Emit(v)
}

// Changes exposes the change-event stream of the signal.
func (s *Signal[T]) Changes() *EventStream[T] {
	return s.changes
}

// OnChange subscribes fn to every change of the signal.
func (s *Signal[T]) OnChange(fn func(T)) *Subscription {
	return s.changes.Subscribe(fn)
}

// NowAny returns the current value untyped. Together with OnChangeAny it
// lets heterogeneous signals be handled uniformly, e.g. as log columns.
func (s *Signal[T]) NowAny() any {
	return s.value
}

// OnChangeAny subscribes fn to every change, discarding the value.
func (s *Signal[T]) OnChangeAny(fn func()) *Subscription {
	return s.changes.Subscribe(func(T) { fn() })
}

// AnySignal is the type-erased view of a Signal, used where signals of
// different value types are mixed.
type AnySignal interface {
	NowAny() any
	OnChangeAny(fn func()) *Subscription
}

// Map derives a signal by applying f to the source's current value and to
// every subsequent change.
func Map[T any, U comparable](s *Signal[T], f func(T) U) *Signal[U] {
	out := NewSignal(f(s.value))
	s.OnChange(func(v T) { out.Set(f(v)) })
	return out
}

// Distinct derives a signal that suppresses consecutive equal values even if
// the source emits them.
func Distinct[T comparable](s *Signal[T]) *Signal[T] {
	out := NewSignal(s.value)
	s.OnChange(func(v T) { out.Set(v) })
	return out
}

// FlatMap derives a signal that tracks the inner signal selected by f for
// the source's current value. On a source change the previous inner
// subscription is dropped and the derived signal re-binds to the new inner
// signal, taking over its current value.
func FlatMap[T any, U comparable](
	s *Signal[T],
	f func(T) *Signal[U],
) *Signal[U] {
	return FlatMapFunc(s, f, func(a, b U) bool { return a == b })
}

// FlatMapFunc is FlatMap with an explicit equality function for the derived
// value type.
func FlatMapFunc[T, U any](
	s *Signal[T],
	f func(T) *Signal[U],
	eq func(a, b U) bool,
) *Signal[U] {
	inner := f(s.value)
	out := NewSignalFunc(inner.Now(), eq)

	innerSub := inner.OnChange(func(v U) { out.Set(v) })

	s.OnChange(func(v T) {
		innerSub.Cancel()
		next := f(v)
		innerSub = next.OnChange(func(u U) { out.Set(u) })
		out.Set(next.Now())
	})

	return out
}
