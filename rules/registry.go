// Package rules implements the rule engine: assertions that halt the
// session when a monitored condition turns false, and log rules that turn
// signal changes into timestamped rows routed to a destination.
package rules

// A Rule is a live, registered observer of the signal graph. Disposing a
// rule detaches it permanently.
type Rule interface {
	Dispose()
}

// A Registry is the session-owned list of live rules. It replaces any
// process-global rule state; the hosting session passes it by reference
// into registration calls and resets it at teardown.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Len returns the number of live rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Reset disposes all registered rules and empties the registry. A rule
// disposed by Reset never fires again.
func (r *Registry) Reset() {
	for _, rule := range r.rules {
		rule.Dispose()
	}

	r.rules = nil
}
