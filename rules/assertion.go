package rules

import (
	"log"

	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/sim"
)

// An Assertion halts the session when its condition signal becomes false.
// Each distinct transition to false is one violation: consecutive false
// values do not re-trigger, while a recovery to true re-arms the assertion.
// A violation is a reported side effect, never a failure propagated through
// the signal graph, so one assertion cannot disrupt other rules.
type Assertion struct {
	label   string
	session sim.Session

	sub        *react.Subscription
	violations int
}

// NewAssertion creates an assertion over cond, registers it with the
// registry, and arms it.
func NewAssertion(
	registry *Registry,
	cond *react.Signal[bool],
	label string,
	session sim.Session,
) *Assertion {
	a := &Assertion{
		label:   label,
		session: session,
	}

	a.sub = react.Distinct(cond).OnChange(func(v bool) {
		if !v {
			a.violate(v)
		}
	})

	registry.Register(a)

	return a
}

func (a *Assertion) violate(value bool) {
	a.violations++

	log.Printf("assertion %q violated with value %v at %d us",
		a.label, value, a.session.CurrentTime())

	a.session.RequestHalt()
}

// Violations returns how many times the assertion has fired.
func (a *Assertion) Violations() int {
	return a.violations
}

// Dispose detaches the assertion from its condition signal.
func (a *Assertion) Dispose() {
	a.sub.Cancel()
}
