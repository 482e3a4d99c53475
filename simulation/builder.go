package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/memscope/monitoring"
	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

// Builder can be used to build a simulation session.
type Builder struct {
	monitorOn   bool
	monitorPort int
	openBrowser bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMonitoring enables the web monitor.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser makes the monitor open the dashboard in a browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}
}

// Build builds the simulation session.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:       xid.New().String(),
		engine:   sim.NewSerialEngine(),
		registry: rules.NewRegistry(),
		running:  react.NewSignal(false),
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowser()
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.RegisterSession(s)
		s.monitor.StartServer()
	}

	return s
}
