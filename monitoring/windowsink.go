// Package monitoring turns a running session into a small web server for
// external observation and control, and provides the window log sink whose
// rows the server exposes.
package monitoring

import (
	"fmt"

	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

// A WindowRow is one logged row as presented in a log window. Unlike the
// file sink, window time is divided by 1000 into floating milliseconds;
// this asymmetry between the two sinks is deliberate and must stay.
type WindowRow struct {
	TimeMs float64 `json:"time_ms"`
	Values []any   `json:"values"`
}

// A WindowSink keeps logged rows in memory for display. It satisfies the
// same two-method destination contract as the file sink.
type WindowSink struct {
	name    string
	columns []string
	rows    []WindowRow
	active  bool
}

var _ rules.Destination = (*WindowSink)(nil)

// NewWindowSink creates a window sink with the given display name and
// declared columns.
func NewWindowSink(name string, columns ...string) *WindowSink {
	if len(columns) == 0 {
		panic("a window sink requires at least one column")
	}

	return &WindowSink{
		name:    name,
		columns: columns,
		active:  true,
	}
}

// Name returns the display name of the sink.
func (s *WindowSink) Name() string {
	return s.name
}

// Columns returns the declared column names.
func (s *WindowSink) Columns() []string {
	return s.columns
}

// Active reports whether the sink still accepts rows.
func (s *WindowSink) Active() bool {
	return s.active
}

// Log appends one row, converting the time to milliseconds. The value
// count must match the declared column count.
func (s *WindowSink) Log(t sim.VTimeInUs, values []any) {
	if len(values) != len(s.columns) {
		panic(fmt.Sprintf(
			"logging %d values into %d declared columns",
			len(values), len(s.columns)))
	}

	if !s.active {
		return
	}

	s.rows = append(s.rows, WindowRow{
		TimeMs: float64(t) / 1000.0,
		Values: values,
	})
}

// Rows returns the rows logged so far.
func (s *WindowSink) Rows() []WindowRow {
	return s.rows
}

// Close deactivates the sink. The retained rows stay readable.
func (s *WindowSink) Close() error {
	s.active = false
	return nil
}
