// Package recording provides the persistent log destinations: a plain text
// file sink and a SQLite sink.
package recording

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

// A FileSink writes one text line per logged row. The target file is
// truncated or created when the sink is built. Output is buffered and
// flushed whenever the owning session stops running; the session teardown
// closes the file and deactivates the sink.
type FileSink struct {
	file *os.File
	w    *bufio.Writer

	columns    []string
	timeColumn string
	separator  string

	active bool
}

var _ rules.Destination = (*FileSink)(nil)

// FileSinkBuilder can build file sinks.
type FileSinkBuilder struct {
	session    sim.Session
	path       string
	columns    []string
	timeColumn string
	separator  string
	noHeader   bool
}

// MakeFileSinkBuilder creates a builder with the default field separator,
// a single tab.
func MakeFileSinkBuilder() FileSinkBuilder {
	return FileSinkBuilder{separator: "\t"}
}

// WithSession sets the owning session.
func (b FileSinkBuilder) WithSession(s sim.Session) FileSinkBuilder {
	b.session = s
	return b
}

// WithPath sets the target file path.
func (b FileSinkBuilder) WithPath(path string) FileSinkBuilder {
	b.path = path
	return b
}

// WithColumns declares the value columns, in row order.
func (b FileSinkBuilder) WithColumns(columns ...string) FileSinkBuilder {
	b.columns = columns
	return b
}

// WithTimeColumn enables the leading time column under the given name.
// Time is logged as a raw integer in microseconds, unconverted.
func (b FileSinkBuilder) WithTimeColumn(name string) FileSinkBuilder {
	b.timeColumn = name
	return b
}

// WithSeparator sets the field separator.
func (b FileSinkBuilder) WithSeparator(sep string) FileSinkBuilder {
	b.separator = sep
	return b
}

// WithoutHeader suppresses the header line.
func (b FileSinkBuilder) WithoutHeader() FileSinkBuilder {
	b.noHeader = true
	return b
}

// Build creates the file sink, truncating or creating the target file and
// writing the header line.
func (b FileSinkBuilder) Build() *FileSink {
	if b.session == nil {
		panic("a file sink requires a session")
	}
	if len(b.columns) == 0 {
		panic("a file sink requires at least one column")
	}

	file, err := os.Create(b.path)
	if err != nil {
		panic(err)
	}

	s := &FileSink{
		file:       file,
		w:          bufio.NewWriter(file),
		columns:    b.columns,
		timeColumn: b.timeColumn,
		separator:  b.separator,
		active:     true,
	}

	if !b.noHeader {
		s.writeHeader()
	}

	b.session.Running().OnChange(func(running bool) {
		if !running {
			s.Flush()
		}
	})

	b.session.AtTeardown(s.Close)
	atexit.Register(func() { s.Flush() })

	return s
}

func (s *FileSink) writeHeader() {
	fields := make([]string, 0, len(s.columns)+1)
	if s.timeColumn != "" {
		fields = append(fields, s.timeColumn)
	}
	fields = append(fields, s.columns...)

	fmt.Fprintln(s.w, strings.Join(fields, s.separator))
}

// Active reports whether the sink still accepts rows.
func (s *FileSink) Active() bool {
	return s.active
}

// Log writes one row. The value count must match the declared column
// count; a mismatch is a precondition violation and panics before any
// partial write.
func (s *FileSink) Log(t sim.VTimeInUs, values []any) {
	if len(values) != len(s.columns) {
		panic(fmt.Sprintf(
			"logging %d values into %d declared columns",
			len(values), len(s.columns)))
	}

	if !s.active {
		return
	}

	fields := make([]string, 0, len(values)+1)
	if s.timeColumn != "" {
		fields = append(fields, strconv.FormatInt(int64(t), 10))
	}
	for _, v := range values {
		fields = append(fields, fmt.Sprint(v))
	}

	fmt.Fprintln(s.w, strings.Join(fields, s.separator))
}

// Flush forces buffered output to the file.
func (s *FileSink) Flush() {
	if !s.active {
		return
	}

	if err := s.w.Flush(); err != nil {
		log.Printf("flushing log file: %v", err)
	}
}

// Close flushes and closes the file and deactivates the sink. Close errors
// are returned so the session can report them without blocking other
// destinations' teardown.
func (s *FileSink) Close() error {
	if !s.active {
		return nil
	}

	s.Flush()
	s.active = false

	return s.file.Close()
}
