package recording

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
)

// A SQLiteSink records logged rows into one table of a SQLite database.
// The schema is TimeUs plus the declared columns; inserts are batched and
// flushed at teardown and at exit.
type SQLiteSink struct {
	db      *sql.DB
	table   string
	columns []string

	buffered  [][]any
	batchSize int

	active bool
}

var _ rules.Destination = (*SQLiteSink)(nil)

// SQLiteSinkBuilder can build SQLite sinks.
type SQLiteSinkBuilder struct {
	session sim.Session
	path    string
	table   string
	columns []string
}

// MakeSQLiteSinkBuilder creates a builder with the default table name.
func MakeSQLiteSinkBuilder() SQLiteSinkBuilder {
	return SQLiteSinkBuilder{table: "rows"}
}

// WithSession sets the owning session.
func (b SQLiteSinkBuilder) WithSession(s sim.Session) SQLiteSinkBuilder {
	b.session = s
	return b
}

// WithPath sets the database path, without the .sqlite3 suffix.
func (b SQLiteSinkBuilder) WithPath(path string) SQLiteSinkBuilder {
	b.path = path
	return b
}

// WithTable sets the table name.
func (b SQLiteSinkBuilder) WithTable(table string) SQLiteSinkBuilder {
	b.table = table
	return b
}

// WithColumns declares the value columns, in row order.
func (b SQLiteSinkBuilder) WithColumns(columns ...string) SQLiteSinkBuilder {
	b.columns = columns
	return b
}

// Build creates the database file and the table.
func (b SQLiteSinkBuilder) Build() *SQLiteSink {
	if b.session == nil {
		panic("a sqlite sink requires a session")
	}
	if len(b.columns) == 0 {
		panic("a sqlite sink requires at least one column")
	}

	path := b.path
	if path == "" {
		path = "memscope_log_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	s := &SQLiteSink{
		db:        db,
		table:     b.table,
		columns:   b.columns,
		batchSize: 1024,
		active:    true,
	}

	s.createTable()

	b.session.AtTeardown(s.Close)
	atexit.Register(func() { s.Flush() })

	return s
}

func (s *SQLiteSink) createTable() {
	fields := make([]string, 0, len(s.columns)+1)
	fields = append(fields, "TimeUs")
	fields = append(fields, s.columns...)

	s.mustExecute(`CREATE TABLE ` + s.table +
		` (` + "\n\t" + strings.Join(fields, ", \n\t") + "\n" + `);`)
}

func (s *SQLiteSink) mustExecute(query string) {
	if _, err := s.db.Exec(query); err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}
}

// Active reports whether the sink still accepts rows.
func (s *SQLiteSink) Active() bool {
	return s.active
}

// Log buffers one row. The value count must match the declared column
// count; a mismatch panics before anything is written.
func (s *SQLiteSink) Log(t sim.VTimeInUs, values []any) {
	if len(values) != len(s.columns) {
		panic(fmt.Sprintf(
			"logging %d values into %d declared columns",
			len(values), len(s.columns)))
	}

	if !s.active {
		return
	}

	row := make([]any, 0, len(values)+1)
	row = append(row, int64(t))
	row = append(row, values...)

	s.buffered = append(s.buffered, row)
	if len(s.buffered) >= s.batchSize {
		s.Flush()
	}
}

// Flush writes all buffered rows in one transaction.
func (s *SQLiteSink) Flush() {
	if len(s.buffered) == 0 {
		return
	}

	placeholders := make([]string, len(s.columns)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := s.db.Prepare("INSERT INTO " + s.table +
		" VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	s.mustExecute("BEGIN TRANSACTION")
	defer s.mustExecute("COMMIT TRANSACTION")

	for _, row := range s.buffered {
		if _, err := stmt.Exec(row...); err != nil {
			panic(err)
		}
	}

	s.buffered = nil
}

// DB exposes the underlying database, e.g. for queries in tests.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

// Close flushes buffered rows, closes the database, and deactivates the
// sink.
func (s *SQLiteSink) Close() error {
	if !s.active {
		return nil
	}

	s.Flush()
	s.active = false

	return s.db.Close()
}
