// Package dbtest provides an instrumented database/sql driver for tests.
// It records every statement it receives, can be told to fail statements
// matching a substring, and serves canned result sets for queries.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Rows is a canned result set.
type Rows struct {
	Columns []string
	Values  [][]driver.Value
}

type failure struct {
	substr string
	err    error
}

type fixture struct {
	substr string
	rows   Rows
}

// Recorder records statements executed through connections it opened.
type Recorder struct {
	mu       sync.Mutex
	execs    []string
	queries  []string
	failures []failure
	fixtures []fixture
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Open returns a sqlx handle backed by r. driverName only selects the
// placeholder style sqlx rebinds to.
func (r *Recorder) Open(driverName string) *sqlx.DB {
	return sqlx.NewDb(sql.OpenDB(connector{r}), driverName)
}

// FailExec makes every Exec whose SQL contains substr return err.
func (r *Recorder) FailExec(substr string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure{substr: substr, err: err})
}

// ClearFailures removes all registered failures.
func (r *Recorder) ClearFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = nil
}

// SetRows serves rows to every query whose SQL contains substr.
func (r *Recorder) SetRows(substr string, rows Rows) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixtures = append(r.fixtures, fixture{substr: substr, rows: rows})
}

// Execs returns a copy of the executed statements, oldest first.
func (r *Recorder) Execs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.execs...)
}

// Queries returns a copy of the queries received, oldest first.
func (r *Recorder) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// CountExecs returns how many executed statements contain substr.
func (r *Recorder) CountExecs(substr string) int {
	n := 0
	for _, s := range r.Execs() {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

// Reset forgets recorded statements but keeps failures and fixtures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = nil
	r.queries = nil
}

func (r *Recorder) exec(query string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, query)
	for _, f := range r.failures {
		if strings.Contains(query, f.substr) {
			return f.err
		}
	}
	return nil
}

func (r *Recorder) query(query string) (driver.Rows, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	for _, f := range r.fixtures {
		if strings.Contains(query, f.substr) {
			return &rows{cols: f.rows.Columns, values: f.rows.Values}, nil
		}
	}
	return &rows{}, nil
}

// Conn adapts a Recorder to the connection factory contract.
type Conn struct {
	*Recorder
	db       *sqlx.DB
	identity string
}

// NewConn returns a recording connection reporting identity. driverName
// picks sqlx's placeholder style ("pgx", "mysql", "sqlserver", "sqlite").
func NewConn(identity, driverName string) *Conn {
	r := New()
	return &Conn{Recorder: r, db: r.Open(driverName), identity: identity}
}

func (c *Conn) DB() *sqlx.DB      { return c.db }
func (c *Conn) Identity() string { return c.identity }

type connector struct{ r *Recorder }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{r: c.r}, nil }
func (c connector) Driver() driver.Driver                        { return drv{r: c.r} }

type drv struct{ r *Recorder }

func (d drv) Open(string) (driver.Conn, error) { return &conn{r: d.r}, nil }

type conn struct{ r *Recorder }

func (c *conn) Prepare(query string) (driver.Stmt, error) { return &stmt{r: c.r, query: query}, nil }
func (c *conn) Close() error                              { return nil }
func (c *conn) Begin() (driver.Tx, error)                 { return nil, errors.New("dbtest: transactions not supported") }

func (c *conn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if err := c.r.exec(query); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

func (c *conn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	return c.r.query(query)
}

type stmt struct {
	r     *Recorder
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec([]driver.Value) (driver.Result, error) {
	if err := s.r.exec(s.query); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

func (s *stmt) Query([]driver.Value) (driver.Rows, error) {
	return s.r.query(s.query)
}

type rows struct {
	cols   []string
	values [][]driver.Value
	pos    int
}

func (r *rows) Columns() []string { return r.cols }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.pos])
	r.pos++
	return nil
}
