package database

import (
	"context"
	"database/sql"
	"errors"
)

// Exec runs a statement that returns no rows
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, _, err := db.handle(ctx)
	if err != nil {
		return nil, db.fail("connect", query, err, true)
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, db.fail("exec", query, err, true)
	}
	return res, nil
}

// Query runs a statement that returns rows. The rows must be closed before
// the next operation on the same context.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, _, err := db.handle(ctx)
	if err != nil {
		return nil, db.fail("connect", query, err, true)
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.fail("query", query, err, true)
	}
	return rows, nil
}

// Row is the result of QueryRow
type Row struct {
	db    *DB
	query string
	row   *sql.Row
	err   error
}

// QueryRow runs a query expected to return at most one row
func (db *DB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	conn, _, err := db.handle(ctx)
	if err != nil {
		return &Row{err: db.fail("connect", query, err, true)}
	}
	return &Row{db: db, query: query, row: conn.QueryRowContext(ctx, query, args...)}
}

// Scan copies the row into dest. sql.ErrNoRows is returned as is and is not
// treated as a failure.
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	err := r.row.Scan(dest...)
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return r.db.fail("query", r.query, err, true)
}

// Stmt is a prepared statement bound to the handle it was prepared on.
// It becomes unusable once NeedRoot drops that handle.
type Stmt struct {
	query string
	stmt  *sql.Stmt
}

// Query returns the statement text
func (s *Stmt) Query() string {
	return s.query
}

// Close releases the statement
func (s *Stmt) Close() error {
	if s == nil || s.stmt == nil {
		return nil
	}
	return s.stmt.Close()
}

// Prepare creates a prepared statement for later Execute calls
func (db *DB) Prepare(ctx context.Context, query string) (*Stmt, error) {
	conn, _, err := db.handle(ctx)
	if err != nil {
		return nil, db.fail("connect", query, err, true)
	}
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, db.fail("prepare", query, err, true)
	}
	return &Stmt{query: query, stmt: stmt}, nil
}

// Execute runs a prepared statement. With showError=false a failure is
// logged, reported as suppressed and the result is nil.
func (db *DB) Execute(ctx context.Context, stmt *Stmt, args []any, showError bool) (sql.Result, error) {
	if stmt == nil || stmt.stmt == nil {
		return nil, db.fail("execute", "", ErrStatementClosed, showError)
	}
	res, err := stmt.stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, db.fail("execute", stmt.query, err, showError)
	}
	return res, nil
}

// ExecuteQuery is Execute for statements that return rows
func (db *DB) ExecuteQuery(ctx context.Context, stmt *Stmt, args []any, showError bool) (*sql.Rows, error) {
	if stmt == nil || stmt.stmt == nil {
		return nil, db.fail("execute", "", ErrStatementClosed, showError)
	}
	rows, err := stmt.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, db.fail("execute", stmt.query, err, showError)
	}
	return rows, nil
}

// RowCount returns the number of rows the last SELECT SQL_CALC_FOUND_ROWS
// would have matched without LIMIT. Only MySQL supports it; rows of the
// previous query must already be closed.
func (db *DB) RowCount(ctx context.Context) (int64, error) {
	_, driver, err := db.handle(ctx)
	if err != nil {
		return 0, db.fail("connect", "SELECT FOUND_ROWS()", err, true)
	}
	if driver != "mysql" {
		return 0, db.fail("rowcount", "", ErrRowCountUnsupported, true)
	}

	var n int64
	if err := db.QueryRow(ctx, "SELECT FOUND_ROWS()").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ServerVersion returns the version string reported by the database server
func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	_, driver, err := db.handle(ctx)
	if err != nil {
		return "", db.fail("connect", "", err, true)
	}

	query := "SELECT VERSION()"
	if driver == "sqlite" {
		query = "SELECT sqlite_version()"
	}

	var version string
	if err := db.QueryRow(ctx, query).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
