package database

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/VividCortex/mysqlerr"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

// ShellMessage is printed instead of the error page when running from a shell
const ShellMessage = "We are sorry, but a MySQL - error occurred. The administrator may find more information in the sql-error.log in the logs/ directory"

var (
	// ErrDriverUnavailable means the configured driver is not registered. Always fatal.
	ErrDriverUnavailable = errors.New("database driver is not available")
	// ErrRowCountUnsupported is returned by RowCount on drivers without FOUND_ROWS()
	ErrRowCountUnsupported = errors.New("row count is not supported by this driver")
	// ErrStatementClosed is returned when executing a statement that was never prepared
	ErrStatementClosed = errors.New("statement is not prepared")
)

// Severity tells the host how to treat a failed operation
type Severity int

const (
	// SeverityFatal failures should stop the request or process
	SeverityFatal Severity = iota
	// SeveritySuppressed failures were logged and the caller carries on
	SeveritySuppressed
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeveritySuppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Error is returned for every failed database operation. The driver error is
// only reachable through Unwrap.
type Error struct {
	Op       string
	Query    string
	Severity Severity
	Err      error
	// Trace is the stack at the point of failure, shown on the error page
	Trace string
}

func (e *Error) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a fatal database error
func IsFatal(err error) bool {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Severity == SeverityFatal
	}
	return false
}

// IsAccessDenied reports whether the server rejected the credentials or the
// database access.
func IsAccessDenied(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == mysqlerr.ER_ACCESS_DENIED_ERROR || myErr.Number == mysqlerr.ER_DBACCESS_DENIED_ERROR
}

// fail logs err to the SQL error log and the application log and wraps it.
// showError=false downgrades the failure to suppressed unless the driver is missing.
func (db *DB) fail(op, query string, err error, showError bool) error {
	severity := SeverityFatal
	if !showError && !errors.Is(err, ErrDriverUnavailable) {
		severity = SeveritySuppressed
	}

	if logErr := db.opts.ErrorLog.Record(err.Error()); logErr != nil {
		log.Warn().Err(logErr).Msg("Failed to write SQL error log")
	}

	log.Error().
		Err(err).
		Str("op", op).
		Str("severity", severity.String()).
		Msg("Database operation failed")

	return &Error{
		Op:       op,
		Query:    query,
		Severity: severity,
		Err:      err,
		Trace:    string(debug.Stack()),
	}
}
