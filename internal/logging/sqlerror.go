package logging

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SQLErrorLogName is the file name of the SQL error log inside the log directory
const SQLErrorLogName = "sql-error.log"

const sqlErrorTimeFormat = "02.01.2006 15:04"

// SQLErrorLog appends one line per database failure so administrators can
// find the error without digging through syslog.
type SQLErrorLog struct {
	path string
	mu   sync.Mutex
	w    *lumberjack.Logger
	now  func() time.Time
}

// NewSQLErrorLog creates the SQL error log below installDir/logs.
// The directory is created on first write.
func NewSQLErrorLog(installDir string) *SQLErrorLog {
	path := filepath.Join(LogDir(installDir), SQLErrorLogName)
	return &SQLErrorLog{
		path: path,
		// Rotated files are never pruned; the error history is append-only.
		w: &lumberjack.Logger{
			Filename: path,
			MaxSize:  DefaultMaxSizeMB,
		},
		now: time.Now,
	}
}

// Path returns the log file path
func (l *SQLErrorLog) Path() string {
	return l.path
}

// Record appends a single line for msg. Failures to write are returned but
// callers typically only log them.
func (l *SQLErrorLog) Record(msg string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ensureLogDir(l.path); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if _, err := l.w.Write([]byte(FormatSQLErrorLine(l.now(), msg))); err != nil {
		return fmt.Errorf("failed to write %s: %w", l.path, err)
	}
	return nil
}

// Close releases the underlying file
func (l *SQLErrorLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

// FormatSQLErrorLine renders "<DD.MM.YYYY HH:MM> --- <message>\n" with
// newlines in the message collapsed to spaces.
func FormatSQLErrorLine(t time.Time, msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", " ")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return t.Format(sqlErrorTimeFormat) + " --- " + msg + "\n"
}
