package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/saltyorg/panelcore/internal/config"
	"github.com/saltyorg/panelcore/internal/logging"
)

// Opener opens a database handle. sql.Open is used when none is set.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Options is shared by every connection context built from the same Manager
type Options struct {
	// Source provides the credentials, read again on every connect
	Source config.Source
	// ErrorLog receives one line per failed operation
	ErrorLog *logging.SQLErrorLog
	Opener   Opener
	// Drivers lists the registered database/sql drivers (sql.Drivers by default)
	Drivers func() []string
}

// DB is a connection context: the lazily opened handle plus the privilege
// mode and server index it was opened for. It is meant to live for one
// request or one CLI invocation.
type DB struct {
	opts Options

	mu       sync.Mutex
	conn     *sql.DB
	driver   string
	needRoot bool
	server   int
}

// New creates a connection context. No connection is made until the first
// operation.
func New(opts Options) *DB {
	if opts.Opener == nil {
		opts.Opener = sql.Open
	}
	if opts.Drivers == nil {
		opts.Drivers = sql.Drivers
	}
	return &DB{opts: opts}
}

// NeedRoot switches between the unprivileged and the privileged credentials
// of the given server. Any open handle is dropped so the next operation
// reconnects with the selected user. Call it again with false to go back to
// the normal connection.
func (db *DB) NeedRoot(needRoot bool, server int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.dropLocked()
	db.needRoot = needRoot
	db.server = server
}

// Privileged reports the selected mode and server index
func (db *DB) Privileged() (bool, int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.needRoot, db.server
}

// Connected reports whether a handle is currently open
func (db *DB) Connected() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn != nil
}

// Driver returns the driver of the open handle, empty when not connected
func (db *DB) Driver() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.driver
}

// Close closes the open handle, if any
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	db.driver = ""
	return err
}

func (db *DB) dropLocked() {
	if db.conn == nil {
		return
	}
	if err := db.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close database handle")
	}
	db.conn = nil
	db.driver = ""
}

// handle returns the open handle, connecting first if necessary
func (db *DB) handle(ctx context.Context) (*sql.DB, string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return db.conn, db.driver, nil
	}

	if db.opts.Source == nil {
		return nil, "", errors.New("no credential source configured")
	}
	userdata, err := db.opts.Source.Load()
	if err != nil {
		return nil, "", err
	}
	creds, err := userdata.Credentials(db.needRoot, db.server)
	if err != nil {
		return nil, "", err
	}

	timeout := config.GetTimeouts().Connect
	driverName, dsn, err := buildDSN(creds, timeout)
	if err != nil {
		return nil, "", err
	}
	if !slices.Contains(db.opts.Drivers(), driverName) {
		return nil, "", fmt.Errorf("%w: %s", ErrDriverUnavailable, driverName)
	}

	conn, err := db.opts.Opener(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	// One session per context so session state such as FOUND_ROWS() survives
	// between statements.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("failed to connect to %s as %s: %w", describeHost(creds), creds.User, err)
	}

	log.Debug().
		Str("driver", driverName).
		Str("host", describeHost(creds)).
		Str("user", creds.User).
		Bool("privileged", db.needRoot).
		Int("server", db.server).
		Msg("Database connection established")

	db.conn = conn
	db.driver = driverName
	return conn, driverName, nil
}
