package database

import "context"

// Manager is the approved entrypoint for database access across the app.
// It hands out one connection context per request or command; there is no
// process-wide handle.
type Manager struct {
	opts Options
}

// NewManager creates a manager that builds contexts from opts
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Session returns a fresh, unconnected connection context
func (m *Manager) Session() *DB {
	return New(m.opts)
}

type contextKey struct{}

// With returns a context carrying db
func With(ctx context.Context, db *DB) context.Context {
	return context.WithValue(ctx, contextKey{}, db)
}

// Get returns the connection context stored by With, or nil
func Get(ctx context.Context) *DB {
	db, _ := ctx.Value(contextKey{}).(*DB)
	return db
}
