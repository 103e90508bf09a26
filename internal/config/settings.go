package config

import (
	"context"
	"strconv"
	"time"
)

// SettingsGetter is an interface for retrieving panel settings.
// Keys are "group.varname".
type SettingsGetter interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Loader provides typed access to settings with default values
type Loader struct {
	ctx context.Context
	db  SettingsGetter
}

// NewLoader creates a new settings loader
func NewLoader(ctx context.Context, db SettingsGetter) *Loader {
	return &Loader{ctx: ctx, db: db}
}

func (l *Loader) get(key string) string {
	if l == nil || l.db == nil {
		return ""
	}
	val, _ := l.db.GetSetting(l.ctx, key)
	return val
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.get(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found.
// The panel stores booleans as "1"/"0"; "true"/"false" are accepted as well.
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val := l.get(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.get(key); val != "" {
		return val
	}
	return defaultVal
}

// Duration retrieves a duration setting, returning defaultVal if not found or invalid
// Expects the value to be in Go duration format (e.g., "1h30m", "5s")
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	if val := l.get(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
