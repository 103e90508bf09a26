package config

import "time"

// TimeoutConfig holds timeout settings for various operations.
// These can be configured via CLI flags to tune performance for different environments.
type TimeoutConfig struct {
	// Connect bounds dialing and pinging the database server. Default: 10s
	Connect time.Duration

	// UpdateCheck is the timeout for the release lookup. Default: 10s
	UpdateCheck time.Duration

	// HTTPRequest bounds each API request including its database work.
	// Default: 60s
	HTTPRequest time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Connect:     10 * time.Second,
		UpdateCheck: 10 * time.Second,
		HTTPRequest: 60 * time.Second,
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
