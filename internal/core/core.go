// Package core implements the status part of the panel API: release and API
// versions, update availability and system information.
package core

import (
	"context"
	"time"
)

// APIVersion is the version of the panel API served by this build
const APIVersion = "1.0.0"

// Reporter answers the read-only core status queries
type Reporter interface {
	// StatusVersion returns the current release version
	StatusVersion(ctx context.Context) string
	// StatusAPIVersion returns the current API version
	StatusAPIVersion(ctx context.Context) string
	// StatusUpdate reports whether a newer release is available
	StatusUpdate(ctx context.Context) (*UpdateStatus, error)
	// StatusSystem returns various system information
	StatusSystem(ctx context.Context) (*SystemInfo, error)
}

// UpdateStatus is the result of the release lookup
type UpdateStatus struct {
	Current   string    `json:"current"`
	Latest    string    `json:"latest,omitempty"`
	Available bool      `json:"available"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checked_at,omitzero"`
}

// SystemInfo describes the host and the running panel
type SystemInfo struct {
	Hostname     string `json:"hostname"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	Uptime       string `json:"uptime"`
	StartedAt    string `json:"started_at"`
	HeapAlloc    string `json:"heap_alloc"`
	PanelVersion string `json:"panel_version"`
	Commit       string `json:"commit,omitempty"`
	BuildDate    string `json:"build_date,omitempty"`
	APIVersion   string `json:"api_version"`
	DBDriver     string `json:"db_driver,omitempty"`
	DBVersion    string `json:"db_version,omitempty"`
	// Extra is filled by statusSystem_beforeReturn hooks
	Extra map[string]string `json:"extra,omitempty"`
}
