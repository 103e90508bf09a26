package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/panelcore/internal/database"
	"github.com/saltyorg/panelcore/internal/httpclient"
)

const (
	// DefaultReleaseURL returns the latest release as GitHub JSON
	DefaultReleaseURL = "https://api.github.com/repos/saltyorg/panelcore/releases/latest"
	// DefaultCheckSchedule is the cron spec of the background update check
	DefaultCheckSchedule = "@every 6h"
)

// Options configures a Service
type Options struct {
	Version       string
	Commit        string
	Date          string
	ReleaseURL    string
	CheckSchedule string
	HTTPClient    *http.Client
}

// Service implements Reporter
type Service struct {
	opts    Options
	started time.Time
	hooks   hooks

	mu     sync.RWMutex
	update *UpdateStatus

	cron *cron.Cron
}

var _ Reporter = (*Service)(nil)

// NewService creates a status service. Call Start to enable periodic update checks.
func NewService(opts Options) *Service {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ReleaseURL == "" {
		opts.ReleaseURL = DefaultReleaseURL
	}
	if opts.CheckSchedule == "" {
		opts.CheckSchedule = DefaultCheckSchedule
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpclient.New("update-check", "panelcore/"+opts.Version, 0)
	}
	return &Service{
		opts:    opts,
		started: time.Now(),
	}
}

// Start schedules the background update check and runs the first one.
// Development builds never check.
func (s *Service) Start() error {
	if isDevVersion(s.opts.Version) {
		log.Debug().Msg("Skipping update checker for dev version")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.opts.CheckSchedule, s.backgroundCheck); err != nil {
		return fmt.Errorf("invalid update check schedule %q: %w", s.opts.CheckSchedule, err)
	}
	s.cron = c
	c.Start()

	go s.backgroundCheck()
	return nil
}

// Stop halts the background update check
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Service) backgroundCheck() {
	if _, err := s.checkForUpdates(context.Background()); err != nil {
		log.Debug().Err(err).Msg("Failed to check for updates")
	}
}

// StatusVersion implements Reporter
func (s *Service) StatusVersion(context.Context) string {
	return s.opts.Version
}

// StatusAPIVersion implements Reporter
func (s *Service) StatusAPIVersion(context.Context) string {
	return APIVersion
}

// StatusUpdate implements Reporter. The cached result of the last check is
// used; the first call checks synchronously.
func (s *Service) StatusUpdate(ctx context.Context) (*UpdateStatus, error) {
	var status UpdateStatus

	if isDevVersion(s.opts.Version) {
		status = UpdateStatus{
			Current: s.opts.Version,
			Message: "Update check is disabled for development builds.",
		}
	} else {
		s.mu.RLock()
		cached := s.update
		s.mu.RUnlock()

		if cached == nil {
			var err error
			if cached, err = s.checkForUpdates(ctx); err != nil {
				return nil, err
			}
		}
		status = *cached
	}

	s.hooks.runUpdate(ctx, &status)
	return &status, nil
}

// StatusSystem implements Reporter. Database details are included when a
// connection context is attached to ctx.
func (s *Service) StatusSystem(ctx context.Context) (*SystemInfo, error) {
	hostname, err := os.Hostname()
	if err != nil {
		log.Debug().Err(err).Msg("Failed to get hostname")
		hostname = "unknown"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := &SystemInfo{
		Hostname:     hostname,
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		StartedAt:    humanize.Time(s.started),
		HeapAlloc:    humanize.IBytes(mem.HeapAlloc),
		PanelVersion: s.opts.Version,
		Commit:       s.opts.Commit,
		BuildDate:    s.opts.Date,
		APIVersion:   APIVersion,
	}

	if db := database.Get(ctx); db != nil {
		version, err := db.ServerVersion(ctx)
		if err != nil {
			return nil, err
		}
		info.DBDriver = db.Driver()
		info.DBVersion = version
	}

	s.hooks.runSystem(ctx, info)
	return info, nil
}
