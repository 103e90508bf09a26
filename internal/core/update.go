package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/panelcore/internal/config"
)

// githubRelease represents the response from GitHub releases API
type githubRelease struct {
	TagName string `json:"tag_name"`
}

func isDevVersion(version string) bool {
	return version == "" || version == "dev" || version == "0.0.0-dev"
}

// checkForUpdates fetches the latest release and caches the resulting status
func (s *Service) checkForUpdates(ctx context.Context) (*UpdateStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetTimeouts().UpdateCheck)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.ReleaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update check returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse update check response: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" {
		return nil, fmt.Errorf("update check returned no release tag")
	}

	newer, err := isNewer(s.opts.Version, latest)
	if err != nil {
		return nil, err
	}

	status := &UpdateStatus{
		Current:   s.opts.Version,
		Latest:    latest,
		Available: newer,
		CheckedAt: time.Now(),
	}
	if newer {
		status.Message = fmt.Sprintf("There is a newer version available: %s (installed: %s).", latest, s.opts.Version)
		log.Info().
			Str("current", s.opts.Version).
			Str("latest", latest).
			Msg("Update available")
	} else {
		status.Message = "You already have the latest version installed."
	}

	s.mu.Lock()
	s.update = status
	s.mu.Unlock()

	return status, nil
}

// isNewer reports whether latest is a higher semantic version than current
func isNewer(current, latest string) (bool, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	lat, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	return lat.GreaterThan(cur), nil
}
