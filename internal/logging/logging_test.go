package logging

import (
	"context"
	"testing"

	"github.com/saltyorg/panelcore/internal/config"
)

type settingsMap map[string]string

func (m settingsMap) GetSetting(_ context.Context, key string) (string, error) {
	return m[key], nil
}

func TestFileLogger(t *testing.T) {
	tests := []struct {
		name       string
		settings   settingsMap
		maxSize    int
		maxBackups int
		maxAge     int
		compress   bool
	}{
		{
			name:       "defaults without settings",
			maxSize:    DefaultMaxSizeMB,
			maxBackups: DefaultMaxBackups,
			maxAge:     DefaultMaxAgeDays,
			compress:   DefaultCompress,
		},
		{
			name: "valid settings",
			settings: settingsMap{
				"log.max_size_mb":  "10",
				"log.max_backups":  "0",
				"log.max_age_days": "7",
				"log.compress":     "0",
			},
			maxSize:    10,
			maxBackups: 0,
			maxAge:     7,
			compress:   false,
		},
		{
			name: "out of range settings fall back",
			settings: settingsMap{
				"log.max_size_mb":  "0",
				"log.max_backups":  "-1",
				"log.max_age_days": "-30",
			},
			maxSize:    DefaultMaxSizeMB,
			maxBackups: DefaultMaxBackups,
			maxAge:     DefaultMaxAgeDays,
			compress:   DefaultCompress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loader *config.Loader
			if tt.settings != nil {
				loader = config.NewLoader(context.Background(), tt.settings)
			}

			w := fileLogger("/var/log/panel/panelcore.log", loader)
			if w.MaxSize != tt.maxSize || w.MaxBackups != tt.maxBackups || w.MaxAge != tt.maxAge || w.Compress != tt.compress {
				t.Fatalf("got size=%d backups=%d age=%d compress=%v", w.MaxSize, w.MaxBackups, w.MaxAge, w.Compress)
			}
		})
	}
}
