package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(_ context.Context, key string) (string, error) {
	return m[key], nil
}

type failingSettings struct{}

func (failingSettings) GetSetting(context.Context, string) (string, error) {
	return "", errors.New("database down")
}

func TestLoader(t *testing.T) {
	l := NewLoader(context.Background(), mapSettings{
		"log.max_size_mb":  "20",
		"log.compress":     "0",
		"panel.version":    "2.1.0",
		"update.interval":  "2h",
		"log.max_backups":  "lots",
		"system.debug":     "1",
		"update.check_url": "",
	})

	if got := l.Int("log.max_size_mb", 50); got != 20 {
		t.Fatalf("Int: expected 20, got %d", got)
	}
	if got := l.Int("log.max_backups", 5); got != 5 {
		t.Fatalf("Int with invalid value: expected default 5, got %d", got)
	}
	if got := l.Bool("log.compress", true); got {
		t.Fatal("Bool: expected false for \"0\"")
	}
	if got := l.Bool("system.debug", false); !got {
		t.Fatal("Bool: expected true for \"1\"")
	}
	if got := l.String("panel.version", "dev"); got != "2.1.0" {
		t.Fatalf("String: expected 2.1.0, got %q", got)
	}
	if got := l.String("update.check_url", "https://example.invalid"); got != "https://example.invalid" {
		t.Fatalf("String with empty value: expected default, got %q", got)
	}
	if got := l.Duration("update.interval", time.Hour); got != 2*time.Hour {
		t.Fatalf("Duration: expected 2h, got %s", got)
	}
}

func TestLoader_FallsBackOnError(t *testing.T) {
	l := NewLoader(context.Background(), failingSettings{})
	if got := l.Int("log.max_size_mb", 50); got != 50 {
		t.Fatalf("expected default 50, got %d", got)
	}
}

func TestLoader_NilIsSafe(t *testing.T) {
	var l *Loader
	if got := l.String("anything", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
