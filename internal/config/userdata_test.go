package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeUserdata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "userdata.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write userdata: %v", err)
	}
	return path
}

func TestLoadUserdata_DefaultsDriver(t *testing.T) {
	path := writeUserdata(t, `
sql:
  host: localhost
  user: panel
  password: secret
  db: panel
`)

	u, err := LoadUserdata(path)
	if err != nil {
		t.Fatalf("LoadUserdata returned error: %v", err)
	}
	if u.SQL.Driver != DriverMySQL {
		t.Fatalf("expected driver %q, got %q", DriverMySQL, u.SQL.Driver)
	}
}

func TestLoadUserdata_RejectsUnknownDriver(t *testing.T) {
	path := writeUserdata(t, `
sql:
  driver: oracle
  db: panel
`)

	if _, err := LoadUserdata(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadUserdata_MissingFile(t *testing.T) {
	if _, err := LoadUserdata(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name       string
		userdata   Userdata
		privileged bool
		server     int
		expected   Credentials
		wantErr    error
	}{
		{
			name: "normal user",
			userdata: Userdata{SQL: SQLConfig{
				Host: "db1", User: "panel", Password: "pw", DB: "panel",
			}},
			expected: Credentials{Driver: DriverMySQL, Host: "db1", User: "panel", Password: "pw", DB: "panel"},
		},
		{
			name: "legacy root promoted to server 0",
			userdata: Userdata{SQL: SQLConfig{
				Host: "db1", User: "panel", Password: "pw", DB: "panel",
				RootUser: "root", RootPassword: "rootpw",
			}},
			privileged: true,
			expected:   Credentials{Driver: DriverMySQL, Host: "db1", User: "root", Password: "rootpw", DB: "panel"},
		},
		{
			name: "root list wins over legacy pair",
			userdata: Userdata{
				SQL: SQLConfig{Host: "db1", DB: "panel", RootUser: "legacy", RootPassword: "x"},
				SQLRoot: []RootServer{
					{Caption: "Default", Host: "db1", User: "root", Password: "a"},
					{Caption: "Second", Host: "db2", User: "admin", Password: "b"},
				},
			},
			privileged: true,
			server:     1,
			expected:   Credentials{Driver: DriverMySQL, Host: "db2", User: "admin", Password: "b", DB: "panel"},
		},
		{
			name:       "privileged without any root credentials",
			userdata:   Userdata{SQL: SQLConfig{Host: "db1", User: "panel", DB: "panel"}},
			privileged: true,
			wantErr:    ErrNoPrivilegedCredentials,
		},
		{
			name: "privileged with unknown server index",
			userdata: Userdata{
				SQL:     SQLConfig{DB: "panel"},
				SQLRoot: []RootServer{{Host: "db1", User: "root"}},
			},
			privileged: true,
			server:     3,
			wantErr:    ErrNoPrivilegedCredentials,
		},
		{
			name: "sqlite driver carried through",
			userdata: Userdata{SQL: SQLConfig{
				Driver: DriverSQLite, DB: "/tmp/panel.db",
			}},
			expected: Credentials{Driver: DriverSQLite, DB: "/tmp/panel.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.userdata.Credentials(tt.privileged, tt.server)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestFileSourceRereadsFile(t *testing.T) {
	path := writeUserdata(t, "sql:\n  user: first\n  db: panel\n")
	src := FileSource(path)

	u, err := src.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if u.SQL.User != "first" {
		t.Fatalf("expected user first, got %q", u.SQL.User)
	}

	if err := os.WriteFile(path, []byte("sql:\n  user: second\n  db: panel\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite userdata: %v", err)
	}

	u, err = src.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if u.SQL.User != "second" {
		t.Fatalf("expected user second, got %q", u.SQL.User)
	}
}
