package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// ErrNoPrivilegedCredentials is returned when a privileged connection is
// requested for a server index that has no credentials configured.
var ErrNoPrivilegedCredentials = errors.New("no privileged credentials configured")

// Userdata is the credential configuration of the panel database
type Userdata struct {
	SQL     SQLConfig    `yaml:"sql"`
	SQLRoot []RootServer `yaml:"sql_root"`
}

// SQLConfig holds the unprivileged panel credentials. RootUser and
// RootPassword are the legacy single-server privileged credentials.
type SQLConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DB           string `yaml:"db"`
	RootUser     string `yaml:"root_user"`
	RootPassword string `yaml:"root_password"`
}

// RootServer is one privileged database server
type RootServer struct {
	Caption  string `yaml:"caption"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Credentials is the resolved set used to open one connection
type Credentials struct {
	Driver   string
	Host     string
	User     string
	Password string
	DB       string
}

// LoadUserdata reads and parses a userdata file
func LoadUserdata(path string) (*Userdata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read userdata %s: %w", path, err)
	}

	var u Userdata
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse userdata %s: %w", path, err)
	}

	if u.SQL.Driver == "" {
		u.SQL.Driver = DriverMySQL
	}
	if u.SQL.Driver != DriverMySQL && u.SQL.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q in %s", u.SQL.Driver, path)
	}

	return &u, nil
}

// RootServers returns the privileged servers, promoting the legacy
// root_user/root_password pair to server 0 when no list is configured.
func (u *Userdata) RootServers() []RootServer {
	if len(u.SQLRoot) > 0 {
		return u.SQLRoot
	}
	if u.SQL.RootUser != "" && u.SQL.RootPassword != "" {
		return []RootServer{{
			Caption:  "Default",
			Host:     u.SQL.Host,
			User:     u.SQL.RootUser,
			Password: u.SQL.RootPassword,
		}}
	}
	return nil
}

// Credentials selects the credential set for the given mode and server index
func (u *Userdata) Credentials(privileged bool, server int) (Credentials, error) {
	driver := u.SQL.Driver
	if driver == "" {
		driver = DriverMySQL
	}

	if !privileged {
		return Credentials{
			Driver:   driver,
			Host:     u.SQL.Host,
			User:     u.SQL.User,
			Password: u.SQL.Password,
			DB:       u.SQL.DB,
		}, nil
	}

	servers := u.RootServers()
	if server < 0 || server >= len(servers) {
		return Credentials{}, fmt.Errorf("%w for server %d", ErrNoPrivilegedCredentials, server)
	}

	root := servers[server]
	return Credentials{
		Driver:   driver,
		Host:     root.Host,
		User:     root.User,
		Password: root.Password,
		DB:       u.SQL.DB,
	}, nil
}

// Source provides userdata each time a connection is opened
type Source interface {
	Load() (*Userdata, error)
}

// FileSource re-reads the userdata file on every Load
type FileSource string

// Load implements Source
func (f FileSource) Load() (*Userdata, error) {
	return LoadUserdata(string(f))
}

// StaticSource always returns the same userdata
type StaticSource struct {
	Userdata *Userdata
}

// Load implements Source
func (s StaticSource) Load() (*Userdata, error) {
	if s.Userdata == nil {
		return nil, errors.New("no userdata configured")
	}
	return s.Userdata, nil
}
