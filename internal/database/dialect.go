package database

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/saltyorg/panelcore/internal/config"
)

const defaultMySQLPort = "3306"

// buildDSN returns the database/sql driver name and the data source name for creds
func buildDSN(creds config.Credentials, timeout time.Duration) (string, string, error) {
	switch creds.Driver {
	case config.DriverMySQL, "":
		cfg := mysql.NewConfig()
		cfg.User = creds.User
		cfg.Passwd = creds.Password
		cfg.Net, cfg.Addr = mysqlAddr(creds.Host)
		cfg.DBName = creds.DB
		cfg.Timeout = timeout
		cfg.Params = map[string]string{"charset": "utf8"}
		return "mysql", cfg.FormatDSN(), nil
	case config.DriverSQLite:
		if creds.DB == "" {
			return "", "", errors.New("sqlite database path is empty")
		}
		return "sqlite", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", creds.DB), nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrDriverUnavailable, creds.Driver)
	}
}

// mysqlAddr maps a configured host to network and address. Absolute paths are
// unix sockets; hosts without a port get the MySQL default.
func mysqlAddr(host string) (string, string) {
	if host == "" {
		host = "localhost"
	}
	if strings.HasPrefix(host, "/") {
		return "unix", host
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "tcp", host
	}
	return "tcp", net.JoinHostPort(host, defaultMySQLPort)
}

func describeHost(creds config.Credentials) string {
	if creds.Driver == config.DriverSQLite {
		return creds.DB
	}
	if creds.Host == "" {
		return "localhost"
	}
	return creds.Host
}
