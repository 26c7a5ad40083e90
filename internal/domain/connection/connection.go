// Package connection provides the MySQL connection configuration and the
// open helper used by every database-facing stage.
package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

const (
	// DefaultPort is the MySQL wire-protocol port.
	DefaultPort = 3306

	pingTimeout = 10 * time.Second
)

// Config describes one endpoint to connect to. Database may be empty for
// administrative connections made before the experiment database exists.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	Database string `json:"database,omitempty"`
}

// Validate validates the connection parameters.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// DSN generates the complete driver connection string. The character set
// is pinned to UTF-8 and statements auto-commit, matching the parameter
// overrides every variant's group carries.
func (c Config) DSN() string {
	if c.Database == "" {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/?charset=utf8&autocommit=true",
			c.User, c.Password, c.Host, c.Port)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8&autocommit=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Redacted generates a connection string without the password, for logs.
func (c Config) Redacted() string {
	if c.Database == "" {
		return fmt.Sprintf("%s@tcp(%s:%d)", c.User, c.Host, c.Port)
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s", c.User, c.Host, c.Port, c.Database)
}

// Open connects and verifies the endpoint with a bounded ping. The caller
// owns the handle and must close it on every exit path.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Redacted(), err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Redacted(), err)
	}
	return db, nil
}
