package connection

import (
	"strings"
	"testing"
)

// TestConfig_Validate tests connection parameter validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			"valid with database",
			Config{Host: "db.example.com", Port: 3306, User: "testuser", Password: "x", Database: "testdata"},
			false,
		},
		{
			"valid without database",
			Config{Host: "db.example.com", Port: 3306, User: "root", Password: "x"},
			false,
		},
		{
			"missing host",
			Config{Port: 3306, User: "root"},
			true,
		},
		{
			"missing user",
			Config{Host: "db.example.com", Port: 3306},
			true,
		},
		{
			"zero port",
			Config{Host: "db.example.com", User: "root"},
			true,
		},
		{
			"port out of range",
			Config{Host: "db.example.com", Port: 70000, User: "root"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_DSN tests driver connection string generation.
func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			"with database",
			Config{Host: "db.example.com", Port: 3306, User: "testuser", Password: "testpass", Database: "testdata"},
			"testuser:testpass@tcp(db.example.com:3306)/testdata?charset=utf8&autocommit=true",
		},
		{
			"administrative, no database",
			Config{Host: "db.example.com", Port: 3306, User: "root", Password: "changeME"},
			"root:changeME@tcp(db.example.com:3306)/?charset=utf8&autocommit=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.DSN(); got != tt.want {
				t.Errorf("Config.DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestConfig_Redacted tests that the loggable form never carries the
// password.
func TestConfig_Redacted(t *testing.T) {
	cfg := Config{Host: "db.example.com", Port: 3306, User: "testuser", Password: "s3cret", Database: "testdata"}
	got := cfg.Redacted()
	if strings.Contains(got, "s3cret") {
		t.Errorf("Redacted() = %q leaks the password", got)
	}
	if got != "testuser@tcp(db.example.com:3306)/testdata" {
		t.Errorf("Redacted() = %q", got)
	}

	noDB := Config{Host: "db.example.com", Port: 3306, User: "root", Password: "s3cret"}
	if got := noDB.Redacted(); got != "root@tcp(db.example.com:3306)" {
		t.Errorf("Redacted() = %q", got)
	}
}
