// Package config provides the run configuration every component receives
// at construction. Nothing reads configuration from shared process state.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dfraser/rds-paramlab/internal/domain/connection"
	"github.com/dfraser/rds-paramlab/internal/domain/experiment"
	"github.com/dfraser/rds-paramlab/internal/domain/profile"
)

var (
	// ErrInvalidConfiguration is returned when configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// RunConfig is the complete configuration of one experiment batch.
type RunConfig struct {
	// Label prefixes every instance and parameter-group name. The
	// cleanup reaper finds leaked resources by this substring.
	Label string `json:"label"`

	// Instance shape.
	InstanceClass    string   `json:"instance_class"`
	AllocatedStorage int32    `json:"allocated_storage"`
	Engine           string   `json:"engine"`
	EngineVersion    string   `json:"engine_version"`
	GroupFamily      string   `json:"group_family"`
	SecurityGroups   []string `json:"security_groups"`
	BackupWindow     string   `json:"backup_window"`

	// Administrative credentials used for bootstrap.
	MasterUsername string `json:"master_username"`
	MasterPassword string `json:"-"`

	// Experiment database and the restricted application user scoped
	// to it.
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"-"`
	Port     int    `json:"port"`

	// Variant delta sets; an empty set tests the platform defaults.
	VariantSpecs [][]experiment.ParameterDelta `json:"variant_specs"`

	// Metric categories to request from the engine.
	Categories []profile.Category `json:"categories"`

	// Readiness polling bounds.
	PollInterval    time.Duration `json:"poll_interval"`
	PollMaxAttempts int           `json:"poll_max_attempts"`

	// Cleanup reaper bounds.
	ReapInterval  time.Duration `json:"reap_interval"`
	ReapMaxRounds int           `json:"reap_max_rounds"`
}

// Default returns the compiled-in experiment definition: one variant on
// platform defaults and one with enlarged buffer/heap/temp-table sizes.
func Default() RunConfig {
	const hundredMiB = "104857600"
	return RunConfig{
		Label:            "testing",
		InstanceClass:    "db.t3.micro",
		AllocatedStorage: 10,
		Engine:           "mysql",
		EngineVersion:    "8.0",
		GroupFamily:      "mysql8.0",
		SecurityGroups:   []string{"default"},
		BackupWindow:     "01:00-02:00",
		MasterUsername:   "root",
		MasterPassword:   "changeME",
		Database:         "testdata",
		User:             "testuser",
		Password:         "testpass",
		Port:             connection.DefaultPort,
		VariantSpecs: [][]experiment.ParameterDelta{
			{},
			{
				{Name: "innodb_buffer_pool_size", Value: hundredMiB},
				{Name: "max_heap_table_size", Value: hundredMiB},
				{Name: "tmp_table_size", Value: hundredMiB},
			},
		},
		Categories:      profile.AllCategories(),
		PollInterval:    30 * time.Second,
		PollMaxAttempts: 60,
		ReapInterval:    60 * time.Second,
		ReapMaxRounds:   10,
	}
}

// Validate validates the run configuration.
func (c RunConfig) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidConfiguration)
	}
	if c.InstanceClass == "" {
		return fmt.Errorf("%w: instance class is required", ErrInvalidConfiguration)
	}
	if c.MasterUsername == "" || c.MasterPassword == "" {
		return fmt.Errorf("%w: master credentials are required", ErrInvalidConfiguration)
	}
	if c.Database == "" || c.User == "" {
		return fmt.Errorf("%w: experiment database and user are required", ErrInvalidConfiguration)
	}
	if len(c.VariantSpecs) == 0 {
		return fmt.Errorf("%w: at least one variant is required", ErrInvalidConfiguration)
	}
	if c.PollInterval <= 0 || c.PollMaxAttempts <= 0 {
		return fmt.Errorf("%w: polling bounds must be positive", ErrInvalidConfiguration)
	}
	if c.ReapInterval <= 0 || c.ReapMaxRounds <= 0 {
		return fmt.Errorf("%w: reaper bounds must be positive", ErrInvalidConfiguration)
	}
	return nil
}
