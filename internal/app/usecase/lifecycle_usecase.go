package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/domain/connection"
	"github.com/dfraser/rds-paramlab/internal/domain/experiment"
	"github.com/dfraser/rds-paramlab/internal/domain/workload"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// Session is one open database session: the statement surface plus the
// release of the underlying connection.
type Session interface {
	StatementRunner
	Close() error
}

// SessionOpener dials an endpoint and verifies it before returning a
// usable session.
type SessionOpener func(ctx context.Context, cfg connection.Config) (Session, error)

// OpenSession dials MySQL through database/sql with a bounded ping.
func OpenSession(ctx context.Context, cfg connection.Config) (Session, error) {
	db, err := connection.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &sqlRunner{db: db}, nil
}

// LifecycleManager drives one variant through its lifecycle stages.
// Every stage is invoked by the worker pool, one worker per variant, and
// a failure inside a stage only errores that variant.
type LifecycleManager struct {
	api       cloud.API
	cfg       config.RunConfig
	wl        workload.Workload
	poller    *ReadinessPoller
	collector *ProfileCollector
	open      SessionOpener
}

// NewLifecycleManager creates a lifecycle manager from the run
// configuration and the user-supplied workload.
func NewLifecycleManager(api cloud.API, cfg config.RunConfig, wl workload.Workload) *LifecycleManager {
	return &LifecycleManager{
		api:       api,
		cfg:       cfg,
		wl:        wl,
		poller:    NewReadinessPoller(api, cfg),
		collector: NewProfileCollector(cfg.Categories),
		open:      OpenSession,
	}
}

// Provision submits the create-instance request, waits for readiness and
// bootstraps the experiment database and application user.
func (m *LifecycleManager) Provision(ctx context.Context, run *experiment.VariantRun) error {
	if err := run.SetState(experiment.StateProvisioning); err != nil {
		return err
	}
	now := time.Now()
	run.StartedAt = &now

	id := run.Variant.InstanceID(m.cfg.Label)
	slog.Info("Lifecycle: creating instance",
		"variant", run.Variant.Name,
		"instance", id,
		"class", m.cfg.InstanceClass,
		"group", run.Variant.GroupName)

	inst, err := m.api.CreateInstance(ctx, cloud.CreateInstanceInput{
		ID:                 id,
		InstanceClass:      m.cfg.InstanceClass,
		AllocatedStorage:   m.cfg.AllocatedStorage,
		Engine:             m.cfg.Engine,
		EngineVersion:      m.cfg.EngineVersion,
		MasterUsername:     m.cfg.MasterUsername,
		MasterPassword:     m.cfg.MasterPassword,
		ParameterGroupName: run.Variant.GroupName,
		SecurityGroups:     m.cfg.SecurityGroups,
		BackupRetention:    0,
		BackupWindow:       m.cfg.BackupWindow,
	})
	if err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	run.Handle = inst

	inst, err = m.poller.WaitForAvailable(ctx, id)
	if err != nil {
		return fmt.Errorf("readiness: %w", err)
	}
	run.Handle = inst
	if err := run.SetState(experiment.StateReady); err != nil {
		return err
	}

	if err := m.bootstrap(ctx, run); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return run.SetState(experiment.StateBootstrapped)
}

// bootstrap connects with the administrative credentials and creates the
// experiment database plus a restricted application user scoped to it.
// The connection is closed on every exit path.
func (m *LifecycleManager) bootstrap(ctx context.Context, run *experiment.VariantRun) error {
	sess, err := m.open(ctx, connection.Config{
		Host:     run.Handle.Endpoint,
		Port:     m.endpointPort(run),
		User:     m.cfg.MasterUsername,
		Password: m.cfg.MasterPassword,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	statements := []string{
		fmt.Sprintf("CREATE DATABASE %s", m.cfg.Database),
		fmt.Sprintf("CREATE USER '%s'@'%%' IDENTIFIED BY '%s'", m.cfg.User, m.cfg.Password),
		fmt.Sprintf("GRANT ALL ON %s.* TO '%s'@'%%'", m.cfg.Database, m.cfg.User),
	}
	for _, stmt := range statements {
		if err := sess.Exec(ctx, stmt); err != nil {
			m.logStatementError(run, "bootstrap", err)
			return err
		}
	}
	return nil
}

// Load refreshes the instance handle, connects as the application user
// and executes the load-data statement sequence in order.
func (m *LifecycleManager) Load(ctx context.Context, run *experiment.VariantRun) error {
	if err := m.refreshHandle(ctx, run); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	slog.Info("Lifecycle: loading data",
		"variant", run.Variant.Name,
		"instance", run.Handle.ID,
		"statements", len(m.wl.LoadStatements))

	sess, err := m.open(ctx, m.appConfig(run))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer sess.Close()

	for _, stmt := range m.wl.LoadStatements {
		if err := sess.Exec(ctx, stmt); err != nil {
			m.logStatementError(run, "load", err)
			return fmt.Errorf("load %q: %w", stmt, err)
		}
	}
	return run.SetState(experiment.StateLoaded)
}

// Profile runs the profiled workload against the instance and stores the
// collected metrics on the run.
func (m *LifecycleManager) Profile(ctx context.Context, run *experiment.VariantRun) error {
	if err := m.refreshHandle(ctx, run); err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	slog.Info("Lifecycle: profiling workload",
		"variant", run.Variant.Name,
		"instance", run.Handle.ID,
		"statements", len(m.wl.ProfileStatements))

	sess, err := m.open(ctx, m.appConfig(run))
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	defer sess.Close()

	result, err := m.collector.Collect(ctx, sess, m.wl.ProfileStatements)
	if err != nil {
		m.logStatementError(run, "profile", err)
		return fmt.Errorf("profile: %w", err)
	}
	run.Profile = result

	now := time.Now()
	run.CompletedAt = &now
	return run.SetState(experiment.StateTested)
}

// refreshHandle re-queries the instance; handles are never trusted
// across stages.
func (m *LifecycleManager) refreshHandle(ctx context.Context, run *experiment.VariantRun) error {
	inst, err := m.api.DescribeInstance(ctx, run.Variant.InstanceID(m.cfg.Label))
	if err != nil {
		return err
	}
	run.Handle = inst
	return nil
}

func (m *LifecycleManager) appConfig(run *experiment.VariantRun) connection.Config {
	return connection.Config{
		Host:     run.Handle.Endpoint,
		Port:     m.endpointPort(run),
		User:     m.cfg.User,
		Password: m.cfg.Password,
		Database: m.cfg.Database,
	}
}

func (m *LifecycleManager) endpointPort(run *experiment.VariantRun) int {
	if run.Handle != nil && run.Handle.Port != 0 {
		return run.Handle.Port
	}
	return m.cfg.Port
}

// logStatementError logs a stage failure with the variant's identity and,
// when the driver reports one, the server error number and message.
func (m *LifecycleManager) logStatementError(run *experiment.VariantRun, stage string, err error) {
	var driverErr *mysql.MySQLError
	if errors.As(err, &driverErr) {
		slog.Error("Lifecycle: statement failed",
			"stage", stage,
			"variant", run.Variant.Name,
			"errno", driverErr.Number,
			"message", driverErr.Message)
		return
	}
	slog.Error("Lifecycle: statement failed",
		"stage", stage,
		"variant", run.Variant.Name,
		"error", err)
}
