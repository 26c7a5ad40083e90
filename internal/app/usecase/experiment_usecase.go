package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/domain/experiment"
	"github.com/dfraser/rds-paramlab/internal/domain/profile"
	"github.com/dfraser/rds-paramlab/internal/domain/workload"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// ExperimentUseCase runs one self-contained experiment batch: parameter
// groups, then the barrier-synchronized provision/load/test stages, the
// report, and finally the cleanup reaper — which runs no matter how the
// stages went.
type ExperimentUseCase struct {
	api       cloud.API
	cfg       config.RunConfig
	wl        workload.Workload
	factory   *VariantFactory
	lifecycle *LifecycleManager
	reaper    *CleanupReaper
	formatter *profile.ReportFormatter
}

// NewExperimentUseCase validates the configuration and workload and wires
// the components. Nothing is read from shared process state afterwards.
func NewExperimentUseCase(api cloud.API, cfg config.RunConfig, wl workload.Workload) (*ExperimentUseCase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := wl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return &ExperimentUseCase{
		api:       api,
		cfg:       cfg,
		wl:        wl,
		factory:   NewVariantFactory(api, cfg),
		lifecycle: NewLifecycleManager(api, cfg, wl),
		reaper:    NewCleanupReaper(api, cfg),
		formatter: profile.NewReportFormatter(cfg.Categories),
	}, nil
}

// Run executes the whole batch built from the run configuration.
func (uc *ExperimentUseCase) Run(ctx context.Context) error {
	return uc.RunBatch(ctx, experiment.NewBatch(uc.cfg.Label, uc.cfg.VariantSpecs))
}

// RunBatch drives the batch through the stages, the report, and teardown.
// Per-variant failures are isolated and aggregated into the returned
// error; cleanup always runs, with a fresh context so a canceled
// experiment cannot skip resource release.
func (uc *ExperimentUseCase) RunBatch(ctx context.Context, batch *experiment.Batch) error {
	slog.Info("Experiment: batch starting",
		"batch_id", batch.ID,
		"label", uc.cfg.Label,
		"variants", len(batch.Runs))

	uc.runStages(ctx, batch)
	uc.report(batch)
	uc.describeAll(ctx)

	var errs *multierror.Error
	for _, run := range batch.Runs {
		if run.Errored() {
			errs = multierror.Append(errs, fmt.Errorf("variant %s: %s", run.Variant.Name, run.ErrorMessage))
		}
	}

	uc.requestTeardown(batch)
	reapErr := uc.reaper.Reap(context.Background(), uc.cfg.Label, batch.GroupNames())
	if reapErr != nil {
		errs = multierror.Append(errs, reapErr)
	} else {
		uc.confirmGone(batch)
	}
	return errs.ErrorOrNil()
}

// requestTeardown moves every live run into the teardown flow before the
// reaper takes over. Errored runs go too; their failure is already
// recorded on the run.
func (uc *ExperimentUseCase) requestTeardown(batch *experiment.Batch) {
	for _, run := range batch.Runs {
		if run.State.IsTerminal() {
			continue
		}
		if err := run.SetState(experiment.StateTeardownRequested); err != nil {
			slog.Error("Experiment: teardown transition failed",
				"variant", run.Variant.Name,
				"error", err)
		}
	}
}

// confirmGone marks every torn-down run gone once the reap has converged.
// On an incomplete reap the runs stay in teardown_requested, mirroring the
// resources that may still exist remotely.
func (uc *ExperimentUseCase) confirmGone(batch *experiment.Batch) {
	for _, run := range batch.Runs {
		if run.State != experiment.StateTeardownRequested {
			continue
		}
		if err := run.SetState(experiment.StateGone); err != nil {
			slog.Error("Experiment: gone transition failed",
				"variant", run.Variant.Name,
				"error", err)
		}
	}
}

// runStages walks the batch through the lifecycle with a barrier between
// stages: no variant starts a stage while another is still finishing the
// previous one, keeping provisioning and runtime costs comparable.
func (uc *ExperimentUseCase) runStages(ctx context.Context, batch *experiment.Batch) {
	uc.factory.CreateGroups(ctx, batch)

	RunStage(ctx, "provision", batch.Active(), uc.lifecycle.Provision)
	RunStage(ctx, "load", batch.Active(), uc.lifecycle.Load)
	RunStage(ctx, "test", batch.Active(), uc.lifecycle.Profile)
}

// report renders every tested variant's metrics as line-oriented text on
// the logging output.
func (uc *ExperimentUseCase) report(batch *experiment.Batch) {
	for _, run := range batch.Runs {
		if run.Profile == nil {
			continue
		}
		instanceID := run.Variant.InstanceID(uc.cfg.Label)
		if run.Handle != nil {
			instanceID = run.Handle.ID
		}
		for _, line := range uc.formatter.Lines(instanceID, run.Profile) {
			slog.Info(line)
		}
	}
}

// describeAll logs a snapshot of every live instance, useful when a run
// ends with resources in unexpected states.
func (uc *ExperimentUseCase) describeAll(ctx context.Context) {
	instances, err := uc.api.ListInstances(ctx)
	if err != nil {
		slog.Debug("Experiment: status listing failed", "error", err)
		return
	}
	if len(instances) == 0 {
		slog.Debug("Experiment: no live instances")
		return
	}
	for _, inst := range instances {
		slog.Debug("Experiment: instance status",
			"id", inst.ID,
			"status", string(inst.Status),
			"endpoint", inst.Endpoint)
	}
}
