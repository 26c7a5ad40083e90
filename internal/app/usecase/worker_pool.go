// Package usecase provides the experiment orchestration business logic.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/dfraser/rds-paramlab/internal/domain/experiment"
)

// StageFunc runs one lifecycle stage for one variant.
type StageFunc func(ctx context.Context, run *experiment.VariantRun) error

// StageResult is one variant's outcome for one stage, collected by the
// orchestrator before the barrier is released.
type StageResult struct {
	Run *experiment.VariantRun
	Err error
}

// StageResults is every variant's outcome for one stage.
type StageResults []StageResult

// Err aggregates the stage's isolated failures, nil when all succeeded.
func (rs StageResults) Err() error {
	var errs *multierror.Error
	for _, r := range rs {
		if r.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("variant %s: %w", r.Run.Variant.Name, r.Err))
		}
	}
	return errs.ErrorOrNil()
}

// RunStage fans fn out across the runs, one goroutine per variant, and
// waits for every worker before returning. A failing variant is marked
// errored (excluding it from later stages) but never halts its siblings;
// no variant enters the next stage until this barrier releases.
func RunStage(ctx context.Context, stage string, runs []*experiment.VariantRun, fn StageFunc) StageResults {
	results := make(StageResults, len(runs))

	var wg sync.WaitGroup
	for i, run := range runs {
		wg.Add(1)
		go func(i int, run *experiment.VariantRun) {
			defer wg.Done()
			err := fn(ctx, run)
			if err != nil {
				run.MarkErrored(err)
				slog.Error("Experiment: stage failed",
					"stage", stage,
					"variant", run.Variant.Name,
					"error", err)
			}
			results[i] = StageResult{Run: run, Err: err}
		}(i, run)
	}
	wg.Wait()

	slog.Info("Experiment: stage barrier released",
		"stage", stage,
		"workers", len(runs),
		"failed", len(runs)-len(results.succeeded()))
	return results
}

func (rs StageResults) succeeded() []*experiment.VariantRun {
	var out []*experiment.VariantRun
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r.Run)
		}
	}
	return out
}
