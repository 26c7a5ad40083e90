package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/domain/experiment"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// ErrParameterNotFound is returned when a delta names a parameter absent
// from the group's catalog, even after following the continuation marker.
var ErrParameterNotFound = errors.New("parameter not found in group catalog")

// VariantFactory registers one remote parameter group per variant and
// applies its deltas in order.
type VariantFactory struct {
	api cloud.API
	cfg config.RunConfig
}

// NewVariantFactory creates a factory from the run configuration.
func NewVariantFactory(api cloud.API, cfg config.RunConfig) *VariantFactory {
	return &VariantFactory{api: api, cfg: cfg}
}

// CreateGroups provisions every variant's parameter group. A failing
// variant is marked errored and skipped by later stages; its siblings
// proceed.
func (f *VariantFactory) CreateGroups(ctx context.Context, batch *experiment.Batch) {
	for _, run := range batch.Runs {
		if err := f.createGroup(ctx, run.Variant); err != nil {
			run.MarkErrored(err)
			slog.Error("VariantFactory: group provisioning failed",
				"variant", run.Variant.Name,
				"group", run.Variant.GroupName,
				"error", err)
			continue
		}
		slog.Info("VariantFactory: parameter group ready",
			"variant", run.Variant.Name,
			"group", run.Variant.GroupName,
			"deltas", len(run.Variant.Deltas))
	}
}

func (f *VariantFactory) createGroup(ctx context.Context, v *experiment.Variant) error {
	description := fmt.Sprintf("%s %d", f.cfg.Label, v.Index)
	if err := f.api.CreateParameterGroup(ctx, v.GroupName, f.cfg.GroupFamily, description); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	for _, delta := range v.Deltas {
		if err := f.applyParameter(ctx, v.GroupName, delta); err != nil {
			return fmt.Errorf("apply %s: %w", delta.Name, err)
		}
	}
	return nil
}

// applyParameter overrides one parameter. The remote catalog is paginated
// and the first page may not list the parameter; in that case the lookup
// is retried exactly once with the continuation marker before the error
// surfaces.
func (f *VariantFactory) applyParameter(ctx context.Context, group string, delta experiment.ParameterDelta) error {
	names, marker, err := f.api.DescribeParameters(ctx, group, "")
	if err != nil {
		return err
	}
	if containsName(names, delta.Name) {
		return f.api.ModifyParameter(ctx, group, delta.Name, delta.Value)
	}
	if marker == "" {
		return fmt.Errorf("%q: %w", delta.Name, ErrParameterNotFound)
	}

	names, _, err = f.api.DescribeParameters(ctx, group, marker)
	if err != nil {
		return err
	}
	if containsName(names, delta.Name) {
		return f.api.ModifyParameter(ctx, group, delta.Name, delta.Value)
	}
	return fmt.Errorf("%q: %w", delta.Name, ErrParameterNotFound)
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
