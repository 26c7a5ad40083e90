package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// ErrCleanupIncomplete is returned when the reap bound is exhausted while
// label-matching instances still exist.
var ErrCleanupIncomplete = errors.New("cleanup did not converge")

// CleanupReaper releases every resource the experiment created. It is
// the only durability guarantee against leaks, so it gives up loudly
// after a bounded number of rounds instead of spinning forever.
type CleanupReaper struct {
	api       cloud.API
	interval  time.Duration
	maxRounds int
}

// NewCleanupReaper creates a reaper from the run configuration.
func NewCleanupReaper(api cloud.API, cfg config.RunConfig) *CleanupReaper {
	return &CleanupReaper{
		api:       api,
		interval:  cfg.ReapInterval,
		maxRounds: cfg.ReapMaxRounds,
	}
}

// Reap loops up to the configured bound: each round it lists live
// instances, filters to those whose identifier contains the label, and
// requests deletion (no final snapshot) for any in a deletable terminal
// status. It stops early once no matching instance remains, then deletes
// the parameter groups. If the bound is exhausted first, the groups are
// left in place — one may still be referenced by a live instance — and
// ErrCleanupIncomplete is returned.
func (r *CleanupReaper) Reap(ctx context.Context, label string, groups []string) error {
	remaining := -1

	for round := 0; round < r.maxRounds; round++ {
		instances, err := r.api.ListInstances(ctx)
		if err != nil {
			slog.Error("Reaper: list failed", "round", round, "error", err)
			if round < r.maxRounds-1 && !r.sleep(ctx) {
				break
			}
			continue
		}

		var matching []*cloud.DBInstance
		for _, inst := range instances {
			if strings.Contains(inst.ID, label) {
				matching = append(matching, inst)
			}
		}
		remaining = len(matching)
		if remaining == 0 {
			break
		}

		for _, inst := range matching {
			if !inst.Status.Deletable() {
				slog.Debug("Reaper: instance not deletable yet",
					"id", inst.ID,
					"status", string(inst.Status))
				continue
			}
			slog.Info("Reaper: deleting instance", "id", inst.ID)
			if err := r.api.DeleteInstance(ctx, inst.ID); err != nil {
				slog.Error("Reaper: delete failed", "id", inst.ID, "error", err)
			}
		}

		if round < r.maxRounds-1 && !r.sleep(ctx) {
			break
		}
	}

	// remaining stays -1 when no listing ever succeeded.
	if remaining < 0 {
		slog.Error("Reaper: gave up without a successful listing",
			"label", label,
			"rounds", r.maxRounds)
		return fmt.Errorf("label %s, live instances unknown: %w", label, ErrCleanupIncomplete)
	}
	if remaining != 0 {
		slog.Error("Reaper: gave up with instances remaining",
			"label", label,
			"remaining", remaining,
			"rounds", r.maxRounds)
		return fmt.Errorf("label %s, %d instances left: %w", label, remaining, ErrCleanupIncomplete)
	}

	for _, group := range groups {
		if err := r.api.DeleteParameterGroup(ctx, group); err != nil {
			slog.Error("Reaper: parameter group delete failed", "group", group, "error", err)
			continue
		}
		slog.Info("Reaper: deleted parameter group", "group", group)
	}
	return nil
}

// sleep waits one reap interval; false means the context was canceled.
func (r *CleanupReaper) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.interval):
		return true
	}
}
