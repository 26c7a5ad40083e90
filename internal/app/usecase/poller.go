package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpillora/backoff"

	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

var (
	// ErrNotReady is returned when an instance does not become available
	// within the polling bound.
	ErrNotReady = errors.New("instance did not become ready")

	// ErrInstanceFailed is returned when an instance reaches a terminal
	// error status while being waited on.
	ErrInstanceFailed = errors.New("instance reached a failed status")
)

// ReadinessPoller waits for a provisioned instance to become available.
// Each call blocks only its own worker; the bound and interval come from
// the run configuration.
type ReadinessPoller struct {
	api         cloud.API
	interval    time.Duration
	maxAttempts int
}

// NewReadinessPoller creates a poller from the run configuration.
func NewReadinessPoller(api cloud.API, cfg config.RunConfig) *ReadinessPoller {
	return &ReadinessPoller{
		api:         api,
		interval:    cfg.PollInterval,
		maxAttempts: cfg.PollMaxAttempts,
	}
}

// WaitForAvailable polls the instance status until it is available,
// it fails terminally, the attempt bound is exhausted, or the context is
// canceled. Returns the refreshed handle on success.
func (p *ReadinessPoller) WaitForAvailable(ctx context.Context, id string) (*cloud.DBInstance, error) {
	min := 5 * time.Second
	if min > p.interval {
		min = p.interval
	}
	b := &backoff.Backoff{Min: min, Max: p.interval, Factor: 2}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", id, ctx.Err())
		case <-time.After(b.Duration()):
		}

		inst, err := p.api.DescribeInstance(ctx, id)
		if err != nil {
			// The create request may not be visible yet; keep polling.
			if errors.Is(err, cloud.ErrInstanceNotFound) {
				slog.Debug("Poller: instance not visible yet", "id", id, "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("poll %s: %w", id, err)
		}

		if inst.Status == cloud.StatusAvailable {
			return inst, nil
		}
		if inst.Status.Failed() {
			return nil, fmt.Errorf("instance %s is %s: %w", id, inst.Status, ErrInstanceFailed)
		}
		slog.Debug("Poller: still waiting",
			"id", id,
			"status", string(inst.Status),
			"attempt", attempt)
	}

	return nil, fmt.Errorf("instance %s after %d attempts: %w", id, p.maxAttempts, ErrNotReady)
}
