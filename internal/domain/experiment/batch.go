package experiment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dfraser/rds-paramlab/internal/domain/profile"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

// VariantRun tracks one variant's progress through the lifecycle.
// Workers mutate it only through SetState/MarkErrored; each run is owned
// by a single worker within a stage, so no locking is required.
type VariantRun struct {
	Variant *Variant `json:"variant"`

	State VariantState `json:"state"`

	// Handle is the latest view of the remote instance. Refreshed from
	// the cloud API, never trusted across poll cycles.
	Handle *cloud.DBInstance `json:"handle,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Profile holds the collected metrics between the test stage and
	// report emission. Not persisted anywhere.
	Profile *profile.Result `json:"-"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// NewVariantRun creates a run record in the pending state.
func NewVariantRun(v *Variant) *VariantRun {
	return &VariantRun{
		Variant:   v,
		State:     StatePending,
		CreatedAt: time.Now(),
	}
}

// SetState sets the state with validation.
// Returns an error if the transition is invalid.
func (r *VariantRun) SetState(newState VariantState) error {
	if !r.State.CanTransitionTo(newState) {
		return &InvalidStateTransitionError{From: r.State, To: newState}
	}
	r.State = newState
	return nil
}

// MarkErrored moves the run into the absorbing errored state and records
// the failure. Sibling runs are unaffected.
func (r *VariantRun) MarkErrored(err error) {
	if r.State != StateErrored {
		r.State = StateErrored
	}
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	if r.CompletedAt == nil {
		now := time.Now()
		r.CompletedAt = &now
	}
}

// Errored reports whether the run has been excluded from further stages.
func (r *VariantRun) Errored() bool {
	return r.State == StateErrored
}

// InvalidStateTransitionError represents an invalid state transition.
type InvalidStateTransitionError struct {
	From VariantState
	To   VariantState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// Batch is the set of variant runs for one experiment invocation.
type Batch struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Runs      []*VariantRun `json:"runs"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewBatch builds the batch for a run label and its variant delta sets.
func NewBatch(label string, specs [][]ParameterDelta) *Batch {
	runs := make([]*VariantRun, 0, len(specs))
	for i, deltas := range specs {
		runs = append(runs, NewVariantRun(NewVariant(label, i, deltas)))
	}
	return &Batch{
		ID:        uuid.New().String(),
		Label:     label,
		Runs:      runs,
		CreatedAt: time.Now(),
	}
}

// Active returns the runs that have not errored, in variant order.
// Errored runs are excluded from subsequent stage fan-outs.
func (b *Batch) Active() []*VariantRun {
	var out []*VariantRun
	for _, r := range b.Runs {
		if !r.Errored() {
			out = append(out, r)
		}
	}
	return out
}

// GroupNames returns every variant's parameter-group name, in order.
func (b *Batch) GroupNames() []string {
	names := make([]string, 0, len(b.Runs))
	for _, r := range b.Runs {
		names = append(names, r.Variant.GroupName)
	}
	return names
}
