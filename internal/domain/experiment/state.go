// Package experiment provides the per-variant lifecycle domain model.
package experiment

// VariantState represents where a variant is in its instance lifecycle.
type VariantState string

const (
	StatePending           VariantState = "pending"            // Created, nothing submitted yet
	StateProvisioning      VariantState = "provisioning"       // Create-instance request submitted
	StateReady             VariantState = "ready"              // Instance reported available
	StateBootstrapped      VariantState = "bootstrapped"       // Database and application user created
	StateLoaded            VariantState = "loaded"             // Test data loaded
	StateTested            VariantState = "tested"             // Workload profiled
	StateTeardownRequested VariantState = "teardown_requested" // Deletion requested
	StateGone              VariantState = "gone"               // Deletion confirmed or reap gave up
	StateErrored           VariantState = "errored"            // Absorbing failure state
)

// IsValid checks if the state is valid.
func (s VariantState) IsValid() bool {
	switch s {
	case StatePending, StateProvisioning, StateReady, StateBootstrapped,
		StateLoaded, StateTested, StateTeardownRequested, StateGone,
		StateErrored:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the state is a terminal state.
func (s VariantState) IsTerminal() bool {
	return s == StateGone
}

// CanTransitionTo checks if a transition from the current state to the
// target state is valid. Teardown may be requested from any non-terminal
// state, and any non-terminal state may fall into the errored state.
func (s VariantState) CanTransitionTo(target VariantState) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StateTeardownRequested {
		return s != StateTeardownRequested
	}
	if target == StateErrored {
		return s != StateErrored
	}

	transitions := map[VariantState][]VariantState{
		StatePending:           {StateProvisioning},
		StateProvisioning:      {StateReady},
		StateReady:             {StateBootstrapped},
		StateBootstrapped:      {StateLoaded},
		StateLoaded:            {StateTested},
		StateTested:            {},
		StateTeardownRequested: {StateGone},
		StateErrored:           {StateGone},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}

// String implements Stringer interface.
func (s VariantState) String() string {
	return string(s)
}
