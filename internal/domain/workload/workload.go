// Package workload holds the user-supplied SQL statement sequences.
package workload

import (
	"errors"
	"strings"
)

var (
	// ErrNoProfileStatements is returned when the profiled sequence is empty.
	ErrNoProfileStatements = errors.New("workload has no statements to profile")

	// ErrProfilingNotEnabled is returned when the first profiled statement
	// does not enable profiling.
	ErrProfilingNotEnabled = errors.New("first profiled statement must enable profiling")
)

// Workload is the pair of ordered statement sequences one experiment runs
// against every variant: one to populate test data, one to profile. By
// convention the first profiled statement enables profiling.
type Workload struct {
	LoadStatements    []string `json:"load_statements"`
	ProfileStatements []string `json:"profile_statements"`
}

// Default returns the minimal smoke workload: a single-row load statement
// and a two-statement profiled sequence.
func Default() Workload {
	return Workload{
		LoadStatements: []string{
			"select 1=1",
		},
		ProfileStatements: []string{
			"set profiling=1",
			"select 1=1",
		},
	}
}

// Validate checks the profiling-enable convention.
func (w Workload) Validate() error {
	if len(w.ProfileStatements) == 0 {
		return ErrNoProfileStatements
	}
	first := strings.ToLower(strings.Join(strings.Fields(w.ProfileStatements[0]), " "))
	if !strings.HasPrefix(first, "set profiling=1") && !strings.HasPrefix(first, "set profiling = 1") {
		return ErrProfilingNotEnabled
	}
	return nil
}
