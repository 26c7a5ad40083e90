package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfraser/rds-paramlab/internal/domain/profile"
)

// fakeRunner is an in-memory StatementRunner with canned query results.
type fakeRunner struct {
	execs   []string
	queries []string

	execErr map[string]error
	results map[string][][]string
}

func (r *fakeRunner) Exec(_ context.Context, stmt string) error {
	r.execs = append(r.execs, stmt)
	return r.execErr[stmt]
}

func (r *fakeRunner) Query(_ context.Context, stmt string) ([][]string, error) {
	r.queries = append(r.queries, stmt)
	res, ok := r.results[stmt]
	if !ok {
		return nil, errors.New("unexpected query: " + stmt)
	}
	return res, nil
}

// TestProfileCollector_Collect walks the whole collection protocol against
// a canned two-statement workload.
func TestProfileCollector_Collect(t *testing.T) {
	runner := &fakeRunner{
		results: map[string][][]string{
			"show profiles": {
				{"1", "0.00008525", "select 1=1"},
			},
			"show profile CPU,SOURCE for query 1": {
				{"starting", "0.000065", "0.000054", "0.000011", "fn", "file.cc", "42"},
				{"cleaning up", "0.000009", "0.000008", "0.000001", "fn2", "file.cc", "99"},
			},
		},
	}
	// Requested out of engine order on purpose.
	collector := NewProfileCollector([]profile.Category{profile.CategorySource, profile.CategoryCPU})

	statements := []string{"set profiling=1", "select 1=1"}
	result, err := collector.Collect(context.Background(), runner, statements)
	require.NoError(t, err)

	// Workload executed in order, profiling disabled on the way out.
	require.Equal(t, []string{"set profiling=1", "select 1=1", "set profiling=0"}, runner.execs)

	// Summary and detail queries, detail skipping the enable statement.
	require.Equal(t, []string{"show profiles", "show profile CPU,SOURCE for query 1"}, runner.queries)

	require.Len(t, result.Summaries, 1)
	assert.Equal(t, 1, result.Summaries[0].ID)
	assert.InDelta(t, 0.00008525, result.Summaries[0].Duration, 1e-12)
	assert.Equal(t, "select 1=1", result.Summaries[0].Statement)

	require.Len(t, result.Statements, 1)
	sp := result.Statements[0]
	assert.Equal(t, "select 1=1", sp.Statement)
	require.Len(t, sp.Rows, 2)
	assert.Equal(t, profile.Row{"starting", "0.000065", "0.000054", "0.000011", "fn", "file.cc", "42"}, sp.Rows[0])

	cpu := sp.ByCategory[profile.CategoryCPU]
	require.Len(t, cpu, 2)
	assert.Equal(t, profile.Row{"0.000054", "0.000011"}, cpu[0])
	src := sp.ByCategory[profile.CategorySource]
	require.Len(t, src, 2)
	assert.Equal(t, profile.Row{"fn2", "file.cc", "99"}, src[1])
}

// TestProfileCollector_StatementFailure verifies that a failing workload
// statement aborts collection but still disables profiling.
func TestProfileCollector_StatementFailure(t *testing.T) {
	boom := errors.New("table is full")
	runner := &fakeRunner{
		execErr: map[string]error{"select 1=1": boom},
	}
	collector := NewProfileCollector(profile.AllCategories())

	_, err := collector.Collect(context.Background(), runner, []string{"set profiling=1", "select 1=1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "set profiling=0", runner.execs[len(runner.execs)-1])
}

// TestProfileCollector_MalformedSummary verifies rejection of a summary
// row that lacks the (id, duration, statement) triple.
func TestProfileCollector_MalformedSummary(t *testing.T) {
	runner := &fakeRunner{
		results: map[string][][]string{
			"show profiles": {{"1", "0.0001"}},
		},
	}
	collector := NewProfileCollector([]profile.Category{profile.CategoryCPU})

	_, err := collector.Collect(context.Background(), runner, []string{"set profiling=1", "select 1=1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

// TestProfileCollector_CategoryList verifies the requested category list
// is rendered in engine order in the detail query.
func TestProfileCollector_CategoryList(t *testing.T) {
	runner := &fakeRunner{
		results: map[string][][]string{
			"show profiles": {},
			"show profile CPU,CONTEXT SWITCHES,BLOCK IO,IPC,PAGE FAULTS,SWAPS,SOURCE for query 1": {},
		},
	}
	// Shuffled request, engine-ordered query.
	collector := NewProfileCollector([]profile.Category{
		profile.CategorySwaps,
		profile.CategorySource,
		profile.CategoryCPU,
		profile.CategoryPageFaults,
		profile.CategoryIPC,
		profile.CategoryBlockIO,
		profile.CategoryContextSwitches,
	})

	_, err := collector.Collect(context.Background(), runner, []string{"set profiling=1", "select 1=1"})
	require.NoError(t, err)
	assert.Equal(t,
		"show profile CPU,CONTEXT SWITCHES,BLOCK IO,IPC,PAGE FAULTS,SWAPS,SOURCE for query 1",
		runner.queries[1])
}
