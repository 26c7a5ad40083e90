package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/dfraser/rds-paramlab/internal/domain/profile"
)

// StatementRunner is the narrow database surface the collector needs:
// execute a statement, or run a query and get every value back as text.
type StatementRunner interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, stmt string) ([][]string, error)
}

// sqlRunner adapts *sql.DB to Session.
type sqlRunner struct {
	db *sql.DB
}

func (r *sqlRunner) Close() error {
	return r.db.Close()
}

func (r *sqlRunner) Exec(ctx context.Context, stmt string) error {
	_, err := r.db.ExecContext(ctx, stmt)
	return err
}

func (r *sqlRunner) Query(ctx context.Context, stmt string) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]string
	for rows.Next() {
		raw := make([]sql.RawBytes, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		values := make([]string, len(cols))
		for i, b := range raw {
			values[i] = string(b)
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

// ProfileCollector executes the profiled workload and retrieves the
// per-statement metric rows for the requested categories.
type ProfileCollector struct {
	categories []profile.Category
}

// NewProfileCollector creates a collector for the requested categories,
// normalized into engine order.
func NewProfileCollector(requested []profile.Category) *ProfileCollector {
	return &ProfileCollector{categories: profile.Normalize(requested)}
}

// Collect executes every workload statement in order (the first enables
// profiling by convention), reads the per-query summary, then the
// detailed rows for every statement after the first. Profiling is
// disabled again on every exit path.
func (c *ProfileCollector) Collect(ctx context.Context, runner StatementRunner, statements []string) (*profile.Result, error) {
	// Best effort: the session dies with the connection anyway.
	defer runner.Exec(ctx, "set profiling=0")

	for _, stmt := range statements {
		if err := runner.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("execute %q: %w", stmt, err)
		}
	}

	summaries, err := c.collectSummaries(ctx, runner)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.String()
	}
	list := strings.Join(names, ",")

	result := &profile.Result{
		Categories: c.categories,
		Summaries:  summaries,
	}

	// Query ids are 1-based and the profiling-enable statement itself is
	// not profiled, so statement i maps to query id i.
	for i, stmt := range statements {
		if i == 0 {
			continue
		}
		raw, err := runner.Query(ctx, fmt.Sprintf("show profile %s for query %d", list, i))
		if err != nil {
			return nil, fmt.Errorf("profile query %d: %w", i, err)
		}

		sp := profile.StatementProfile{
			Statement:  stmt,
			ByCategory: make(map[profile.Category][]profile.Row),
		}
		for _, values := range raw {
			row := profile.Row(values)
			sp.Rows = append(sp.Rows, row)
			for cat, slice := range profile.SliceByCategory(row, c.categories) {
				sp.ByCategory[cat] = append(sp.ByCategory[cat], slice)
			}
		}
		result.Statements = append(result.Statements, sp)
	}

	return result, nil
}

func (c *ProfileCollector) collectSummaries(ctx context.Context, runner StatementRunner) ([]profile.QuerySummary, error) {
	raw, err := runner.Query(ctx, "show profiles")
	if err != nil {
		return nil, fmt.Errorf("show profiles: %w", err)
	}

	summaries := make([]profile.QuerySummary, 0, len(raw))
	for _, values := range raw {
		if len(values) < 3 {
			return nil, fmt.Errorf("show profiles row has %d columns, want 3", len(values))
		}
		id, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("parse query id %q: %w", values[0], err)
		}
		duration, err := strconv.ParseFloat(values[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", values[1], err)
		}
		summaries = append(summaries, profile.QuerySummary{
			ID:        id,
			Duration:  duration,
			Statement: values[2],
		})
	}
	return summaries, nil
}
