package profile

import (
	"fmt"
	"strings"
)

// QuerySummary is one SHOW PROFILES row: the per-query id, wall duration
// in seconds, and the statement text.
type QuerySummary struct {
	ID        int     `json:"id"`
	Duration  float64 `json:"duration"`
	Statement string  `json:"statement"`
}

// Row is one metric row as the engine returns it: status, duration, then
// the selected categories' columns in engine order, all coerced to text.
type Row []string

// StatementProfile holds the detailed metric rows for one profiled
// statement. Rows keeps the combined engine layout for rendering;
// ByCategory carries each category's column slice of the same rows.
type StatementProfile struct {
	Statement  string             `json:"statement"`
	Rows       []Row              `json:"rows"`
	ByCategory map[Category][]Row `json:"-"`
}

// Result is everything the collector gathered from one instance. It is
// transient; the formatter consumes it immediately.
type Result struct {
	Categories []Category         `json:"categories"`
	Summaries  []QuerySummary     `json:"summaries"`
	Statements []StatementProfile `json:"statements"`
}

// SliceByCategory splits a combined row into per-category column slices.
// The leading (status, duration) pair is skipped; each category consumes
// its declared arity. Short rows yield what they have.
func SliceByCategory(row Row, categories []Category) map[Category]Row {
	out := make(map[Category]Row, len(categories))
	offset := len(alwaysSchema.formats)
	for _, c := range categories {
		arity := c.Arity()
		if offset >= len(row) {
			break
		}
		end := offset + arity
		if end > len(row) {
			end = len(row)
		}
		out[c] = row[offset:end]
		offset = end
	}
	return out
}

// ReportFormatter renders collected metrics into fixed-width per-category
// tabular text. Category order in the output always follows the engine
// order, not the request order.
type ReportFormatter struct {
	categories []Category
}

// NewReportFormatter builds a formatter for the requested categories,
// normalized into engine order.
func NewReportFormatter(requested []Category) *ReportFormatter {
	return &ReportFormatter{categories: Normalize(requested)}
}

// Categories returns the normalized category selection.
func (f *ReportFormatter) Categories() []Category {
	out := make([]Category, len(f.categories))
	copy(out, f.categories)
	return out
}

// schemas returns the always schema followed by each selected category's.
func (f *ReportFormatter) schemas() []columnSchema {
	out := make([]columnSchema, 0, len(f.categories)+1)
	out = append(out, alwaysSchema)
	for _, c := range f.categories {
		out = append(out, categorySchemas[c])
	}
	return out
}

// ColumnCount returns the total format-spec count across the always
// schema and every selected category.
func (f *ReportFormatter) ColumnCount() int {
	n := 0
	for _, s := range f.schemas() {
		n += len(s.formats)
	}
	return n
}

// HeaderLabels returns the declared label tuples, group label first, for
// the always schema and each selected category in engine order.
func (f *ReportFormatter) HeaderLabels() []string {
	var labels []string
	for _, s := range f.schemas() {
		labels = append(labels, s.group)
		labels = append(labels, s.columns...)
	}
	return labels
}

// formatString joins every column's format spec into one row template.
func (f *ReportFormatter) formatString() string {
	var specs []string
	for _, s := range f.schemas() {
		specs = append(specs, s.formats...)
	}
	return strings.Join(specs, " ")
}

// HeaderLines renders the two-line header: category group labels repeated
// across their columns on line one, individual column labels on line two,
// both using the column format specs so the widths line up with the rows.
func (f *ReportFormatter) HeaderLines() (string, string) {
	format := f.formatString()
	var groups, columns []string
	for _, s := range f.schemas() {
		for range s.formats {
			groups = append(groups, s.group)
		}
		columns = append(columns, s.columns...)
	}
	return sprintfRow(format, groups), sprintfRow(format, columns)
}

// FormatRow renders one metric row with the combined format string.
func (f *ReportFormatter) FormatRow(row Row) string {
	return sprintfRow(f.formatString(), row)
}

// StatementLines renders the full per-statement table: statement banner,
// two header lines, then one line per metric row.
func (f *ReportFormatter) StatementLines(p StatementProfile) []string {
	lines := []string{
		fmt.Sprintf("SQL: %s", p.Statement),
		strings.Repeat("-", 20),
	}
	groups, columns := f.HeaderLines()
	lines = append(lines, groups, columns)
	for _, row := range p.Rows {
		lines = append(lines, f.FormatRow(row))
	}
	return lines
}

// SummaryLines renders the SHOW PROFILES table for one instance.
func (f *ReportFormatter) SummaryLines(instanceID string, summaries []QuerySummary) []string {
	lines := []string{
		fmt.Sprintf("Database %s Profiling data", instanceID),
		fmt.Sprintf("%10s  %12s  %s", "Query ID", "Duration", "Query"),
		strings.Repeat("-", 31),
	}
	for _, s := range summaries {
		lines = append(lines, fmt.Sprintf("%10d  %12.8f  %s", s.ID, s.Duration, s.Statement))
	}
	return lines
}

// Lines renders the whole result: summary table first, then one table per
// profiled statement.
func (f *ReportFormatter) Lines(instanceID string, res *Result) []string {
	lines := f.SummaryLines(instanceID, res.Summaries)
	for _, p := range res.Statements {
		lines = append(lines, "")
		lines = append(lines, f.StatementLines(p)...)
	}
	return lines
}

// sprintfRow formats values with the row template, padding missing values
// with empty strings so a short row still renders aligned.
func sprintfRow(format string, values []string) string {
	specs := strings.Count(format, "%")
	args := make([]any, specs)
	for i := 0; i < specs; i++ {
		if i < len(values) {
			args[i] = values[i]
		} else {
			args[i] = ""
		}
	}
	return fmt.Sprintf(format, args...)
}
