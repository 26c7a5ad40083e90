// Package profile provides the statement-profiling domain model: metric
// categories, per-statement metric rows, and the fixed-width report.
package profile

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned when a category name is not recognized.
var ErrUnknownCategory = errors.New("unknown profiling category")

// Category identifies one class of low-level execution metrics reported
// per statement. The set is closed; the zero value is CategoryCPU.
type Category int

const (
	CategoryCPU Category = iota
	CategoryContextSwitches
	CategoryBlockIO
	CategoryIPC
	CategoryPageFaults
	CategorySwaps
	CategorySource
)

// allCategories is the order the engine reports metric columns in.
// SHOW PROFILE output always follows this order, whatever order the
// categories were requested in; it must never be reordered.
var allCategories = []Category{
	CategoryCPU,
	CategoryContextSwitches,
	CategoryBlockIO,
	CategoryIPC,
	CategoryPageFaults,
	CategorySwaps,
	CategorySource,
}

// AllCategories returns every category in engine order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// String returns the category's name as the engine spells it.
func (c Category) String() string {
	switch c {
	case CategoryCPU:
		return "CPU"
	case CategoryContextSwitches:
		return "CONTEXT SWITCHES"
	case CategoryBlockIO:
		return "BLOCK IO"
	case CategoryIPC:
		return "IPC"
	case CategoryPageFaults:
		return "PAGE FAULTS"
	case CategorySwaps:
		return "SWAPS"
	case CategorySource:
		return "SOURCE"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// IsValid checks if the category is one of the closed set.
func (c Category) IsValid() bool {
	return c >= CategoryCPU && c <= CategorySource
}

// ParseCategory maps an engine category name back to its Category.
func ParseCategory(name string) (Category, error) {
	for _, c := range allCategories {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Normalize deduplicates the requested categories and returns them in
// engine order, dropping anything outside the closed set.
func Normalize(requested []Category) []Category {
	want := make(map[Category]bool, len(requested))
	for _, c := range requested {
		if c.IsValid() {
			want[c] = true
		}
	}
	var out []Category
	for _, c := range allCategories {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

// columnSchema declares one category's report columns: the group label
// shown on the first header line, the column labels on the second, and
// the fixed-width format spec of each column. The column count must equal
// the metric arity the engine returns for the category; that contract is
// imposed by the engine, not enforced here.
type columnSchema struct {
	group   string
	columns []string
	formats []string
}

// alwaysSchema covers the (status, duration) pair present in every row.
var alwaysSchema = columnSchema{
	group:   "",
	columns: []string{"Status", "Duration"},
	formats: []string{"%-20s", "%10s"},
}

var categorySchemas = map[Category]columnSchema{
	CategoryCPU: {
		group:   "",
		columns: []string{"CPU User", "CPU System"},
		formats: []string{"%10s", "%11s"},
	},
	CategoryContextSwitches: {
		group:   "Context",
		columns: []string{"voluntary", "involuntary"},
		formats: []string{"%10s", "%12s"},
	},
	CategoryBlockIO: {
		group:   "Block",
		columns: []string{"ops in", "ops out"},
		formats: []string{"%7s", "%8s"},
	},
	CategoryIPC: {
		group:   "Messages",
		columns: []string{"sent", "received"},
		formats: []string{"%9s", "%9s"},
	},
	CategoryPageFaults: {
		group:   "Page faults",
		columns: []string{"major", "minor"},
		formats: []string{"%12s", "%12s"},
	},
	CategorySwaps: {
		group:   "",
		columns: []string{"Swaps"},
		formats: []string{"%6s"},
	},
	CategorySource: {
		group:   "",
		columns: []string{"Source function", "Source file", "Source line"},
		formats: []string{"%18s", "%15s", "%12s"},
	},
}

// Arity returns the number of metric columns the engine reports for the
// category.
func (c Category) Arity() int {
	return len(categorySchemas[c].formats)
}
