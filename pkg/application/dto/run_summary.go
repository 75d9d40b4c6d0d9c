package dto

import (
	"fmt"
	"sort"
	"time"
)

// ValidationSummary reports the outcome of business-rule validation
type ValidationSummary struct {
	Passed       bool
	ErrorCount   int
	WarningCount int
	Errors       []string
	Warnings     []string
}

// RunSummary contains the complete output of a generation run
type RunSummary struct {
	StartDate    time.Time
	EndDate      time.Time
	TableCounts  map[string]int
	TotalRecords int
	Elapsed      time.Duration
	Validation   *ValidationSummary
	Degraded     []string
}

// GetSummary returns a formatted summary of the run results
func (r *RunSummary) GetSummary() string {
	summary := fmt.Sprintf("Generation Summary (%s to %s):\n",
		r.StartDate.Format("2006-01-02"),
		r.EndDate.Format("2006-01-02"))

	tables := make([]string, 0, len(r.TableCounts))
	for table := range r.TableCounts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		summary += fmt.Sprintf("  %s: %d records\n", table, r.TableCounts[table])
	}

	summary += fmt.Sprintf("  Total: %d records in %s\n", r.TotalRecords, r.Elapsed.Round(time.Millisecond))
	if r.Validation != nil {
		summary += fmt.Sprintf("  Validation: passed=%v, %d errors, %d warnings",
			r.Validation.Passed, r.Validation.ErrorCount, r.Validation.WarningCount)
	}
	return summary
}
