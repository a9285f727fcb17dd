package model

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input table.
// It is fatal: analysis aborts with no partial result.
type SchemaError struct {
	File    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s",
		e.File, strings.Join(e.Missing, ", "))
}

// ValidationError reports an out-of-domain value in an input table,
// such as a negative budget. Fatal for the offending file.
type ValidationError struct {
	File   string
	Row    int // 1-based data row, excluding the header
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: row %d, column %q: %s", e.File, e.Row, e.Field, e.Reason)
}

// WarningCode classifies non-fatal consistency findings.
type WarningCode string

const (
	// WarnOrphanBudget flags a department budgeted but with no positions.
	WarnOrphanBudget WarningCode = "orphan_budget"
	// WarnOrphanPositions flags a department staffed but with no budget.
	WarnOrphanPositions WarningCode = "orphan_positions"
	// WarnDuplicateBudget flags multiple budget rows for one department.
	WarnDuplicateBudget WarningCode = "duplicate_budget"
	// WarnNoReferenceCost flags prediction without any reference data.
	WarnNoReferenceCost WarningCode = "no_reference_cost"
)

// Warning is a non-fatal consistency finding. Warnings accumulate
// through the pipeline and ride in the result; they are never raised.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}
