// Package model defines domain types for budget analysis runs.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnassignedDivision is the sentinel division for position rows with a
// blank Division column. Rows are never dropped for a missing division.
const UnassignedDivision = "Unassigned"

// PositionRecord is one normalized row of the positions table.
type PositionRecord struct {
	Department   string           `json:"department"`
	Division     string           `json:"division"`
	PositionName string           `json:"position_name"`
	Headcount    int              `json:"headcount"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
}

// BudgetRecord is one normalized row of the department budgets table.
type BudgetRecord struct {
	Department string          `json:"department"`
	Budget     decimal.Decimal `json:"budget"`
}

// MatchKey folds a display name into the key used for joining the two
// input tables. Display casing is preserved elsewhere; only matching is
// case-insensitive.
func MatchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProgramKey identifies a program: one (department, division) pair.
type ProgramKey struct {
	Department string `json:"department"`
	Division   string `json:"division"`
}

func (k ProgramKey) String() string {
	return k.Department + " / " + k.Division
}

// Less orders keys by department then division, the canonical output
// order and the tie-break rule everywhere ordering matters.
func (k ProgramKey) Less(other ProgramKey) bool {
	if k.Department != other.Department {
		return k.Department < other.Department
	}
	return k.Division < other.Division
}
