package source

import (
	"fmt"
	"sort"
	"strconv"

	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

// Required column names. These are exact-match contract surface;
// additional columns are ignored.
const (
	ColDepartment   = "Department"
	ColDivision     = "Division"
	ColPositionName = "Position Name"
	ColBudget       = "Budget"

	// Optional position columns.
	ColHeadcount = "Headcount"
	ColSalary    = "Salary"
)

// NormalizePositions validates and normalizes the positions table.
// Rows with a blank Division are assigned the Unassigned sentinel so
// headcount is never silently dropped; fully blank rows are skipped.
func NormalizePositions(t *Table) ([]model.PositionRecord, error) {
	if err := requireColumns(t, ColDepartment, ColDivision, ColPositionName); err != nil {
		return nil, err
	}

	deptCol := t.columnIndex(ColDepartment)
	divCol := t.columnIndex(ColDivision)
	roleCol := t.columnIndex(ColPositionName)
	headCol := t.columnIndex(ColHeadcount)
	salaryCol := t.columnIndex(ColSalary)

	var records []model.PositionRecord
	for i, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := i + 1

		dept := cell(row, deptCol)
		if dept == "" {
			return nil, &model.ValidationError{
				File: t.Name, Row: rowNum, Field: ColDepartment,
				Reason: "department is empty",
			}
		}

		role := cell(row, roleCol)
		if role == "" {
			return nil, &model.ValidationError{
				File: t.Name, Row: rowNum, Field: ColPositionName,
				Reason: "position name is empty",
			}
		}

		div := cell(row, divCol)
		if div == "" {
			div = model.UnassignedDivision
		}

		rec := model.PositionRecord{
			Department:   dept,
			Division:     div,
			PositionName: role,
			Headcount:    1,
		}

		if hc := cell(row, headCol); hc != "" {
			n, err := strconv.Atoi(hc)
			if err != nil || n < 0 {
				return nil, &model.ValidationError{
					File: t.Name, Row: rowNum, Field: ColHeadcount,
					Reason: fmt.Sprintf("%q is not a non-negative integer", hc),
				}
			}
			rec.Headcount = n
		}

		if sal := cell(row, salaryCol); sal != "" {
			d, err := decimal.NewFromString(sal)
			if err != nil {
				return nil, &model.ValidationError{
					File: t.Name, Row: rowNum, Field: ColSalary,
					Reason: fmt.Sprintf("%q is not numeric", sal),
				}
			}
			if d.IsNegative() {
				return nil, &model.ValidationError{
					File: t.Name, Row: rowNum, Field: ColSalary,
					Reason: "salary is negative",
				}
			}
			rec.Salary = &d
		}

		records = append(records, rec)
	}

	return records, nil
}

// NormalizeBudgets validates and normalizes the budgets table. Multiple
// rows for one department are summed and flagged with a warning, so the
// output has exactly one record per department, sorted by display name.
func NormalizeBudgets(t *Table) ([]model.BudgetRecord, []model.Warning, error) {
	if err := requireColumns(t, ColDepartment, ColBudget); err != nil {
		return nil, nil, err
	}

	deptCol := t.columnIndex(ColDepartment)
	budgetCol := t.columnIndex(ColBudget)

	totals := make(map[string]decimal.Decimal)
	display := make(map[string]string)
	seen := make(map[string]int)
	var warnings []model.Warning

	for i, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := i + 1

		dept := cell(row, deptCol)
		if dept == "" {
			return nil, nil, &model.ValidationError{
				File: t.Name, Row: rowNum, Field: ColDepartment,
				Reason: "department is empty",
			}
		}

		raw := cell(row, budgetCol)
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, nil, &model.ValidationError{
				File: t.Name, Row: rowNum, Field: ColBudget,
				Reason: fmt.Sprintf("%q is not numeric", raw),
			}
		}
		if amount.IsNegative() {
			return nil, nil, &model.ValidationError{
				File: t.Name, Row: rowNum, Field: ColBudget,
				Reason: fmt.Sprintf("budget %s is negative", amount),
			}
		}

		key := model.MatchKey(dept)
		totals[key] = totals[key].Add(amount)
		if _, ok := display[key]; !ok {
			display[key] = dept
		}
		seen[key]++
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]model.BudgetRecord, 0, len(keys))
	for _, key := range keys {
		if seen[key] > 1 {
			warnings = append(warnings, model.Warning{
				Code: model.WarnDuplicateBudget,
				Message: fmt.Sprintf("%s: %d budget rows for department %q summed to %s",
					t.Name, seen[key], display[key], totals[key]),
			})
		}
		records = append(records, model.BudgetRecord{
			Department: display[key],
			Budget:     totals[key],
		})
	}

	return records, warnings, nil
}

// requireColumns returns a SchemaError naming every missing column.
func requireColumns(t *Table, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if t.columnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &model.SchemaError{File: t.Name, Missing: missing}
	}
	return nil
}
