// Package pipeline implements the budget analysis pipeline: program
// aggregation, cost prediction, optimization, and result assembly.
package pipeline

import (
	"fmt"
	"sort"

	"pbb/internal/config"
	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

var centUnit = decimal.New(1, -2) // 0.01

// divisionGroup accumulates positions for one (department, division).
type divisionGroup struct {
	key       model.ProgramKey
	headcount int
	roles     map[string]int    // display role name -> headcount
	roleNames map[string]string // normalized role -> display role name
}

// groupKey is the case-folded join key for one division group.
type groupKey struct {
	dept string
	div  string
}

// BuildPrograms joins normalized positions and budgets into one Program
// per (department, division). Department budgets are apportioned across
// divisions pro-rata by headcount; cent remainders go to divisions in
// lexical order. Departments present in only one input produce a
// zero-sided program plus a consistency warning.
func BuildPrograms(positions []model.PositionRecord, budgets []model.BudgetRecord) ([]model.Program, []model.Warning) {
	byDept := make(map[string][]*divisionGroup)
	divIdx := make(map[groupKey]*divisionGroup)
	deptDisplay := make(map[string]string)

	for _, p := range positions {
		deptKey := model.MatchKey(p.Department)
		if _, ok := deptDisplay[deptKey]; !ok {
			deptDisplay[deptKey] = p.Department
		}

		// Divisions and roles join case-folded like departments do;
		// the first-seen spelling becomes the display name.
		gk := groupKey{dept: deptKey, div: model.MatchKey(p.Division)}
		g, ok := divIdx[gk]
		if !ok {
			g = &divisionGroup{
				key: model.ProgramKey{
					Department: deptDisplay[deptKey],
					Division:   p.Division,
				},
				roles:     make(map[string]int),
				roleNames: make(map[string]string),
			}
			divIdx[gk] = g
			byDept[deptKey] = append(byDept[deptKey], g)
		}
		g.headcount += p.Headcount

		roleKey := config.NormalizeRoleName(p.PositionName)
		if _, ok := g.roleNames[roleKey]; !ok {
			g.roleNames[roleKey] = p.PositionName
		}
		g.roles[g.roleNames[roleKey]] += p.Headcount
	}

	budgetByDept := make(map[string]model.BudgetRecord, len(budgets))
	for _, b := range budgets {
		budgetByDept[model.MatchKey(b.Department)] = b
	}

	var warnings []model.Warning
	var programs []model.Program

	deptKeys := make([]string, 0, len(byDept))
	for k := range byDept {
		deptKeys = append(deptKeys, k)
	}
	sort.Strings(deptKeys)

	for _, deptKey := range deptKeys {
		groups := byDept[deptKey]
		sort.Slice(groups, func(i, j int) bool {
			return groups[i].key.Less(groups[j].key)
		})

		budget, haveBudget := budgetByDept[deptKey]
		if !haveBudget {
			warnings = append(warnings, model.Warning{
				Code: model.WarnOrphanPositions,
				Message: fmt.Sprintf("department %q has positions but no budget record",
					deptDisplay[deptKey]),
			})
		}

		shares := make([]decimal.Decimal, len(groups))
		if haveBudget {
			weights := make([]int64, len(groups))
			for i, g := range groups {
				weights[i] = int64(g.headcount)
			}
			shares = Apportion(budget.Budget, weights)
		}

		for i, g := range groups {
			programs = append(programs, model.Program{
				Key:             g.key,
				PositionCount:   g.headcount,
				RoleCounts:      g.roles,
				AllocatedBudget: shares[i],
			})
		}
	}

	// Departments budgeted but not staffed: a single program in the
	// Unassigned division holding the full budget, eligible as a donor.
	budgetKeys := make([]string, 0, len(budgetByDept))
	for k := range budgetByDept {
		budgetKeys = append(budgetKeys, k)
	}
	sort.Strings(budgetKeys)

	for _, deptKey := range budgetKeys {
		if _, staffed := byDept[deptKey]; staffed {
			continue
		}
		b := budgetByDept[deptKey]
		warnings = append(warnings, model.Warning{
			Code: model.WarnOrphanBudget,
			Message: fmt.Sprintf("department %q has a budget of %s but no positions",
				b.Department, b.Budget),
		})
		programs = append(programs, model.Program{
			Key: model.ProgramKey{
				Department: b.Department,
				Division:   model.UnassignedDivision,
			},
			RoleCounts:      map[string]int{},
			AllocatedBudget: b.Budget,
		})
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].Key.Less(programs[j].Key)
	})

	return programs, warnings
}

// Apportion splits total across weights pro-rata, conserving the total
// exactly. Each share is floored to the cent and leftover cents are
// handed out one at a time in slice order, which is lexical division
// order at the call site. Zero total weight falls back to an equal
// split.
func Apportion(total decimal.Decimal, weights []int64) []decimal.Decimal {
	n := len(weights)
	if n == 0 {
		return nil
	}

	var sum int64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		weights = make([]int64, n)
		for i := range weights {
			weights[i] = 1
		}
		sum = int64(n)
	}

	shares := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	den := decimal.NewFromInt(sum)
	for i, w := range weights {
		shares[i] = total.Mul(decimal.NewFromInt(w)).Div(den).RoundDown(2)
		allocated = allocated.Add(shares[i])
	}

	remainder := total.Sub(allocated)
	for i := 0; remainder.GreaterThanOrEqual(centUnit); i = (i + 1) % n {
		shares[i] = shares[i].Add(centUnit)
		remainder = remainder.Sub(centUnit)
	}
	if remainder.IsPositive() {
		// Sub-cent residue from inputs finer than currency precision.
		shares[0] = shares[0].Add(remainder)
	}

	return shares
}
