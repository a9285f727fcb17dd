package pipeline

import (
	"sort"

	"pbb/internal/config"
	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

// CostModel maps a (department, role) pair to a unit-cost estimate and
// the basis that produced it. Implementations must be deterministic and
// safe for concurrent use; the pipeline treats them as read-only.
type CostModel interface {
	UnitCost(department, role string) (decimal.Decimal, model.EstimationBasis, bool)
}

// ReferenceModel is the rule-based CostModel: exact reference lookup,
// then the department mean over known roles, then the global mean.
type ReferenceModel struct {
	table      *config.CostTable
	deptMeans  map[string]decimal.Decimal
	globalMean decimal.Decimal
	hasGlobal  bool
}

// NewReferenceModel precomputes the fallback means from the roles
// actually observed in the program set. Means are unweighted over
// distinct known roles, per department and globally.
func NewReferenceModel(programs []model.Program, table *config.CostTable) *ReferenceModel {
	m := &ReferenceModel{
		table:     table,
		deptMeans: make(map[string]decimal.Decimal),
	}

	deptRoles := make(map[string]map[string]decimal.Decimal)
	globalRoles := make(map[string]decimal.Decimal)

	for _, p := range programs {
		deptKey := model.MatchKey(p.Key.Department)
		for role := range p.RoleCounts {
			cost, ok := table.Lookup(role)
			if !ok {
				continue
			}
			roleKey := config.NormalizeRoleName(role)
			if deptRoles[deptKey] == nil {
				deptRoles[deptKey] = make(map[string]decimal.Decimal)
			}
			deptRoles[deptKey][roleKey] = cost
			globalRoles[roleKey] = cost
		}
	}

	for deptKey, roles := range deptRoles {
		m.deptMeans[deptKey] = meanOf(roles)
	}
	if len(globalRoles) > 0 {
		m.globalMean = meanOf(globalRoles)
		m.hasGlobal = true
	}

	return m
}

func meanOf(costs map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range costs {
		sum = sum.Add(c)
	}
	return sum.Div(decimal.NewFromInt(int64(len(costs))))
}

// UnitCost resolves the fallback chain for one role.
func (m *ReferenceModel) UnitCost(department, role string) (decimal.Decimal, model.EstimationBasis, bool) {
	if cost, ok := m.table.Lookup(role); ok {
		return cost, model.BasisExact, true
	}
	if mean, ok := m.deptMeans[model.MatchKey(department)]; ok {
		return mean, model.BasisDepartmentFallback, true
	}
	if m.hasGlobal {
		return m.globalMean, model.BasisGlobalFallback, true
	}
	return decimal.Zero, model.BasisGlobalFallback, false
}

// PredictCosts fills PredictedCost, Variance, and EstimationBasis on
// every program. A program's basis is the weakest basis any of its
// roles needed. Roles the model cannot estimate at all contribute zero
// and produce a single no_reference_cost warning for the run.
func PredictCosts(programs []model.Program, cm CostModel) []model.Warning {
	var warnings []model.Warning
	unresolved := 0

	for i := range programs {
		p := &programs[i]
		cost := decimal.Zero
		basis := model.BasisExact

		roles := make([]string, 0, len(p.RoleCounts))
		for role := range p.RoleCounts {
			roles = append(roles, role)
		}
		sort.Strings(roles)

		for _, role := range roles {
			unit, b, ok := cm.UnitCost(p.Key.Department, role)
			if !ok {
				unresolved++
				basis = model.BasisGlobalFallback
				continue
			}
			cost = cost.Add(unit.Mul(decimal.NewFromInt(int64(p.RoleCounts[role]))))
			basis = weakerBasis(basis, b)
		}

		p.PredictedCost = cost
		p.Variance = cost.Sub(p.AllocatedBudget)
		p.EstimationBasis = basis
	}

	if unresolved > 0 {
		warnings = append(warnings, model.Warning{
			Code:    model.WarnNoReferenceCost,
			Message: "no reference or payroll data for some roles; their cost contribution is zero",
		})
	}

	return warnings
}

// basisRank orders estimation bases from strongest to weakest.
func basisRank(b model.EstimationBasis) int {
	switch b {
	case model.BasisExact:
		return 0
	case model.BasisDepartmentFallback:
		return 1
	default:
		return 2
	}
}

func weakerBasis(a, b model.EstimationBasis) model.EstimationBasis {
	if basisRank(b) > basisRank(a) {
		return b
	}
	return a
}

// SalaryCostTable derives a unit-cost table from the Salary column:
// the headcount-weighted mean observed salary per role. It fills gaps
// in the configured reference; configured entries take precedence.
func SalaryCostTable(positions []model.PositionRecord) *config.CostTable {
	type roleAgg struct {
		display string
		total   decimal.Decimal
		count   int64
	}
	agg := make(map[string]*roleAgg)

	for _, p := range positions {
		if p.Salary == nil || p.Headcount == 0 {
			continue
		}
		key := config.NormalizeRoleName(p.PositionName)
		if key == "" {
			continue
		}
		a, ok := agg[key]
		if !ok {
			a = &roleAgg{display: p.PositionName}
			agg[key] = a
		}
		hc := decimal.NewFromInt(int64(p.Headcount))
		a.total = a.total.Add(p.Salary.Mul(hc))
		a.count += int64(p.Headcount)
	}

	if len(agg) == 0 {
		return config.NewCostTable(nil)
	}

	// Build directly with decimals to avoid a float round-trip.
	derived := make(map[string]decimal.Decimal, len(agg))
	names := make(map[string]string, len(agg))
	for key, a := range agg {
		derived[key] = a.total.Div(decimal.NewFromInt(a.count))
		names[key] = a.display
	}
	return config.CostTableFromDecimals(derived, names)
}
