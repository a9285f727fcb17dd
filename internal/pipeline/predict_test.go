package pipeline

import (
	"testing"

	"pbb/internal/config"
	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

func costTable(entries map[string]float64) *config.CostTable {
	return config.NewCostTable(entries)
}

func TestReferenceModel_FallbackChain(t *testing.T) {
	progs := []model.Program{
		{
			Key:        model.ProgramKey{Department: "Parks", Division: "North"},
			RoleCounts: map[string]int{"Ranger": 1, "Clerk": 1},
		},
		{
			Key:        model.ProgramKey{Department: "Library", Division: "Main"},
			RoleCounts: map[string]int{"Archivist": 1},
		},
	}
	table := costTable(map[string]float64{"Ranger": 100000, "Clerk": 50000})
	m := NewReferenceModel(progs, table)

	tests := []struct {
		name      string
		dept      string
		role      string
		wantCost  string
		wantBasis model.EstimationBasis
		wantOK    bool
	}{
		{"exact hit", "Parks", "Ranger", "100000", model.BasisExact, true},
		{"exact hit any department", "Library", "Clerk", "50000", model.BasisExact, true},
		{"department mean", "Parks", "Supervisor", "75000", model.BasisDepartmentFallback, true},
		{"global mean", "Library", "Archivist", "75000", model.BasisGlobalFallback, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, basis, ok := m.UnitCost(tt.dept, tt.role)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !cost.Equal(dec(t, tt.wantCost)) {
				t.Errorf("cost = %s, want %s", cost, tt.wantCost)
			}
			if basis != tt.wantBasis {
				t.Errorf("basis = %q, want %q", basis, tt.wantBasis)
			}
		})
	}
}

func TestReferenceModel_NoDataAnywhere(t *testing.T) {
	progs := []model.Program{{
		Key:        model.ProgramKey{Department: "Parks", Division: "North"},
		RoleCounts: map[string]int{"Ranger": 1},
	}}
	m := NewReferenceModel(progs, costTable(nil))

	if _, _, ok := m.UnitCost("Parks", "Ranger"); ok {
		t.Error("UnitCost resolved with an empty reference table")
	}
}

func TestPredictCosts_WeakestBasisWins(t *testing.T) {
	progs := []model.Program{{
		Key:             model.ProgramKey{Department: "Parks", Division: "North"},
		RoleCounts:      map[string]int{"Ranger": 2, "Supervisor": 1},
		AllocatedBudget: dec(t, "250000"),
	}}
	table := costTable(map[string]float64{"Ranger": 100000})
	m := NewReferenceModel(progs, table)

	warnings := PredictCosts(progs, m)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	p := progs[0]
	// 2 Rangers at the exact 100000 plus one Supervisor at the
	// department mean, which is 100000 with Ranger the only known role.
	if !p.PredictedCost.Equal(dec(t, "300000")) {
		t.Errorf("PredictedCost = %s, want 300000", p.PredictedCost)
	}
	if !p.Variance.Equal(dec(t, "50000")) {
		t.Errorf("Variance = %s, want 50000", p.Variance)
	}
	if p.EstimationBasis != model.BasisDepartmentFallback {
		t.Errorf("EstimationBasis = %q, want %q", p.EstimationBasis, model.BasisDepartmentFallback)
	}
}

func TestPredictCosts_UnresolvedRoleWarnsOnce(t *testing.T) {
	progs := []model.Program{
		{
			Key:             model.ProgramKey{Department: "Parks", Division: "North"},
			RoleCounts:      map[string]int{"Ranger": 1},
			AllocatedBudget: dec(t, "1000"),
		},
		{
			Key:             model.ProgramKey{Department: "Library", Division: "Main"},
			RoleCounts:      map[string]int{"Archivist": 1},
			AllocatedBudget: dec(t, "1000"),
		},
	}
	m := NewReferenceModel(progs, costTable(nil))

	warnings := PredictCosts(progs, m)
	if len(warnings) != 1 || warnings[0].Code != model.WarnNoReferenceCost {
		t.Fatalf("warnings = %v, want one no_reference_cost", warnings)
	}

	for _, p := range progs {
		if !p.PredictedCost.IsZero() {
			t.Errorf("%v PredictedCost = %s, want 0", p.Key, p.PredictedCost)
		}
		if !p.Variance.Equal(dec(t, "-1000")) {
			t.Errorf("%v Variance = %s, want -1000", p.Key, p.Variance)
		}
	}
}

func TestPredictCosts_EmptyProgramHoldsExactBasis(t *testing.T) {
	// A budget-only program has no roles to estimate; its prediction is
	// zero and its basis stays exact.
	progs := []model.Program{{
		Key:             model.ProgramKey{Department: "Library", Division: model.UnassignedDivision},
		RoleCounts:      map[string]int{},
		AllocatedBudget: dec(t, "50000"),
	}}
	m := NewReferenceModel(progs, costTable(map[string]float64{"Ranger": 100000}))

	warnings := PredictCosts(progs, m)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if !progs[0].PredictedCost.IsZero() {
		t.Errorf("PredictedCost = %s, want 0", progs[0].PredictedCost)
	}
	if !progs[0].Variance.Equal(dec(t, "-50000")) {
		t.Errorf("Variance = %s, want -50000", progs[0].Variance)
	}
	if progs[0].EstimationBasis != model.BasisExact {
		t.Errorf("EstimationBasis = %q, want exact", progs[0].EstimationBasis)
	}
}

func TestSalaryCostTable(t *testing.T) {
	salary := func(s string) *decimal.Decimal {
		d := dec(t, s)
		return &d
	}

	table := SalaryCostTable([]model.PositionRecord{
		{Department: "Parks", PositionName: "Ranger", Headcount: 2, Salary: salary("90000")},
		{Department: "Parks", PositionName: "ranger", Headcount: 1, Salary: salary("120000")},
		{Department: "Parks", PositionName: "Clerk", Headcount: 1},
	})

	// Headcount-weighted mean: (2*90000 + 1*120000) / 3 = 100000.
	got, ok := table.Lookup("Ranger")
	if !ok {
		t.Fatal("Ranger not derived from salaries")
	}
	if !got.Equal(dec(t, "100000")) {
		t.Errorf("Ranger cost = %s, want 100000", got)
	}

	if _, ok := table.Lookup("Clerk"); ok {
		t.Error("Clerk derived without salary data")
	}
}

func TestSalaryCostTable_MergeReferenceWins(t *testing.T) {
	salary := dec(t, "80000")
	derived := SalaryCostTable([]model.PositionRecord{
		{Department: "Parks", PositionName: "Ranger", Headcount: 1, Salary: &salary},
	})
	merged := derived.Merge(costTable(map[string]float64{"Ranger": 100000}))

	got, ok := merged.Lookup("Ranger")
	if !ok {
		t.Fatal("Ranger missing after merge")
	}
	if !got.Equal(dec(t, "100000")) {
		t.Errorf("merged Ranger cost = %s, want the configured reference to win", got)
	}
}
