package store

import (
	"path/filepath"
	"testing"
	"time"

	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func sampleResult(t *testing.T) *model.AnalysisResult {
	t.Helper()
	alloc := decimal.NewFromInt(300000)
	pred := decimal.NewFromInt(360000)
	return &model.AnalysisResult{
		Programs: []model.Program{{
			Key:             model.ProgramKey{Department: "Parks", Division: "North"},
			PositionCount:   3,
			RoleCounts:      map[string]int{"Ranger": 3},
			AllocatedBudget: alloc,
			PredictedCost:   pred,
			Variance:        pred.Sub(alloc),
			EstimationBasis: model.BasisExact,
		}},
		Recommendations: []model.Recommendation{{
			ProgramKey:  model.ProgramKey{Department: "Parks", Division: "North"},
			Action:      model.ActionIncrease,
			DeltaAmount: decimal.NewFromInt(60000),
			Rationale:   "predicted cost exceeds allocation",
			Confidence:  0.9,
		}},
		Summary: model.Summary{
			TotalBudget:        alloc,
			TotalPredictedCost: pred,
			TotalVariance:      pred.Sub(alloc),
			ProgramCount:       1,
		},
		Warnings: []model.Warning{{
			Code:    model.WarnOrphanBudget,
			Message: "department has a budget but no positions",
		}},
		Diagnostics: []string{"unmet demand of 60000"},
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	h := openTestHistory(t)

	id, err := h.SaveRun("march review", "positions.csv", "budgets.csv", sampleResult(t))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	res, meta, err := h.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}

	if meta.Label != "march review" || meta.PositionsFile != "positions.csv" {
		t.Errorf("meta = %+v", meta)
	}
	if !meta.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", meta.CreatedAt)
	}

	if len(res.Programs) != 1 {
		t.Fatalf("got %d programs, want 1", len(res.Programs))
	}
	p := res.Programs[0]
	if p.Key.Department != "Parks" || p.Key.Division != "North" {
		t.Errorf("key = %v", p.Key)
	}
	if !p.AllocatedBudget.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("AllocatedBudget = %s", p.AllocatedBudget)
	}
	if p.RoleCounts["Ranger"] != 3 {
		t.Errorf("RoleCounts = %v", p.RoleCounts)
	}
	if p.EstimationBasis != model.BasisExact {
		t.Errorf("EstimationBasis = %q", p.EstimationBasis)
	}

	if len(res.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(res.Recommendations))
	}
	r := res.Recommendations[0]
	if r.Action != model.ActionIncrease || !r.DeltaAmount.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("recommendation = %+v", r)
	}
	if r.Confidence != 0.9 {
		t.Errorf("Confidence = %v", r.Confidence)
	}

	if len(res.Warnings) != 1 || res.Warnings[0].Code != model.WarnOrphanBudget {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}
	if !res.Summary.TotalVariance.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("Summary = %+v", res.Summary)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	h := openTestHistory(t)

	first := sampleResult(t)
	second := sampleResult(t)
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	if _, err := h.SaveRun("older", "a.csv", "b.csv", first); err != nil {
		t.Fatal(err)
	}
	if _, err := h.SaveRun("newer", "a.csv", "b.csv", second); err != nil {
		t.Fatal(err)
	}

	metas, err := h.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d runs, want 2", len(metas))
	}
	if metas[0].Label != "newer" || metas[1].Label != "older" {
		t.Errorf("order = %s, %s", metas[0].Label, metas[1].Label)
	}
}

func TestDeleteRun_CascadesDetail(t *testing.T) {
	h := openTestHistory(t)

	id, err := h.SaveRun("", "a.csv", "b.csv", sampleResult(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	if _, _, err := h.LoadRun(id); err == nil {
		t.Error("LoadRun succeeded after delete")
	}

	var orphans int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM run_programs").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("run_programs rows after cascade = %d", orphans)
	}
}

func TestRunCount(t *testing.T) {
	h := openTestHistory(t)

	n, err := h.RunCount()
	if err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	if _, err := h.SaveRun("", "a.csv", "b.csv", sampleResult(t)); err != nil {
		t.Fatal(err)
	}
	n, err = h.RunCount()
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v", n, err)
	}
}
