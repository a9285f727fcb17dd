package pipeline

import (
	"time"

	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

// Assemble builds the immutable AnalysisResult from the component
// outputs. It computes the summary totals and carries every upstream
// warning and diagnostic; it performs no further analysis, so calling
// it twice on identical inputs yields identical results.
func Assemble(programs []model.Program, opt OptimizeResult, warnings []model.Warning, at time.Time) *model.AnalysisResult {
	summary := model.Summary{ProgramCount: len(programs)}
	totalBudget := decimal.Zero
	totalPredicted := decimal.Zero
	for _, p := range programs {
		totalBudget = totalBudget.Add(p.AllocatedBudget)
		totalPredicted = totalPredicted.Add(p.PredictedCost)
	}
	summary.TotalBudget = totalBudget
	summary.TotalPredictedCost = totalPredicted
	summary.TotalVariance = totalPredicted.Sub(totalBudget)

	return &model.AnalysisResult{
		Programs:        programs,
		Recommendations: opt.Recommendations,
		Summary:         summary,
		Warnings:        warnings,
		Diagnostics:     opt.Diagnostics,
		CreatedAt:       at,
	}
}
