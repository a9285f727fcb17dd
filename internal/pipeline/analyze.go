package pipeline

import (
	"time"

	"pbb/internal/config"
	"pbb/internal/model"
	"pbb/internal/source"
)

// Analyze runs the full pipeline on the two raw input tables: ingest,
// aggregate, predict, optimize, assemble. It is the single entry
// operation of the engine. Schema and validation failures abort with a
// typed error and no partial result; consistency findings accumulate
// as warnings in the result instead.
//
// Analyze is pure apart from the result timestamp: concurrent calls
// share nothing but the read-only cost table inside cfg.
func Analyze(positions, budgets *source.Table, cfg config.Analysis) (*model.AnalysisResult, error) {
	return AnalyzeAt(positions, budgets, cfg, time.Now().UTC())
}

// AnalyzeAt is Analyze with a caller-supplied result timestamp, which
// makes runs fully reproducible.
func AnalyzeAt(positions, budgets *source.Table, cfg config.Analysis, at time.Time) (*model.AnalysisResult, error) {
	posRecords, err := source.NormalizePositions(positions)
	if err != nil {
		return nil, err
	}
	budgetRecords, warnings, err := source.NormalizeBudgets(budgets)
	if err != nil {
		return nil, err
	}

	programs, aggWarnings := BuildPrograms(posRecords, budgetRecords)
	warnings = append(warnings, aggWarnings...)

	// Payroll-derived unit costs fill reference gaps; configured
	// reference entries win on conflict.
	costs := SalaryCostTable(posRecords).Merge(cfg.Costs)

	cm := NewReferenceModel(programs, costs)
	warnings = append(warnings, PredictCosts(programs, cm)...)

	opt := Optimize(programs, cfg)

	return Assemble(programs, opt, warnings, at), nil
}
