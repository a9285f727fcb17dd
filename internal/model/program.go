package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstimationBasis tags how a program's predicted cost was derived.
type EstimationBasis string

const (
	// BasisExact means every role had a reference unit cost.
	BasisExact EstimationBasis = "exact"
	// BasisDepartmentFallback means at least one role used its
	// department's mean unit cost.
	BasisDepartmentFallback EstimationBasis = "department_fallback"
	// BasisGlobalFallback means at least one role used the global mean.
	BasisGlobalFallback EstimationBasis = "global_fallback"
)

// Program is the derived entity for one (department, division) pair.
type Program struct {
	Key             ProgramKey      `json:"key"`
	PositionCount   int             `json:"position_count"`
	RoleCounts      map[string]int  `json:"position_name_distribution"`
	AllocatedBudget decimal.Decimal `json:"allocated_budget"`
	PredictedCost   decimal.Decimal `json:"predicted_cost"`
	// Variance = PredictedCost - AllocatedBudget. Positive means
	// under-funded, negative over-funded.
	Variance        decimal.Decimal `json:"variance"`
	EstimationBasis EstimationBasis `json:"estimation_basis"`
}

// Action is the direction of a budget recommendation.
type Action string

const (
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionHold     Action = "hold"
)

// Recommendation proposes a budget change for one program.
type Recommendation struct {
	ProgramKey  ProgramKey      `json:"program_key"`
	Action      Action          `json:"action"`
	DeltaAmount decimal.Decimal `json:"delta_amount"`
	Rationale   string          `json:"rationale"`
	Confidence  float64         `json:"confidence"`
}

// Summary holds the result-level totals.
type Summary struct {
	TotalBudget        decimal.Decimal `json:"total_budget"`
	TotalPredictedCost decimal.Decimal `json:"total_predicted_cost"`
	TotalVariance      decimal.Decimal `json:"total_variance"`
	ProgramCount       int             `json:"program_count"`
}

// AnalysisResult is the root aggregate of one analysis run. It is built
// once by the reporter and never mutated afterwards; concurrent runs
// each own their own result.
type AnalysisResult struct {
	Programs        []Program        `json:"programs"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         Summary          `json:"summary"`
	Warnings        []Warning        `json:"warnings,omitempty"`
	Diagnostics     []string         `json:"diagnostics,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
