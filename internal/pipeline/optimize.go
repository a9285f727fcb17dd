package pipeline

import (
	"fmt"
	"sort"

	"pbb/internal/config"
	"pbb/internal/model"

	"github.com/shopspring/decimal"
)

// OptimizeResult holds the optimizer's recommendations and any
// degeneracy diagnostics. Diagnostics are normal outcomes, not errors.
type OptimizeResult struct {
	Recommendations []model.Recommendation
	Diagnostics     []string
}

// party is one program's mutable state during the greedy pass.
type party struct {
	idx int // index into programs
	// amount still wanted (recipients) or still available (donors)
	remaining decimal.Decimal
	net       decimal.Decimal // accumulated signed delta
	inBand    bool
}

// Optimize proposes budget transfers from over-funded programs toward
// under-funded ones. The pass is greedy and fully deterministic: both
// sides are ranked by variance magnitude with (department, division)
// lexical order breaking ties, and the most under-funded unresolved
// recipient is repeatedly paired with the most over-funded unresolved
// donor. A donor's total outflow is capped at MaxShift of its starting
// allocation and can never drive its budget negative. A nonzero
// TotalDelta is settled first: an external grant feeds recipients in
// rank order, an external cut draws from donors in rank order, so the
// emitted deltas sum exactly to the configured delta, except that a
// cut can never draw more than the total allocated budget.
func Optimize(programs []model.Program, cfg config.Analysis) OptimizeResult {
	var res OptimizeResult

	totalBudget := decimal.Zero
	for _, p := range programs {
		totalBudget = totalBudget.Add(p.AllocatedBudget)
	}
	if totalBudget.IsZero() {
		res.Diagnostics = append(res.Diagnostics,
			"total allocated budget is zero; nothing to reallocate")
		return res
	}

	state := make([]*party, len(programs))
	var recipients, donors []*party

	for i := range programs {
		p := &programs[i]
		s := &party{idx: i}
		state[i] = s

		band := cfg.Tolerance.Mul(p.AllocatedBudget)
		if p.Variance.Abs().LessThanOrEqual(band) {
			s.inBand = true
			continue
		}

		if p.Variance.IsPositive() {
			s.remaining = p.Variance
			recipients = append(recipients, s)
		} else {
			shiftCap := cfg.MaxShift.Mul(p.AllocatedBudget)
			surplus := p.Variance.Neg()
			s.remaining = decimal.Min(surplus, shiftCap, p.AllocatedBudget)
			if s.remaining.IsPositive() {
				donors = append(donors, s)
			}
		}
	}

	// Rank: most under-funded recipients first, most over-funded donors
	// first, lexical key order on equal variance.
	sort.Slice(recipients, func(a, b int) bool {
		pa, pb := programs[recipients[a].idx], programs[recipients[b].idx]
		if !pa.Variance.Equal(pb.Variance) {
			return pa.Variance.GreaterThan(pb.Variance)
		}
		return pa.Key.Less(pb.Key)
	})
	sort.Slice(donors, func(a, b int) bool {
		pa, pb := programs[donors[a].idx], programs[donors[b].idx]
		if !pa.Variance.Equal(pb.Variance) {
			return pa.Variance.LessThan(pb.Variance)
		}
		return pa.Key.Less(pb.Key)
	})

	applyExternalDelta(cfg.TotalDelta, programs, state, recipients, donors, &res)

	// Budget-neutral pairing on whatever demand and surplus remain.
	ri, di := 0, 0
	for ri < len(recipients) && di < len(donors) {
		r, d := recipients[ri], donors[di]
		if !r.remaining.IsPositive() {
			ri++
			continue
		}
		if !d.remaining.IsPositive() {
			di++
			continue
		}

		transfer := decimal.Min(r.remaining, d.remaining)
		r.remaining = r.remaining.Sub(transfer)
		d.remaining = d.remaining.Sub(transfer)
		r.net = r.net.Add(transfer)
		d.net = d.net.Sub(transfer)
	}

	unmet := decimal.Zero
	unmetCount := 0
	for _, r := range recipients {
		if r.remaining.IsPositive() {
			unmet = unmet.Add(r.remaining)
			unmetCount++
		}
	}
	if unmet.IsPositive() {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("unmet demand of %s across %d program(s): no donor capacity remains",
				unmet, unmetCount))
	}

	undistributed := decimal.Zero
	for _, d := range donors {
		if d.remaining.IsPositive() {
			undistributed = undistributed.Add(d.remaining)
		}
	}
	if undistributed.IsPositive() {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("surplus of %s left in place: no under-funded program remains", undistributed))
	}

	res.Recommendations = buildRecommendations(programs, state)
	return res
}

// applyExternalDelta settles a requested overall budget change before
// the neutral pass. Grants go to recipients most under-funded first;
// cuts come from donors most over-funded first, then from any funded
// program in key order if donor capacity runs out (never below zero).
// A cut larger than the total allocated budget is applied only up to
// that total: non-negativity wins over matching the requested delta,
// and the unapplied remainder is reported as a diagnostic.
func applyExternalDelta(delta decimal.Decimal, programs []model.Program, state []*party, recipients, donors []*party, res *OptimizeResult) {
	switch {
	case delta.IsPositive():
		remaining := delta
		for _, r := range recipients {
			if !remaining.IsPositive() {
				break
			}
			grant := decimal.Min(r.remaining, remaining)
			r.remaining = r.remaining.Sub(grant)
			r.net = r.net.Add(grant)
			remaining = remaining.Sub(grant)
		}
		if remaining.IsPositive() {
			// All shortfalls met; park the rest with the most
			// under-funded program, or the first program by key.
			target := state[0]
			if len(recipients) > 0 {
				target = recipients[0]
			}
			target.net = target.net.Add(remaining)
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("budget increase exceeds total shortfall by %s; excess assigned to %s",
					remaining, programs[target.idx].Key))
		}

	case delta.IsNegative():
		remaining := delta.Neg()
		for _, d := range donors {
			if !remaining.IsPositive() {
				break
			}
			cut := decimal.Min(d.remaining, remaining)
			d.remaining = d.remaining.Sub(cut)
			d.net = d.net.Sub(cut)
			remaining = remaining.Sub(cut)
		}
		if remaining.IsPositive() {
			// Donor capacity exhausted; draw down remaining funded
			// programs in key order, ignoring the shift cap but never
			// driving an allocation negative.
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("requested cut exceeds donor capacity; drawing %s beyond the shift cap", remaining))
			for _, s := range state {
				if !remaining.IsPositive() {
					break
				}
				available := programs[s.idx].AllocatedBudget.Add(s.net)
				if !available.IsPositive() {
					continue
				}
				cut := decimal.Min(available, remaining)
				s.net = s.net.Sub(cut)
				remaining = remaining.Sub(cut)
			}
			if remaining.IsPositive() {
				res.Diagnostics = append(res.Diagnostics,
					fmt.Sprintf("requested cut exceeds total allocated budget; %s could not be applied", remaining))
			}
		}
	}
}

// buildRecommendations emits one recommendation per program with a
// nonzero net transfer, plus explicit holds for in-band programs,
// ordered by program key.
func buildRecommendations(programs []model.Program, state []*party) []model.Recommendation {
	var recs []model.Recommendation

	for _, s := range state {
		p := programs[s.idx]
		switch {
		case s.net.IsPositive():
			recs = append(recs, model.Recommendation{
				ProgramKey:  p.Key,
				Action:      model.ActionIncrease,
				DeltaAmount: s.net,
				Rationale: fmt.Sprintf("predicted cost %s exceeds allocation %s; transfer covers %s of the shortfall",
					p.PredictedCost, p.AllocatedBudget, s.net),
				Confidence: confidenceFor(p.EstimationBasis),
			})
		case s.net.IsNegative():
			recs = append(recs, model.Recommendation{
				ProgramKey:  p.Key,
				Action:      model.ActionDecrease,
				DeltaAmount: s.net,
				Rationale: fmt.Sprintf("allocation %s exceeds predicted cost %s; %s released",
					p.AllocatedBudget, p.PredictedCost, s.net.Neg()),
				Confidence: confidenceFor(p.EstimationBasis),
			})
		case s.inBand:
			recs = append(recs, model.Recommendation{
				ProgramKey:  p.Key,
				Action:      model.ActionHold,
				DeltaAmount: decimal.Zero,
				Rationale: fmt.Sprintf("variance %s is within the tolerance band",
					p.Variance),
				Confidence: confidenceFor(p.EstimationBasis),
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ProgramKey.Less(recs[j].ProgramKey)
	})
	return recs
}

// confidenceFor maps the estimation basis to a confidence score:
// weaker cost evidence means a weaker recommendation.
func confidenceFor(basis model.EstimationBasis) float64 {
	switch basis {
	case model.BasisExact:
		return 0.9
	case model.BasisDepartmentFallback:
		return 0.7
	default:
		return 0.5
	}
}
