// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pbb/internal/model"
)

// FormatMoney formats a currency amount with comma separators, keeping
// cents only when the amount has them. e.g., 1234567 -> "$1,234,567",
// 33.34 -> "$33.34"
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}

	whole := d.Truncate(0)
	frac := d.Sub(whole)

	s := "$" + FormatNumber(whole.IntPart())
	if !frac.IsZero() {
		cents := frac.StringFixed(2)
		s += strings.TrimPrefix(cents, "0")
	}
	return s
}

// FormatSignedMoney renders a delta with an explicit sign, for variance
// and recommendation columns.
func FormatSignedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatMoney(d)
	}
	return "+" + FormatMoney(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatVariancePercent renders variance relative to the allocated
// budget, or "n/a" when there is no allocation to compare against.
func FormatVariancePercent(variance, allocated decimal.Decimal) string {
	if allocated.IsZero() {
		return "n/a"
	}
	ratio, _ := variance.Div(allocated).Float64()
	if ratio >= 0 {
		return "+" + FormatPercent(ratio)
	}
	return FormatPercent(ratio)
}

// FormatBasis maps an estimation basis to a short display label.
func FormatBasis(b model.EstimationBasis) string {
	switch b {
	case model.BasisExact:
		return "exact"
	case model.BasisDepartmentFallback:
		return "dept mean"
	case model.BasisGlobalFallback:
		return "global mean"
	default:
		return string(b)
	}
}

// FormatAction maps a recommendation action to a display label.
func FormatAction(a model.Action) string {
	switch a {
	case model.ActionIncrease:
		return "increase"
	case model.ActionDecrease:
		return "decrease"
	case model.ActionHold:
		return "hold"
	default:
		return string(a)
	}
}

// FormatProgram renders a program key as "Department / Division".
func FormatProgram(k model.ProgramKey) string {
	return k.Department + " / " + k.Division
}
