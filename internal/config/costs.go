package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CostTable is an immutable role -> unit cost reference snapshot.
// Concurrent analysis runs may share one table; reloading the reference
// produces a new snapshot, never an in-place update.
type CostTable struct {
	costs map[string]decimal.Decimal
	names map[string]string // normalized -> display name
}

// NewCostTable builds a snapshot from display role names and costs.
// Later duplicates of the same normalized role win.
func NewCostTable(entries map[string]float64) *CostTable {
	t := &CostTable{
		costs: make(map[string]decimal.Decimal, len(entries)),
		names: make(map[string]string, len(entries)),
	}
	// Iterate in sorted order so duplicate-key resolution is stable.
	roles := make([]string, 0, len(entries))
	for role := range entries {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		t.set(role, decimal.NewFromFloat(entries[role]))
	}
	return t
}

func (t *CostTable) set(role string, cost decimal.Decimal) {
	key := NormalizeRoleName(role)
	if key == "" {
		return
	}
	t.costs[key] = cost
	t.names[key] = strings.TrimSpace(role)
}

// Lookup returns the unit cost for a role, normalizing the name first.
func (t *CostTable) Lookup(role string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	c, ok := t.costs[NormalizeRoleName(role)]
	return c, ok
}

// Len returns the number of known roles.
func (t *CostTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.costs)
}

// Roles returns the known display role names sorted ascending.
func (t *CostTable) Roles() []string {
	if t == nil {
		return nil
	}
	roles := make([]string, 0, len(t.names))
	for _, name := range t.names {
		roles = append(roles, name)
	}
	sort.Strings(roles)
	return roles
}

// Merge returns a new snapshot with other's entries layered over t.
// Neither input is modified.
func (t *CostTable) Merge(other *CostTable) *CostTable {
	merged := &CostTable{
		costs: make(map[string]decimal.Decimal),
		names: make(map[string]string),
	}
	for _, src := range []*CostTable{t, other} {
		if src == nil {
			continue
		}
		for key, cost := range src.costs {
			merged.costs[key] = cost
			merged.names[key] = src.names[key]
		}
	}
	return merged
}

// CostTableFromDecimals builds a snapshot from pre-normalized keys and
// their display names. Used for derived tables (e.g. payroll means)
// where a float round-trip would lose precision.
func CostTableFromDecimals(costs map[string]decimal.Decimal, names map[string]string) *CostTable {
	t := &CostTable{
		costs: make(map[string]decimal.Decimal, len(costs)),
		names: make(map[string]string, len(costs)),
	}
	for key, cost := range costs {
		t.costs[key] = cost
		t.names[key] = names[key]
	}
	return t
}

// NormalizeRoleName folds a role name for matching: trimmed, lowercased,
// internal whitespace collapsed. "Senior  Ranger " matches "senior ranger".
func NormalizeRoleName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// ResolveCostTable builds the reference snapshot from the config
// section: inline unit_costs first, then the optional CSV file layered
// on top.
func ResolveCostTable(ref ReferenceConfig) (*CostTable, error) {
	table := NewCostTable(ref.UnitCosts)
	if ref.File == "" {
		return table, nil
	}

	f, err := os.Open(ref.File)
	if err != nil {
		return nil, fmt.Errorf("opening reference file: %w", err)
	}
	defer f.Close()

	fromFile, err := ReadCostCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading reference file %s: %w", ref.File, err)
	}
	return table.Merge(fromFile), nil
}

// ReadCostCSV parses role,cost pairs from CSV. A header row is detected
// and skipped when its second field is not numeric.
func ReadCostCSV(r io.Reader) (*CostTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	table := &CostTable{
		costs: make(map[string]decimal.Decimal),
		names: make(map[string]string),
	}

	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++
		if len(rec) < 2 {
			continue
		}

		cost, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			if row == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: cost %q is not numeric", row, rec[1])
		}
		if cost.IsNegative() {
			return nil, fmt.Errorf("row %d: cost %s is negative", row, cost)
		}
		table.set(rec[0], cost)
	}

	return table, nil
}
