package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeRoleName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ranger", "ranger"},
		{"  Senior  Ranger ", "senior ranger"},
		{"PARK\tMANAGER", "park manager"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRoleName(tt.in); got != tt.want {
			t.Errorf("NormalizeRoleName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCostTableLookup(t *testing.T) {
	table := NewCostTable(map[string]float64{
		"Ranger":        120000,
		"Senior Ranger": 150000,
	})

	c, ok := table.Lookup("  ranger ")
	if !ok {
		t.Fatal("Lookup(ranger) = !ok, want hit after normalization")
	}
	if !c.Equal(decimal.NewFromInt(120000)) {
		t.Errorf("Lookup(ranger) = %s, want 120000", c)
	}

	if _, ok := table.Lookup("Clerk"); ok {
		t.Error("Lookup(Clerk) = ok, want miss")
	}
}

func TestCostTableLookupNil(t *testing.T) {
	var table *CostTable
	if _, ok := table.Lookup("Ranger"); ok {
		t.Error("nil table Lookup = ok, want miss")
	}
	if table.Len() != 0 {
		t.Error("nil table Len != 0")
	}
}

func TestCostTableMerge(t *testing.T) {
	base := NewCostTable(map[string]float64{"Ranger": 100000, "Clerk": 50000})
	over := NewCostTable(map[string]float64{"Ranger": 130000})

	merged := base.Merge(over)

	c, _ := merged.Lookup("Ranger")
	if !c.Equal(decimal.NewFromInt(130000)) {
		t.Errorf("merged Ranger = %s, want override 130000", c)
	}
	c, _ = merged.Lookup("Clerk")
	if !c.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("merged Clerk = %s, want 50000", c)
	}

	// Originals untouched
	c, _ = base.Lookup("Ranger")
	if !c.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("base Ranger mutated to %s", c)
	}
}

func TestReadCostCSV(t *testing.T) {
	in := "Role,Cost\nRanger,120000\nSenior Ranger,150000.50\n"
	table, err := ReadCostCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCostCSV: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	c, _ := table.Lookup("senior ranger")
	want, _ := decimal.NewFromString("150000.50")
	if !c.Equal(want) {
		t.Errorf("senior ranger = %s, want 150000.50", c)
	}
}

func TestReadCostCSV_NegativeCost(t *testing.T) {
	in := "Ranger,-5\n"
	if _, err := ReadCostCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for negative cost")
	}
}

func TestReadCostCSV_BadNumberPastHeader(t *testing.T) {
	in := "Role,Cost\nRanger,abc\n"
	if _, err := ReadCostCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for non-numeric cost")
	}
}

func TestAnalysisParamsDefaults(t *testing.T) {
	a, err := AnalysisParams(DefaultConfig())
	if err != nil {
		t.Fatalf("AnalysisParams: %v", err)
	}
	if !a.Tolerance.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("Tolerance = %s, want 0.05", a.Tolerance)
	}
	if !a.MaxShift.Equal(decimal.NewFromFloat(0.2)) {
		t.Errorf("MaxShift = %s, want 0.2", a.MaxShift)
	}
	if !a.TotalDelta.IsZero() {
		t.Errorf("TotalDelta = %s, want 0", a.TotalDelta)
	}
}
