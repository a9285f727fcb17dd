package cli

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0"},
		{"42", "$42"},
		{"1234567", "$1,234,567"},
		{"33.34", "$33.34"},
		{"1000.5", "$1,000.50"},
		{"-300000", "-$300,000"},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if got := FormatMoney(d); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedMoney(t *testing.T) {
	pos := decimal.NewFromInt(500)
	if got := FormatSignedMoney(pos); got != "+$500" {
		t.Errorf("positive = %q", got)
	}
	neg := decimal.NewFromInt(-500)
	if got := FormatSignedMoney(neg); got != "-$500" {
		t.Errorf("negative = %q", got)
	}
}

func TestFormatVariancePercent(t *testing.T) {
	v := decimal.NewFromInt(60000)
	a := decimal.NewFromInt(300000)
	if got := FormatVariancePercent(v, a); got != "+20.0%" {
		t.Errorf("got %q, want +20.0%%", got)
	}
	if got := FormatVariancePercent(v, decimal.Zero); got != "n/a" {
		t.Errorf("zero allocation = %q, want n/a", got)
	}
}
