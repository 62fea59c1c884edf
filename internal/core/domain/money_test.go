package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10.00", 1000},
		{"5", 500},
		{"0.1", 10},
		{"19.99", 1999},
		{"0.29", 29},
		{"1.005", 101},
		{"1.004", 100},
		{"0", 0},
	}

	for _, tt := range tests {
		if got := ToMinorUnits(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("ToMinorUnits(%s): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(2500); !got.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("expected 25.00, got %s", got)
	}
	if got := FromMinorUnits(1999); ToMinorUnits(got) != 1999 {
		t.Errorf("expected 1999 after conversion back, got %d", ToMinorUnits(got))
	}
}
