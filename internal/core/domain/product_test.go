package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidPrice(t *testing.T) {
	tests := []struct {
		price string
		want  bool
	}{
		{"0", true},
		{"10", true},
		{"10.5", true},
		{"10.50", true},
		{"10.500", true},
		{"1.005", false},
		{"0.001", false},
		{"-1", false},
		{"-0.01", false},
	}

	for _, tt := range tests {
		if got := ValidPrice(decimal.RequireFromString(tt.price)); got != tt.want {
			t.Errorf("ValidPrice(%s): expected %v, got %v", tt.price, tt.want, got)
		}
	}
}

func TestParseProductSort(t *testing.T) {
	tests := map[string]ProductSort{
		"price_asc":      SortPriceAsc,
		"price_desc":     SortPriceDesc,
		"name_asc":       SortNameAsc,
		"name_desc":      SortNameDesc,
		"createdAt_desc": SortCreatedAtDesc,
		"":               SortCreatedAtDesc,
		"rating":         SortCreatedAtDesc,
	}

	for in, want := range tests {
		if got := ParseProductSort(in); got != want {
			t.Errorf("ParseProductSort(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestProductApplyCategory(t *testing.T) {
	p := Product{Name: "Lamp"}
	id := "cat-1"
	p.Apply(ProductPatch{CategoryID: &id})
	if p.CategoryID == nil || *p.CategoryID != "cat-1" {
		t.Fatalf("expected category cat-1, got %v", p.CategoryID)
	}

	id = "cat-2"
	if *p.CategoryID != "cat-1" {
		t.Error("expected patch value to be copied, not aliased")
	}

	empty := ""
	p.Apply(ProductPatch{CategoryID: &empty})
	if p.CategoryID != nil {
		t.Errorf("expected category to be cleared, got %v", *p.CategoryID)
	}
	if p.Name != "Lamp" {
		t.Errorf("expected name to be unchanged, got %q", p.Name)
	}
}

func TestReviewRatingBounds(t *testing.T) {
	for rating, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		if got := ValidRating(rating); got != want {
			t.Errorf("ValidRating(%d): expected %v, got %v", rating, want, got)
		}
	}
}
