package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a stored price may carry.
const PriceScale = 2

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *string         `json:"categoryId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ValidPrice reports whether price is non-negative and representable in
// minor units without rounding.
func ValidPrice(price decimal.Decimal) bool {
	return !price.IsNegative() && price.Equal(price.Truncate(PriceScale))
}

// ProductPatch carries the admin-editable fields; nil means unchanged.
// An empty CategoryID detaches the product from its category.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *string          `json:"categoryId"`
}

func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == "" {
			p.CategoryID = nil
		} else {
			id := *patch.CategoryID
			p.CategoryID = &id
		}
	}
}

type ProductSort string

const (
	SortNameAsc       ProductSort = "name_asc"
	SortNameDesc      ProductSort = "name_desc"
	SortPriceAsc      ProductSort = "price_asc"
	SortPriceDesc     ProductSort = "price_desc"
	SortCreatedAtDesc ProductSort = "createdAt_desc"
)

// ParseProductSort falls back to newest first for unknown values.
func ParseProductSort(s string) ProductSort {
	switch ProductSort(s) {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return ProductSort(s)
	}
	return SortCreatedAtDesc
}

type ProductQuery struct {
	Search     string
	CategoryID string
	Sort       ProductSort
	Page       int
	Limit      int
}

// Offset is the number of rows skipped before the requested page.
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Total    int       `json:"total"`
	Pages    int       `json:"pages"`
}
