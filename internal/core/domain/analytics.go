package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesReportQuery struct {
	Since        time.Time // lower bound for the monthly breakdown
	TopProducts  int
	RecentOrders int
}

type MonthlySales struct {
	Month   string          `json:"month"` // YYYY-MM, UTC
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	TotalSold int    `json:"totalSold"`
}

// SalesReport aggregates every order regardless of status.
type SalesReport struct {
	TotalSales         decimal.Decimal `json:"totalSales"`
	TotalOrders        int             `json:"totalOrders"`
	SalesByMonth       []MonthlySales  `json:"salesByMonth"`
	TopSellingProducts []ProductSales  `json:"topSellingProducts"`
	RecentOrders       []Order         `json:"recentOrders"`
}

// UnknownProductName labels sold products that were since deleted.
const UnknownProductName = "Unknown"
