package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) SalesReport(ctx context.Context, q domain.SalesReportQuery) (*domain.SalesReport, error) {
	report := &domain.SalesReport{
		SalesByMonth:       []domain.MonthlySales{},
		TopSellingProducts: []domain.ProductSales{},
	}

	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*) FROM orders`,
	).Scan(&report.TotalSales, &report.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("query sales totals: %w", err)
	}

	monthRows, err := m.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS month, SUM(total), COUNT(*)
		FROM orders
		WHERE created_at >= ?
		GROUP BY month
		ORDER BY month DESC`, q.Since,
	)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer monthRows.Close()

	for monthRows.Next() {
		ms := domain.MonthlySales{Revenue: decimal.Zero}
		if err := monthRows.Scan(&ms.Month, &ms.Revenue, &ms.Orders); err != nil {
			return nil, fmt.Errorf("scan monthly sales row: %w", err)
		}
		report.SalesByMonth = append(report.SalesByMonth, ms)
	}
	if err := monthRows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	topRows, err := m.db.QueryContext(ctx, `
		SELECT oi.product_id, COALESCE(p.name, ?), SUM(oi.quantity) AS sold
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		GROUP BY oi.product_id, p.name
		ORDER BY sold DESC, oi.product_id
		LIMIT ?`, domain.UnknownProductName, q.TopProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer topRows.Close()

	for topRows.Next() {
		var ps domain.ProductSales
		if err := topRows.Scan(&ps.ProductID, &ps.Name, &ps.TotalSold); err != nil {
			return nil, fmt.Errorf("scan top product row: %w", err)
		}
		report.TopSellingProducts = append(report.TopSellingProducts, ps)
	}
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	report.RecentOrders, err = m.listOrders(ctx, `
		SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ?`, q.RecentOrders)
	if err != nil {
		return nil, err
	}

	return report, nil
}
