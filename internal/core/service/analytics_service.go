package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	salesReportMonths       = 12
	salesReportTopProducts  = 10
	salesReportRecentOrders = 5
)

type AnalyticsService struct {
	analytics port.AnalyticsRepository
	now       func() time.Time
}

func NewAnalyticsService(analytics port.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, now: time.Now}
}

// SalesReport summarises revenue over every order, a monthly breakdown for the
// last year, the best sellers by quantity and the latest orders.
func (s *AnalyticsService) SalesReport(ctx context.Context) (*domain.SalesReport, error) {
	report, err := s.analytics.SalesReport(ctx, domain.SalesReportQuery{
		Since:        s.now().UTC().AddDate(0, -salesReportMonths, 0),
		TopProducts:  salesReportTopProducts,
		RecentOrders: salesReportRecentOrders,
	})
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return report, nil
}
