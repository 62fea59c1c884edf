package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestAnalyticsService_SalesReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedScenarioCart(t, "user-1")
	first, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	_, err = env.carts.AddItem(ctx, "user-2", "prod-b", 3)
	require.NoError(t, err)
	second, err := env.orders.CreateOrderFromCart(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, env.products.DeleteProduct(ctx, "prod-a"))

	report, err := env.analytics.SalesReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, "40.00", report.TotalSales.StringFixed(2))
	assert.Equal(t, 2, report.TotalOrders)

	require.Len(t, report.SalesByMonth, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), report.SalesByMonth[0].Month)
	assert.Equal(t, 2, report.SalesByMonth[0].Orders)
	assert.Equal(t, "40.00", report.SalesByMonth[0].Revenue.StringFixed(2))

	require.Len(t, report.TopSellingProducts, 2)
	assert.Equal(t, domain.ProductSales{ProductID: "prod-b", Name: "Product B", TotalSold: 4}, report.TopSellingProducts[0])
	assert.Equal(t, domain.ProductSales{ProductID: "prod-a", Name: domain.UnknownProductName, TotalSold: 2}, report.TopSellingProducts[1])

	require.Len(t, report.RecentOrders, 2)
	ids := []string{report.RecentOrders[0].ID, report.RecentOrders[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestAnalyticsService_MonthlyWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedScenarioCart(t, "user-1")

	_, err := env.orders.CreateOrderFromCart(ctx, "user-1")
	require.NoError(t, err)

	env.analytics.now = func() time.Time { return time.Now().AddDate(2, 0, 0) }

	report, err := env.analytics.SalesReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalOrders)
	assert.Empty(t, report.SalesByMonth, "orders older than a year fall out of the monthly breakdown")
}

func TestAnalyticsService_EmptyStore(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.analytics.SalesReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.TotalSales.IsZero())
	assert.Zero(t, report.TotalOrders)
	assert.NotNil(t, report.TopSellingProducts)
	assert.NotNil(t, report.RecentOrders)
}
