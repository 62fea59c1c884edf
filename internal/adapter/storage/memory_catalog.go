package storage

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (s *MemoryStore) ListCategories(context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range s.products {
		if p.CategoryID != nil {
			counts[*p.CategoryID]++
		}
	}

	categories := []domain.Category{}
	for _, c := range s.categories {
		c.ProductCount = counts[c.ID]
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, categoryID string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	for _, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			c.ProductCount++
		}
	}
	return &c, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryNameTakenLocked(c.Name, c.ID) {
		return domain.ErrCategoryExists
	}
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	if s.categoryNameTakenLocked(c.Name, c.ID) {
		return domain.ErrCategoryExists
	}
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[categoryID]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(s.categories, categoryID)
	for id, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			p.CategoryID = nil
			s.products[id] = p
		}
	}
	return nil
}

func (s *MemoryStore) categoryNameTakenLocked(name, exceptID string) bool {
	for _, c := range s.categories {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) ListReviewsByUser(_ context.Context, userID string) ([]domain.Review, error) {
	return s.listReviews(func(r domain.Review) bool { return r.UserID == userID }), nil
}

func (s *MemoryStore) ListReviewsByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	return s.listReviews(func(r domain.Review) bool { return r.ProductID == productID }), nil
}

func (s *MemoryStore) listReviews(keep func(domain.Review) bool) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := []domain.Review{}
	for _, r := range s.reviews {
		if keep(r) {
			r.ProductName = s.products[r.ProductID].Name
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func (s *MemoryStore) GetReview(_ context.Context, reviewID string) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	r.ProductName = s.products[r.ProductID].Name
	return &r, nil
}

func (s *MemoryStore) CreateReview(_ context.Context, r domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[r.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	for _, existing := range s.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return domain.ErrAlreadyReviewed
		}
	}
	r.ProductName = ""
	s.reviews[r.ID] = r
	return nil
}

func (s *MemoryStore) UpdateReview(_ context.Context, r domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reviews[r.ID]
	if !ok || existing.UserID != r.UserID {
		return domain.ErrReviewNotFound
	}
	existing.Rating = r.Rating
	existing.Comment = r.Comment
	existing.UpdatedAt = r.UpdatedAt
	s.reviews[r.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteReview(_ context.Context, userID, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reviews[reviewID]
	if !ok || existing.UserID != userID {
		return domain.ErrReviewNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

func (s *MemoryStore) ListWishlist(_ context.Context, userID string) ([]domain.WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []domain.WishlistItem{}
	for _, item := range s.wishlists[userID] {
		product, ok := s.products[item.ProductID]
		if !ok {
			continue
		}
		item.Product = product
		items = append(items, item)
	}
	return items, nil
}

func (s *MemoryStore) AddWishlistItem(_ context.Context, userID string, item domain.WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[item.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	for _, existing := range s.wishlists[userID] {
		if existing.ProductID == item.ProductID {
			return domain.ErrAlreadyInWishlist
		}
	}
	item.Product = domain.Product{}
	s.wishlists[userID] = append(s.wishlists[userID], item)
	return nil
}

func (s *MemoryStore) RemoveWishlistItem(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlists[userID] = withoutProduct(s.wishlists[userID], productID)
	return nil
}

func (s *MemoryStore) ClearWishlist(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.wishlists, userID)
	return nil
}

func withoutProduct(items []domain.WishlistItem, productID string) []domain.WishlistItem {
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	return kept
}

func (s *MemoryStore) SalesReport(_ context.Context, q domain.SalesReportQuery) (*domain.SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &domain.SalesReport{
		TotalSales:         decimal.Zero,
		SalesByMonth:       []domain.MonthlySales{},
		TopSellingProducts: []domain.ProductSales{},
		RecentOrders:       []domain.Order{},
	}

	months := make(map[string]*domain.MonthlySales)
	sold := make(map[string]int)
	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		report.TotalSales = report.TotalSales.Add(o.Total)
		report.TotalOrders++
		orders = append(orders, o)

		for _, item := range o.Items {
			sold[item.ProductID] += item.Quantity
		}

		if o.CreatedAt.Before(q.Since) {
			continue
		}
		key := o.CreatedAt.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &domain.MonthlySales{Month: key, Revenue: decimal.Zero}
			months[key] = m
		}
		m.Revenue = m.Revenue.Add(o.Total)
		m.Orders++
	}

	for _, m := range months {
		report.SalesByMonth = append(report.SalesByMonth, *m)
	}
	sort.Slice(report.SalesByMonth, func(i, j int) bool {
		return report.SalesByMonth[i].Month > report.SalesByMonth[j].Month
	})

	for productID, qty := range sold {
		name := domain.UnknownProductName
		if p, ok := s.products[productID]; ok {
			name = p.Name
		}
		report.TopSellingProducts = append(report.TopSellingProducts, domain.ProductSales{
			ProductID: productID, Name: name, TotalSold: qty,
		})
	}
	sort.Slice(report.TopSellingProducts, func(i, j int) bool {
		a, b := report.TopSellingProducts[i], report.TopSellingProducts[j]
		if a.TotalSold != b.TotalSold {
			return a.TotalSold > b.TotalSold
		}
		return a.ProductID < b.ProductID
	})
	if len(report.TopSellingProducts) > q.TopProducts {
		report.TopSellingProducts = report.TopSellingProducts[:q.TopProducts]
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > q.RecentOrders {
		orders = orders[:q.RecentOrders]
	}
	for _, o := range orders {
		report.RecentOrders = append(report.RecentOrders, s.detailedLocked(o))
	}

	return report, nil
}
