package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

type memoryCart struct {
	id        string
	userID    string
	version   int64
	items     map[string]int // productID -> quantity
	order     []string       // insertion order of productIDs
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore implements port.Store in process memory. It honours the same
// atomicity and compare-and-swap rules as the MySQL adapter.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	carts    map[string]*memoryCart // userID -> cart
	orders   map[string]domain.Order
	payments map[string]domain.Payment // externalSessionID -> payment
	outbox   []domain.OutboxEvent

	categories map[string]domain.Category
	reviews    map[string]domain.Review
	wishlists  map[string][]domain.WishlistItem // userID -> items in insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]domain.Product),
		carts:    make(map[string]*memoryCart),
		orders:   make(map[string]domain.Order),
		payments: make(map[string]domain.Payment),

		categories: make(map[string]domain.Category),
		reviews:    make(map[string]domain.Review),
		wishlists:  make(map[string][]domain.WishlistItem),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateProduct(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CategoryID != nil {
		if _, ok := s.categories[*p.CategoryID]; !ok {
			return domain.ErrCategoryNotFound
		}
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemoryStore) ListProducts(_ context.Context, q domain.ProductQuery) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	matched := []domain.Product{}
	for _, p := range s.products {
		if q.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != q.CategoryID) {
			continue
		}
		if search == "" ||
			strings.Contains(strings.ToLower(p.Name), search) ||
			strings.Contains(strings.ToLower(p.Description), search) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, productLess(matched, q.Sort))

	total := len(matched)
	start := q.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + q.Limit
	if end > total || end < start {
		end = total
	}
	return matched[start:end], total, nil
}

func productLess(products []domain.Product, order domain.ProductSort) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := products[i], products[j]
		switch order {
		case domain.SortNameAsc:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case domain.SortNameDesc:
			if a.Name != b.Name {
				return a.Name > b.Name
			}
		case domain.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case domain.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if patch.CategoryID != nil && *patch.CategoryID != "" {
		if _, ok := s.categories[*patch.CategoryID]; !ok {
			return nil, domain.ErrCategoryNotFound
		}
	}

	p.Apply(patch)
	p.UpdatedAt = time.Now().UTC()
	s.products[productID] = p
	return &p, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, productID)

	for _, c := range s.carts {
		if _, ok := c.items[productID]; ok {
			c.remove(productID)
			c.touch()
		}
	}
	for id, r := range s.reviews {
		if r.ProductID == productID {
			delete(s.reviews, id)
		}
	}
	for userID, items := range s.wishlists {
		s.wishlists[userID] = withoutProduct(items, productID)
	}
	return nil
}

func (s *MemoryStore) GetOrCreateCart(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID)
	cart := &domain.Cart{
		ID:        c.id,
		UserID:    c.userID,
		Version:   c.version,
		Items:     []domain.CartItem{},
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
	for _, productID := range c.order {
		qty, ok := c.items[productID]
		if !ok {
			continue
		}
		product, ok := s.products[productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        c.id + ":" + productID,
			CartID:    c.id,
			ProductID: productID,
			Quantity:  qty,
			Product:   product,
		})
	}
	return cart, nil
}

func (s *MemoryStore) AddItem(_ context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return domain.ErrProductNotFound
	}

	c := s.cartLocked(userID)
	if _, ok := c.items[productID]; !ok {
		c.order = append(c.order, productID)
	}
	c.items[productID] += quantity
	c.touch()
	return nil
}

func (s *MemoryStore) SetItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID)
	if _, ok := c.items[productID]; !ok {
		return domain.ErrCartItemNotFound
	}
	if quantity <= 0 {
		c.remove(productID)
	} else {
		c.items[productID] = quantity
	}
	c.touch()
	return nil
}

func (s *MemoryStore) RemoveItem(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID)
	c.remove(productID)
	c.touch()
	return nil
}

func (s *MemoryStore) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID)
	c.items = make(map[string]int)
	c.order = nil
	c.touch()
	return nil
}

func (s *MemoryStore) CreateOrderFromCart(_ context.Context, cart domain.Cart, order domain.Order, event domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cart.UserID]
	if !ok || c.id != cart.ID || c.version != cart.Version {
		return domain.ErrCartModified
	}

	s.orders[order.ID] = cloneOrder(order)
	c.items = make(map[string]int)
	c.order = nil
	c.touch()
	s.outbox = append(s.outbox, event)
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o = s.detailedLocked(o)
	return &o, nil
}

func (s *MemoryStore) ListOrdersByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return s.listOrders(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryStore) ListAllOrders(context.Context) ([]domain.Order, error) {
	return s.listOrders(func(domain.Order) bool { return true }), nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, from, to domain.OrderStatus, event domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	s.orders[orderID] = o
	s.outbox = append(s.outbox, event)
	return nil
}

func (s *MemoryStore) ConfirmPayment(_ context.Context, payment domain.Payment, event domain.OutboxEvent) (domain.ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[payment.OrderID]
	if !ok {
		return domain.ConfirmResult{}, domain.ErrOrderNotFound
	}

	result := domain.ConfirmResult{PreviousStatus: o.Status}
	if _, exists := s.payments[payment.ExternalSessionID]; exists {
		return result, nil
	}

	if o.Status == domain.OrderStatusPending {
		o.Status = domain.OrderStatusProcessing
		o.UpdatedAt = payment.CreatedAt
		s.orders[o.ID] = o
		result.StatusChanged = true
	}
	s.payments[payment.ExternalSessionID] = payment
	result.PaymentCreated = true
	s.outbox = append(s.outbox, event)
	return result, nil
}

func (s *MemoryStore) GetUnpublishedEvents(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []domain.OutboxEvent
	for _, e := range s.outbox {
		if e.PublishedAt != nil {
			continue
		}
		events = append(events, e)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *MemoryStore) MarkEventPublished(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].ID == eventID && s.outbox[i].PublishedAt == nil {
			now := time.Now().UTC()
			s.outbox[i].PublishedAt = &now
		}
	}
	return nil
}

func (s *MemoryStore) cartLocked(userID string) *memoryCart {
	c, ok := s.carts[userID]
	if !ok {
		now := time.Now().UTC()
		c = &memoryCart{
			id:        uuid.NewString(),
			userID:    userID,
			items:     make(map[string]int),
			createdAt: now,
			updatedAt: now,
		}
		s.carts[userID] = c
	}
	return c
}

func (s *MemoryStore) listOrders(keep func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []domain.Order{}
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, s.detailedLocked(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

// detailedLocked returns a copy of o with product names and payments joined.
func (s *MemoryStore) detailedLocked(o domain.Order) domain.Order {
	o = cloneOrder(o)
	for i := range o.Items {
		o.Items[i].ProductName = s.products[o.Items[i].ProductID].Name
	}
	o.Payments = []domain.Payment{}
	for _, p := range s.payments {
		if p.OrderID == o.ID {
			o.Payments = append(o.Payments, p)
		}
	}
	sort.Slice(o.Payments, func(i, j int) bool {
		return o.Payments[i].CreatedAt.Before(o.Payments[j].CreatedAt)
	})
	return o
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	o.Payments = nil
	return o
}

func (c *memoryCart) remove(productID string) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *memoryCart) touch() {
	c.version++
	c.updatedAt = time.Now().UTC()
}
