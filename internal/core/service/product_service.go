package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit well inside int32 range.
	maxPage = 1_000_000
)

type ProductService struct {
	products port.ProductRepository
	sfg      singleflight.Group // collapses concurrent lookups of one product
	logger   *zap.Logger
}

// CreateProductRequest is the admin payload for a new catalogue entry.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"categoryId"`
}

func NewProductService(products port.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, logger: logger}
}

func (s *ProductService) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	q.Sort = domain.ParseProductSort(string(q.Sort))

	products, total, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &domain.ProductPage{
		Products: products,
		Page:     q.Page,
		Limit:    q.Limit,
		Total:    total,
		Pages:    (total + q.Limit - 1) / q.Limit,
	}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(productID, func() (interface{}, error) {
		return s.products.GetProduct(ctx, productID)
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	p := *v.(*domain.Product)
	return &p, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("product name is required: %w", domain.ErrValidation)
	}
	if !domain.ValidPrice(req.Price) {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative: %w", domain.ErrValidation)
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.CategoryID != "" {
		categoryID := req.CategoryID
		product.CategoryID = &categoryID
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("price", product.Price.StringFixed(2)))
	return &product, nil
}

// UpdateProduct edits catalogue data. Existing orders keep their price snapshots.
func (s *ProductService) UpdateProduct(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Price != nil && !domain.ValidPrice(*patch.Price) {
		return nil, domain.ErrInvalidPrice
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative: %w", domain.ErrValidation)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("product name is required: %w", domain.ErrValidation)
	}

	product, err := s.products.UpdateProduct(ctx, productID, patch)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.Info("product updated", zap.String("product_id", productID), zap.String("price", product.Price.StringFixed(2)))
	return product, nil
}

// DeleteProduct removes a product from the catalogue. Orders that reference it
// keep their item snapshots.
func (s *ProductService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.Info("product deleted", zap.String("product_id", productID))
	return nil
}
