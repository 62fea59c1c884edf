package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var errCategoryNameRequired = fmt.Errorf("category name is required: %w", domain.ErrValidation)

type CategoryService struct {
	categories port.CategoryRepository
	logger     *zap.Logger
}

func NewCategoryService(categories port.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errCategoryNameRequired
	}

	now := time.Now().UTC()
	category := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("name", name))
	return &category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, patch domain.CategoryPatch) (*domain.Category, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, errCategoryNameRequired
		}
		patch.Name = &trimmed
	}

	category, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	category.Apply(patch)
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.UpdateCategory(ctx, *category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	if err := s.categories.DeleteCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.Info("category deleted", zap.String("category_id", categoryID))
	return nil
}
