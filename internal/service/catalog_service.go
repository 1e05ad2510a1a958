package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// CreateProduct requires every field. The name must not be taken.
func (s *CatalogService) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	if fields.Name == nil || fields.Description == nil || fields.Price == nil || fields.Image == nil {
		return nil, fmt.Errorf("%w: name, description, price and image are required", ErrInvalidProduct)
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(*fields.Name)
	_, err := s.products.GetProductByName(ctx, name)
	if err == nil {
		return nil, ErrDuplicateProduct
	}
	if !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}

	product := &domain.Product{
		Name:        name,
		Description: *fields.Description,
		Price:       *fields.Price,
		Image:       *fields.Image,
		IsActive:    true,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := parseID(productID, ErrProductNotFound)
	if err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, id)
}

// ListProducts returns every product, archived ones included.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

// ListActiveProducts may return an empty slice without error.
func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx, repository.ProductFilter{ActiveOnly: true})
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, fields domain.ProductFields) (*domain.Product, error) {
	id, err := parseID(productID, ErrProductNotFound)
	if err != nil {
		return nil, err
	}
	if fields.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		fields.Name = &name
		existing, err := s.products.GetProductByName(ctx, name)
		switch {
		case err == nil && existing.ID != id:
			return nil, ErrDuplicateProduct
		case err != nil && !errors.Is(err, ErrProductNotFound):
			return nil, err
		}
	}

	return s.products.UpdateProduct(ctx, id, fields)
}

func (s *CatalogService) ArchiveProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.setActive(ctx, productID, false)
}

func (s *CatalogService) ActivateProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.setActive(ctx, productID, true)
}

func (s *CatalogService) setActive(ctx context.Context, productID string, active bool) (*domain.Product, error) {
	id, err := parseID(productID, ErrProductNotFound)
	if err != nil {
		return nil, err
	}
	return s.products.SetProductActive(ctx, id, active)
}

// SearchByName matches name case-insensitively as a literal substring.
func (s *CatalogService) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	term := strings.TrimSpace(name)
	if term == "" {
		return nil, ErrInvalidProductName
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{NameContains: term})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

// SearchByPrice returns products priced within [minPrice, maxPrice].
// An inverted range is valid and simply matches nothing.
func (s *CatalogService) SearchByPrice(ctx context.Context, minPrice, maxPrice float64) ([]domain.Product, error) {
	if !isFinite(minPrice) || !isFinite(maxPrice) {
		return nil, ErrInvalidPriceRange
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProductsInRange
	}
	return products, nil
}

func validateFields(f domain.ProductFields) error {
	// Checked in a fixed order so the reported field is stable.
	textFields := []struct {
		name  string
		value *string
	}{
		{"name", f.Name},
		{"description", f.Description},
		{"image", f.Image},
	}
	for _, field := range textFields {
		if field.value != nil && strings.TrimSpace(*field.value) == "" {
			return fmt.Errorf("%w: %s must not be blank", ErrInvalidProduct, field.name)
		}
	}
	if f.Price != nil && (!isFinite(*f.Price) || *f.Price < 0) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
