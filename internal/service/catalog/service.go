package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
	"github.com/halynka/rentgo/internal/repository"
)

type ProductStore interface {
	Create(ctx context.Context, p *domain.Product) (int64, error)
	Get(ctx context.Context, tenantID, id int64) (*domain.Product, error)
	List(ctx context.Context, tenantID int64) ([]domain.Product, error)
	Update(ctx context.Context, tenantID, id int64, name *string, stock *int, price *decimal.Decimal) error
	Delete(ctx context.Context, tenantID, id int64) error
}

// Service manages the rental catalog. Reservations never mutate products;
// only the sale-note conversion (and this service) touches stock.
type Service struct {
	products ProductStore
}

func New(products ProductStore) *Service {
	return &Service{products: products}
}

func (s *Service) CreateProduct(
	ctx context.Context,
	tenantID int64,
	name string,
	stock int,
	price decimal.Decimal,
) (*domain.Product, error) {
	const op = "service.catalog.CreateProduct"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "name", Reason: "required"})
	}

	if stock < 0 {
		stock = 0
	}

	p := &domain.Product{
		TenantID: tenantID,
		Name:     name,
		Stock:    stock,
		Price:    price,
	}

	id, err := s.products.Create(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.ID = id

	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, tenantID, id int64) (*domain.Product, error) {
	const op = "service.catalog.GetProduct"

	p, err := s.products.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, tenantID int64) ([]domain.Product, error) {
	const op = "service.catalog.ListProducts"

	out, err := s.products.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) UpdateProduct(
	ctx context.Context,
	tenantID, id int64,
	name *string,
	stock *int,
	price *decimal.Decimal,
) (*domain.Product, error) {
	const op = "service.catalog.UpdateProduct"

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "name", Reason: "cannot be empty"})
		}
		name = &trimmed
	}

	err := s.products.Update(ctx, tenantID, id, name, stock, price)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%s: %w", op, ErrProductConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetProduct(ctx, tenantID, id)
}

// DeleteProduct removes a catalog entry. Historical line items keep the
// product name snapshot, so past documents are unaffected.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, id int64) error {
	const op = "service.catalog.DeleteProduct"

	if err := s.products.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
