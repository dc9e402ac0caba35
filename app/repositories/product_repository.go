package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// ErrNegativeStock rejects a stock level below zero.
var ErrNegativeStock = errors.New("stock cannot be negative")

// ProductRepository stores the catalog.
type ProductRepository struct {
	*Collection[models.Product]
}

func NewProductRepository(store kv.Store) *ProductRepository {
	return &ProductRepository{NewCollection(store, KeyProducts, models.Product.Clone)}
}

// Active returns products currently offered for sale.
func (r *ProductRepository) Active(ctx context.Context) ([]models.Product, error) {
	return r.Filter(ctx, func(p models.Product) bool { return p.Active })
}

// DecrementStock removes qty units, flooring the stock at zero.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (models.Product, error) {
	return r.Update(ctx, id, func(p *models.Product) error {
		p.Stock = max(0, p.Stock-qty)
		return nil
	})
}

// SetStock replaces the stock level.
func (r *ProductRepository) SetStock(ctx context.Context, id string, stock int) (models.Product, error) {
	if stock < 0 {
		return models.Product{}, ErrNegativeStock
	}
	return r.Update(ctx, id, func(p *models.Product) error {
		p.Stock = stock
		return nil
	})
}

// ToggleActive flips the active flag.
func (r *ProductRepository) ToggleActive(ctx context.Context, id string) (models.Product, error) {
	return r.Update(ctx, id, func(p *models.Product) error {
		p.Active = !p.Active
		return nil
	})
}
