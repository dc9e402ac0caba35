package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
)

// CartService manages the per-session cart. Lines keep the product as it
// was when added; totals use that snapshot.
type CartService struct {
	deps  Deps
	locks *keyedMutex
}

// View returns the cart with its totals.
func (s *CartService) View(ctx context.Context, sid string) (models.Cart, error) {
	items, err := s.deps.Repos.Sessions.Cart(ctx, sid)
	if err != nil {
		return models.Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	return models.NewCart(items), nil
}

// Add puts qty units of productID in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, sid, productID string, qty int) (models.Cart, error) {
	if qty < 1 {
		return models.Cart{}, ErrInvalidQuantity
	}

	p, err := s.deps.Repos.Products.Get(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Cart{}, ErrProductNotFound
	}
	if err != nil {
		return models.Cart{}, err
	}
	if !p.Available(qty) {
		return models.Cart{}, unavailable(p.ID, p.Name)
	}

	return s.mutate(ctx, sid, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].Product.ID != productID {
				continue
			}
			merged := items[i].Quantity + qty
			if merged > p.Stock {
				return nil, ErrInsufficientStock
			}
			items[i].Quantity = merged
			return items, nil
		}
		return append(items, models.CartItem{Product: p, Quantity: qty}), nil
	})
}

// UpdateQuantity sets a line's quantity, clamped to the live stock. A
// quantity of zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sid, productID string, qty int) (models.Cart, error) {
	if qty <= 0 {
		return s.Remove(ctx, sid, productID)
	}

	live, err := s.deps.Repos.Products.Get(ctx, productID)
	found := err == nil
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return models.Cart{}, err
	}

	return s.mutate(ctx, sid, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].Product.ID != productID {
				continue
			}
			if found {
				items[i].Product = live
			}
			n := min(qty, items[i].Product.Stock)
			if n <= 0 {
				return append(items[:i], items[i+1:]...), nil
			}
			items[i].Quantity = n
			return items, nil
		}
		return nil, ErrLineNotFound
	})
}

// Remove drops the line for productID, if any.
func (s *CartService) Remove(ctx context.Context, sid, productID string) (models.Cart, error) {
	return s.mutate(ctx, sid, func(items []models.CartItem) ([]models.CartItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.Product.ID != productID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, sid string) error {
	unlock := s.locks.Lock(sid)
	defer unlock()
	return s.deps.Repos.Sessions.ClearCart(ctx, sid)
}

func (s *CartService) mutate(ctx context.Context, sid string, fn func([]models.CartItem) ([]models.CartItem, error)) (models.Cart, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	items, err := s.deps.Repos.Sessions.Cart(ctx, sid)
	if err != nil {
		return models.Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	items, err = fn(items)
	if err != nil {
		return models.Cart{}, err
	}
	if err := s.deps.Repos.Sessions.SaveCart(ctx, sid, items); err != nil {
		return models.Cart{}, fmt.Errorf("cart: save: %w", err)
	}
	return models.NewCart(items), nil
}
