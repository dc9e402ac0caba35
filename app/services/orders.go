package services

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
)

// OrderService places orders and moves them through their statuses.
type OrderService struct {
	deps  Deps
	stock *sync.Mutex
	carts *keyedMutex
}

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.deps.Repos.Orders.Recent(ctx)
}

// ByClient is the client's order history, newest first.
func (s *OrderService) ByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	return s.deps.Repos.Orders.ByClient(ctx, clientID)
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	o, err := s.deps.Repos.Orders.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return o, ErrOrderNotFound
	}
	return o, err
}

// UpdateStatus sets any known status. Moving into "prête à emporter" or
// "livrée" tells the client.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ErrInvalidStatus
	}

	o, previous, err := s.deps.Repos.Orders.SetStatus(ctx, id, status, s.deps.Now())
	if errors.Is(err, repositories.ErrNotFound) {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	flush(ctx, s.deps.Repos.Orders)

	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_id", o.ID, "from", previous, "to", status)

	s.deps.Notifier.OrderStatusChanged(o, previous)
	return o, nil
}
