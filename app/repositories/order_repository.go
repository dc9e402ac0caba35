package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// OrderRepository stores placed orders. Lines are never rewritten after
// creation; only status and modification date change.
type OrderRepository struct {
	*Collection[models.Order]
}

func NewOrderRepository(store kv.Store) *OrderRepository {
	return &OrderRepository{NewCollection(store, KeyOrders, models.Order.Clone)}
}

// Recent returns every order, newest first.
func (r *OrderRepository) Recent(ctx context.Context) ([]models.Order, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)
	return all, nil
}

// ByClient returns the client's orders, newest first.
func (r *OrderRepository) ByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	list, err := r.Filter(ctx, func(o models.Order) bool { return o.ClientID == clientID })
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

// SetStatus changes the status and stamps the modification date.
// previous is the status before the change.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) (order models.Order, previous models.OrderStatus, err error) {
	order, err = r.Update(ctx, id, func(o *models.Order) error {
		previous = o.Status
		o.Status = status
		o.UpdatedAt = at
		return nil
	})
	return order, previous, err
}

func sortNewestFirst(list []models.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PlacedAt.After(list[j].PlacedAt)
	})
}
