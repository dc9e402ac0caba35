package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
)

// PlaceOrder turns the session's cart into an order. Either every line is
// available and the whole cart is ordered, or nothing changes.
func (s *OrderService) PlaceOrder(ctx context.Context, sid string) (models.Order, error) {
	repos := s.deps.Repos

	clientID, err := repos.Sessions.CurrentClientID(ctx, sid)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: session: %w", err)
	}
	if clientID == "" {
		metrics.CheckoutRejected.WithLabelValues("unauthenticated").Inc()
		return models.Order{}, ErrNotAuthenticated
	}
	client, err := repos.Clients.Get(ctx, clientID)
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.CheckoutRejected.WithLabelValues("unauthenticated").Inc()
		return models.Order{}, ErrNotAuthenticated
	}
	if err != nil {
		return models.Order{}, err
	}

	unlockCart := s.carts.Lock(sid)
	defer unlockCart()

	items, err := repos.Sessions.Cart(ctx, sid)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: cart: %w", err)
	}
	if len(items) == 0 {
		metrics.CheckoutRejected.WithLabelValues("empty_cart").Inc()
		return models.Order{}, ErrEmptyCart
	}

	s.stock.Lock()
	defer s.stock.Unlock()

	wanted := make(map[string]int, len(items))
	for _, it := range items {
		wanted[it.Product.ID] += it.Quantity
	}

	live := make(map[string]models.Product, len(wanted))
	for _, it := range items {
		id := it.Product.ID
		if _, seen := live[id]; seen {
			continue
		}
		p, err := repos.Products.Get(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.CheckoutRejected.WithLabelValues("unavailable").Inc()
			return models.Order{}, unavailable(id, it.Product.Name)
		}
		if err != nil {
			return models.Order{}, err
		}
		if !p.Available(wanted[id]) {
			metrics.CheckoutRejected.WithLabelValues("unavailable").Inc()
			return models.Order{}, unavailable(id, p.Name)
		}
		live[id] = p
	}

	now := s.deps.Now()
	order := models.Order{
		ID:              ident.New("cmd"),
		ClientID:        client.ID,
		ClientLastName:  client.LastName,
		ClientFirstName: client.FirstName,
		ClientEmail:     client.Email,
		ClientPhone:     client.Phone,
		Lines:           make([]models.OrderLine, 0, len(items)),
		Articles:        make([]models.OrderArticle, 0, len(items)),
		Total:           decimal.Zero,
		Status:          models.StatusNew,
		PlacedAt:        now,
		UpdatedAt:       now,
	}
	for _, it := range items {
		p := live[it.Product.ID]
		line := models.OrderLine{
			ProductID:   p.ID,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			ProductName: p.Name,
		}
		order.Lines = append(order.Lines, line)
		order.Articles = append(order.Articles, models.OrderArticle{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Photo:     p.FirstPhoto(),
		})
		order.Total = order.Total.Add(line.Subtotal())
	}

	for id, qty := range wanted {
		if _, err := repos.Products.DecrementStock(ctx, id, qty); err != nil {
			return models.Order{}, fmt.Errorf("checkout: decrement %s: %w", id, err)
		}
	}
	if err := repos.Orders.Put(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("checkout: append order: %w", err)
	}
	if err := repos.Sessions.ClearCart(ctx, sid); err != nil {
		logger.WithCtx(ctx).Error("checkout: clear cart failed", "order_id", order.ID, "error", err)
	}
	flush(ctx, repos.Products, repos.Orders)

	metrics.OrdersPlaced.Inc()
	logger.WithCtx(ctx).Info("order placed",
		"order_id", order.ID, "client_id", client.ID, "total", order.Total.StringFixed(3))

	s.deps.Notifier.OrderPlaced(order)
	for id := range wanted {
		s.deps.Notifier.CatalogChanged("product", id)
	}
	return order, nil
}
