package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// Registry groups every repository sharing one blob store.
type Registry struct {
	Store      kv.Store
	Clients    *ClientRepository
	Products   *ProductRepository
	Orders     *OrderRepository
	Categories *CategoryRepository
	Messages   *MessageRepository
	Sessions   *SessionRepository
}

func NewRegistry(store kv.Store) *Registry {
	return &Registry{
		Store:      store,
		Clients:    NewClientRepository(store),
		Products:   NewProductRepository(store),
		Orders:     NewOrderRepository(store),
		Categories: NewCategoryRepository(store),
		Messages:   NewMessageRepository(store),
		Sessions:   NewSessionRepository(store),
	}
}

// FlushAll writes back every dirty collection and reports all failures.
func (r *Registry) FlushAll(ctx context.Context) error {
	return errors.Join(
		r.Clients.Flush(ctx),
		r.Products.Flush(ctx),
		r.Orders.Flush(ctx),
		r.Categories.Flush(ctx),
		r.Messages.Flush(ctx),
	)
}

// Pending lists the keys of collections holding unflushed changes.
func (r *Registry) Pending() []string {
	var keys []string
	for _, c := range []interface {
		Dirty() bool
		Key() string
	}{r.Clients, r.Products, r.Orders, r.Categories, r.Messages} {
		if c.Dirty() {
			keys = append(keys, c.Key())
		}
	}
	return keys
}
