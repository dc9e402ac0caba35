// Package services holds the storefront's business rules. Controllers call
// into it with the session id resolved by the session middleware; every
// rejection is a sentinel error from errors.go.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/storage"
)

const (
	DefaultAdminCode = "10072012"
	DefaultAdminTTL  = time.Hour
	DefaultShopName  = "El Mazraa Bardo"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Repos     *repositories.Registry
	Notifier  *Notifier
	Photos    storage.Disk
	AdminCode string
	AdminTTL  time.Duration
	ShopName  string
	Now       func() time.Time
}

// Services bundles the storefront services built over one registry.
type Services struct {
	Auth       *AuthService
	Cart       *CartService
	Orders     *OrderService
	Catalog    *CatalogService
	Categories *CategoryService
	Chat       *ChatService
	Dashboard  *DashboardService
}

// New wires every service. Stock-changing operations share one lock so a
// checkout never interleaves with an admin stock edit.
func New(d Deps) *Services {
	if d.AdminCode == "" {
		d.AdminCode = DefaultAdminCode
	}
	if d.AdminTTL <= 0 {
		d.AdminTTL = DefaultAdminTTL
	}
	if d.ShopName == "" {
		d.ShopName = DefaultShopName
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	stock := &sync.Mutex{}
	carts := newKeyedMutex()

	return &Services{
		Auth:       &AuthService{deps: d},
		Cart:       &CartService{deps: d, locks: carts},
		Orders:     &OrderService{deps: d, stock: stock, carts: carts},
		Catalog:    &CatalogService{deps: d, stock: stock},
		Categories: &CategoryService{deps: d},
		Chat:       &ChatService{deps: d},
		Dashboard:  &DashboardService{deps: d},
	}
}

type flusher interface {
	Flush(ctx context.Context) error
	Key() string
}

// flush writes collections back. The in-memory state is already committed;
// a failed write stays dirty and is retried on the next flush.
func flush(ctx context.Context, cols ...flusher) {
	for _, c := range cols {
		if err := c.Flush(ctx); err != nil {
			logger.WithCtx(ctx).Error("services: flush failed", "collection", c.Key(), "error", err)
		}
	}
}

// keyedMutex serialises work per key (one cart per session).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
