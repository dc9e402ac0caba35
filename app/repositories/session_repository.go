package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// SessionRepository keeps per-session state directly in the blob store:
// the logged-in client pointer, the admin login record and the cart.
// The cart belongs to the session, not to the account.
type SessionRepository struct {
	store kv.Store
}

func NewSessionRepository(store kv.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// CurrentClientID returns "" when nobody is logged in on sid.
func (r *SessionRepository) CurrentClientID(ctx context.Context, sid string) (string, error) {
	var id string
	if _, err := kv.GetJSON(ctx, r.store, keyCurrentUser+sid, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SessionRepository) SetCurrentClient(ctx context.Context, sid, clientID string) error {
	return kv.SetJSON(ctx, r.store, keyCurrentUser+sid, clientID)
}

func (r *SessionRepository) ClearCurrentClient(ctx context.Context, sid string) error {
	return r.store.Delete(ctx, keyCurrentUser+sid)
}

// AdminSession returns the stored admin login, if any.
func (r *SessionRepository) AdminSession(ctx context.Context, sid string) (models.AdminSession, bool, error) {
	var s models.AdminSession
	found, err := kv.GetJSON(ctx, r.store, keyAdminSession+sid, &s)
	return s, found, err
}

func (r *SessionRepository) SetAdminSession(ctx context.Context, sid string, s models.AdminSession) error {
	return kv.SetJSON(ctx, r.store, keyAdminSession+sid, s)
}

func (r *SessionRepository) ClearAdminSession(ctx context.Context, sid string) error {
	return r.store.Delete(ctx, keyAdminSession+sid)
}

// Cart returns the session's cart lines; an absent cart is empty.
func (r *SessionRepository) Cart(ctx context.Context, sid string) ([]models.CartItem, error) {
	var items []models.CartItem
	if _, err := kv.GetJSON(ctx, r.store, keyCart+sid, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveCart persists the full cart snapshot.
func (r *SessionRepository) SaveCart(ctx context.Context, sid string, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	return kv.SetJSON(ctx, r.store, keyCart+sid, items)
}

func (r *SessionRepository) ClearCart(ctx context.Context, sid string) error {
	return r.store.Delete(ctx, keyCart+sid)
}

// Move hands every piece of state held by from over to to. Nothing is left
// under from afterwards.
func (r *SessionRepository) Move(ctx context.Context, from, to string) error {
	for _, prefix := range []string{keyCurrentUser, keyAdminSession, keyCart} {
		raw, err := r.store.Get(ctx, prefix+from)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := r.store.Set(ctx, prefix+to, raw); err != nil {
			return err
		}
		if err := r.store.Delete(ctx, prefix+from); err != nil {
			return err
		}
	}
	return nil
}
