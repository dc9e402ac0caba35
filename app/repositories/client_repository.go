package repositories

import (
	"context"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// ClientRepository stores registered customer accounts.
type ClientRepository struct {
	*Collection[models.Client]
}

func NewClientRepository(store kv.Store) *ClientRepository {
	return &ClientRepository{NewCollection[models.Client](store, KeyClients, nil)}
}

// FindByEmail looks up a client by exact, case-sensitive email.
func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (models.Client, bool, error) {
	return r.Find(ctx, func(c models.Client) bool { return c.Email == email })
}
