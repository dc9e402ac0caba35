package repositories

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// CategoryRepository stores the category lookup list.
type CategoryRepository struct {
	*Collection[models.Category]
}

func NewCategoryRepository(store kv.Store) *CategoryRepository {
	return &CategoryRepository{NewCollection[models.Category](store, KeyCategories, nil)}
}

// FindByName matches case-insensitively, ignoring surrounding spaces.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (models.Category, bool, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	return r.Find(ctx, func(c models.Category) bool {
		return strings.ToLower(c.Name) == want
	})
}
