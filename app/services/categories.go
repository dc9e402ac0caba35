package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
)

// CategoryService maintains the category lookup list. Products reference
// categories by name, so deleting one leaves its products untouched.
type CategoryService struct {
	deps Deps

	// add serialises the duplicate-name check with the insert.
	add sync.Mutex
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.deps.Repos.Categories.All(ctx)
}

// Add stores a new category, trimmed and lower-cased.
func (s *CategoryService) Add(ctx context.Context, name string) (models.Category, error) {
	name = normalizeCategory(name)
	if name == "" {
		return models.Category{}, ValidationError{"nom": "Le champ nom est obligatoire."}
	}

	s.add.Lock()
	defer s.add.Unlock()

	repo := s.deps.Repos.Categories
	if _, exists, err := repo.FindByName(ctx, name); err != nil {
		return models.Category{}, err
	} else if exists {
		return models.Category{}, ErrCategoryExists
	}

	c := models.Category{ID: ident.New("cat"), Name: name, AddedAt: s.deps.Now()}
	if err := repo.Put(ctx, c); err != nil {
		return models.Category{}, fmt.Errorf("categories: add: %w", err)
	}
	flush(ctx, repo)
	s.deps.Notifier.CatalogChanged("category", c.ID)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	repo := s.deps.Repos.Categories
	err := repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return err
	}
	flush(ctx, repo)
	s.deps.Notifier.CatalogChanged("category", id)
	return nil
}

// SeedDefaults installs the default categories when none exist and
// returns how many were added.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	s.add.Lock()
	defer s.add.Unlock()

	repo := s.deps.Repos.Categories
	n, err := repo.Len(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	now := s.deps.Now()
	for i, name := range models.DefaultCategoryNames {
		c := models.Category{ID: strconv.Itoa(i + 1), Name: name, AddedAt: now}
		if err := repo.Put(ctx, c); err != nil {
			return i, err
		}
	}
	if err := repo.Flush(ctx); err != nil {
		return 0, err
	}
	return len(models.DefaultCategoryNames), nil
}
