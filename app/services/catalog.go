package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/bind"
	"github.com/shashiranjanraj/mazraa/pkg/collection"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/markup"
	"github.com/shashiranjanraj/mazraa/pkg/validate"
)

// MaxPhotoBytes caps a single product photo upload.
const MaxPhotoBytes = 5 << 20

// ErrNoPhotoDisk is returned by UploadPhoto when no storage disk is wired.
var ErrNoPhotoDisk = errors.New("stockage des photos indisponible")

// ProductView is a product with its description rendered for display.
type ProductView struct {
	models.Product
	DescriptionHTML string `json:"descriptionHtml"`
}

func viewOf(p models.Product) ProductView {
	return ProductView{Product: p, DescriptionHTML: markup.RenderMarkdown(p.Description)}
}

// ProductFilter narrows a catalog listing. Category matches exactly after
// normalisation; Search is a case-insensitive substring of the name or the
// description.
type ProductFilter struct {
	Category        string
	Search          string
	IncludeInactive bool
}

func (f ProductFilter) match(p models.Product) bool {
	if !f.IncludeInactive && !p.Active {
		return false
	}
	if c := normalizeCategory(f.Category); c != "" && normalizeCategory(p.Category) != c {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}
	return true
}

// ProductInput is the admin product form.
type ProductInput struct {
	Name        string          `json:"nom"         validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"prix"        validate:"gt=0"`
	Stock       int             `json:"stock"       validate:"gte=0"`
	Category    string          `json:"categorie"   validate:"required"`
	Photos      []string        `json:"photos"      validate:"required"`
	Active      *bool           `json:"actif"`
}

// ProductPatch changes only the fields that are set.
type ProductPatch struct {
	Name        *string          `json:"nom"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"prix"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"categorie"`
	Photos      []string         `json:"photos"`
	Active      *bool            `json:"actif"`
}

// CatalogService serves the public catalog and the admin product editor.
type CatalogService struct {
	deps  Deps
	stock *sync.Mutex
}

// List returns matching products in catalog order.
func (s *CatalogService) List(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	list, err := s.deps.Repos.Products.Filter(ctx, f.match)
	if err != nil {
		return nil, err
	}
	return collection.Map(list, viewOf), nil
}

// Get returns a product whatever its active flag.
func (s *CatalogService) Get(ctx context.Context, id string) (ProductView, error) {
	p, err := s.deps.Repos.Products.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ProductView{}, ErrProductNotFound
	}
	if err != nil {
		return ProductView{}, err
	}
	return viewOf(p), nil
}

// Visible returns an active product; inactive ones are reported missing.
func (s *CatalogService) Visible(ctx context.Context, id string) (ProductView, error) {
	v, err := s.Get(ctx, id)
	if err == nil && !v.Active {
		return ProductView{}, ErrProductNotFound
	}
	return v, err
}

// Create adds a product; it is active unless the input says otherwise.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	in = cleanProductInput(in)
	if err := checkProductInput(in); err != nil {
		return models.Product{}, err
	}

	p := models.Product{
		ID:          ident.New("prod"),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Photos:      in.Photos,
		Active:      in.Active == nil || *in.Active,
		AddedAt:     s.deps.Now(),
	}
	if err := s.deps.Repos.Products.Put(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	s.committed(ctx, p.ID)
	return p, nil
}

// Update applies patch and validates the result as a whole.
func (s *CatalogService) Update(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	s.stock.Lock()
	defer s.stock.Unlock()

	p, err := s.deps.Repos.Products.Update(ctx, id, func(p *models.Product) error {
		in := ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    p.Category,
			Photos:      p.Photos,
			Active:      &p.Active,
		}
		if patch.Name != nil {
			in.Name = *patch.Name
		}
		if patch.Description != nil {
			in.Description = *patch.Description
		}
		if patch.Price != nil {
			in.Price = *patch.Price
		}
		if patch.Stock != nil {
			in.Stock = *patch.Stock
		}
		if patch.Category != nil {
			in.Category = *patch.Category
		}
		if patch.Photos != nil {
			in.Photos = patch.Photos
		}
		if patch.Active != nil {
			in.Active = patch.Active
		}

		in = cleanProductInput(in)
		if err := checkProductInput(in); err != nil {
			return err
		}
		p.Name, p.Description, p.Price = in.Name, in.Description, in.Price
		p.Stock, p.Category, p.Photos, p.Active = in.Stock, in.Category, in.Photos, *in.Active
		return nil
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return p, ErrProductNotFound
	}
	if err != nil {
		return p, err
	}
	s.committed(ctx, id)
	return p, nil
}

// Toggle flips the active flag.
func (s *CatalogService) Toggle(ctx context.Context, id string) (models.Product, error) {
	s.stock.Lock()
	defer s.stock.Unlock()

	p, err := s.deps.Repos.Products.ToggleActive(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return p, ErrProductNotFound
	}
	if err != nil {
		return p, err
	}
	s.committed(ctx, id)
	return p, nil
}

// SetStock replaces the stock level. Negative values are rejected.
func (s *CatalogService) SetStock(ctx context.Context, id string, stock int) (models.Product, error) {
	if stock < 0 {
		return models.Product{}, ValidationError{"stock": "Le stock ne peut pas être négatif."}
	}
	s.stock.Lock()
	defer s.stock.Unlock()

	p, err := s.deps.Repos.Products.SetStock(ctx, id, stock)
	if errors.Is(err, repositories.ErrNotFound) {
		return p, ErrProductNotFound
	}
	if err != nil {
		return p, err
	}
	s.committed(ctx, id)
	return p, nil
}

// Delete removes the product. Orders keep their own snapshot of it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	s.stock.Lock()
	defer s.stock.Unlock()

	err := s.deps.Repos.Products.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	s.committed(ctx, id)
	return nil
}

// UploadPhoto stores an image on the photo disk and returns its public URL.
func (s *CatalogService) UploadPhoto(ctx context.Context, f bind.File) (string, error) {
	if s.deps.Photos == nil {
		return "", ErrNoPhotoDisk
	}
	if len(f.Data) > MaxPhotoBytes {
		return "", bind.ErrFileTooLarge
	}

	path := "photos/" + uuid.NewString() + photoExt(f)
	if err := s.deps.Photos.Put(path, f.Data); err != nil {
		return "", fmt.Errorf("catalog: store photo: %w", err)
	}
	logger.WithCtx(ctx).Info("product photo stored", "path", path, "bytes", len(f.Data))
	return s.deps.Photos.URL(path), nil
}

func (s *CatalogService) committed(ctx context.Context, id string) {
	flush(ctx, s.deps.Repos.Products)
	s.deps.Notifier.CatalogChanged("product", id)
}

func photoExt(f bind.File) string {
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(f.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cleanProductInput(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = normalizeCategory(in.Category)
	in.Photos = collection.Filter(in.Photos, func(s string) bool { return strings.TrimSpace(s) != "" })
	return in
}

func checkProductInput(in ProductInput) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return ValidationError(errs)
	}
	return nil
}
