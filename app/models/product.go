package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry ("produit").
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"nom"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"prix"`
	Stock       int             `json:"stock"`
	Category    string          `json:"categorie"`
	Photos      []string        `json:"photos"`
	Active      bool            `json:"actif"`
	AddedAt     time.Time       `json:"dateAjout"`
}

func (p Product) GetID() string { return p.ID }

// Available reports whether qty units can be sold right now.
func (p Product) Available(qty int) bool {
	return p.Active && qty > 0 && p.Stock >= qty
}

// FirstPhoto is the cover image, or "" when the product has none.
func (p Product) FirstPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// Clone returns a deep copy; Photos is not shared.
func (p Product) Clone() Product {
	p.Photos = append([]string(nil), p.Photos...)
	return p
}
