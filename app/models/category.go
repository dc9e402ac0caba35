package models

import "time"

// Category is a free-standing lookup entry; products reference it by name.
type Category struct {
	ID      string    `json:"id"`
	Name    string    `json:"nom"`
	AddedAt time.Time `json:"dateAjout"`
}

func (c Category) GetID() string { return c.ID }

// DefaultCategoryNames are seeded on first run when no category exists.
var DefaultCategoryNames = []string{
	"épicerie",
	"boissons",
	"fruits et légumes",
	"produits laitiers",
	"hygiène",
}
