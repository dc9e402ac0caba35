// Package graphql exposes the public catalog as a read-only GraphQL schema.
package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/mazraa/app/services"
	gql "github.com/shashiranjanraj/mazraa/pkg/graphql"
)

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Produit",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"nom":             &graphql.Field{Type: graphql.String},
		"description":     &graphql.Field{Type: graphql.String},
		"descriptionHtml": &graphql.Field{Type: graphql.String},
		"prix":            &graphql.Field{Type: graphql.Float},
		"stock":           &graphql.Field{Type: graphql.Int},
		"categorie":       &graphql.Field{Type: graphql.String},
		"photos":          &graphql.Field{Type: graphql.NewList(graphql.String)},
		"actif":           &graphql.Field{Type: graphql.Boolean},
	},
})

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Categorie",
	Fields: graphql.Fields{
		"id":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"nom": &graphql.Field{Type: graphql.String},
	},
})

// NewSchema builds the catalog schema over the storefront services.
func NewSchema(s *services.Services) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					category, _ := p.Args["category"].(string)
					search, _ := p.Args["search"].(string)
					list, err := s.Catalog.List(p.Context, services.ProductFilter{Category: category, Search: search})
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, len(list))
					for i, v := range list {
						out[i] = productSource(v)
					}
					return out, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					v, err := s.Catalog.Visible(p.Context, id)
					if errors.Is(err, services.ErrProductNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return productSource(v), nil
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					list, err := s.Categories.List(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, len(list))
					for i, c := range list {
						out[i] = map[string]any{"id": c.ID, "nom": c.Name}
					}
					return out, nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

// productSource flattens a product for the default field resolver.
func productSource(v services.ProductView) map[string]any {
	photos := v.Photos
	if photos == nil {
		photos = []string{}
	}
	return map[string]any{
		"id":              v.ID,
		"nom":             v.Name,
		"description":     v.Description,
		"descriptionHtml": v.DescriptionHTML,
		"prix":            v.Price.InexactFloat64(),
		"stock":           v.Stock,
		"categorie":       v.Category,
		"photos":          photos,
		"actif":           v.Active,
	}
}
