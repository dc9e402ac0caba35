package models

import "github.com/shopspring/decimal"

// CartItem holds the full product as it was when last added or refreshed.
type CartItem struct {
	Product  Product `json:"produit"`
	Quantity int     `json:"quantite"`
}

// Cart is the read model returned to callers.
type Cart struct {
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// NewCart computes totals over items.
func NewCart(items []CartItem) Cart {
	total := decimal.Zero
	count := 0
	for _, it := range items {
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	if items == nil {
		items = []CartItem{}
	}
	return Cart{Items: items, Total: total, ItemCount: count}
}
