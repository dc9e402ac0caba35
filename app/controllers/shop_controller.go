package controllers

import (
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
	"github.com/shashiranjanraj/mazraa/pkg/middleware"
)

// ShopController serves the public catalog, the cart and order history.
type ShopController struct {
	catalog    *services.CatalogService
	categories *services.CategoryService
	cart       *services.CartService
	orders     *services.OrderService
}

func NewShopController(s *services.Services) *ShopController {
	return &ShopController{
		catalog:    s.Catalog,
		categories: s.Categories,
		cart:       s.Cart,
		orders:     s.Orders,
	}
}

// Products handles GET /api/products?categorie=&q=.
func (sc *ShopController) Products(c *ctx.Context) {
	list, err := sc.catalog.List(c.Context(), services.ProductFilter{
		Category: c.Query("categorie"),
		Search:   c.Query("q"),
	})
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// Product handles GET /api/products/{id}.
func (sc *ShopController) Product(c *ctx.Context) {
	p, err := sc.catalog.Visible(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

// Categories handles GET /api/categories.
func (sc *ShopController) Categories(c *ctx.Context) {
	list, err := sc.categories.List(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// ─── Cart ─────────────────────────────────────────────────────────────────────

type addToCartInput struct {
	ProductID string `json:"produitId" validate:"required"`
	Quantity  int    `json:"quantite"  validate:"gte=1"`
}

type quantityInput struct {
	Quantity int `json:"quantite"`
}

// Cart handles GET /api/cart.
func (sc *ShopController) Cart(c *ctx.Context) {
	cart, err := sc.cart.View(c.Context(), c.SessionID())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(cart)
}

// AddToCart handles POST /api/cart/items.
func (sc *ShopController) AddToCart(c *ctx.Context) {
	var in addToCartInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := sc.cart.Add(c.Context(), c.SessionID(), in.ProductID, in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Produit ajouté au panier", cart)
}

// UpdateCartItem handles PUT /api/cart/items/{productId}.
func (sc *ShopController) UpdateCartItem(c *ctx.Context) {
	var in quantityInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := sc.cart.UpdateQuantity(c.Context(), c.SessionID(), c.Param("productId"), in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cart)
}

// RemoveCartItem handles DELETE /api/cart/items/{productId}.
func (sc *ShopController) RemoveCartItem(c *ctx.Context) {
	cart, err := sc.cart.Remove(c.Context(), c.SessionID(), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Produit retiré du panier", cart)
}

// ClearCart handles DELETE /api/cart.
func (sc *ShopController) ClearCart(c *ctx.Context) {
	if err := sc.cart.Clear(c.Context(), c.SessionID()); err != nil {
		c.ServerError(err)
		return
	}
	cart, err := sc.cart.View(c.Context(), c.SessionID())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Message("Panier vidé", cart)
}

// ─── Orders ───────────────────────────────────────────────────────────────────

// PlaceOrder handles POST /api/orders. The guest check lives in the
// service so a logged-out session gets the checkout-specific message.
func (sc *ShopController) PlaceOrder(c *ctx.Context) {
	order, err := sc.orders.PlaceOrder(c.Context(), c.SessionID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Commande validée avec succès !", order)
}

// Orders handles GET /api/orders (client guard).
func (sc *ShopController) Orders(c *ctx.Context) {
	list, err := sc.orders.ByClient(c.Context(), middleware.ClientIDFromCtx(c.Context()))
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// Order handles GET /api/orders/{id} (client guard). Other clients' orders
// are reported missing.
func (sc *ShopController) Order(c *ctx.Context) {
	o, err := sc.orders.Get(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if o.ClientID != middleware.ClientIDFromCtx(c.Context()) {
		fail(c, services.ErrOrderNotFound)
		return
	}
	c.Success(o)
}
