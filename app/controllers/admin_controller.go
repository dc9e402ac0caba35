package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/bind"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
)

// AdminController is the back-office. Every route runs behind the admin guard.
type AdminController struct {
	svc *services.Services
}

func NewAdminController(s *services.Services) *AdminController {
	return &AdminController{svc: s}
}

// Dashboard handles GET /api/admin/dashboard.
func (ac *AdminController) Dashboard(c *ctx.Context) {
	stats, err := ac.svc.Dashboard.Stats(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(stats)
}

// ─── Products ─────────────────────────────────────────────────────────────────

// Products handles GET /api/admin/products, inactive products included.
func (ac *AdminController) Products(c *ctx.Context) {
	list, err := ac.svc.Catalog.List(c.Context(), services.ProductFilter{
		Category:        c.Query("categorie"),
		Search:          c.Query("q"),
		IncludeInactive: true,
	})
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// CreateProduct handles POST /api/admin/products.
func (ac *AdminController) CreateProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := ac.svc.Catalog.Create(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Produit ajouté", p)
}

// UpdateProduct handles PUT /api/admin/products/{id}.
func (ac *AdminController) UpdateProduct(c *ctx.Context) {
	var patch services.ProductPatch
	if !c.BindJSON(&patch) {
		return
	}
	p, err := ac.svc.Catalog.Update(c.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Produit mis à jour", p)
}

// DeleteProduct handles DELETE /api/admin/products/{id}.
func (ac *AdminController) DeleteProduct(c *ctx.Context) {
	if err := ac.svc.Catalog.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Produit supprimé", nil)
}

// ToggleProduct handles POST /api/admin/products/{id}/toggle.
func (ac *AdminController) ToggleProduct(c *ctx.Context) {
	p, err := ac.svc.Catalog.Toggle(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

type stockInput struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// SetStock handles PUT /api/admin/products/{id}/stock.
func (ac *AdminController) SetStock(c *ctx.Context) {
	var in stockInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := ac.svc.Catalog.SetStock(c.Context(), c.Param("id"), in.Stock)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Stock mis à jour", p)
}

// UploadPhoto handles POST /api/admin/photos (multipart field "photo").
func (ac *AdminController) UploadPhoto(c *ctx.Context) {
	f, err := bind.Image(c.R, "photo", services.MaxPhotoBytes)
	if err != nil {
		if errors.Is(err, bind.ErrFileTooLarge) || errors.Is(err, bind.ErrNotImage) {
			fail(c, err)
			return
		}
		c.Error(http.StatusBadRequest, "Fichier photo manquant ou invalide")
		return
	}
	url, err := ac.svc.Catalog.UploadPhoto(c.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Photo enregistrée", map[string]string{"url": url})
}

// ─── Categories ───────────────────────────────────────────────────────────────

type categoryInput struct {
	Name string `json:"nom" validate:"required,max=60"`
}

// Categories handles GET /api/admin/categories.
func (ac *AdminController) Categories(c *ctx.Context) {
	list, err := ac.svc.Categories.List(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// AddCategory handles POST /api/admin/categories.
func (ac *AdminController) AddCategory(c *ctx.Context) {
	var in categoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := ac.svc.Categories.Add(c.Context(), in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Catégorie ajoutée", cat)
}

// DeleteCategory handles DELETE /api/admin/categories/{id}.
func (ac *AdminController) DeleteCategory(c *ctx.Context) {
	if err := ac.svc.Categories.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Catégorie supprimée", nil)
}

// ─── Orders ───────────────────────────────────────────────────────────────────

type statusInput struct {
	Status models.OrderStatus `json:"statut" validate:"required"`
}

// Orders handles GET /api/admin/orders?statut=.
func (ac *AdminController) Orders(c *ctx.Context) {
	list, err := ac.svc.Orders.List(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	if want := models.OrderStatus(c.Query("statut")); want != "" {
		filtered := list[:0]
		for _, o := range list {
			if o.Status == want {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}
	c.Success(list)
}

// UpdateOrderStatus handles PUT /api/admin/orders/{id}/status.
func (ac *AdminController) UpdateOrderStatus(c *ctx.Context) {
	var in statusInput
	if !c.BindJSON(&in) {
		return
	}
	o, err := ac.svc.Orders.UpdateStatus(c.Context(), c.Param("id"), in.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Statut mis à jour", o)
}

// ─── Chat ─────────────────────────────────────────────────────────────────────

// Conversations handles GET /api/admin/chat/conversations.
func (ac *AdminController) Conversations(c *ctx.Context) {
	list, err := ac.svc.Chat.Conversations(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// ConversationMessages handles GET /api/admin/chat/conversations/{clientId}/messages.
func (ac *AdminController) ConversationMessages(c *ctx.Context) {
	list, err := ac.svc.Chat.ConversationMessages(c.Context(), c.Param("clientId"))
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// Reply handles POST /api/admin/chat/conversations/{clientId}/messages.
func (ac *AdminController) Reply(c *ctx.Context) {
	var in messageInput
	if !c.BindJSON(&in) {
		return
	}
	m, err := ac.svc.Chat.SendFromAdmin(c.Context(), c.Param("clientId"), in.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Message envoyé", m)
}

// Broadcast handles POST /api/admin/chat/broadcast: one message shown in
// every conversation.
func (ac *AdminController) Broadcast(c *ctx.Context) {
	var in messageInput
	if !c.BindJSON(&in) {
		return
	}
	m, err := ac.svc.Chat.SendFromAdmin(c.Context(), "", in.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Message envoyé", m)
}

// MarkRead handles POST /api/admin/chat/conversations/{clientId}/read.
func (ac *AdminController) MarkRead(c *ctx.Context) {
	n, err := ac.svc.Chat.MarkRead(c.Context(), c.Param("clientId"), models.SenderAdmin)
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(map[string]int{"marked": n})
}

// Unread handles GET /api/admin/chat/unread.
func (ac *AdminController) Unread(c *ctx.Context) {
	n, err := ac.svc.Chat.TotalUnread(c.Context())
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(map[string]int{"unread": n})
}
