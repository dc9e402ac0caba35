// Package routes is the storefront's route table.
package routes

import (
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/mazraa/app/controllers"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	gql "github.com/shashiranjanraj/mazraa/pkg/graphql"
	"github.com/shashiranjanraj/mazraa/pkg/middleware"
	"github.com/shashiranjanraj/mazraa/pkg/router"
	"github.com/shashiranjanraj/mazraa/pkg/ws"
)

// Deps is what the route table needs to build its controllers.
type Deps struct {
	Services *services.Services
	Bus      *event.Bus
	Hub      *ws.Hub
	Schema   *graphql.Schema
	ShopName string

	// AdminRecheck overrides how often live admin streams re-check the login.
	AdminRecheck time.Duration
}

// RegisterAPI mounts every storefront route on r.
func RegisterAPI(r *router.Router, d Deps) {
	s := d.Services
	authC := controllers.NewAuthController(s)
	shopC := controllers.NewShopController(s)
	chatC := controllers.NewChatController(s)
	adminC := controllers.NewAdminController(s)
	streamC := controllers.NewStreamController(s, d.Bus, d.Hub, d.ShopName)
	if d.AdminRecheck > 0 {
		streamC.AdminRecheck = d.AdminRecheck
	}

	requireClient := middleware.RequireClient(s.Auth)
	requireAdmin := middleware.RequireAdmin(s.Auth)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", ctx.Wrap(authC.Register))
	auth.Post("/login", "auth.login", ctx.Wrap(authC.Login))
	auth.Post("/logout", "auth.logout", ctx.Wrap(authC.Logout))
	auth.Get("/me", "auth.me", ctx.Wrap(authC.Me))

	api.Get("/products", "products.index", ctx.Wrap(shopC.Products))
	api.Get("/products/{id}", "products.show", ctx.Wrap(shopC.Product))
	api.Get("/categories", "categories.index", ctx.Wrap(shopC.Categories))

	cart := api.Group("/cart")
	cart.Get("", "cart.show", ctx.Wrap(shopC.Cart))
	cart.Delete("", "cart.clear", ctx.Wrap(shopC.ClearCart))
	cart.Post("/items", "cart.items.store", ctx.Wrap(shopC.AddToCart))
	cart.Put("/items/{productId}", "cart.items.update", ctx.Wrap(shopC.UpdateCartItem))
	cart.Delete("/items/{productId}", "cart.items.destroy", ctx.Wrap(shopC.RemoveCartItem))

	api.Post("/orders", "orders.store", ctx.Wrap(shopC.PlaceOrder))
	orders := api.Group("/orders", requireClient)
	orders.Get("", "orders.index", ctx.Wrap(shopC.Orders))
	orders.Get("/{id}", "orders.show", ctx.Wrap(shopC.Order))

	chat := api.Group("/chat", requireClient)
	chat.Get("/messages", "chat.messages", ctx.Wrap(chatC.Messages))
	chat.Post("/messages", "chat.send", ctx.Wrap(chatC.Send))
	chat.Post("/read", "chat.read", ctx.Wrap(chatC.Read))
	chat.Get("/unread", "chat.unread", ctx.Wrap(chatC.Unread))

	api.Get("/events", "events", streamC.Events)
	if d.Hub != nil {
		r.Get("/ws", "ws", streamC.Socket)
	}
	if d.Schema != nil {
		r.Post("/graphql", "graphql", gql.Handler(*d.Schema))
	}

	api.Post("/admin/login", "admin.login", ctx.Wrap(authC.AdminLogin))
	api.Post("/admin/logout", "admin.logout", ctx.Wrap(authC.AdminLogout))
	api.Get("/admin/session", "admin.session", ctx.Wrap(authC.AdminSession))

	admin := api.Group("/admin", requireAdmin)
	admin.Get("/dashboard", "admin.dashboard", ctx.Wrap(adminC.Dashboard))

	admin.Get("/products", "admin.products.index", ctx.Wrap(adminC.Products))
	admin.Post("/products", "admin.products.store", ctx.Wrap(adminC.CreateProduct))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(adminC.UpdateProduct))
	admin.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(adminC.DeleteProduct))
	admin.Post("/products/{id}/toggle", "admin.products.toggle", ctx.Wrap(adminC.ToggleProduct))
	admin.Put("/products/{id}/stock", "admin.products.stock", ctx.Wrap(adminC.SetStock))
	admin.Post("/photos", "admin.photos.store", ctx.Wrap(adminC.UploadPhoto))

	admin.Get("/categories", "admin.categories.index", ctx.Wrap(adminC.Categories))
	admin.Post("/categories", "admin.categories.store", ctx.Wrap(adminC.AddCategory))
	admin.Delete("/categories/{id}", "admin.categories.destroy", ctx.Wrap(adminC.DeleteCategory))

	admin.Get("/orders", "admin.orders.index", ctx.Wrap(adminC.Orders))
	admin.Put("/orders/{id}/status", "admin.orders.status", ctx.Wrap(adminC.UpdateOrderStatus))

	admin.Get("/chat/conversations", "admin.chat.conversations", ctx.Wrap(adminC.Conversations))
	admin.Get("/chat/conversations/{clientId}/messages", "admin.chat.messages", ctx.Wrap(adminC.ConversationMessages))
	admin.Post("/chat/conversations/{clientId}/messages", "admin.chat.reply", ctx.Wrap(adminC.Reply))
	admin.Post("/chat/conversations/{clientId}/read", "admin.chat.read", ctx.Wrap(adminC.MarkRead))
	admin.Post("/chat/broadcast", "admin.chat.broadcast", ctx.Wrap(adminC.Broadcast))
	admin.Get("/chat/unread", "admin.chat.unread", ctx.Wrap(adminC.Unread))
}
