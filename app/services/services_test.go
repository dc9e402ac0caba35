package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
	"github.com/shashiranjanraj/mazraa/pkg/notification"
)

type fixture struct {
	svc   *services.Services
	repos *repositories.Registry
	bus   *event.Bus
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos: repositories.NewRegistry(kv.NewMemory()),
		bus:   event.NewBus(256),
		now:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	dispatch := notification.NewDispatcher(nil, notification.NewPushChannel(f.bus))
	f.svc = services.New(services.Deps{
		Repos:    f.repos,
		Notifier: services.NewNotifier(f.bus, dispatch, "El Mazraa Bardo"),
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) product(t *testing.T, id, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "épicerie",
		Active:   true,
		Photos:   []string{"/photos/" + id + ".jpg"},
	}
	require.NoError(t, f.repos.Products.Put(context.Background(), p))
	return p
}

func (f *fixture) login(t *testing.T, sid, email string) models.Client {
	t.Helper()
	c, err := f.svc.Auth.Register(context.Background(), sid, services.RegisterInput{
		LastName:  "Ben Salah",
		FirstName: "Amel",
		Phone:     "+216 20 123 456",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repos.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func drain(sub *event.Subscription) []event.Event {
	var out []event.Event
	for {
		select {
		case ev := <-sub.C:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func notifications(events []event.Event) []notification.Payload {
	var out []notification.Payload
	for _, ev := range events {
		if p, ok := ev.Data.(notification.Payload); ok && ev.Name == event.Notification {
			out = append(out, p)
		}
	}
	return out
}

// ─── Cart ────────────────────────────────────────────────────────────────────

func TestCartAddRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Harissa", "3.500", 2)
	_, err := f.repos.Products.ToggleActive(ctx, "p1")
	require.NoError(t, err)
	f.product(t, "p2", "Couscous", "4.200", 2)

	_, err = f.svc.Cart.Add(ctx, "s1", "p1", 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	_, err = f.svc.Cart.Add(ctx, "s1", "p2", 3)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	_, err = f.svc.Cart.Add(ctx, "s1", "p2", 0)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	_, err = f.svc.Cart.Add(ctx, "s1", "nope", 1)
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	cart, err := f.svc.Cart.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartMergeNeverExceedsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Dattes", "12.000", 3)

	cart, err := f.svc.Cart.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount)

	_, err = f.svc.Cart.Add(ctx, "s1", "p1", 2)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	cart, err = f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("36")))
}

func TestCartUpdateQuantityClampsToLiveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Lait", "1.350", 5)
	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	_, err = f.repos.Products.SetStock(ctx, "p1", 4)
	require.NoError(t, err)

	cart, err := f.svc.Cart.UpdateQuantity(ctx, "s1", "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 4, cart.Items[0].Product.Stock, "snapshot refreshed")

	cart, err = f.svc.Cart.UpdateQuantity(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.svc.Cart.UpdateQuantity(ctx, "s1", "p1", 2)
	assert.ErrorIs(t, err, services.ErrLineNotFound)
}

func TestCartIsPerSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Thé", "2.000", 5)

	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	other, err := f.svc.Cart.View(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	require.NoError(t, f.svc.Cart.Clear(ctx, "s1"))
	mine, _ := f.svc.Cart.View(ctx, "s1")
	assert.Empty(t, mine.Items)
}

// ─── Checkout ────────────────────────────────────────────────────────────────

func TestPlaceOrderRequiresLoginAndItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Miel", "25.000", 3)

	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.Orders.PlaceOrder(ctx, "s1")
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	f.login(t, "s2", "empty@example.tn")
	_, err = f.svc.Orders.PlaceOrder(ctx, "s2")
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	assert.Equal(t, 3, f.stock(t, "p1"))
}

func TestPlaceOrderConsumesExactStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Huile d'olive", "18.500", 3)
	client := f.login(t, "s1", "amel@example.tn")
	admin := f.bus.Subscribe(event.AdminTopic)
	defer admin.Close()

	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 3)
	require.NoError(t, err)

	order, err := f.svc.Orders.PlaceOrder(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 0, f.stock(t, "p1"))
	assert.Equal(t, models.StatusNew, order.Status)
	assert.Equal(t, client.ID, order.ClientID)
	assert.Equal(t, "Amel", order.ClientFirstName)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("55.5")))
	assert.Equal(t, f.now, order.PlacedAt)
	assert.Equal(t, order.PlacedAt, order.UpdatedAt)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Huile d'olive", order.Lines[0].ProductName)
	assert.Regexp(t, `^cmd_\d+_[0-9a-f]{9}$`, order.ID)

	cart, _ := f.svc.Cart.View(ctx, "s1")
	assert.Empty(t, cart.Items)

	payloads := notifications(drain(admin))
	require.Len(t, payloads, 1)
	assert.Equal(t, "🔔 Nouvelle commande !", payloads[0].Title)
	assert.Contains(t, payloads[0].Body, "Amel Ben Salah - 55.500 TND")

	_, err = f.svc.Cart.Add(ctx, "s1", "p1", 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Pâtes", "1.200", 5)
	f.product(t, "p2", "Tomates", "2.800", 5)
	f.login(t, "s1", "amel@example.tn")

	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	_, err = f.svc.Cart.Add(ctx, "s1", "p2", 4)
	require.NoError(t, err)
	_, err = f.repos.Products.SetStock(ctx, "p2", 3)
	require.NoError(t, err)

	_, err = f.svc.Orders.PlaceOrder(ctx, "s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
	var unavailable *services.UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "Tomates", unavailable.ProductName)
	assert.Equal(t, `Le produit "Tomates" n'est plus disponible en quantité suffisante`, err.Error())

	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 3, f.stock(t, "p2"))
	orders, _ := f.svc.Orders.List(ctx)
	assert.Empty(t, orders)
	cart, _ := f.svc.Cart.View(ctx, "s1")
	assert.Len(t, cart.Items, 2, "cart is kept for the client to fix")
}

func TestOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Fromage", "9.900", 4)
	f.login(t, "s1", "amel@example.tn")
	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.PlaceOrder(ctx, "s1")
	require.NoError(t, err)

	name := "Fromage affiné"
	price := decimal.RequireFromString("15")
	_, err = f.svc.Catalog.Update(ctx, "p1", services.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	require.NoError(t, f.svc.Catalog.Delete(ctx, "p1"))

	got, err := f.svc.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fromage", got.Lines[0].ProductName)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("9.9")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("9.9")))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Dernier pain", "0.250", 1)

	sessions := []string{"s1", "s2", "s3", "s4"}
	for i, sid := range sessions {
		f.login(t, sid, "client"+string(rune('a'+i))+"@example.tn")
		_, err := f.svc.Cart.Add(ctx, sid, "p1", 1)
		require.NoError(t, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, sid := range sessions {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			if _, err := f.svc.Orders.PlaceOrder(ctx, sid); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(sid)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 0, f.stock(t, "p1"))
}

// ─── Orders ──────────────────────────────────────────────────────────────────

func TestUpdateStatusNotifiesOnlyReadyAndDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Sucre", "1.100", 5)
	client := f.login(t, "s1", "amel@example.tn")
	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.PlaceOrder(ctx, "s1")
	require.NoError(t, err)

	sub := f.bus.Subscribe(event.ClientTopic(client.ID))
	defer sub.Close()

	f.now = f.now.Add(time.Hour)
	got, err := f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, f.now, got.UpdatedAt)
	assert.Empty(t, notifications(drain(sub)))

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusReady)
	require.NoError(t, err)
	payloads := notifications(drain(sub))
	require.Len(t, payloads, 1)
	assert.Equal(t, "El Mazraa Bardo", payloads[0].Title)
	assert.Contains(t, payloads[0].Body, "est prête à être récupérée")
	assert.Equal(t, "/orders", payloads[0].Data["url"])

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusDelivered)
	require.NoError(t, err)
	payloads = notifications(drain(sub))
	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0].Body, "a été livrée avec succès")

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, "expédiée")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
	_, err = f.svc.Orders.UpdateStatus(ctx, "cmd_missing", models.StatusNew)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

// ─── Auth ────────────────────────────────────────────────────────────────────

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.login(t, "s1", "amel@example.tn")
	assert.Empty(t, first.PasswordHash)

	_, err := f.svc.Auth.Register(ctx, "s2", services.RegisterInput{
		LastName: "X", FirstName: "Y", Phone: "22334455", Email: "amel@example.tn", Password: "another1",
	})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	stored, err := f.repos.Clients.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amel", stored.FirstName)
	n, _ := f.repos.Clients.Len(ctx)
	assert.Equal(t, 1, n)
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(context.Background(), "s1", services.RegisterInput{
		LastName: "X", FirstName: "Y", Phone: "22334455", Email: "not-an-email", Password: "12345",
	})
	var verr services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr, "email")
	assert.Contains(t, verr, "password")
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "s1", "amel@example.tn")

	_, errUnknown := f.svc.Auth.Login(ctx, "s2", services.LoginInput{Email: "ghost@example.tn", Password: "secret123"})
	_, errWrong := f.svc.Auth.Login(ctx, "s2", services.LoginInput{Email: "amel@example.tn", Password: "wrong-pass"})
	assert.ErrorIs(t, errUnknown, services.ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrong)

	c, err := f.svc.Auth.Login(ctx, "s2", services.LoginInput{Email: "amel@example.tn", Password: "secret123"})
	require.NoError(t, err)
	current, found, err := f.svc.Auth.CurrentClient(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, c.ID, current.ID)
}

func TestLogoutClearsSessionState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Café", "6.000", 5)
	f.login(t, "s1", "amel@example.tn")
	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Auth.Logout(ctx, "s1"))
	_, found, _ := f.svc.Auth.CurrentClient(ctx, "s1")
	assert.False(t, found)
	cart, _ := f.svc.Cart.View(ctx, "s1")
	assert.Empty(t, cart.Items)
}

func TestAdminSessionExpiresAfterFixedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.AdminLogin(ctx, "s1", "1234")
	assert.ErrorIs(t, err, services.ErrInvalidAdminCode)

	_, err = f.svc.Auth.AdminLogin(ctx, "s1", services.DefaultAdminCode)
	require.NoError(t, err)

	f.now = f.now.Add(59 * time.Minute)
	ok, err := f.svc.Auth.AdminSessionValid(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok, "checks do not extend the window")

	f.now = f.now.Add(2 * time.Minute)
	ok, err = f.svc.Auth.AdminSessionValid(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := f.repos.Sessions.AdminSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found, "expired record is removed")
}

// ─── Chat ────────────────────────────────────────────────────────────────────

func TestAdminMarkReadIsScopedToOneClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.login(t, "s1", "a@example.tn")
	b := f.login(t, "s2", "b@example.tn")

	_, err := f.svc.Chat.SendFromClient(ctx, a, "Bonjour")
	require.NoError(t, err)
	_, err = f.svc.Chat.SendFromClient(ctx, b, "Salut")
	require.NoError(t, err)

	n, err := f.svc.Chat.MarkRead(ctx, a.ID, models.SenderAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	unreadA, _ := f.svc.Chat.UnreadCount(ctx, a.ID, models.SenderAdmin)
	unreadB, _ := f.svc.Chat.UnreadCount(ctx, b.ID, models.SenderAdmin)
	assert.Equal(t, 0, unreadA)
	assert.Equal(t, 1, unreadB)
	total, _ := f.svc.Chat.TotalUnread(ctx)
	assert.Equal(t, 1, total)
}

func TestConversationsScopeAdminReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.login(t, "s1", "a@example.tn")
	b := f.login(t, "s2", "b@example.tn")

	_, err := f.svc.Chat.SendFromClient(ctx, a, "Commande prête ?")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Chat.SendFromClient(ctx, b, "Horaires ?")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Chat.SendFromAdmin(ctx, a.ID, "Oui, à 17h")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Chat.SendFromAdmin(ctx, "", "Fermé dimanche")
	require.NoError(t, err)

	convs, err := f.svc.Chat.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	byID := map[string]models.Conversation{}
	for _, c := range convs {
		byID[c.ClientID] = c
	}
	assert.Len(t, byID[a.ID].Messages, 3)
	assert.Len(t, byID[b.ID].Messages, 2)
	assert.Equal(t, "Fermé dimanche", byID[b.ID].LastMessage.Message)
	assert.Equal(t, "Amel Ben Salah", byID[a.ID].ClientName)
	assert.Equal(t, 1, byID[a.ID].UnreadCount)

	thread, err := f.svc.Chat.ConversationMessages(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "Horaires ?", thread[0].Message)

	unread, _ := f.svc.Chat.UnreadCount(ctx, b.ID, models.SenderClient)
	assert.Equal(t, 1, unread)
	n, err := f.svc.Chat.MarkRead(ctx, a.ID, models.SenderClient)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChatSanitisesAndRejectsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.login(t, "s1", "a@example.tn")
	admin := f.bus.Subscribe(event.AdminTopic)
	defer admin.Close()

	_, err := f.svc.Chat.SendFromClient(ctx, a, "   <b></b> ")
	assert.ErrorIs(t, err, services.ErrEmptyMessage)

	m, err := f.svc.Chat.SendFromClient(ctx, a, "<script>x()</script>Bonjour <b>équipe</b>")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour équipe", m.Message)
	assert.False(t, m.Read)

	payloads := notifications(drain(admin))
	require.Len(t, payloads, 1)
	assert.Equal(t, "💬 Amel Ben Salah", payloads[0].Title)
	assert.Equal(t, "/admin", payloads[0].Data["url"])
}

// ─── Catalog, categories, dashboard ─────────────────────────────────────────

func TestCatalogCreateValidatesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Catalog.Create(ctx, services.ProductInput{Name: "Sans photo", Price: decimal.NewFromInt(2), Category: "épicerie"})
	var verr services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr, "photos")

	p, err := f.svc.Catalog.Create(ctx, services.ProductInput{
		Name:        "Jus d'orange",
		Description: "Pressé **du jour**",
		Price:       decimal.RequireFromString("3.200"),
		Stock:       10,
		Category:    "  Boissons ",
		Photos:      []string{"/photos/jus.jpg"},
	})
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.Equal(t, "boissons", p.Category)

	inactive := false
	_, err = f.svc.Catalog.Create(ctx, services.ProductInput{
		Name: "Jus caché", Price: decimal.NewFromInt(1), Category: "boissons", Photos: []string{"/x.jpg"}, Active: &inactive,
	})
	require.NoError(t, err)

	list, err := f.svc.Catalog.List(ctx, services.ProductFilter{Category: "BOISSONS", Search: "ORANGE"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].DescriptionHTML, "<strong>du jour</strong>")

	all, err := f.svc.Catalog.List(ctx, services.ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Catalog.SetStock(ctx, p.ID, -1)
	require.True(t, errors.As(err, &verr))
	_, err = f.svc.Catalog.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestCategoriesSeedOnceAndRejectDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.Categories.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = f.svc.Categories.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = f.svc.Categories.Add(ctx, " Boissons ")
	assert.ErrorIs(t, err, services.ErrCategoryExists)

	c, err := f.svc.Categories.Add(ctx, "Surgelés")
	require.NoError(t, err)
	assert.Equal(t, "surgelés", c.Name)

	require.NoError(t, f.svc.Categories.Delete(ctx, "1"))
	assert.ErrorIs(t, f.svc.Categories.Delete(ctx, "1"), services.ErrCategoryNotFound)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Farine", "2.000", 2)
	f.product(t, "p2", "Semoule", "3.000", 0)
	f.login(t, "s1", "a@example.tn")

	_, err := f.svc.Cart.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	order, err := f.svc.Orders.PlaceOrder(ctx, "s1")
	require.NoError(t, err)
	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusDelivered)
	require.NoError(t, err)

	stats, err := f.svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 2, stats.OutOfStock)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 0, stats.NewOrders)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(4)))
	assert.Len(t, stats.RecentOrders, 1)
}

func TestUpdateStatusWithoutNotifier(t *testing.T) {
	repos := repositories.NewRegistry(kv.NewMemory())
	svc := services.New(services.Deps{Repos: repos})
	ctx := context.Background()

	order := models.Order{ID: "cmd_1", ClientID: "client_1", Status: models.StatusNew}
	require.NoError(t, repos.Orders.Put(ctx, order))

	for _, status := range []models.OrderStatus{models.StatusReady, models.StatusDelivered} {
		assert.NotPanics(t, func() {
			got, err := svc.Orders.UpdateStatus(ctx, order.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, got.Status)
		}, string(status))
	}
}

func TestLoginWithUnknownEmailCostsAHashCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, "s1", "amel@example.tn")

	start := time.Now()
	_, err := f.svc.Auth.Login(ctx, "s2", services.LoginInput{Email: "amel@example.tn", Password: "wrong-pass"})
	wrong := time.Since(start)
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	start = time.Now()
	_, err = f.svc.Auth.Login(ctx, "s2", services.LoginInput{Email: "ghost@example.tn", Password: "wrong-pass"})
	unknown := time.Since(start)
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	assert.Greater(t, unknown, wrong/4, "unknown=%s wrong=%s", unknown, wrong)
}

func TestRotateSessionMovesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "p1", "Thé", "3.500", 5)
	client := f.login(t, "old", "amel@example.tn")
	_, err := f.svc.Cart.Add(ctx, "old", "p1", 2)
	require.NoError(t, err)
	_, err = f.svc.Auth.AdminLogin(ctx, "old", services.DefaultAdminCode)
	require.NoError(t, err)

	require.NoError(t, f.svc.Auth.RotateSession(ctx, "old", "new"))

	current, found, err := f.svc.Auth.CurrentClient(ctx, "new")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, client.ID, current.ID)
	cart, err := f.svc.Cart.View(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount)
	admin, err := f.svc.Auth.AdminSessionValid(ctx, "new")
	require.NoError(t, err)
	assert.True(t, admin)

	_, found, _ = f.svc.Auth.CurrentClient(ctx, "old")
	assert.False(t, found)
	admin, _ = f.svc.Auth.AdminSessionValid(ctx, "old")
	assert.False(t, admin)
	cart, _ = f.svc.Cart.View(ctx, "old")
	assert.Empty(t, cart.Items)
}

func TestAdminSessionRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok, err := f.svc.Auth.AdminSessionRemaining(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.Auth.AdminLogin(ctx, "s1", services.DefaultAdminCode)
	require.NoError(t, err)
	f.now = f.now.Add(20 * time.Minute)

	left, ok, err := f.svc.Auth.AdminSessionRemaining(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 40*time.Minute, left)

	f.now = f.now.Add(41 * time.Minute)
	_, ok, err = f.svc.Auth.AdminSessionRemaining(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryAddIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Categories.Add(ctx, "  Miel ")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var added, dupes int
	for err := range errs {
		switch {
		case err == nil:
			added++
		case errors.Is(err, services.ErrCategoryExists):
			dupes++
		}
	}
	assert.Equal(t, 1, added)
	assert.Equal(t, 7, dupes)
}
