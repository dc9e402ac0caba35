package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

func product(id string, stock int) models.Product {
	return models.Product{
		ID:     id,
		Name:   "Produit " + id,
		Price:  decimal.RequireFromString("2.500"),
		Stock:  stock,
		Active: true,
		Photos: []string{"a.jpg"},
	}
}

func TestCollectionLoadsLazilyAndFlushesOnlyWhenDirty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, kv.SetJSON(ctx, store, repositories.KeyProducts, []models.Product{product("p1", 4)}))

	repo := repositories.NewProductRepository(store)
	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)
	assert.False(t, repo.Dirty())

	// another writer changes the blob; a clean collection does not overwrite it
	require.NoError(t, kv.SetJSON(ctx, store, repositories.KeyProducts, []models.Product{product("p9", 1)}))
	require.NoError(t, repo.Flush(ctx))
	var raw []models.Product
	_, err = kv.GetJSON(ctx, store, repositories.KeyProducts, &raw)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "p9", raw[0].ID)
}

func TestCollectionPutKeepsInsertionOrderAndReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())

	require.NoError(t, repo.Put(ctx, product("a", 1)))
	require.NoError(t, repo.Put(ctx, product("b", 1)))
	require.NoError(t, repo.Put(ctx, product("c", 1)))
	replaced := product("b", 7)
	require.NoError(t, repo.Put(ctx, replaced))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, 7, all[1].Stock)
}

func TestCollectionFlushRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := repositories.NewProductRepository(store)
	require.NoError(t, repo.Put(ctx, product("a", 3)))
	require.True(t, repo.Dirty())
	require.NoError(t, repo.Flush(ctx))
	assert.False(t, repo.Dirty())

	fresh := repositories.NewProductRepository(store)
	p, err := fresh.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("2.5")))
}

func TestCollectionReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, product("a", 3)))

	p, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	p.Photos[0] = "mutated.jpg"
	p.Stock = 99

	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", again.Photos[0])
	assert.Equal(t, 3, again.Stock)
}

func TestCollectionUpdateErrorLeavesValueUntouched(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, product("a", 3)))
	require.NoError(t, repo.Flush(ctx))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "a", func(p *models.Product) error {
		p.Stock = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, _ := repo.Get(ctx, "a")
	assert.Equal(t, 3, p.Stock)
	assert.False(t, repo.Dirty())
}

func TestCollectionMissingIDs(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())

	_, err := repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), repositories.ErrNotFound)
	_, err = repo.Update(ctx, "nope", func(*models.Product) error { return nil })
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCollectionDeletePersistsAfterFlush(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := repositories.NewProductRepository(store)
	require.NoError(t, repo.Put(ctx, product("a", 1)))
	require.NoError(t, repo.Put(ctx, product("b", 1)))
	require.NoError(t, repo.Flush(ctx))

	require.NoError(t, repo.Delete(ctx, "a"))
	n, _ := repositories.NewProductRepository(store).Len(ctx)
	assert.Equal(t, 2, n, "unflushed delete stays in memory")

	require.NoError(t, repo.Flush(ctx))
	n, _ = repositories.NewProductRepository(store).Len(ctx)
	assert.Equal(t, 1, n)
}

func TestRegistryPendingListsDirtyCollections(t *testing.T) {
	ctx := context.Background()
	reg := repositories.NewRegistry(kv.NewMemory())
	assert.Empty(t, reg.Pending())

	require.NoError(t, reg.Products.Put(ctx, product("a", 1)))
	assert.Equal(t, []string{reg.Products.Key()}, reg.Pending())

	require.NoError(t, reg.FlushAll(ctx))
	assert.Empty(t, reg.Pending())
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, product("a", 2)))

	p, err := repo.DecrementStock(ctx, "a", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestSetStockRejectsNegative(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, product("a", 2)))

	_, err := repo.SetStock(ctx, "a", -1)
	assert.ErrorIs(t, err, repositories.ErrNegativeStock)

	p, err := repo.SetStock(ctx, "a", 12)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Stock)
}

func TestToggleActiveAndActiveFilter(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewProductRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, product("a", 2)))
	require.NoError(t, repo.Put(ctx, product("b", 2)))

	p, err := repo.ToggleActive(ctx, "a")
	require.NoError(t, err)
	assert.False(t, p.Active)

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
}

func TestClientFindByEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewClientRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, models.Client{ID: "c1", Email: "amel@example.tn"}))

	_, found, err := repo.FindByEmail(ctx, "amel@example.tn")
	require.NoError(t, err)
	assert.True(t, found)

	_, found, _ = repo.FindByEmail(ctx, "Amel@example.tn")
	assert.False(t, found)
}

func TestCategoryFindByNameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewCategoryRepository(kv.NewMemory())
	require.NoError(t, repo.Put(ctx, models.Category{ID: "1", Name: "boissons"}))

	c, found, err := repo.FindByName(ctx, "  Boissons ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", c.ID)
}

func TestOrderRepositoryOrderingAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewOrderRepository(kv.NewMemory())
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, models.Order{ID: "o1", ClientID: "c1", PlacedAt: t0, Status: models.StatusNew}))
	require.NoError(t, repo.Put(ctx, models.Order{ID: "o2", ClientID: "c2", PlacedAt: t0.Add(time.Hour), Status: models.StatusNew}))
	require.NoError(t, repo.Put(ctx, models.Order{ID: "o3", ClientID: "c1", PlacedAt: t0.Add(2 * time.Hour), Status: models.StatusNew}))

	recent, err := repo.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o3", recent[0].ID)
	assert.Equal(t, "o1", recent[2].ID)

	mine, err := repo.ByClient(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o3", mine[0].ID)

	at := t0.Add(3 * time.Hour)
	o, prev, err := repo.SetStatus(ctx, "o1", models.StatusDelivered, at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, prev)
	assert.Equal(t, models.StatusDelivered, o.Status)
	assert.Equal(t, at, o.UpdatedAt)
}

func TestMessageMarkReadCountsOnlyUnread(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMessageRepository(kv.NewMemory())
	require.NoError(t, repo.Append(ctx, models.ChatMessage{ID: "m1", SenderID: "c1", SenderType: models.SenderClient}))
	require.NoError(t, repo.Append(ctx, models.ChatMessage{ID: "m2", SenderID: "c1", SenderType: models.SenderClient, Read: true}))
	require.NoError(t, repo.Append(ctx, models.ChatMessage{ID: "m3", SenderID: "c2", SenderType: models.SenderClient}))

	n, err := repo.MarkRead(ctx, func(m models.ChatMessage) bool { return m.SenderID == "c1" })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m3, _ := repo.Get(ctx, "m3")
	assert.False(t, m3.Read)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewSessionRepository(kv.NewMemory())

	id, err := repo.CurrentClientID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.SetCurrentClient(ctx, "s1", "c1"))
	id, _ = repo.CurrentClientID(ctx, "s1")
	assert.Equal(t, "c1", id)
	other, _ := repo.CurrentClientID(ctx, "s2")
	assert.Empty(t, other)

	items, err := repo.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, repo.SaveCart(ctx, "s1", []models.CartItem{{Product: product("a", 3), Quantity: 2}}))
	items, _ = repo.Cart(ctx, "s1")
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	now := time.Now()
	require.NoError(t, repo.SetAdminSession(ctx, "s1", models.AdminSession{IsAdmin: true, Timestamp: now}))
	s, found, err := repo.AdminSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, s.IsAdmin)

	require.NoError(t, repo.ClearCart(ctx, "s1"))
	require.NoError(t, repo.ClearAdminSession(ctx, "s1"))
	require.NoError(t, repo.ClearCurrentClient(ctx, "s1"))
	_, found, _ = repo.AdminSession(ctx, "s1")
	assert.False(t, found)
}

func TestRegistryFlushAll(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	reg := repositories.NewRegistry(store)
	require.NoError(t, reg.Products.Put(ctx, product("a", 1)))
	require.NoError(t, reg.Clients.Put(ctx, models.Client{ID: "c1", Email: "x@y.tn"}))
	require.NoError(t, reg.FlushAll(ctx))

	var clients []models.Client
	found, err := kv.GetJSON(ctx, store, repositories.KeyClients, &clients)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, clients, 1)
}
