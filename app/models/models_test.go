package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/app/models"
)

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, models.StatusPreparing.Valid())
	assert.False(t, models.OrderStatus("expédiée").Valid())

	assert.True(t, models.StatusReady.NotifiesClient())
	assert.True(t, models.StatusDelivered.NotifiesClient())
	assert.False(t, models.StatusPreparing.NotifiesClient())

	assert.True(t, models.StatusReady.InProgress())
	assert.False(t, models.StatusNew.InProgress())

	assert.True(t, models.StatusDelivered.Earned())
	assert.False(t, models.StatusCancelled.Earned())
}

func TestProductAvailability(t *testing.T) {
	p := models.Product{Active: true, Stock: 3}
	assert.True(t, p.Available(3))
	assert.False(t, p.Available(4))
	assert.False(t, p.Available(0))

	p.Active = false
	assert.False(t, p.Available(1))
}

func TestProductCloneDoesNotSharePhotos(t *testing.T) {
	p := models.Product{Photos: []string{"a.jpg"}}
	c := p.Clone()
	c.Photos[0] = "b.jpg"
	assert.Equal(t, "a.jpg", p.FirstPhoto())
	assert.Equal(t, "", models.Product{}.FirstPhoto())
}

func TestCartTotals(t *testing.T) {
	cart := models.NewCart([]models.CartItem{
		{Product: models.Product{Price: decimal.RequireFromString("2.750")}, Quantity: 2},
		{Product: models.Product{Price: decimal.RequireFromString("10")}, Quantity: 1},
	})
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("15.5")))
	assert.Equal(t, 3, cart.ItemCount)

	empty := models.NewCart(nil)
	assert.True(t, empty.Total.IsZero())
	assert.Equal(t, 0, empty.ItemCount)
}

func TestOrderLineSubtotal(t *testing.T) {
	l := models.OrderLine{UnitPrice: decimal.RequireFromString("1.250"), Quantity: 4}
	assert.True(t, l.Subtotal().Equal(decimal.NewFromInt(5)))
}

func TestMessageVisibility(t *testing.T) {
	fromClient := models.ChatMessage{SenderType: models.SenderClient, SenderID: "c1"}
	assert.True(t, fromClient.VisibleTo("c1"))
	assert.False(t, fromClient.VisibleTo("c2"))

	reply := models.ChatMessage{SenderType: models.SenderAdmin, SenderID: models.AdminSenderID, RecipientID: "c1"}
	assert.True(t, reply.VisibleTo("c1"))
	assert.False(t, reply.VisibleTo("c2"))

	broadcast := models.ChatMessage{SenderType: models.SenderAdmin, SenderID: models.AdminSenderID}
	assert.True(t, broadcast.VisibleTo("c2"))
}

func TestAdminSessionWindow(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := models.AdminSession{IsAdmin: true, Timestamp: start}

	assert.True(t, s.ValidAt(start.Add(59*time.Minute), time.Hour))
	assert.False(t, s.ValidAt(start.Add(61*time.Minute), time.Hour))
	assert.False(t, models.AdminSession{IsAdmin: true}.ValidAt(start, time.Hour))
}

func TestPublicClientHidesPassword(t *testing.T) {
	c := models.Client{ID: "c1", FirstName: "Amira", LastName: "Ben Salah", PasswordHash: "$2a$..."}
	raw, err := json.Marshal(c.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.Equal(t, "Amira Ben Salah", c.FullName())
}
