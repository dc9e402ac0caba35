package services

import (
	"fmt"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
	"github.com/shashiranjanraj/mazraa/pkg/markup"
	"github.com/shashiranjanraj/mazraa/pkg/notification"
)

// previewLength is how much of a chat message a notification shows.
const previewLength = 50

var (
	viewOrder   = notification.Action{Action: "view", Title: "Voir la commande"}
	viewMessage = notification.Action{Action: "view", Title: "Voir le message"}
	closeAction = notification.Action{Action: "close", Title: "Fermer"}
)

// Notifier publishes domain changes on the event bus and raises the
// user-facing notifications that go with them. A nil Notifier is a no-op.
type Notifier struct {
	bus      *event.Bus
	dispatch *notification.Dispatcher
	shop     string
}

func NewNotifier(bus *event.Bus, dispatch *notification.Dispatcher, shopName string) *Notifier {
	return &Notifier{bus: bus, dispatch: dispatch, shop: shopName}
}

func (n *Notifier) publish(topic, name string, data any) {
	if n == nil || n.bus == nil {
		return
	}
	n.bus.Publish(topic, name, data)
}

func (n *Notifier) notify(topic string, p notification.Payload) {
	if n == nil || n.dispatch == nil {
		return
	}
	n.dispatch.Dispatch(topic, p)
}

// OrderPlaced tells the back-office about a new order.
func (n *Notifier) OrderPlaced(o models.Order) {
	n.publish(event.AdminTopic, event.OrderPlaced, o)
	n.publish(event.ClientTopic(o.ClientID), event.OrderPlaced, o)

	num := ident.Short(o.ID)
	n.notify(event.AdminTopic, notification.Payload{
		Title: "🔔 Nouvelle commande !",
		Body: fmt.Sprintf("%s %s - %s TND\nCommande #%s",
			o.ClientFirstName, o.ClientLastName, o.Total.StringFixed(3), num),
		Tag:     "new-order-" + num,
		Data:    map[string]any{"url": "/admin/orders", "orderNumber": num},
		Actions: []notification.Action{viewOrder, closeAction},
	})
}

// OrderStatusChanged tells the client when the order is ready or delivered.
func (n *Notifier) OrderStatusChanged(o models.Order, previous models.OrderStatus) {
	if n == nil {
		return
	}
	n.publish(event.AdminTopic, event.OrderStatus, o)
	n.publish(event.ClientTopic(o.ClientID), event.OrderStatus, o)

	if previous == o.Status {
		return
	}
	num := ident.Short(o.ID)
	var body string
	switch o.Status {
	case models.StatusReady:
		body = fmt.Sprintf("Votre commande #%s est prête à être récupérée !", num)
	case models.StatusDelivered:
		body = fmt.Sprintf("Votre commande #%s a été livrée avec succès !", num)
	default:
		return
	}
	n.notify(event.ClientTopic(o.ClientID), notification.Payload{
		Title:   n.shop,
		Body:    body,
		Tag:     "order-" + num,
		Data:    map[string]any{"url": "/orders", "orderNumber": num},
		Actions: []notification.Action{viewOrder, closeAction},
	})
}

// MessageSent delivers a chat message to its recipients' streams and raises
// a notification on the receiving side.
func (n *Notifier) MessageSent(m models.ChatMessage, clientIDs []string) {
	p := notification.Payload{
		Title:   "💬 " + m.SenderName,
		Body:    markup.Preview(m.Message, previewLength),
		Tag:     "new-message",
		Actions: []notification.Action{viewMessage, closeAction},
	}

	n.publish(event.AdminTopic, event.ChatMessage, m)
	for _, id := range clientIDs {
		n.publish(event.ClientTopic(id), event.ChatMessage, m)
	}

	if m.SenderType == models.SenderClient {
		p.Data = map[string]any{"url": "/admin", "clientId": m.SenderID}
		n.notify(event.AdminTopic, p)
		return
	}
	p.Data = map[string]any{"url": "/"}
	for _, id := range clientIDs {
		n.notify(event.ClientTopic(id), p)
	}
}

// MessagesRead lets the other side clear its unread badges.
func (n *Notifier) MessagesRead(clientID string, reader models.SenderType, count int) {
	data := map[string]any{"clientId": clientID, "reader": reader, "count": count}
	n.publish(event.AdminTopic, event.ChatRead, data)
	n.publish(event.ClientTopic(clientID), event.ChatRead, data)
}

// CatalogChanged signals that a product or category changed.
func (n *Notifier) CatalogChanged(kind, id string) {
	n.publish(event.CatalogTopic, event.CatalogChange, map[string]string{"kind": kind, "id": id})
}
