package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/pkg/event"
)

func recv(t *testing.T, s *event.Subscription) event.Event {
	t.Helper()
	select {
	case ev, ok := <-s.C:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return event.Event{}
}

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	bus := event.NewBus(8)
	admin := bus.Subscribe(event.AdminTopic)
	defer admin.Close()
	c1 := bus.Subscribe(event.ClientTopic("c1"))
	defer c1.Close()

	bus.Publish(event.ClientTopic("c1"), event.ChatMessage, "salut")

	ev := recv(t, c1)
	assert.Equal(t, event.ChatMessage, ev.Name)
	assert.Equal(t, "salut", ev.Data)
	assert.Equal(t, "client:c1", ev.Topic)

	select {
	case ev := <-admin.C:
		t.Fatalf("admin should not see client event, got %+v", ev)
	default:
	}
}

func TestSubscribeToSeveralTopics(t *testing.T) {
	bus := event.NewBus(8)
	s := bus.Subscribe(event.AdminTopic, event.ClientTopic("c1"))
	defer s.Close()

	bus.Publish(event.AdminTopic, event.OrderPlaced, 1)
	bus.Publish(event.ClientTopic("c1"), event.OrderStatus, 2)

	assert.Equal(t, event.OrderPlaced, recv(t, s).Name)
	assert.Equal(t, event.OrderStatus, recv(t, s).Name)
}

func TestFullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := event.NewBus(1)
	s := bus.Subscribe(event.AdminTopic)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(event.AdminTopic, event.Notification, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, int64(4), s.Dropped())
}

func TestCloseUnsubscribes(t *testing.T) {
	bus := event.NewBus(1)
	s := bus.Subscribe(event.AdminTopic)
	assert.Equal(t, 1, bus.Subscribers(event.AdminTopic))

	s.Close()
	s.Close()
	assert.Equal(t, 0, bus.Subscribers(event.AdminTopic))

	_, ok := <-s.C
	assert.False(t, ok)

	// publishing after close must not panic
	bus.Publish(event.AdminTopic, event.Notification, nil)
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	bus := event.NewBus(1)
	a := bus.Subscribe(event.AdminTopic, event.CatalogTopic)
	b := bus.Subscribe(event.ClientTopic("c1"))

	bus.Close()

	_, ok := <-a.C
	assert.False(t, ok)
	_, ok = <-b.C
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Subscribers(event.AdminTopic))

	late := bus.Subscribe(event.AdminTopic)
	_, ok = <-late.C
	assert.False(t, ok)
	late.Close()
}
