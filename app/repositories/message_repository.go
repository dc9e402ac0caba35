package repositories

import (
	"context"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// MessageRepository is the append-only chat log.
type MessageRepository struct {
	*Collection[models.ChatMessage]
}

func NewMessageRepository(store kv.Store) *MessageRepository {
	return &MessageRepository{NewCollection[models.ChatMessage](store, KeyMessages, nil)}
}

// Append adds m at the end of the log.
func (r *MessageRepository) Append(ctx context.Context, m models.ChatMessage) error {
	return r.Put(ctx, m)
}

// MarkRead flags every unread message matching pred as read.
func (r *MessageRepository) MarkRead(ctx context.Context, pred func(models.ChatMessage) bool) (int, error) {
	return r.UpdateWhere(ctx, func(m *models.ChatMessage) bool {
		if m.Read || !pred(*m) {
			return false
		}
		m.Read = true
		return true
	})
}
