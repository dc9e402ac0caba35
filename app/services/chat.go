package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/collection"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/markup"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
)

// MaxMessageLength bounds a chat message, in characters.
const MaxMessageLength = 2000

// ChatService is the client/back-office messaging log.
type ChatService struct {
	deps Deps
}

// SendFromClient posts text in the client's own conversation.
func (s *ChatService) SendFromClient(ctx context.Context, c models.Client, text string) (models.ChatMessage, error) {
	return s.send(ctx, models.ChatMessage{
		SenderID:   c.ID,
		SenderName: c.FullName(),
		SenderType: models.SenderClient,
		Message:    text,
	})
}

// SendFromClientID loads the client and posts text in their conversation.
func (s *ChatService) SendFromClientID(ctx context.Context, clientID, text string) (models.ChatMessage, error) {
	c, err := s.deps.Repos.Clients.Get(ctx, clientID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.ChatMessage{}, ErrClientNotFound
	}
	if err != nil {
		return models.ChatMessage{}, err
	}
	return s.SendFromClient(ctx, c, text)
}

// SendFromAdmin posts text as the shop. An empty clientID broadcasts the
// message into every conversation.
func (s *ChatService) SendFromAdmin(ctx context.Context, clientID, text string) (models.ChatMessage, error) {
	return s.send(ctx, models.ChatMessage{
		SenderID:    models.AdminSenderID,
		SenderName:  s.deps.ShopName,
		SenderType:  models.SenderAdmin,
		RecipientID: clientID,
		Message:     text,
	})
}

func (s *ChatService) send(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	m.Message = markup.PlainText(m.Message)
	if m.Message == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(m.Message) > MaxMessageLength {
		return models.ChatMessage{}, ValidationError{
			"message": fmt.Sprintf("Le champ message ne doit pas dépasser %d caractères.", MaxMessageLength),
		}
	}
	m.ID = ident.New("msg")
	m.Timestamp = s.deps.Now()
	m.Read = false

	repo := s.deps.Repos.Messages
	if err := repo.Append(ctx, m); err != nil {
		return models.ChatMessage{}, fmt.Errorf("chat: append: %w", err)
	}
	flush(ctx, repo)
	metrics.ChatMessages.WithLabelValues(string(m.SenderType)).Inc()

	recipients, err := s.recipients(ctx, m)
	if err != nil {
		logger.WithCtx(ctx).Warn("chat: recipients lookup failed", "message_id", m.ID, "error", err)
	}
	s.deps.Notifier.MessageSent(m, recipients)
	return m, nil
}

// recipients lists the client conversations m lands in.
func (s *ChatService) recipients(ctx context.Context, m models.ChatMessage) ([]string, error) {
	switch {
	case m.SenderType == models.SenderClient:
		return []string{m.SenderID}, nil
	case m.RecipientID != "":
		return []string{m.RecipientID}, nil
	}
	all, err := s.deps.Repos.Messages.Filter(ctx, func(x models.ChatMessage) bool {
		return x.SenderType == models.SenderClient
	})
	if err != nil {
		return nil, err
	}
	_, ids := collection.GroupBy(all, func(x models.ChatMessage) string { return x.SenderID })
	return ids, nil
}

// ConversationMessages is the client's thread in chronological order.
func (s *ChatService) ConversationMessages(ctx context.Context, clientID string) ([]models.ChatMessage, error) {
	list, err := s.deps.Repos.Messages.Filter(ctx, func(m models.ChatMessage) bool {
		return m.VisibleTo(clientID)
	})
	if err != nil {
		return nil, err
	}
	return collection.SortBy(list, byTimestamp), nil
}

// Conversations builds one thread per client who ever wrote, newest
// activity first.
func (s *ChatService) Conversations(ctx context.Context) ([]models.Conversation, error) {
	all, err := s.deps.Repos.Messages.All(ctx)
	if err != nil {
		return nil, err
	}

	fromClients := collection.Filter(all, func(m models.ChatMessage) bool { return m.SenderType == models.SenderClient })
	fromAdmin := collection.Filter(all, func(m models.ChatMessage) bool { return m.SenderType == models.SenderAdmin })
	groups, ids := collection.GroupBy(fromClients, func(m models.ChatMessage) string { return m.SenderID })

	convs := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		own := groups[id]
		msgs := append(append([]models.ChatMessage{}, own...),
			collection.Filter(fromAdmin, func(m models.ChatMessage) bool { return m.VisibleTo(id) })...)
		collection.SortBy(msgs, byTimestamp)

		convs = append(convs, models.Conversation{
			ClientID:    id,
			ClientName:  own[0].SenderName,
			Messages:    msgs,
			LastMessage: msgs[len(msgs)-1],
			UnreadCount: collection.Count(own, unread),
		})
	}
	collection.SortBy(convs, func(a, b models.Conversation) bool {
		return a.LastMessage.Timestamp.After(b.LastMessage.Timestamp)
	})
	return convs, nil
}

// MarkRead flags the messages reader has now seen in clientID's thread:
// a client reads the shop's messages, the shop reads the client's.
func (s *ChatService) MarkRead(ctx context.Context, clientID string, reader models.SenderType) (int, error) {
	n, err := s.deps.Repos.Messages.MarkRead(ctx, incoming(clientID, reader))
	if err != nil || n == 0 {
		return n, err
	}
	flush(ctx, s.deps.Repos.Messages)
	s.deps.Notifier.MessagesRead(clientID, reader, n)
	return n, nil
}

// UnreadCount is what viewer has not read yet in clientID's thread.
func (s *ChatService) UnreadCount(ctx context.Context, clientID string, viewer models.SenderType) (int, error) {
	pred := incoming(clientID, viewer)
	list, err := s.deps.Repos.Messages.Filter(ctx, func(m models.ChatMessage) bool {
		return !m.Read && pred(m)
	})
	return len(list), err
}

// TotalUnread counts unread client messages across every conversation.
func (s *ChatService) TotalUnread(ctx context.Context) (int, error) {
	list, err := s.deps.Repos.Messages.Filter(ctx, func(m models.ChatMessage) bool {
		return m.SenderType == models.SenderClient && !m.Read
	})
	return len(list), err
}

// incoming selects the messages of clientID's thread written by the other side.
func incoming(clientID string, reader models.SenderType) func(models.ChatMessage) bool {
	if reader == models.SenderClient {
		return func(m models.ChatMessage) bool {
			return m.SenderType == models.SenderAdmin && m.VisibleTo(clientID)
		}
	}
	return func(m models.ChatMessage) bool {
		return m.SenderType == models.SenderClient && m.SenderID == clientID
	}
}

func unread(m models.ChatMessage) bool { return !m.Read }

func byTimestamp(a, b models.ChatMessage) bool { return a.Timestamp.Before(b.Timestamp) }
