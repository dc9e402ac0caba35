package controllers

import (
	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
	"github.com/shashiranjanraj/mazraa/pkg/middleware"
)

type messageInput struct {
	Message string `json:"message" validate:"required"`
}

// ChatController is the client side of the chat. Every route runs behind
// the client guard.
type ChatController struct {
	chat *services.ChatService
}

func NewChatController(s *services.Services) *ChatController {
	return &ChatController{chat: s.Chat}
}

// Messages handles GET /api/chat/messages.
func (cc *ChatController) Messages(c *ctx.Context) {
	list, err := cc.chat.ConversationMessages(c.Context(), middleware.ClientIDFromCtx(c.Context()))
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(list)
}

// Send handles POST /api/chat/messages.
func (cc *ChatController) Send(c *ctx.Context) {
	var in messageInput
	if !c.BindJSON(&in) {
		return
	}
	m, err := cc.chat.SendFromClientID(c.Context(), middleware.ClientIDFromCtx(c.Context()), in.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Message envoyé", m)
}

// Read handles POST /api/chat/read.
func (cc *ChatController) Read(c *ctx.Context) {
	n, err := cc.chat.MarkRead(c.Context(), middleware.ClientIDFromCtx(c.Context()), models.SenderClient)
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(map[string]int{"marked": n})
}

// Unread handles GET /api/chat/unread.
func (cc *ChatController) Unread(c *ctx.Context) {
	n, err := cc.chat.UnreadCount(c.Context(), middleware.ClientIDFromCtx(c.Context()), models.SenderClient)
	if err != nil {
		c.ServerError(err)
		return
	}
	c.Success(map[string]int{"unread": n})
}
