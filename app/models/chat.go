package models

import "time"

// SenderType distinguishes the two sides of a conversation.
type SenderType string

const (
	SenderClient SenderType = "client"
	SenderAdmin  SenderType = "admin"
)

// AdminSenderID is the fixed sender id of every back-office message.
const AdminSenderID = "admin"

// ChatMessage is one append-only chat entry.
//
// RecipientID scopes an admin message to one client. Admin messages without
// a recipient are visible in every conversation.
type ChatMessage struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	SenderName  string     `json:"senderName"`
	SenderType  SenderType `json:"senderType"`
	RecipientID string     `json:"recipientId,omitempty"`
	Message     string     `json:"message"`
	Timestamp   time.Time  `json:"timestamp"`
	Read        bool       `json:"read"`
}

func (m ChatMessage) GetID() string { return m.ID }

// VisibleTo reports whether clientID's conversation contains m.
func (m ChatMessage) VisibleTo(clientID string) bool {
	switch m.SenderType {
	case SenderClient:
		return m.SenderID == clientID
	case SenderAdmin:
		return m.RecipientID == "" || m.RecipientID == clientID
	}
	return false
}

// Conversation is the admin's derived view of one client thread.
type Conversation struct {
	ClientID    string        `json:"clientId"`
	ClientName  string        `json:"clientName"`
	Messages    []ChatMessage `json:"messages"`
	LastMessage ChatMessage   `json:"lastMessage"`
	UnreadCount int           `json:"unreadCount"`
}
