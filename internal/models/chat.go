package models

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Content     string
	Read        bool
	CreatedAt   time.Time
	Sender      *PublicProfile
	Recipient   *PublicProfile
}

func (m Message) MarshalJSON() ([]byte, error) {
	sender := m.Sender
	if sender == nil {
		sender = &PublicProfile{ID: m.SenderID}
	}
	recipient := m.Recipient
	if recipient == nil {
		recipient = &PublicProfile{ID: m.RecipientID}
	}
	return json.Marshal(struct {
		ID        string         `json:"_id"`
		Sender    *PublicProfile `json:"sender"`
		Recipient *PublicProfile `json:"recipient"`
		Content   string         `json:"content"`
		Read      bool           `json:"read"`
		CreatedAt time.Time      `json:"createdAt"`
	}{
		ID:        m.ID,
		Sender:    sender,
		Recipient: recipient,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	})
}

const (
	DirectionMe   = "me"
	DirectionThem = "them"
)

type LastMessage struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    string    `json:"sender"`
}

// ConversationSummary is derived per partner from the raw message history;
// it is never stored.
type ConversationSummary struct {
	User        PublicProfile `json:"user"`
	LastMessage LastMessage   `json:"lastMessage"`
	UnreadCount int           `json:"unreadCount"`
}
