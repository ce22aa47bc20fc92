package domain

import (
	"errors"
	"time"
)

const MaxChatBodyLen = 2000

var (
	ErrChatBodyEmpty   = errors.New("chat body empty")
	ErrChatBodyTooLong = errors.New("chat body too long")
)

// DeliveryStatus tracks an outbound message through its optimistic
// lifetime. A message is immutable once DeliverySent.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryError   DeliveryStatus = "error"
)

type ChatMessage struct {
	// ID is the server id, or a locally generated placeholder while
	// the message is still DeliveryPending.
	ID         string         `json:"id"`
	Sender     UserID         `json:"sender"`
	SenderName string         `json:"sender_name"`
	Body       string         `json:"body"`
	MediaURL   string         `json:"media_url,omitempty"`
	SentAt     time.Time      `json:"sent_at"`
	Status     DeliveryStatus `json:"status"`
}

func NewChatMessage(localID string, sender UserID, senderName, body string) (*ChatMessage, error) {
	if len(body) == 0 {
		return nil, ErrChatBodyEmpty
	}
	if len(body) > MaxChatBodyLen {
		return nil, ErrChatBodyTooLong
	}
	return &ChatMessage{
		ID:         localID,
		Sender:     sender,
		SenderName: senderName,
		Body:       body,
		SentAt:     time.Now(),
		Status:     DeliveryPending,
	}, nil
}
