package domain

import "time"

// MessageType distinguishes plain chat from shared files.
type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

func (t MessageType) Valid() bool { return t == MessageText || t == MessageFile }

// Message is one immutable entry in an order's chat thread.
type Message struct {
	ID        int64       `json:"id" bson:"_id"`
	OrderID   int64       `json:"order_id" bson:"order_id"`
	SenderID  int64       `json:"sender_id" bson:"sender_id"`
	Content   string      `json:"content" bson:"content"`
	Type      MessageType `json:"type" bson:"type"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}
