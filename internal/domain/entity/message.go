package entity

import "time"

// Message is immutable once persisted except for IsRead, which only moves
// from false to true.
type Message struct {
	ID         int64     `json:"id" firestore:"id"`
	RoomID     string    `json:"room" firestore:"roomId"`
	SenderID   string    `json:"sender" firestore:"senderId"`
	Content    string    `json:"content" firestore:"content"`
	Attachment *string   `json:"attachment" firestore:"attachment,omitempty"`
	IsRead     bool      `json:"is_read" firestore:"isRead"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
}
