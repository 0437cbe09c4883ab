package model

import "time"

// Message is a stored direct message row. Never mutated or deleted after insert.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sentAt"`
}

// PushMessage is the payload of the "ReceiveMessage" event delivered to the
// recipient's open connections.
type PushMessage struct {
	ID       int64     `json:"id"`
	SenderID string    `json:"senderId"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// SendRequest is the body of POST /api/message/send. The sender is taken from
// the caller's token, never from the body.
type SendRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

// Contact is one conversation partner of a user, with the most recent message
// between the pair. Username/email are filled in by the auth service.
type Contact struct {
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	Username      string    `json:"userName"`
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}
