package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the user profile the core needs
type User struct {
	ID               uuid.UUID
	Name             string
	Photo            string
	PushSubscription *PushSubscription
}

// PushSubscription is a browser push subscription as registered by the client
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Message is a chat message
type Message struct {
	ID          uuid.UUID  `json:"id"`
	ChatID      uuid.UUID  `json:"chatId"`
	SenderID    uuid.UUID  `json:"sender"`
	RecipientID uuid.UUID  `json:"recipient"`
	Content     string     `json:"content"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
