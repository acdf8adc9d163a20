package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Inbound event names
const (
	EventTypingStart      = "typing:start"
	EventTypingStop       = "typing:stop"
	EventGetOnlineFriends = "get_online_friends"
	EventSendMessage      = "send_message"
	EventMessageRead      = "message_read"
)

// Outbound event names
const (
	EventUserOnline     = "user:online"
	EventUserOffline    = "user:offline"
	EventFriendsOnline  = "friends:online"
	EventMessageNew     = "message:new"
	EventMessageReadBy  = "message:read"
	EventMessageSent    = "message:sent"
	EventNotification   = "notification"
	EventError          = "error"
	EventFriendRequest  = "friend:request:received"
	EventFriendAccepted = "friend:request:accepted"
	EventFriendRejected = "friend:request:rejected"
	EventFriendRemoved  = "friend:removed"
)

// Envelope is a single frame on the real-time transport, in either direction
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PresenceState is the presence of a user
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
)

// PresenceEvent is sent to friends on presence transitions. It is never persisted.
type PresenceEvent struct {
	UserID    uuid.UUID     `json:"userId"`
	State     PresenceState `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
}

// OnlineFriendsEvent answers get_online_friends
type OnlineFriendsEvent struct {
	OnlineFriends []uuid.UUID `json:"onlineFriends"`
	Timestamp     time.Time   `json:"timestamp"`
}

// TypingEvent is relayed to the chat partner
type TypingEvent struct {
	ChatID    uuid.UUID `json:"chatId"`
	UserID    uuid.UUID `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageEvent carries a new message to its recipient
type MessageEvent struct {
	Message   Message   `json:"message"`
	SenderID  uuid.UUID `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageReadEvent tells the sender a message was read
type MessageReadEvent struct {
	MessageID uuid.UUID `json:"messageId"`
	ReadBy    uuid.UUID `json:"readBy"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is sent back to the originating session when an inbound event fails
type ErrorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
