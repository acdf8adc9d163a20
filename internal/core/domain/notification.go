package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates what produced a notification
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationNewMessage     NotificationType = "new_message"
	NotificationPostLike       NotificationType = "post_like"
	NotificationPostComment    NotificationType = "post_comment"
	NotificationVideoProcessed NotificationType = "video_processed"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFriendRequest, NotificationFriendAccepted, NotificationNewMessage,
		NotificationPostLike, NotificationPostComment, NotificationVideoProcessed:
		return true
	}
	return false
}

// RelatedIDs points a notification at the entity it is about
type RelatedIDs struct {
	PostID          *uuid.UUID `json:"postId,omitempty"`
	FriendRequestID *uuid.UUID `json:"friendRequestId,omitempty"`
	ChatID          *uuid.UUID `json:"chatId,omitempty"`
}

// Notification is a durable, user-facing notification record
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"userId"`
	Type       NotificationType `json:"type"`
	FromUserID uuid.UUID        `json:"fromUser"`
	RelatedIDs
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationFilter narrows a notification listing
type NotificationFilter struct {
	UnreadOnly bool
	Before     *time.Time
	Limit      uint64
}

// PushPayload is what the browser receives through web push
type PushPayload struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Icon  string          `json:"icon"`
	Data  PushPayloadData `json:"data"`
}

// PushPayloadData is the click target of a push
type PushPayloadData struct {
	URL            string    `json:"url"`
	NotificationID uuid.UUID `json:"notificationId"`
}
