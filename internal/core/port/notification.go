package port

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/google/uuid"
)

// NotificationRepository is an interface to define notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	ExistsForPost(ctx context.Context, userID uuid.UUID, postID uuid.UUID, notificationType domain.NotificationType) (bool, error)
}

// NotificationService is the durable side-channel for user-facing events
type NotificationService interface {
	CreateAndNotify(ctx context.Context, recipientID uuid.UUID, notificationType domain.NotificationType, originatorID uuid.UUID, related domain.RelatedIDs, message string) (*domain.Notification, error)
	List(ctx context.Context, recipientID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	Delete(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) error
}

// PushSender delivers a web push, best-effort
type PushSender interface {
	Send(ctx context.Context, subscription domain.PushSubscription, payload domain.PushPayload) error
}
