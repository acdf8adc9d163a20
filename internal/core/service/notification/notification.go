package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPushTitle = "New Notification"
	defaultPushIcon  = "/default-avatar.png"
	defaultListLimit = 50
	maxListLimit     = 200
)

type notificationService struct {
	uow         port.UnitOfWork
	router      port.EventRouter
	push        port.PushSender
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewNotificationService creates a new notification service. push may be nil when
// web push is not configured.
func NewNotificationService(uow port.UnitOfWork, router port.EventRouter, push port.PushSender, frontendURL string, logger *slog.Logger) port.NotificationService {
	return &notificationService{
		uow:         uow,
		router:      router,
		push:        push,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// RenderMessage builds the human-readable text of a notification
func RenderMessage(notificationType domain.NotificationType, originatorName string) string {
	switch notificationType {
	case domain.NotificationFriendRequest:
		return originatorName + " wants to connect"
	case domain.NotificationFriendAccepted:
		return originatorName + " accepted your request"
	case domain.NotificationNewMessage:
		return "New message from " + originatorName
	case domain.NotificationPostLike:
		return originatorName + " liked your post"
	case domain.NotificationPostComment:
		return originatorName + " commented on your post"
	case domain.NotificationVideoProcessed:
		return "Your video has been processed and is now available."
	default:
		return "New notification"
	}
}

// CreateAndNotify persists the notification, then tries the socket and the push
// channel. Only persistence can fail the call.
func (n *notificationService) CreateAndNotify(ctx context.Context, recipientID uuid.UUID, notificationType domain.NotificationType, originatorID uuid.UUID, related domain.RelatedIDs, message string) (*domain.Notification, error) {
	originator, err := n.uow.UserRepo().FindByID(ctx, originatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification originator: %w", err)
	}

	if message == "" {
		message = RenderMessage(notificationType, originator.Name)
	}

	record := &domain.Notification{
		ID:         uuid.New(),
		UserID:     recipientID,
		Type:       notificationType,
		FromUserID: originatorID,
		RelatedIDs: related,
		Message:    message,
		Read:       false,
		CreatedAt:  n.now().UTC(),
	}
	if err := n.uow.NotificationRepo().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	n.emit(ctx, record)
	n.sendPush(ctx, record, originator)

	return record, nil
}

func (n *notificationService) emit(ctx context.Context, record *domain.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			n.logger.Error("notification emit panicked", "notificationID", record.ID, "panic", rec)
		}
	}()
	reached := n.router.EmitToUser(ctx, record.UserID, domain.EventNotification, record)
	n.logger.Debug("notification emitted", "notificationID", record.ID, "userID", record.UserID, "reached", reached)
}

func (n *notificationService) sendPush(ctx context.Context, record *domain.Notification, originator *domain.User) {
	if n.push == nil {
		return
	}

	recipient, err := n.uow.UserRepo().FindByID(ctx, record.UserID)
	if err != nil {
		n.logger.Warn("failed to load push recipient", "userID", record.UserID, "error", err)
		return
	}
	if recipient.PushSubscription == nil {
		return
	}

	icon := originator.Photo
	if icon == "" {
		icon = defaultPushIcon
	}
	payload := domain.PushPayload{
		Title: defaultPushTitle,
		Body:  record.Message,
		Icon:  icon,
		Data: domain.PushPayloadData{
			URL:            n.frontendURL,
			NotificationID: record.ID,
		},
	}
	if err := n.push.Send(ctx, *recipient.PushSubscription, payload); err != nil {
		n.logger.Warn("push notification failed", "notificationID", record.ID, "userID", record.UserID, "error", err)
	}
}

// List returns the recipient's notifications, newest first
func (n *notificationService) List(ctx context.Context, recipientID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error) {
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return n.uow.NotificationRepo().List(ctx, recipientID, filter)
}

// MarkAsRead marks one of the recipient's notifications as read
func (n *notificationService) MarkAsRead(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) (*domain.Notification, error) {
	record, err := n.uow.NotificationRepo().MarkRead(ctx, id, recipientID)
	if err != nil {
		return nil, ownershipError(err)
	}
	return record, nil
}

// MarkAllAsRead marks every unread notification of the recipient as read
func (n *notificationService) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return n.uow.NotificationRepo().MarkAllRead(ctx, recipientID)
}

// Delete removes one of the recipient's notifications
func (n *notificationService) Delete(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) error {
	return ownershipError(n.uow.NotificationRepo().Delete(ctx, id, recipientID))
}

// ownershipError keeps foreign records indistinguishable from missing ones
func ownershipError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotificationNotFound) {
		return domain.ErrNotificationNotFound
	}
	return err
}
