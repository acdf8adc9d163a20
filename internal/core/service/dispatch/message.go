package dispatch

import (
	"context"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/google/uuid"
)

type sendMessagePayload struct {
	RecipientID uuid.UUID `json:"recipientId" validate:"required"`
	ChatID      uuid.UUID `json:"chatId" validate:"required"`
	Content     string    `json:"content" validate:"required,max=5000"`
}

type readMessagePayload struct {
	MessageID uuid.UUID `json:"messageId" validate:"required"`
	SenderID  uuid.UUID `json:"senderId"`
}

type messageSentEvent struct {
	Message domain.Message `json:"message"`
}

// sendMessage persists first; the live delivery and the notification are best-effort
func (d *dispatcher) sendMessage(ctx context.Context, session port.Session, payload sendMessagePayload) error {
	senderID := session.UserID()
	now := d.now().UTC()

	message := &domain.Message{
		ID:          uuid.New(),
		ChatID:      payload.ChatID,
		SenderID:    senderID,
		RecipientID: payload.RecipientID,
		Content:     payload.Content,
		CreatedAt:   now,
	}
	if err := d.uow.MessageRepo().Create(ctx, message); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	d.router.EmitToUser(ctx, payload.RecipientID, domain.EventMessageNew, domain.MessageEvent{
		Message:   *message,
		SenderID:  senderID,
		Timestamp: now,
	})

	chatID := payload.ChatID
	if _, err := d.notifications.CreateAndNotify(ctx, payload.RecipientID, domain.NotificationNewMessage, senderID, domain.RelatedIDs{ChatID: &chatID}, ""); err != nil {
		d.logger.Warn("failed to notify message recipient", "messageID", message.ID, "recipientID", payload.RecipientID, "error", err)
	}

	reply(session, domain.EventMessageSent, messageSentEvent{Message: *message}, d.logger)
	return nil
}

// readMessage answers to the stored sender of the message, the client-provided
// senderId is informational
func (d *dispatcher) readMessage(ctx context.Context, session port.Session, payload readMessagePayload) error {
	readerID := session.UserID()

	message, err := d.uow.MessageRepo().MarkRead(ctx, payload.MessageID, readerID)
	if err != nil {
		return err
	}

	d.router.EmitToUser(ctx, message.SenderID, domain.EventMessageReadBy, domain.MessageReadEvent{
		MessageID: message.ID,
		ReadBy:    readerID,
		Timestamp: d.now().UTC(),
	})
	return nil
}
