package dispatch

import (
	"context"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/google/uuid"
)

type typingPayload struct {
	ChatID      uuid.UUID `json:"chatId" validate:"required"`
	RecipientID uuid.UUID `json:"recipientId" validate:"required"`
}

func (d *dispatcher) typing(event string) func(context.Context, port.Session, typingPayload) error {
	return func(ctx context.Context, session port.Session, payload typingPayload) error {
		d.router.EmitToUser(ctx, payload.RecipientID, event, domain.TypingEvent{
			ChatID:    payload.ChatID,
			UserID:    session.UserID(),
			Timestamp: d.now().UTC(),
		})
		return nil
	}
}
