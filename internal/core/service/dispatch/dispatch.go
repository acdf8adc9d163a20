package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	"github.com/go-playground/validator/v10"
)

// Handler processes one decoded inbound event for a session
type Handler func(ctx context.Context, session port.Session, data json.RawMessage) error

// Route adapts a typed handler into a Handler. The payload is decoded and validated
// before fn runs; a payload failing either step never reaches fn.
func Route[T any](validate *validator.Validate, fn func(ctx context.Context, session port.Session, payload T) error) Handler {
	return func(ctx context.Context, session port.Session, data json.RawMessage) error {
		var payload T
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
			}
		}
		if err := validate.Struct(payload); err != nil {
			var invalid *validator.InvalidValidationError
			if !errors.As(err, &invalid) {
				return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
			}
		}
		return fn(ctx, session, payload)
	}
}

type dispatcher struct {
	uow           port.UnitOfWork
	router        port.EventRouter
	presence      port.PresenceService
	notifications port.NotificationService
	validate      *validator.Validate
	logger        *slog.Logger
	now           func() time.Time
	handlers      map[string]Handler
}

// NewDispatcher builds the inbound event table
func NewDispatcher(uow port.UnitOfWork, router port.EventRouter, presence port.PresenceService, notifications port.NotificationService, logger *slog.Logger) (port.EventDispatcher, error) {
	if uow == nil || router == nil || presence == nil || notifications == nil || logger == nil {
		return nil, domain.ErrRealtimeNotInitialized
	}

	d := &dispatcher{
		uow:           uow,
		router:        router,
		presence:      presence,
		notifications: notifications,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
		now:           time.Now,
	}

	sendMessage := Route(d.validate, d.sendMessage)
	readMessage := Route(d.validate, d.readMessage)
	d.handlers = map[string]Handler{
		domain.EventTypingStart:      Route(d.validate, d.typing(domain.EventTypingStart)),
		domain.EventTypingStop:       Route(d.validate, d.typing(domain.EventTypingStop)),
		domain.EventGetOnlineFriends: Route(d.validate, d.onlineFriends),
		domain.EventSendMessage:      sendMessage,
		domain.EventMessageNew:       sendMessage,
		domain.EventMessageRead:      readMessage,
		domain.EventMessageReadBy:    readMessage,
	}
	return d, nil
}

// Dispatch runs the handler registered for event. Any failure is reported back to
// the originating session as an error frame and returned to the caller.
func (d *dispatcher) Dispatch(ctx context.Context, session port.Session, event string, data json.RawMessage) error {
	handler, ok := d.handlers[event]
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrUnknownEvent, event)
		d.replyError(session, event, err)
		return err
	}

	if err := handler(ctx, session, data); err != nil {
		d.replyError(session, event, err)
		return err
	}
	return nil
}

func (d *dispatcher) replyError(session port.Session, event string, err error) {
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidPayload), errors.Is(err, domain.ErrUnknownEvent):
		message = err.Error()
	case errors.Is(err, domain.ErrMessageNotFound):
		message = domain.ErrMessageNotFound.Error()
	default:
		d.logger.Error("inbound event failed", "event", event, "userID", session.UserID(), "sessionID", session.ID(), "error", err)
	}
	reply(session, domain.EventError, domain.ErrorEvent{Event: event, Message: message}, d.logger)
}

// reply writes an event to the originating session only
func reply(session port.Session, event string, payload any, logger *slog.Logger) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode reply", "event", event, "error", err)
		return
	}
	if err := session.Send(domain.Envelope{Event: event, Data: data}); err != nil {
		logger.Warn("failed to reply", "event", event, "sessionID", session.ID(), "error", err)
	}
}
