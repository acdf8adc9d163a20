package ws

import (
	"context"
	"errors"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sociallink/internal/metrics"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// session is one websocket connection. Writes go through a buffered channel
// drained by a single writer goroutine.
type session struct {
	id      string
	userID  uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ port.Session = (*session)(nil)

func newSession(userID uuid.UUID, conn *websocket.Conn, buffer int, limiter *rate.Limiter, logger *slog.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		userID:  userID,
		conn:    conn,
		send:    make(chan []byte, buffer),
		closed:  make(chan struct{}),
		limiter: limiter,
		logger:  logger.With("sessionID", id, "userID", userID),
	}
}

func (s *session) ID() string {
	return s.id
}

func (s *session) UserID() uuid.UUID {
	return s.userID
}

// Send never blocks. A client that cannot keep up is disconnected.
func (s *session) Send(env domain.Envelope) error {
	frame, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-s.closed:
		return domain.ErrSessionClosed
	default:
	}

	select {
	case <-s.closed:
		return domain.ErrSessionClosed
	case s.send <- frame:
		return nil
	default:
		s.logger.Warn("send buffer full, closing session", "event", env.Event)
		s.close()
		return domain.ErrSessionBackpressure
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.closed)
	})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.closed:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error("failed to set write deadline", "error", err)
				s.close()
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("failed to write frame", "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.close()
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

// readPump reads frames until the connection fails or the session is closed
func (s *session) readPump(ctx context.Context, dispatcher port.EventDispatcher) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error("failed to set read deadline", "error", err)
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("unexpected websocket close", "error", err)
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			metrics.RecordInboundEvent("", false, metrics.OutcomeRejected)
			s.sendError(env.Event, domain.ErrInvalidPayload)
			continue
		}

		if !s.limiter.Allow() {
			metrics.RecordInboundEvent(env.Event, true, metrics.OutcomeRateLimited)
			s.sendError(env.Event, domain.ErrRateLimited)
			continue
		}

		s.dispatch(ctx, dispatcher, env)
	}
}

func (s *session) dispatch(ctx context.Context, dispatcher port.EventDispatcher, env domain.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("event handler panicked", "event", env.Event, "panic", rec)
			metrics.RecordInboundEvent(env.Event, true, metrics.OutcomeRejected)
			s.sendError(env.Event, errors.New("internal error"))
		}
	}()

	err := dispatcher.Dispatch(ctx, s, env.Event, env.Data)
	switch {
	case err == nil:
		metrics.RecordInboundEvent(env.Event, true, metrics.OutcomeOK)
	case errors.Is(err, domain.ErrUnknownEvent):
		metrics.RecordInboundEvent(env.Event, false, metrics.OutcomeRejected)
	default:
		metrics.RecordInboundEvent(env.Event, true, metrics.OutcomeRejected)
		s.logger.Debug("inbound event failed", "event", env.Event, "error", err)
	}
}

func (s *session) sendError(event string, err error) {
	data, mErr := json.Marshal(domain.ErrorEvent{Event: event, Message: err.Error()})
	if mErr != nil {
		return
	}
	if sErr := s.Send(domain.Envelope{Event: domain.EventError, Data: data}); sErr != nil {
		s.logger.Debug("failed to send error frame", "error", sErr)
	}
}
