package port

import (
	"context"
	"encoding/json"
	"sociallink/internal/core/domain"

	"github.com/google/uuid"
)

// Session is one live real-time connection of a user
type Session interface {
	ID() string
	UserID() uuid.UUID
	// Send enqueues a frame without blocking
	Send(env domain.Envelope) error
}

// Subscription is an active backbone subscription
type Subscription interface {
	Unsubscribe() error
}

// Backbone is the shared pub/sub infrastructure used for cross-process delivery
type Backbone interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) (Subscription, error)
	// MembershipCount returns the number of sessions in the channel across all processes
	MembershipCount(ctx context.Context, channel string) (int, error)
	// SetMembership records how many sessions this process holds in the channel
	SetMembership(ctx context.Context, channel string, sessions int) error
	// ClaimPresence marks the channel as announced. Exactly one concurrent caller
	// gets true until the mark is released.
	ClaimPresence(ctx context.Context, channel string) (bool, error)
	// ReleasePresence removes the mark. Exactly one concurrent caller gets true.
	ReleasePresence(ctx context.Context, channel string) (bool, error)
}

// ConnectionRegistry maps users to their local sessions
type ConnectionRegistry interface {
	Register(userID uuid.UUID, session Session) (first bool)
	Unregister(userID uuid.UUID, session Session) (last bool)
	IsOnline(userID uuid.UUID) bool
	Count(userID uuid.UUID) int
	Sessions(userID uuid.UUID) []Session
}

// EventRouter delivers events to every session of a user, wherever it lives
type EventRouter interface {
	EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any) int
	EmitToFriends(ctx context.Context, userID uuid.UUID, event string, payload any) (int, error)
	IsUserOnline(ctx context.Context, userID uuid.UUID) bool
	SessionCount(ctx context.Context, userID uuid.UUID) int
	Sync(ctx context.Context, userID uuid.UUID) error
	// ClaimOnline reports whether the caller is the one to announce the user online
	ClaimOnline(ctx context.Context, userID uuid.UUID) bool
	// ReleaseOnline reports whether the caller is the one to announce the user offline
	ReleaseOnline(ctx context.Context, userID uuid.UUID) bool
}

// PresenceService tracks online/offline transitions
type PresenceService interface {
	Connect(ctx context.Context, session Session) error
	Disconnect(ctx context.Context, session Session) error
	OnlineFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// EventDispatcher routes inbound frames to their handlers
type EventDispatcher interface {
	Dispatch(ctx context.Context, session Session, event string, data json.RawMessage) error
}

// Authenticator verifies a bearer credential
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}
