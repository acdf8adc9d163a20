package presence

import (
	"context"
	"fmt"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type presenceService struct {
	registry port.ConnectionRegistry
	router   port.EventRouter
	friends  port.FriendRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewPresenceService creates the presence broadcaster
func NewPresenceService(registry port.ConnectionRegistry, router port.EventRouter, friends port.FriendRepository, logger *slog.Logger) port.PresenceService {
	return &presenceService{
		registry: registry,
		router:   router,
		friends:  friends,
		logger:   logger,
		now:      time.Now,
	}
}

// Connect registers the session and announces the user to their friends when this
// is the user's first session anywhere. Presence is informational: a failed
// announcement is logged and the session stays registered.
func (p *presenceService) Connect(ctx context.Context, session port.Session) error {
	userID := session.UserID()
	first := p.registry.Register(userID, session)

	if err := p.router.Sync(ctx, userID); err != nil {
		p.logger.Warn("failed to sync backbone membership", "userID", userID, "error", err)
	}
	if !first {
		return nil
	}
	// another node already announced this user
	if !p.router.ClaimOnline(ctx, userID) {
		return nil
	}
	p.broadcast(ctx, userID, domain.PresenceOnline)
	return nil
}

// Disconnect removes the session and announces the user offline when it was their
// last session anywhere.
func (p *presenceService) Disconnect(ctx context.Context, session port.Session) error {
	userID := session.UserID()
	last := p.registry.Unregister(userID, session)

	if err := p.router.Sync(ctx, userID); err != nil {
		p.logger.Warn("failed to sync backbone membership", "userID", userID, "error", err)
	}
	if !last {
		return nil
	}
	if p.router.SessionCount(ctx, userID) > 0 {
		return nil
	}
	if !p.router.ReleaseOnline(ctx, userID) {
		return nil
	}
	p.broadcast(ctx, userID, domain.PresenceOffline)
	return nil
}

// OnlineFriends is a snapshot of the user's friends currently online
func (p *presenceService) OnlineFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	friendIDs, err := p.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	online := make([]uuid.UUID, 0, len(friendIDs))
	for _, friendID := range friendIDs {
		if p.router.IsUserOnline(ctx, friendID) {
			online = append(online, friendID)
		}
	}
	return online, nil
}

func (p *presenceService) broadcast(ctx context.Context, userID uuid.UUID, state domain.PresenceState) {
	event := domain.EventUserOnline
	if state == domain.PresenceOffline {
		event = domain.EventUserOffline
	}

	n, err := p.router.EmitToFriends(ctx, userID, event, domain.PresenceEvent{
		UserID:    userID,
		State:     state,
		Timestamp: p.now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to broadcast presence", "userID", userID, "event", event, "error", err)
		return
	}
	p.logger.Debug("presence broadcast", "userID", userID, "state", state, "reached", n)
}
