package router

import (
	"context"
	"fmt"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type eventRouter struct {
	registry port.ConnectionRegistry
	friends  port.FriendRepository
	backbone port.Backbone
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]port.Subscription

	// userLocks serialise Sync per user; users hashing to the same stripe share a lock
	userLocks [64]sync.Mutex
}

// NewEventRouter creates the event router. A nil backbone means a single-process
// deployment: delivery is local only.
func NewEventRouter(registry port.ConnectionRegistry, friends port.FriendRepository, backbone port.Backbone, logger *slog.Logger) (port.EventRouter, error) {
	if registry == nil || friends == nil || logger == nil {
		return nil, domain.ErrRealtimeNotInitialized
	}
	return &eventRouter{
		registry: registry,
		friends:  friends,
		backbone: backbone,
		logger:   logger,
		subs:     make(map[uuid.UUID]port.Subscription),
	}, nil
}

// Channel returns the broadcast channel ("room") of a user
func Channel(userID uuid.UUID) string {
	return "user." + userID.String()
}

// EmitToUser delivers the event to every session of the user and returns how many
// sessions were reachable at publish time. It never fails on an offline user.
func (r *eventRouter) EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to encode event payload", "event", event, "userID", userID, "error", err)
		return 0
	}
	env := domain.Envelope{Event: event, Data: data}

	if r.backbone == nil {
		return r.deliverLocal(userID, env)
	}

	frame, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("failed to encode envelope", "event", event, "userID", userID, "error", err)
		return 0
	}
	if err := r.backbone.Publish(ctx, Channel(userID), frame); err != nil {
		r.logger.Warn("backbone publish failed, delivering locally", "event", event, "userID", userID, "error", err)
		return r.deliverLocal(userID, env)
	}
	return r.SessionCount(ctx, userID)
}

// EmitToFriends fans the event out to every friend of the user. A failing delivery
// never stops the fan-out.
func (r *eventRouter) EmitToFriends(ctx context.Context, userID uuid.UUID, event string, payload any) (int, error) {
	friendIDs, err := r.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list friends: %w", err)
	}

	delivered := 0
	for _, friendID := range friendIDs {
		delivered += r.emitSafely(ctx, friendID, event, payload)
	}
	return delivered, nil
}

func (r *eventRouter) emitSafely(ctx context.Context, userID uuid.UUID, event string, payload any) (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("friend delivery panicked", "event", event, "userID", userID, "panic", rec)
			n = 0
		}
	}()
	return r.EmitToUser(ctx, userID, event, payload)
}

// IsUserOnline asks the backbone when present, since the user may be connected to another node
func (r *eventRouter) IsUserOnline(ctx context.Context, userID uuid.UUID) bool {
	return r.SessionCount(ctx, userID) > 0
}

// SessionCount returns the number of sessions of the user across all processes
func (r *eventRouter) SessionCount(ctx context.Context, userID uuid.UUID) int {
	if r.backbone == nil {
		return r.registry.Count(userID)
	}
	n, err := r.backbone.MembershipCount(ctx, Channel(userID))
	if err != nil {
		r.logger.Warn("backbone membership lookup failed, using local registry", "userID", userID, "error", err)
		return r.registry.Count(userID)
	}
	return n
}

// Sync reconciles the backbone with the local registry for one user: the process
// listens on the user's channel while it holds at least one of their sessions.
func (r *eventRouter) Sync(ctx context.Context, userID uuid.UUID) error {
	if r.backbone == nil {
		return nil
	}

	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	n := r.registry.Count(userID)
	channel := Channel(userID)
	r.mu.Lock()
	sub, subscribed := r.subs[userID]
	r.mu.Unlock()

	switch {
	case n > 0 && !subscribed:
		newSub, err := r.backbone.Subscribe(ctx, channel, func(payload []byte) {
			r.onChannelMessage(userID, payload)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		r.mu.Lock()
		r.subs[userID] = newSub
		r.mu.Unlock()
	case n == 0 && subscribed:
		if err := sub.Unsubscribe(); err != nil {
			r.logger.Warn("failed to unsubscribe", "channel", channel, "error", err)
		}
		r.mu.Lock()
		delete(r.subs, userID)
		r.mu.Unlock()
	}

	if err := r.backbone.SetMembership(ctx, channel, n); err != nil {
		return fmt.Errorf("failed to record membership of %s: %w", channel, err)
	}
	return nil
}

func (r *eventRouter) userLock(userID uuid.UUID) *sync.Mutex {
	return &r.userLocks[int(userID[len(userID)-1])%len(r.userLocks)]
}

// ClaimOnline elects a single announcer when first sessions open on several
// nodes at once. Without a backbone the local first session decides.
func (r *eventRouter) ClaimOnline(ctx context.Context, userID uuid.UUID) bool {
	if r.backbone == nil {
		return true
	}
	claimed, err := r.backbone.ClaimPresence(ctx, Channel(userID))
	if err != nil {
		r.logger.Warn("presence claim failed, announcing anyway", "userID", userID, "error", err)
		return true
	}
	return claimed
}

// ReleaseOnline elects a single announcer when last sessions close on several nodes at once
func (r *eventRouter) ReleaseOnline(ctx context.Context, userID uuid.UUID) bool {
	if r.backbone == nil {
		return true
	}
	released, err := r.backbone.ReleasePresence(ctx, Channel(userID))
	if err != nil {
		r.logger.Warn("presence release failed, announcing anyway", "userID", userID, "error", err)
		return true
	}
	return released
}

func (r *eventRouter) onChannelMessage(userID uuid.UUID, payload []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.logger.Error("dropping malformed backbone frame", "userID", userID, "error", err)
		return
	}
	r.deliverLocal(userID, env)
}

func (r *eventRouter) deliverLocal(userID uuid.UUID, env domain.Envelope) int {
	delivered := 0
	for _, session := range r.registry.Sessions(userID) {
		if err := session.Send(env); err != nil {
			r.logger.Warn("failed to deliver event", "event", env.Event, "userID", userID, "sessionID", session.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
