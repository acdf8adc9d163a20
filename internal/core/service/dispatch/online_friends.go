package dispatch

import (
	"context"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/google/uuid"
)

type onlineFriendsPayload struct{}

func (d *dispatcher) onlineFriends(ctx context.Context, session port.Session, _ onlineFriendsPayload) error {
	friends, err := d.presence.OnlineFriends(ctx, session.UserID())
	if err != nil {
		return fmt.Errorf("failed to resolve online friends: %w", err)
	}
	if friends == nil {
		friends = []uuid.UUID{}
	}

	reply(session, domain.EventFriendsOnline, domain.OnlineFriendsEvent{
		OnlineFriends: friends,
		Timestamp:     d.now().UTC(),
	}, d.logger)
	return nil
}
