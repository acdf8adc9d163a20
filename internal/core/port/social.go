package port

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/google/uuid"
)

// FriendRepository resolves the friend graph
type FriendRepository interface {
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// UserRepository reads user profiles
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// MessageRepository persists chat messages
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	MarkRead(ctx context.Context, id uuid.UUID, readerID uuid.UUID) (*domain.Message, error)
}
