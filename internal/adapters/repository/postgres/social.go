package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type sqlFriendRepository struct {
	db SQLQuerier
}

// NewSqlFriendRepository creates sqlFriendRepository that implements port.FriendRepository
func NewSqlFriendRepository(db SQLQuerier) port.FriendRepository {
	return &sqlFriendRepository{db: db}
}

// ListFriendIDs returns the friends of a user, a friendship row counts in both directions
func (s *sqlFriendRepository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT friend_id FROM friendships WHERE user_id = $1
              UNION
              SELECT user_id FROM friendships WHERE friend_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying friends: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type sqlUserRepository struct {
	db SQLQuerier
}

// NewSqlUserRepository creates sqlUserRepository that implements port.UserRepository
func NewSqlUserRepository(db SQLQuerier) port.UserRepository {
	return &sqlUserRepository{db: db}
}

// FindByID reads a user profile with its push subscription
func (s *sqlUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, name, photo, push_subscription FROM users WHERE id = $1`

	var user domain.User
	var subscription []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Photo, &subscription)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("error reading user: %w", err)
	}

	if len(subscription) > 0 {
		var sub domain.PushSubscription
		if err := json.Unmarshal(subscription, &sub); err != nil {
			return nil, fmt.Errorf("error decoding push subscription: %w", err)
		}
		if sub.Endpoint != "" {
			user.PushSubscription = &sub
		}
	}
	return &user, nil
}

type sqlMessageRepository struct {
	db SQLQuerier
}

// NewSqlMessageRepository creates sqlMessageRepository that implements port.MessageRepository
func NewSqlMessageRepository(db SQLQuerier) port.MessageRepository {
	return &sqlMessageRepository{db: db}
}

// Create inserts a message
func (s *sqlMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO messages (id, chat_id, sender_id, recipient_id, content, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.ExecContext(ctx, query, m.ID, m.ChatID, m.SenderID, m.RecipientID, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("error inserting message: %w", err)
	}
	return nil
}

// MarkRead sets the read time of a message addressed to readerID. The first read time wins.
func (s *sqlMessageRepository) MarkRead(ctx context.Context, id uuid.UUID, readerID uuid.UUID) (*domain.Message, error) {
	query := `UPDATE messages SET read_at = COALESCE(read_at, now())
              WHERE id = $1 AND recipient_id = $2
              RETURNING id, chat_id, sender_id, recipient_id, content, read_at, created_at`

	var m domain.Message
	var readAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id, readerID).Scan(
		&m.ID, &m.ChatID, &m.SenderID, &m.RecipientID, &m.Content, &readAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error marking message read: %w", err)
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}
