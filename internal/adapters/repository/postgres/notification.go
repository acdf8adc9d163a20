package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const notificationColumns = "id, user_id, type, from_user_id, post_id, friend_request_id, chat_id, message, read, created_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type sqlNotificationRepository struct {
	db SQLQuerier
}

// NewSqlNotificationRepository creates sqlNotificationRepository that implements port.NotificationRepository
func NewSqlNotificationRepository(db SQLQuerier) port.NotificationRepository {
	return &sqlNotificationRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	var postID, friendRequestID, chatID uuid.NullUUID
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.FromUserID,
		&postID,
		&friendRequestID,
		&chatID,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.PostID = nullableUUID(postID)
	n.FriendRequestID = nullableUUID(friendRequestID)
	n.ChatID = nullableUUID(chatID)
	return &n, nil
}

func nullableUUID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	return &id.UUID
}

// Create inserts a notification
func (s *sqlNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.FromUserID, n.PostID, n.FriendRequestID, n.ChatID, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first
func (s *sqlNotificationRepository) List(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error) {
	builder := psql.Select(notificationColumns).
		From("notifications").
		Where(sq.Eq{"user_id": userID.String()}).
		OrderBy("created_at DESC", "id DESC")

	if filter.UnreadOnly {
		builder = builder.Where(sq.Eq{"read": false})
	}
	if filter.Before != nil {
		builder = builder.Where(sq.Lt{"created_at": *filter.Before})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building notification query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// MarkRead marks a notification owned by userID as read
func (s *sqlNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.Notification, error) {
	query := `UPDATE notifications SET read = true
              WHERE id = $1 AND user_id = $2
              RETURNING ` + notificationColumns

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error marking notification read: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *sqlNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes a notification owned by userID
func (s *sqlNotificationRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// ExistsForPost reports whether the user already has a notification of this type about the post
func (s *sqlNotificationRepository) ExistsForPost(ctx context.Context, userID uuid.UUID, postID uuid.UUID, notificationType domain.NotificationType) (bool, error) {
	query := `SELECT EXISTS (
                  SELECT 1 FROM notifications WHERE user_id = $1 AND post_id = $2 AND type = $3
              )`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, postID, notificationType).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notification: %w", err)
	}
	return exists, nil
}
