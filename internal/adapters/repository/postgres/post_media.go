package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type sqlPostMediaRepository struct {
	db SQLQuerier
}

// NewSqlPostMediaRepository creates sqlPostMediaRepository that implements port.PostMediaRepository
func NewSqlPostMediaRepository(db SQLQuerier) port.PostMediaRepository {
	return &sqlPostMediaRepository{
		db: db,
	}
}

func (s *sqlPostMediaRepository) find(ctx context.Context, query string, postID uuid.UUID) (*domain.PostMedia, error) {
	var media domain.PostMedia
	var mediaURL, mediaType, status sql.NullString
	err := s.db.QueryRowContext(ctx, query, postID).Scan(
		&media.PostID,
		&media.OwnerID,
		&mediaURL,
		&mediaType,
		&status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("error reading post media: %w", err)
	}
	media.MediaURL = mediaURL.String
	media.Type = domain.MediaType(mediaType.String)
	media.Status = domain.ProcessingStatus(status.String)
	return &media, nil
}

// FindMedia reads the media triple of a post
func (s *sqlPostMediaRepository) FindMedia(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error) {
	return s.find(ctx, `SELECT id, author_id, media_url, media_type, processing_status
                        FROM posts WHERE id = $1`, postID)
}

// FindMediaForUpdate reads the media triple and locks the row, it must run in a transaction
func (s *sqlPostMediaRepository) FindMediaForUpdate(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error) {
	return s.find(ctx, `SELECT id, author_id, media_url, media_type, processing_status
                        FROM posts WHERE id = $1 FOR UPDATE`, postID)
}

// UpdateStatus updates the processing status only
func (s *sqlPostMediaRepository) UpdateStatus(ctx context.Context, postID uuid.UUID, status domain.ProcessingStatus) error {
	query := `UPDATE posts SET processing_status = $1, updated_at = now() WHERE id = $2`
	return s.exec(ctx, query, status, postID)
}

// UpdateMedia replaces the whole media triple
func (s *sqlPostMediaRepository) UpdateMedia(ctx context.Context, postID uuid.UUID, mediaURL string, mediaType domain.MediaType, status domain.ProcessingStatus) error {
	query := `UPDATE posts
              SET media_url = $1, media_type = $2, processing_status = $3, updated_at = now()
              WHERE id = $4`
	return s.exec(ctx, query, mediaURL, mediaType, status, postID)
}

// FindStalled lists posts stuck in processing whose last update is older than before
func (s *sqlPostMediaRepository) FindStalled(ctx context.Context, before time.Time) ([]domain.PostMedia, error) {
	query := `SELECT id, author_id, media_url, media_type, processing_status
              FROM posts
              WHERE processing_status = $1 AND updated_at < $2
              ORDER BY updated_at`
	rows, err := s.db.QueryContext(ctx, query, domain.ProcessingStatusProcessing, before)
	if err != nil {
		return nil, fmt.Errorf("error listing stalled media: %w", err)
	}
	defer rows.Close()

	stalled := make([]domain.PostMedia, 0)
	for rows.Next() {
		var media domain.PostMedia
		var mediaURL, mediaType, status sql.NullString
		if err := rows.Scan(&media.PostID, &media.OwnerID, &mediaURL, &mediaType, &status); err != nil {
			return nil, fmt.Errorf("error reading stalled media: %w", err)
		}
		media.MediaURL = mediaURL.String
		media.Type = domain.MediaType(mediaType.String)
		media.Status = domain.ProcessingStatus(status.String)
		stalled = append(stalled, media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stalled media: %w", err)
	}
	return stalled, nil
}

func (s *sqlPostMediaRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating post media: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}
