package port

import (
	"context"
	"io"
	"sociallink/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// PostMediaRepository reads and writes a post's media triple
type PostMediaRepository interface {
	FindMedia(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error)
	// FindMediaForUpdate locks the post row until the surrounding transaction ends
	FindMediaForUpdate(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error)
	UpdateStatus(ctx context.Context, postID uuid.UUID, status domain.ProcessingStatus) error
	UpdateMedia(ctx context.Context, postID uuid.UUID, mediaURL string, mediaType domain.MediaType, status domain.ProcessingStatus) error
	// FindStalled lists posts left in the processing state since before the given time
	FindStalled(ctx context.Context, before time.Time) ([]domain.PostMedia, error)
}

// ObjectStorage is an interface to define media blob storage
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, url string) (io.ReadCloser, error)
	// Delete is idempotent: a missing object is reported as DeleteOutcomeAlreadyGone
	Delete(ctx context.Context, url string) (domain.DeleteOutcome, error)
}

// Transcoder runs the external video transcoder
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string, outputPath string, profile domain.TranscodeProfile) error
}

// MediaProcessor transcodes a video and uploads the result, returning its public URL
type MediaProcessor interface {
	ProcessStream(ctx context.Context, body io.Reader, originalName string) (string, error)
	ProcessURL(ctx context.Context, sourceURL string, originalName string) (string, error)
}

// MediaService is an interface to define post media uploads
type MediaService interface {
	AttachMedia(ctx context.Context, ownerID uuid.UUID, postID uuid.UUID, upload domain.MediaUpload) (*domain.PostMedia, error)
}

// CleanupService is an interface to define periodic media maintenance
type CleanupService interface {
	FailStalledMedia(ctx context.Context, before time.Time) (int, error)
}
