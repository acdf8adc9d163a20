package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"strings"

	"github.com/google/uuid"
)

// AttachMedia stores an upload as the media of a post. Images complete immediately,
// videos are queued for transcoding or transcoded inline when no queue is available.
func (s *mediaService) AttachMedia(ctx context.Context, ownerID uuid.UUID, postID uuid.UUID, upload domain.MediaUpload) (*domain.PostMedia, error) {
	mediaType, mimeType, err := validateMediaFile(upload.Filename, upload.MimeType)
	if err != nil {
		return nil, err
	}
	if upload.Size > s.uploadCfg.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", domain.ErrMediaTooLarge, upload.Size, s.uploadCfg.MaxSize)
	}

	current, err := s.uow.PostMediaRepo().FindMedia(ctx, postID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, domain.ErrPostNotFound
	}

	logger := s.logger.With("postID", postID, "ownerID", ownerID, "mediaType", mediaType)

	if mediaType == domain.MediaTypeImage {
		return s.attachImage(ctx, current, upload, mimeType, logger)
	}
	if s.queue == nil {
		return s.attachVideoSync(ctx, current, upload, logger)
	}
	return s.attachVideoAsync(ctx, current, upload, mimeType, logger)
}

// attachImage replaces the post media under the same lock as videos, so an image
// cannot land on a post whose video a worker is transcoding
func (s *mediaService) attachImage(ctx context.Context, current *domain.PostMedia, upload domain.MediaUpload, mimeType string, logger *slog.Logger) (*domain.PostMedia, error) {
	key := imageKeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
	url, err := s.storage.Put(ctx, key, upload.Body, upload.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := lockIdle(ctx, uow, current.PostID); err != nil {
			return err
		}
		return uow.PostMediaRepo().UpdateMedia(ctx, current.PostID, url, domain.MediaTypeImage, domain.ProcessingStatusCompleted)
	})
	if err != nil {
		s.deleteQuietly(ctx, url, logger)
		return nil, err
	}
	return &domain.PostMedia{
		PostID:   current.PostID,
		OwnerID:  current.OwnerID,
		MediaURL: url,
		Type:     domain.MediaTypeImage,
		Status:   domain.ProcessingStatusCompleted,
	}, nil
}

// attachVideoAsync uploads the original, flags the post pending and hands the job to
// the queue. If the queue refuses the job, the upload is transcoded inline.
func (s *mediaService) attachVideoAsync(ctx context.Context, current *domain.PostMedia, upload domain.MediaUpload, mimeType string, logger *slog.Logger) (*domain.PostMedia, error) {
	key := RawKeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
	rawURL, err := s.storage.Put(ctx, key, upload.Body, upload.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload original video: %w", err)
	}

	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := lockIdle(ctx, uow, current.PostID); err != nil {
			return err
		}
		return uow.PostMediaRepo().UpdateMedia(ctx, current.PostID, rawURL, domain.MediaTypeVideo, domain.ProcessingStatusPending)
	})
	if err != nil {
		s.deleteQuietly(ctx, rawURL, logger)
		return nil, err
	}

	job := domain.TranscodeJob{
		PostID:       current.PostID,
		SourceURL:    rawURL,
		OriginalName: upload.Filename,
		MimeType:     mimeType,
		OwnerID:      current.OwnerID,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		logger.Warn("failed to enqueue transcode job, transcoding inline", "error", err)
		return s.transcodeUploaded(ctx, current, job, logger)
	}

	logger.Info("transcode job enqueued", "sourceURL", rawURL)
	return &domain.PostMedia{
		PostID:   current.PostID,
		OwnerID:  current.OwnerID,
		MediaURL: rawURL,
		Type:     domain.MediaTypeVideo,
		Status:   domain.ProcessingStatusPending,
	}, nil
}

// transcodeUploaded is the inline fallback for an original already in storage
func (s *mediaService) transcodeUploaded(ctx context.Context, current *domain.PostMedia, job domain.TranscodeJob, logger *slog.Logger) (*domain.PostMedia, error) {
	url, err := s.processor.ProcessURL(ctx, job.SourceURL, job.OriginalName)
	if err != nil {
		s.markFailed(ctx, current.PostID, logger)
		return nil, fmt.Errorf("failed to transcode video: %w", err)
	}

	media, err := s.complete(ctx, current, url, domain.MediaTypeVideo)
	if err != nil {
		return nil, err
	}
	s.deleteQuietly(ctx, job.SourceURL, logger)
	return media, nil
}

// attachVideoSync transcodes straight from the request body, the post goes to
// completed without passing through pending
func (s *mediaService) attachVideoSync(ctx context.Context, current *domain.PostMedia, upload domain.MediaUpload, logger *slog.Logger) (*domain.PostMedia, error) {
	if err := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		return lockIdle(ctx, uow, current.PostID)
	}); err != nil {
		return nil, err
	}

	url, err := s.processor.ProcessStream(ctx, upload.Body, upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to transcode video: %w", err)
	}
	logger.Info("video transcoded inline", "mediaURL", url)
	return s.complete(ctx, current, url, domain.MediaTypeVideo)
}

func (s *mediaService) complete(ctx context.Context, current *domain.PostMedia, url string, mediaType domain.MediaType) (*domain.PostMedia, error) {
	if err := s.uow.PostMediaRepo().UpdateMedia(ctx, current.PostID, url, mediaType, domain.ProcessingStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to update post media: %w", err)
	}
	return &domain.PostMedia{
		PostID:   current.PostID,
		OwnerID:  current.OwnerID,
		MediaURL: url,
		Type:     mediaType,
		Status:   domain.ProcessingStatusCompleted,
	}, nil
}

func (s *mediaService) markFailed(ctx context.Context, postID uuid.UUID, logger *slog.Logger) {
	if err := s.uow.PostMediaRepo().UpdateStatus(context.WithoutCancel(ctx), postID, domain.ProcessingStatusFailed); err != nil {
		logger.Error("failed to mark post media as failed", "error", err)
	}
}

func (s *mediaService) deleteQuietly(ctx context.Context, url string, logger *slog.Logger) {
	if _, err := s.storage.Delete(context.WithoutCancel(ctx), url); err != nil {
		logger.Warn("failed to delete uploaded object", "url", url, "error", err)
	}
}

// lockIdle locks the post row and rejects it while a worker holds the video
func lockIdle(ctx context.Context, uow port.UnitOfWork, postID uuid.UUID) error {
	media, err := uow.PostMediaRepo().FindMediaForUpdate(ctx, postID)
	if err != nil {
		return err
	}
	if media.Status == domain.ProcessingStatusProcessing {
		return domain.ErrPostProcessing
	}
	return nil
}
