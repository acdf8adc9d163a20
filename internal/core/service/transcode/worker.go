package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// VideoProcessedMessage is the text of the completion notification
const VideoProcessedMessage = "Your video has been processed and is now available."

type claim int

const (
	claimProcess claim = iota
	claimAlreadyCompleted
	claimSuperseded
)

type worker struct {
	uow           port.UnitOfWork
	storage       port.ObjectStorage
	processor     port.MediaProcessor
	notifications port.NotificationService
	validate      *validator.Validate
	logger        *slog.Logger
}

// NewWorker creates the transcode worker, the handler of the job queue
func NewWorker(uow port.UnitOfWork, storage port.ObjectStorage, processor port.MediaProcessor, notifications port.NotificationService, logger *slog.Logger) port.MessageService {
	return &worker{
		uow:           uow,
		storage:       storage,
		processor:     processor,
		notifications: notifications,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

// HandleMessage runs one delivery of a transcode job. A returned error leaves
// redelivery to the queue; the post is then in the failed state.
func (w *worker) HandleMessage(ctx context.Context, data []byte) (err error) {
	var job domain.TranscodeJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}
	if err := w.validate.Struct(job); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}

	logger := w.logger.With("postID", job.PostID, "sourceURL", job.SourceURL)

	outcome, err := w.claim(ctx, job)
	if err != nil {
		return err
	}

	switch outcome {
	case claimAlreadyCompleted:
		logger.Info("job redelivered after completion, skipping transcode")
		w.notifyOnce(ctx, job, logger)
		return nil
	case claimSuperseded:
		logger.Info("job superseded by a newer upload, dropping")
		w.deleteSource(ctx, job, logger)
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("transcode panicked: %v", rec)
		}
		if err != nil {
			w.markFailed(ctx, job, logger)
		}
	}()

	logger.Info("processing video")
	mediaURL, err := w.processor.ProcessURL(ctx, job.SourceURL, job.OriginalName)
	if err != nil {
		return fmt.Errorf("failed to process video: %w", err)
	}

	if err := w.uow.PostMediaRepo().UpdateMedia(ctx, job.PostID, mediaURL, domain.MediaTypeVideo, domain.ProcessingStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete post media: %w", err)
	}
	logger.Info("video processed", "mediaURL", mediaURL)

	w.deleteSource(ctx, job, logger)
	w.notify(ctx, job, logger)
	return nil
}

// claim locks the post and decides what this delivery does. Only a job whose source
// is still the post's video is processed; the status moves to processing in the same
// transaction.
func (w *worker) claim(ctx context.Context, job domain.TranscodeJob) (claim, error) {
	outcome := claimProcess
	err := w.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		media, err := uow.PostMediaRepo().FindMediaForUpdate(ctx, job.PostID)
		if err != nil {
			if errors.Is(err, domain.ErrPostNotFound) {
				return fmt.Errorf("%w: post %s not found", domain.ErrInvalidJob, job.PostID)
			}
			return err
		}
		if media.OwnerID != job.OwnerID {
			return fmt.Errorf("%w: post %s is not owned by %s", domain.ErrInvalidJob, job.PostID, job.OwnerID)
		}

		switch {
		case media.Type != domain.MediaTypeVideo:
			// an image replaced the video while the job was queued
			outcome = claimSuperseded
			return nil
		case media.Status == domain.ProcessingStatusCompleted:
			outcome = claimAlreadyCompleted
			return nil
		case media.MediaURL != job.SourceURL:
			outcome = claimSuperseded
			return nil
		}

		return uow.PostMediaRepo().UpdateStatus(ctx, job.PostID, domain.ProcessingStatusProcessing)
	})
	if err != nil {
		return claimProcess, fmt.Errorf("failed to claim job: %w", err)
	}
	return outcome, nil
}

func (w *worker) markFailed(ctx context.Context, job domain.TranscodeJob, logger *slog.Logger) {
	if err := w.uow.PostMediaRepo().UpdateStatus(context.WithoutCancel(ctx), job.PostID, domain.ProcessingStatusFailed); err != nil {
		logger.Error("failed to mark post media as failed", "error", err)
		return
	}
	logger.Warn("video processing failed")
}

func (w *worker) deleteSource(ctx context.Context, job domain.TranscodeJob, logger *slog.Logger) {
	outcome, err := w.storage.Delete(ctx, job.SourceURL)
	if err != nil {
		logger.Warn("failed to delete original upload", "error", err)
		return
	}
	logger.Debug("original upload removed", "outcome", outcome)
}

func (w *worker) notify(ctx context.Context, job domain.TranscodeJob, logger *slog.Logger) {
	postID := job.PostID
	_, err := w.notifications.CreateAndNotify(ctx, job.OwnerID, domain.NotificationVideoProcessed, job.OwnerID,
		domain.RelatedIDs{PostID: &postID}, VideoProcessedMessage)
	if err != nil {
		logger.Error("failed to notify video owner", "ownerID", job.OwnerID, "error", err)
	}
}

// notifyOnce covers a crash between completion and notification
func (w *worker) notifyOnce(ctx context.Context, job domain.TranscodeJob, logger *slog.Logger) {
	exists, err := w.uow.NotificationRepo().ExistsForPost(ctx, job.OwnerID, job.PostID, domain.NotificationVideoProcessed)
	if err != nil {
		logger.Warn("failed to check completion notification", "error", err)
		return
	}
	if !exists {
		w.notify(ctx, job, logger)
	}
}
