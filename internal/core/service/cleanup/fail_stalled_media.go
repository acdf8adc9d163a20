package cleanup

import (
	"context"
	"errors"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"
)

// FailStalledMedia marks as failed the posts whose transcode claimed them before the
// given time and never finished. Each post is re-checked under lock, so a worker that
// completed in the meantime wins.
func (c *cleanupService) FailStalledMedia(ctx context.Context, before time.Time) (int, error) {

	stalled, err := c.uow.PostMediaRepo().FindStalled(ctx, before)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, media := range stalled {

		changed := false
		txErr := c.uow.Execute(ctx, func(uow port.UnitOfWork) error {
			current, executeErr := uow.PostMediaRepo().FindMediaForUpdate(ctx, media.PostID)
			if executeErr != nil {
				return executeErr
			}
			if current.Status != domain.ProcessingStatusProcessing {
				return nil
			}
			changed = true
			return uow.PostMediaRepo().UpdateStatus(ctx, media.PostID, domain.ProcessingStatusFailed)
		})
		if txErr != nil {
			if errors.Is(txErr, domain.ErrPostNotFound) {
				continue
			}
			c.logger.Error("Failed to fail stalled media", "postID", media.PostID, "err", txErr)
			continue
		}
		if changed {
			failed++
			c.logger.Warn("stalled media marked as failed", "postID", media.PostID, "ownerID", media.OwnerID)
		}
	}
	c.logger.Info("stalled media cleanup completed", "found", len(stalled), "failed", failed)
	return failed, nil
}
