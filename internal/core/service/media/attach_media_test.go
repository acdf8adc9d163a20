package media_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sociallink/internal/adapters/eventbroker"
	"sociallink/internal/adapters/repository"
	"sociallink/internal/adapters/storage"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sociallink/internal/core/service/media"
	"sociallink/internal/core/service/transcode"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	rawURL       = "https://cdn.example.com/media/posts/raw/a.mp4"
	processedURL = "https://cdn.example.com/media/posts/b.mp4"
)

type fixture struct {
	uow       *repository.MockUnitOfWork
	storage   *storage.MockStorage
	queue     *eventbroker.MockJobQueue
	processor *transcode.MockMediaProcessor
	ownerID   uuid.UUID
	postID    uuid.UUID
}

func newFixture() fixture {
	f := fixture{
		uow:       repository.NewMockUnitOfWork(),
		storage:   storage.NewMockStorage(),
		queue:     eventbroker.NewMockJobQueue(),
		processor: transcode.NewMockMediaProcessor(),
		ownerID:   uuid.New(),
		postID:    uuid.New(),
	}
	f.uow.On("Execute", mock.Anything, mock.Anything).Return(nil)
	return f
}

func (f fixture) service(withQueue bool) port.MediaService {
	var queue port.JobQueue
	if withQueue {
		queue = f.queue
	}
	return media.NewMediaService(f.uow, f.storage, queue, f.processor, config.UploadConfig{MaxSize: 1024}, discardLogger)
}

func (f fixture) current(status domain.ProcessingStatus) *domain.PostMedia {
	return &domain.PostMedia{PostID: f.postID, OwnerID: f.ownerID, Status: status}
}

func video() domain.MediaUpload {
	return domain.MediaUpload{Body: strings.NewReader("video"), Size: 5, Filename: "a.mp4", MimeType: "video/mp4"}
}

func TestAttachMedia_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		upload    domain.MediaUpload
		setupMock func(f fixture)
		wantErr   error
	}{
		{
			name:    "unsupported mime",
			upload:  domain.MediaUpload{Filename: "a.pdf", MimeType: "application/pdf", Size: 1},
			wantErr: domain.ErrUnsupportedMedia,
		},
		{
			name:    "extension mismatch",
			upload:  domain.MediaUpload{Filename: "a.exe", MimeType: "video/mp4", Size: 1},
			wantErr: domain.ErrUnsupportedMedia,
		},
		{
			name:    "too large",
			upload:  domain.MediaUpload{Filename: "a.png", MimeType: "image/png", Size: 4096},
			wantErr: domain.ErrMediaTooLarge,
		},
		{
			name:   "missing post",
			upload: video(),
			setupMock: func(f fixture) {
				f.uow.GetPostMediaRepoMock().On("FindMedia", mock.Anything, f.postID).Return((*domain.PostMedia)(nil), domain.ErrPostNotFound)
			},
			wantErr: domain.ErrPostNotFound,
		},
		{
			name:   "foreign post",
			upload: video(),
			setupMock: func(f fixture) {
				f.uow.GetPostMediaRepoMock().On("FindMedia", mock.Anything, f.postID).
					Return(&domain.PostMedia{PostID: f.postID, OwnerID: uuid.New()}, nil)
			},
			wantErr: domain.ErrPostNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture()
			if tt.setupMock != nil {
				tt.setupMock(f)
			}

			// Act
			result, err := f.service(true).AttachMedia(context.Background(), f.ownerID, f.postID, tt.upload)

			// Assert
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAttachMedia_Image(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	upload := domain.MediaUpload{Body: strings.NewReader("png"), Size: 3, Filename: "Cat.PNG", MimeType: "image/png"}
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(""), nil)
	f.storage.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "posts/") && !strings.HasPrefix(key, media.RawKeyPrefix) && strings.HasSuffix(key, ".png")
	}), upload.Body, int64(3), "image/png").Return("https://cdn.example.com/media/posts/c.png", nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(""), nil)
	repo.On("UpdateMedia", ctx, f.postID, "https://cdn.example.com/media/posts/c.png", domain.MediaTypeImage, domain.ProcessingStatusCompleted).Return(nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, upload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusCompleted, result.Status)
	assert.Equal(t, domain.MediaTypeImage, result.Type)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAttachMedia_ImageWhileProcessing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	imageURL := "https://cdn.example.com/media/posts/d.png"
	upload := domain.MediaUpload{Body: strings.NewReader("png"), Size: 3, Filename: "d.png", MimeType: "image/png"}
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(domain.ProcessingStatusPending), nil)
	f.storage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(imageURL, nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(domain.ProcessingStatusProcessing), nil)
	f.storage.On("Delete", mock.Anything, imageURL).Return(domain.DeleteOutcomeDeleted, nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, upload)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrPostProcessing)
	f.storage.AssertCalled(t, "Delete", mock.Anything, imageURL)
	repo.AssertNotCalled(t, "UpdateMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachMedia_VideoQueued(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	upload := video()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(domain.ProcessingStatusCompleted), nil)
	f.storage.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, media.RawKeyPrefix) && strings.HasSuffix(key, ".mp4")
	}), upload.Body, int64(5), "video/mp4").Return(rawURL, nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(domain.ProcessingStatusCompleted), nil)
	repo.On("UpdateMedia", ctx, f.postID, rawURL, domain.MediaTypeVideo, domain.ProcessingStatusPending).Return(nil)
	f.queue.On("Enqueue", ctx, domain.TranscodeJob{
		PostID:       f.postID,
		SourceURL:    rawURL,
		OriginalName: "a.mp4",
		MimeType:     "video/mp4",
		OwnerID:      f.ownerID,
	}).Return(nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, upload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusPending, result.Status)
	assert.Equal(t, rawURL, result.MediaURL)
	repo.AssertExpectations(t)
	f.queue.AssertExpectations(t)
	f.processor.AssertNotCalled(t, "ProcessURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachMedia_VideoWhileProcessing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(domain.ProcessingStatusProcessing), nil)
	f.storage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(rawURL, nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(domain.ProcessingStatusProcessing), nil)
	f.storage.On("Delete", mock.Anything, rawURL).Return(domain.DeleteOutcomeDeleted, nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, video())

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrPostProcessing)
	f.storage.AssertCalled(t, "Delete", mock.Anything, rawURL)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachMedia_EnqueueFailureFallsBackInline(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(""), nil)
	f.storage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(rawURL, nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(""), nil)
	repo.On("UpdateMedia", ctx, f.postID, rawURL, domain.MediaTypeVideo, domain.ProcessingStatusPending).Return(nil)
	f.queue.On("Enqueue", ctx, mock.Anything).Return(errors.New("nats: no responders"))
	f.processor.On("ProcessURL", ctx, rawURL, "a.mp4").Return(processedURL, nil)
	repo.On("UpdateMedia", ctx, f.postID, processedURL, domain.MediaTypeVideo, domain.ProcessingStatusCompleted).Return(nil)
	f.storage.On("Delete", mock.Anything, rawURL).Return(domain.DeleteOutcomeDeleted, nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, video())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusCompleted, result.Status)
	assert.Equal(t, processedURL, result.MediaURL)
	repo.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestAttachMedia_EnqueueFailureAndTranscodeFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(""), nil)
	f.storage.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(rawURL, nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(""), nil)
	repo.On("UpdateMedia", ctx, f.postID, rawURL, domain.MediaTypeVideo, domain.ProcessingStatusPending).Return(nil)
	f.queue.On("Enqueue", ctx, mock.Anything).Return(errors.New("nats: no responders"))
	f.processor.On("ProcessURL", ctx, rawURL, "a.mp4").Return("", domain.ErrTranscodeTimeout)
	repo.On("UpdateStatus", mock.Anything, f.postID, domain.ProcessingStatusFailed).Return(nil)

	// Act
	result, err := f.service(true).AttachMedia(ctx, f.ownerID, f.postID, video())

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrTranscodeTimeout)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, f.postID, domain.ProcessingStatusFailed)
}

func TestAttachMedia_VideoWithoutQueue(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	upload := video()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(""), nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(""), nil)
	f.processor.On("ProcessStream", ctx, upload.Body, "a.mp4").Return(processedURL, nil)
	repo.On("UpdateMedia", ctx, f.postID, processedURL, domain.MediaTypeVideo, domain.ProcessingStatusCompleted).Return(nil)

	// Act
	result, err := f.service(false).AttachMedia(ctx, f.ownerID, f.postID, upload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusCompleted, result.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachMedia_VideoWithoutQueueWhileProcessing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	repo := f.uow.GetPostMediaRepoMock()
	repo.On("FindMedia", ctx, f.postID).Return(f.current(domain.ProcessingStatusProcessing), nil)
	repo.On("FindMediaForUpdate", ctx, f.postID).Return(f.current(domain.ProcessingStatusProcessing), nil)

	// Act
	_, err := f.service(false).AttachMedia(ctx, f.ownerID, f.postID, video())

	// Assert
	assert.ErrorIs(t, err, domain.ErrPostProcessing)
	f.processor.AssertNotCalled(t, "ProcessStream", mock.Anything, mock.Anything, mock.Anything)
}
