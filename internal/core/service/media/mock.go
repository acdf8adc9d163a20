package media

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMediaService is a mock implementation of port.MediaService
type MockMediaService struct {
	mock.Mock
}

// NewMockMediaService creates a new MockMediaService
func NewMockMediaService() *MockMediaService {
	return &MockMediaService{}
}

func (m *MockMediaService) AttachMedia(ctx context.Context, ownerID uuid.UUID, postID uuid.UUID, upload domain.MediaUpload) (*domain.PostMedia, error) {
	args := m.Called(ctx, ownerID, postID, upload)
	return args.Get(0).(*domain.PostMedia), args.Error(1)
}
