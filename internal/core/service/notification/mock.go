package notification

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockNotificationService is a mock implementation of port.NotificationService
type MockNotificationService struct {
	mock.Mock
}

// NewMockNotificationService creates a new MockNotificationService
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) CreateAndNotify(ctx context.Context, recipientID uuid.UUID, notificationType domain.NotificationType, originatorID uuid.UUID, related domain.RelatedIDs, message string) (*domain.Notification, error) {
	args := m.Called(ctx, recipientID, notificationType, originatorID, related, message)
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, recipientID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, recipientID, filter)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, recipientID, id)
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, recipientID, id)
	return args.Error(0)
}
