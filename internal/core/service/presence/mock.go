package presence

import (
	"context"
	"sociallink/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPresenceService is a mock implementation of port.PresenceService
type MockPresenceService struct {
	mock.Mock
}

// NewMockPresenceService creates a new MockPresenceService
func NewMockPresenceService() *MockPresenceService {
	return &MockPresenceService{}
}

func (m *MockPresenceService) Connect(ctx context.Context, session port.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockPresenceService) Disconnect(ctx context.Context, session port.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockPresenceService) OnlineFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
