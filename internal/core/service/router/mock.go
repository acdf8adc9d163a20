package router

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventRouter is a mock implementation of port.EventRouter
type MockEventRouter struct {
	mock.Mock
}

// NewMockEventRouter creates a new MockEventRouter
func NewMockEventRouter() *MockEventRouter {
	return &MockEventRouter{}
}

func (m *MockEventRouter) EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any) int {
	args := m.Called(ctx, userID, event, payload)
	return args.Int(0)
}

func (m *MockEventRouter) EmitToFriends(ctx context.Context, userID uuid.UUID, event string, payload any) (int, error) {
	args := m.Called(ctx, userID, event, payload)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRouter) IsUserOnline(ctx context.Context, userID uuid.UUID) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockEventRouter) SessionCount(ctx context.Context, userID uuid.UUID) int {
	args := m.Called(ctx, userID)
	return args.Int(0)
}

func (m *MockEventRouter) Sync(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockEventRouter) ClaimOnline(ctx context.Context, userID uuid.UUID) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockEventRouter) ReleaseOnline(ctx context.Context, userID uuid.UUID) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}
