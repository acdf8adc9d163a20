package dispatch

import (
	"context"
	"encoding/json"
	"sociallink/internal/core/port"

	"github.com/stretchr/testify/mock"
)

// MockEventDispatcher is a mock implementation of port.EventDispatcher
type MockEventDispatcher struct {
	mock.Mock
}

// NewMockEventDispatcher creates a new MockEventDispatcher
func NewMockEventDispatcher() *MockEventDispatcher {
	return &MockEventDispatcher{}
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, session port.Session, event string, data json.RawMessage) error {
	args := m.Called(ctx, session, event, data)
	return args.Error(0)
}
