package push

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockPushSender struct {
	mock.Mock
}

func NewMockPushSender() *MockPushSender {
	return &MockPushSender{}
}

func (m *MockPushSender) Send(ctx context.Context, subscription domain.PushSubscription, payload domain.PushPayload) error {
	args := m.Called(ctx, subscription, payload)
	return args.Error(0)
}
