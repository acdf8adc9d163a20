package transcode

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockMediaProcessor is a mock implementation of port.MediaProcessor
type MockMediaProcessor struct {
	mock.Mock
}

// NewMockMediaProcessor creates a new MockMediaProcessor
func NewMockMediaProcessor() *MockMediaProcessor {
	return &MockMediaProcessor{}
}

func (m *MockMediaProcessor) ProcessStream(ctx context.Context, body io.Reader, originalName string) (string, error) {
	args := m.Called(ctx, body, originalName)
	return args.String(0), args.Error(1)
}

func (m *MockMediaProcessor) ProcessURL(ctx context.Context, sourceURL string, originalName string) (string, error) {
	args := m.Called(ctx, sourceURL, originalName)
	return args.String(0), args.Error(1)
}
