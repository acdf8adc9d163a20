package transcoder

import (
	"context"
	"sociallink/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockTranscoder struct {
	mock.Mock
}

func NewMockTranscoder() *MockTranscoder {
	return &MockTranscoder{}
}

func (m *MockTranscoder) Transcode(ctx context.Context, inputPath string, outputPath string, profile domain.TranscodeProfile) error {
	args := m.Called(ctx, inputPath, outputPath, profile)
	return args.Error(0)
}
