package storage

import (
	"context"
	"io"
	"sociallink/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, url string) (domain.DeleteOutcome, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(domain.DeleteOutcome), args.Error(1)
}
