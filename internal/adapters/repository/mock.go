package repository

import (
	"context"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockNotificationRepository struct {
	mock.Mock
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) List(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) ExistsForPost(ctx context.Context, userID uuid.UUID, postID uuid.UUID, notificationType domain.NotificationType) (bool, error) {
	args := m.Called(ctx, userID, postID, notificationType)
	return args.Bool(0), args.Error(1)
}

type MockPostMediaRepository struct {
	mock.Mock
}

func NewMockPostMediaRepository() *MockPostMediaRepository {
	return &MockPostMediaRepository{}
}

func (m *MockPostMediaRepository) FindMedia(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(*domain.PostMedia), args.Error(1)
}

func (m *MockPostMediaRepository) FindMediaForUpdate(ctx context.Context, postID uuid.UUID) (*domain.PostMedia, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(*domain.PostMedia), args.Error(1)
}

func (m *MockPostMediaRepository) UpdateStatus(ctx context.Context, postID uuid.UUID, status domain.ProcessingStatus) error {
	args := m.Called(ctx, postID, status)
	return args.Error(0)
}

func (m *MockPostMediaRepository) UpdateMedia(ctx context.Context, postID uuid.UUID, mediaURL string, mediaType domain.MediaType, status domain.ProcessingStatus) error {
	args := m.Called(ctx, postID, mediaURL, mediaType, status)
	return args.Error(0)
}

func (m *MockPostMediaRepository) FindStalled(ctx context.Context, before time.Time) ([]domain.PostMedia, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]domain.PostMedia), args.Error(1)
}

type MockFriendRepository struct {
	mock.Mock
}

func NewMockFriendRepository() *MockFriendRepository {
	return &MockFriendRepository{}
}

func (m *MockFriendRepository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, id uuid.UUID, readerID uuid.UUID) (*domain.Message, error) {
	args := m.Called(ctx, id, readerID)
	return args.Get(0).(*domain.Message), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
	notificationRepo *MockNotificationRepository
	postMediaRepo    *MockPostMediaRepository
	friendRepo       *MockFriendRepository
	userRepo         *MockUserRepository
	messageRepo      *MockMessageRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		notificationRepo: &MockNotificationRepository{},
		postMediaRepo:    &MockPostMediaRepository{},
		friendRepo:       &MockFriendRepository{},
		userRepo:         &MockUserRepository{},
		messageRepo:      &MockMessageRepository{},
	}
}

func (m *MockUnitOfWork) NotificationRepo() port.NotificationRepository {
	return m.notificationRepo
}

func (m *MockUnitOfWork) PostMediaRepo() port.PostMediaRepository {
	return m.postMediaRepo
}

func (m *MockUnitOfWork) FriendRepo() port.FriendRepository {
	return m.friendRepo
}

func (m *MockUnitOfWork) UserRepo() port.UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) MessageRepo() port.MessageRepository {
	return m.messageRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetNotificationRepoMock() *MockNotificationRepository {
	return m.notificationRepo
}

func (m *MockUnitOfWork) GetPostMediaRepoMock() *MockPostMediaRepository {
	return m.postMediaRepo
}

func (m *MockUnitOfWork) GetFriendRepoMock() *MockFriendRepository {
	return m.friendRepo
}

func (m *MockUnitOfWork) GetUserRepoMock() *MockUserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) GetMessageRepoMock() *MockMessageRepository {
	return m.messageRepo
}
