package nats_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	nats2 "sociallink/internal/adapters/eventbroker/nats"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type mockHandler struct {
	messages [][]byte
	received chan struct{}
	errs     []error
	mu       sync.Mutex
}

func (m *mockHandler) HandleMessage(ctx context.Context, data []byte) error {
	m.mu.Lock()
	m.messages = append(m.messages, data)
	var err error
	if len(m.errs) > 0 {
		err = m.errs[0]
		m.errs = m.errs[1:]
	}
	m.mu.Unlock()

	if m.received != nil {
		m.received <- struct{}{}
	}
	return err
}

func (m *mockHandler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func setupNATSContainer(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.10-alpine",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"-js"},
		WaitingFor:   wait.ForLog("Server is ready"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	cleanup := func() {
		_ = container.Terminate(ctx)
	}

	return "nats://" + host + ":" + port.Port(), cleanup
}

func testConfig(name string) config.NATSConfig {
	return config.NATSConfig{
		StreamName:   name + "-stream",
		Subject:      name + ".transcode",
		ConsumerName: name + "-worker",
		Workers:      2,
		AckWait:      2 * time.Second,
		MaxDeliver:   5,
		RetryDelay:   10 * time.Millisecond,
	}
}

func newJob() domain.TranscodeJob {
	return domain.TranscodeJob{
		PostID:       uuid.New(),
		SourceURL:    "http://localhost:9000/media/posts/raw/clip.mov",
		OriginalName: "clip.mov",
		MimeType:     "video/quicktime",
		OwnerID:      uuid.New(),
	}
}

type fixture struct {
	conn     *nats.Conn
	cfg      config.NATSConfig
	logger   *slog.Logger
	consumer *nats2.Consumer
	pub      *nats2.Publisher
}

func newFixture(t *testing.T, natsURL, name string) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn, err := nats2.Connect(natsURL, name, logger)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	cfg := testConfig(name)
	pub, err := nats2.NewPublisher(context.Background(), conn, cfg, logger)
	require.NoError(t, err)
	consumer, err := nats2.NewNATSConsumer(conn, cfg, logger)
	require.NoError(t, err)

	return &fixture{conn: conn, cfg: cfg, logger: logger, consumer: consumer, pub: pub}
}

func (f *fixture) pendingMessages(t *testing.T) uint64 {
	js, err := jetstream.New(f.conn)
	require.NoError(t, err)
	stream, err := js.Stream(context.Background(), f.cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(context.Background())
	require.NoError(t, err)
	return info.State.Msgs
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s not received", what)
	}
}

func TestConsumer_Subscribe(t *testing.T) {
	// Arrange
	natsURL, cleanup := setupNATSContainer(t)
	defer cleanup()
	f := newFixture(t, natsURL, "ack")
	defer f.consumer.Close()

	handler := &mockHandler{received: make(chan struct{}, 1)}
	job := newJob()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Act
	err := f.consumer.Subscribe(ctx, handler)
	require.NoError(t, err)
	err = f.pub.Enqueue(ctx, job)
	require.NoError(t, err)
	waitFor(t, handler.received, "job")

	// Assert
	require.Equal(t, 1, handler.count())
	var got domain.TranscodeJob
	require.NoError(t, json.Unmarshal(handler.messages[0], &got))
	assert.Equal(t, job, got)
	assert.Eventually(t, func() bool { return f.pendingMessages(t) == 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestPublisher_Enqueue_Deduplicates(t *testing.T) {
	// Arrange
	natsURL, cleanup := setupNATSContainer(t)
	defer cleanup()
	f := newFixture(t, natsURL, "dedup")
	job := newJob()

	// Act
	require.NoError(t, f.pub.Enqueue(context.Background(), job))
	require.NoError(t, f.pub.Enqueue(context.Background(), job))
	require.NoError(t, f.pub.Enqueue(context.Background(), newJob()))

	// Assert
	assert.Equal(t, uint64(2), f.pendingMessages(t))
}

func TestConsumer_Subscribe_HandlerError(t *testing.T) {
	// Arrange
	natsURL, cleanup := setupNATSContainer(t)
	defer cleanup()
	f := newFixture(t, natsURL, "retry")
	defer f.consumer.Close()

	handler := &mockHandler{
		received: make(chan struct{}, 3),
		errs:     []error{fmt.Errorf("temporary failure"), fmt.Errorf("temporary failure")},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Act
	require.NoError(t, f.consumer.Subscribe(ctx, handler))
	require.NoError(t, f.pub.Enqueue(ctx, newJob()))

	// Assert
	for i := 0; i < 3; i++ {
		waitFor(t, handler.received, fmt.Sprintf("delivery %d", i+1))
	}
	assert.Equal(t, 3, handler.count())
	assert.Eventually(t, func() bool { return f.pendingMessages(t) == 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestConsumer_Subscribe_InvalidJobIsNotRedelivered(t *testing.T) {
	// Arrange
	natsURL, cleanup := setupNATSContainer(t)
	defer cleanup()
	f := newFixture(t, natsURL, "term")
	defer f.consumer.Close()

	handler := &mockHandler{
		received: make(chan struct{}, 2),
		errs:     []error{fmt.Errorf("%w: post not found", domain.ErrInvalidJob)},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Act
	require.NoError(t, f.consumer.Subscribe(ctx, handler))
	require.NoError(t, f.pub.Enqueue(ctx, newJob()))
	waitFor(t, handler.received, "job")

	// Assert
	select {
	case <-handler.received:
		t.Fatal("invalid job should not be redelivered")
	case <-time.After(500 * time.Millisecond):
	}
	assert.Equal(t, 1, handler.count())
}

func TestConsumer_GracefulShutdown(t *testing.T) {
	// Arrange
	natsURL, cleanup := setupNATSContainer(t)
	defer cleanup()
	f := newFixture(t, natsURL, "shutdown")
	handler := &mockHandler{received: make(chan struct{}, 1)}

	// Act
	require.NoError(t, f.consumer.Subscribe(context.Background(), handler))
	require.NoError(t, f.consumer.Close())
	require.NoError(t, f.pub.Enqueue(context.Background(), newJob()))

	// Assert
	select {
	case <-handler.received:
		t.Fatal("Message should not have been processed after Close")
	case <-time.After(500 * time.Millisecond):
	}
	assert.Equal(t, uint64(1), f.pendingMessages(t))
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		base      time.Duration
		delivered uint64
		want      time.Duration
	}{
		{"first delivery", 5 * time.Second, 1, 5 * time.Second},
		{"third delivery", 5 * time.Second, 3, 20 * time.Second},
		{"capped", 5 * time.Second, 20, 5 * time.Minute},
		{"no base", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nats2.RetryDelay(tt.base, tt.delivered))
		})
	}
}
