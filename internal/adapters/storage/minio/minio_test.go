package minio_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sociallink/internal/adapters/storage/minio"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAccessKey = "minioadmin"
	testSecretKey = "minioadmin"
	testBucket    = "test-bucket"
)

func setupContainer(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     testAccessKey,
			"MINIO_ROOT_PASSWORD": testSecretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000"),
	}
	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := minioContainer.Host(ctx)
	require.NoError(t, err)

	port, err := minioContainer.MappedPort(ctx, "9000")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	cleanup := func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	time.Sleep(500 * time.Millisecond) // wait for container to be up
	return endpoint, cleanup
}

func createAdapter(t *testing.T, endpoint string, ctx context.Context) *minio.Adapter {
	t.Helper()
	cfg := config.MinioConfig{
		Endpoint:   endpoint,
		AccessKey:  testAccessKey,
		SecretKey:  testSecretKey,
		BucketName: testBucket,
		UseSSL:     false,
	}

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	adapter, err := minio.NewAdapter(ctx, cfg, discardLogger)

	require.NoError(t, err)
	require.NotNil(t, adapter)

	return adapter
}

func TestKeyFromURL(t *testing.T) {
	base := "https://cdn.example.com/media"

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain key", url: base + "/posts/a.mp4", want: "posts/a.mp4"},
		{name: "escaped key", url: base + "/posts/my%20clip.mp4", want: "posts/my clip.mp4"},
		{name: "query string dropped", url: base + "/posts/a.mp4?token=x", want: "posts/a.mp4"},
		{name: "other bucket", url: "https://cdn.example.com/other/posts/a.mp4", wantErr: true},
		{name: "other host", url: "https://firebasestorage.googleapis.com/v0/b/x/o/a.mp4", wantErr: true},
		{name: "bucket root", url: base + "/", wantErr: true},
		{name: "traversal", url: base + "/posts/../../etc/passwd", wantErr: true},
		{name: "garbage", url: "not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := minio.KeyFromURL(base, tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidStorageURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/media", minio.BaseURL(config.MinioConfig{Endpoint: "localhost:9000", BucketName: "media"}))
	assert.Equal(t, "https://s3.example.com/media", minio.BaseURL(config.MinioConfig{Endpoint: "s3.example.com", BucketName: "media", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com/m", minio.BaseURL(config.MinioConfig{PublicBaseURL: "https://cdn.example.com/m/"}))
}

func TestAdapter_PutOpenDelete(t *testing.T) {
	endpoint, cleanup := setupContainer(t)
	defer cleanup()
	ctx := context.Background()
	adapter := createAdapter(t, endpoint, ctx)

	t.Run("Put then Open", func(t *testing.T) {
		// Arrange
		content := "fake video bytes"

		// Act
		url, err := adapter.Put(ctx, "posts/raw/a.mp4", strings.NewReader(content), int64(len(content)), "video/mp4")
		require.NoError(t, err)
		body, err := adapter.Open(ctx, url)
		require.NoError(t, err)
		defer body.Close()
		got, err := io.ReadAll(body)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("http://%s/%s/posts/raw/a.mp4", endpoint, testBucket), url)
		assert.Equal(t, content, string(got))
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		// Arrange
		url, err := adapter.Put(ctx, "posts/b.mp4", strings.NewReader("x"), 1, "video/mp4")
		require.NoError(t, err)

		// Act
		first, err := adapter.Delete(ctx, url)
		require.NoError(t, err)
		second, err := adapter.Delete(ctx, url)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, domain.DeleteOutcomeDeleted, first)
		assert.Equal(t, domain.DeleteOutcomeAlreadyGone, second)
		_, err = adapter.Open(ctx, url)
		assert.Error(t, err)
	})

	t.Run("Delete outside the bucket", func(t *testing.T) {
		// Act
		outcome, err := adapter.Delete(ctx, "https://firebasestorage.googleapis.com/v0/b/x/o/a.mp4")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, domain.DeleteOutcomeInvalidURL, outcome)
	})

	t.Run("Open outside the bucket", func(t *testing.T) {
		// Act
		_, err := adapter.Open(ctx, "https://example.com/a.mp4")

		// Assert
		assert.ErrorIs(t, err, domain.ErrInvalidStorageURL)
	})
}
