package transcode_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sociallink/internal/adapters/storage"
	"sociallink/internal/adapters/transcoder"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"sociallink/internal/core/service/transcode"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newProcessor(t *testing.T, timeout time.Duration) (port.MediaProcessor, *storage.MockStorage, *transcoder.MockTranscoder, string) {
	t.Helper()
	workDir := filepath.Join(t.TempDir(), "work")
	store := storage.NewMockStorage()
	tc := transcoder.NewMockTranscoder()
	p, err := transcode.NewProcessor(store, tc, config.TranscodeConfig{
		Timeout:      timeout,
		WorkDir:      workDir,
		MaxHeight:    720,
		VideoBitrate: "1000k",
		AudioBitrate: "128k",
	}, discardLogger)
	require.NoError(t, err)
	return p, store, tc, workDir
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessor_ProcessStream(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, store, tc, workDir := newProcessor(t, time.Minute)
	profile := domain.TranscodeProfile{MaxHeight: 720, VideoBitrate: "1000k", AudioBitrate: "128k"}

	tc.On("Transcode", mock.Anything, mock.Anything, mock.Anything, profile).Run(func(args mock.Arguments) {
		input, output := args.String(1), args.String(2)
		assert.True(t, strings.HasPrefix(filepath.Base(input), "raw-"))
		assert.Equal(t, ".mov", filepath.Ext(input))
		data, err := os.ReadFile(input)
		require.NoError(t, err)
		assert.Equal(t, "original", string(data))
		require.NoError(t, os.WriteFile(output, []byte("transcoded"), 0o600))
	}).Return(nil)

	store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "posts/") && strings.HasSuffix(key, ".mp4")
	}), mock.Anything, int64(len("transcoded")), "video/mp4").Return("https://cdn.example.com/posts/x.mp4", nil)

	// Act
	url, err := p.ProcessStream(ctx, strings.NewReader("original"), "Holiday.MOV")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/posts/x.mp4", url)
	assertEmptyDir(t, workDir)
	tc.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestProcessor_ProcessStream_TranscodeFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, store, tc, workDir := newProcessor(t, time.Minute)
	tc.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("exit status 1"))

	// Act
	url, err := p.ProcessStream(ctx, strings.NewReader("original"), "clip.mp4")

	// Assert
	require.Error(t, err)
	assert.Empty(t, url)
	assertEmptyDir(t, workDir)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_ProcessStream_Timeout(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, _, tc, workDir := newProcessor(t, 20*time.Millisecond)
	tc.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded)

	// Act
	_, err := p.ProcessStream(ctx, strings.NewReader("original"), "clip.mp4")

	// Assert
	assert.ErrorIs(t, err, domain.ErrTranscodeTimeout)
	assertEmptyDir(t, workDir)
}

func TestProcessor_ProcessStream_UploadFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, store, tc, workDir := newProcessor(t, time.Minute)
	tc.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unreachable"))

	// Act
	_, err := p.ProcessStream(ctx, strings.NewReader("original"), "clip.mp4")

	// Assert
	require.Error(t, err)
	assertEmptyDir(t, workDir)
}

func TestProcessor_ProcessURL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, store, tc, workDir := newProcessor(t, time.Minute)
	source := "https://cdn.example.com/posts/raw/a.mp4"

	store.On("Open", ctx, source).Return(io.NopCloser(strings.NewReader("original")), nil)
	tc.On("Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Put", ctx, mock.Anything, mock.Anything, int64(0), "video/mp4").Return("https://cdn.example.com/posts/b.mp4", nil)

	// Act
	url, err := p.ProcessURL(ctx, source, "a.mp4")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/posts/b.mp4", url)
	assertEmptyDir(t, workDir)
}

func TestProcessor_ProcessURL_SourceMissing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p, store, tc, _ := newProcessor(t, time.Minute)
	store.On("Open", ctx, "https://cdn.example.com/gone.mp4").Return(nil, errors.New("NoSuchKey"))

	// Act
	_, err := p.ProcessURL(ctx, "https://cdn.example.com/gone.mp4", "gone.mp4")

	// Assert
	require.Error(t, err)
	tc.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurgeWorkDir(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	for _, name := range []string{"raw-123.mp4", "out-456.mp4", "keep.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	// Act
	removed, err := transcode.PurgeWorkDir(dir, discardLogger)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestPurgeWorkDir_MissingDir(t *testing.T) {
	removed, err := transcode.PurgeWorkDir(filepath.Join(t.TempDir(), "nope"), discardLogger)

	require.NoError(t, err)
	assert.Zero(t, removed)
}
