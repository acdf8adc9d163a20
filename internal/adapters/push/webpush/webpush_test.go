package webpush_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sociallink/internal/adapters/push/webpush"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"testing"

	wp "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscription(t *testing.T, endpoint string) domain.PushSubscription {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	var sub domain.PushSubscription
	sub.Endpoint = endpoint
	sub.Keys.P256dh = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
	sub.Keys.Auth = base64.RawURLEncoding.EncodeToString(auth)
	return sub
}

func newConfig(t *testing.T) config.PushConfig {
	private, public, err := wp.GenerateVAPIDKeys()
	require.NoError(t, err)
	return config.PushConfig{VAPIDPublicKey: public, VAPIDPrivateKey: private}
}

func TestEnabled(t *testing.T) {
	assert.False(t, webpush.Enabled(config.PushConfig{}))
	assert.False(t, webpush.Enabled(config.PushConfig{VAPIDPublicKey: "pub"}))
	assert.True(t, webpush.Enabled(config.PushConfig{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}))
}

func TestSender_Send(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	payload := domain.PushPayload{Title: "New Notification", Body: "Alice sent you a message"}

	t.Run("delivers encrypted payload with VAPID auth", func(t *testing.T) {
		// Arrange
		var got *http.Request
		var body []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()
		sender := webpush.NewSender(newConfig(t), srv.Client(), logger)

		// Act
		err := sender.Send(context.Background(), newSubscription(t, srv.URL+"/push/abc"), payload)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, http.MethodPost, got.Method)
		assert.Equal(t, "/push/abc", got.URL.Path)
		assert.Equal(t, "aes128gcm", got.Header.Get("Content-Encoding"))
		assert.Contains(t, got.Header.Get("Authorization"), "vapid t=")
		assert.NotEmpty(t, body)
		assert.NotContains(t, string(body), "Alice")
	})

	t.Run("gone subscription is an error", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		}))
		defer srv.Close()
		sender := webpush.NewSender(newConfig(t), srv.Client(), logger)

		// Act
		err := sender.Send(context.Background(), newSubscription(t, srv.URL), payload)

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "410")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		sender := webpush.NewSender(newConfig(t), nil, logger)

		// Act
		err := sender.Send(context.Background(), newSubscription(t, url), payload)

		// Assert
		assert.Error(t, err)
	})
}
