package ws

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sociallink/internal/core/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestSession_Send(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := rate.NewLimiter(rate.Inf, 0)

	t.Run("buffers frames", func(t *testing.T) {
		s := newSession(uuid.New(), nil, 2, limiter, logger)

		assert.NoError(t, s.Send(domain.Envelope{Event: domain.EventUserOnline}))
		assert.Len(t, s.send, 1)
	})

	t.Run("full buffer closes the session", func(t *testing.T) {
		// Arrange
		s := newSession(uuid.New(), nil, 1, limiter, logger)
		assert.NoError(t, s.Send(domain.Envelope{Event: domain.EventUserOnline}))

		// Act
		err := s.Send(domain.Envelope{Event: domain.EventUserOnline})

		// Assert
		assert.ErrorIs(t, err, domain.ErrSessionBackpressure)
		assert.ErrorIs(t, s.Send(domain.Envelope{Event: domain.EventUserOnline}), domain.ErrSessionClosed)
	})

	t.Run("closed session", func(t *testing.T) {
		s := newSession(uuid.New(), nil, 4, limiter, logger)
		s.close()
		s.close()

		assert.ErrorIs(t, s.Send(domain.Envelope{Event: domain.EventUserOnline}), domain.ErrSessionClosed)
	})
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"http://app.example.com"}, "", true},
		{"no allow list", nil, "http://evil.example.com", true},
		{"listed", []string{"http://app.example.com"}, "http://app.example.com", true},
		{"wildcard", []string{"*"}, "http://any.example.com", true},
		{"not listed", []string{"http://app.example.com"}, "http://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, checkOrigin(tt.allowed)(r))
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=q" }, "q"},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer h") }, "h"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "c"}) }, "c"},
		{"query wins", func(r *http.Request) {
			r.URL.RawQuery = "token=q"
			r.Header.Set("Authorization", "Bearer h")
		}, "q"},
		{"basic auth ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, ""},
		{"none", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			tt.prepare(r)

			assert.Equal(t, tt.want, extractToken(r))
		})
	}
}
