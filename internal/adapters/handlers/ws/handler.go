package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sociallink/internal/config"
	"sociallink/internal/core/port"
	"sociallink/internal/metrics"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// AuthCookieName is the cookie the web client stores its token in
const AuthCookieName = "auth_token"

// Handler upgrades authenticated requests to real-time sessions
type Handler struct {
	auth       port.Authenticator
	presence   port.PresenceService
	dispatcher port.EventDispatcher
	config     config.RealtimeConfig
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates the websocket endpoint
func NewHandler(auth port.Authenticator, presence port.PresenceService, dispatcher port.EventDispatcher, cfg config.RealtimeConfig, logger *slog.Logger) *Handler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	h := &Handler{
		auth:       auth,
		presence:   presence,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      checkOrigin(cfg.AllowedOrigins),
	}
	return h
}

// ServeHTTP rejects the handshake with 401 unless the request carries a valid token
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.Authenticate(r.Context(), extractToken(r))
	if err != nil {
		h.logger.Debug("websocket connection rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the error response
		h.logger.Warn("websocket upgrade failed", "userID", userID, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	s := newSession(userID, conn, h.config.SendBuffer, h.limiter(), h.logger)
	go s.writePump()

	if err := h.presence.Connect(ctx, s); err != nil {
		s.logger.Error("failed to register session", "error", err)
		// Connect may have registered the session before failing
		if err := h.presence.Disconnect(ctx, s); err != nil {
			s.logger.Warn("failed to unregister session", "error", err)
		}
		s.close()
		return
	}
	metrics.RealtimeSessions.Inc()
	s.logger.Info("session opened")

	s.readPump(ctx, h.dispatcher)

	metrics.RealtimeSessions.Dec()
	if err := h.presence.Disconnect(ctx, s); err != nil {
		s.logger.Warn("failed to unregister session", "error", err)
	}
	s.logger.Info("session closed")
}

func (h *Handler) limiter() *rate.Limiter {
	if h.config.EventsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := h.config.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.config.EventsPerSecond), burst)
}

// extractToken looks at the query string first since browsers cannot set
// headers on a websocket handshake
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no origin
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
