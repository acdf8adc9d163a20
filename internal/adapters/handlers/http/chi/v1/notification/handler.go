package notification

import (
	"log/slog"
	"net/http"
	"sociallink/internal/adapters/handlers/http/chi/authctx"
	"sociallink/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// HandlerV1 is the handler for v1 notification routes
type HandlerV1 struct {
	notificationService port.NotificationService
	validate            *validator.Validate
	logger              *slog.Logger
}

// NewNotificationHandlerV1 creates HandlerV1
func NewNotificationHandlerV1(service port.NotificationService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		notificationService: service,
		validate:            validator.New(validator.WithRequiredStructEnabled()),
		logger:              logger,
	}
}

// Routes exposes routes. Every route acts on the caller's own notifications.
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.ListNotificationsV1)
	router.Patch("/read-all", h.MarkAllReadV1)
	router.Patch("/{notificationID}/read", h.MarkReadV1)
	router.Delete("/{notificationID}", h.DeleteNotificationV1)

	return router
}

func (h *HandlerV1) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := authctx.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func notificationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *HandlerV1) writeJSON(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
