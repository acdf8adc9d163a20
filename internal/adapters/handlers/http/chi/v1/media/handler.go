package media

import (
	"log/slog"
	"net/http"
	"sociallink/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// HandlerV1 is the handler for v1 post media routes
type HandlerV1 struct {
	mediaService port.MediaService
	maxSize      int64
	logger       *slog.Logger
}

// NewMediaHandlerV1 creates HandlerV1. maxSize bounds the uploaded file.
func NewMediaHandlerV1(service port.MediaService, maxSize int64, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		mediaService: service,
		maxSize:      maxSize,
		logger:       logger,
	}
}

// Routes exposes routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/{postID}/media", h.AttachMediaV1)

	return router
}

func (h *HandlerV1) writeJSON(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
