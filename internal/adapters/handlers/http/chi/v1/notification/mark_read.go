package notification

import (
	"errors"
	"net/http"
	"sociallink/internal/core/domain"
)

// V1MarkAllReadResponse is the response to mark all notifications read
type V1MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// MarkReadV1 marks one of the caller's notifications read
func (h *HandlerV1) MarkReadV1(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := notificationID(w, r)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkAsRead(r.Context(), userID, id)
	switch {
	case errors.Is(err, domain.ErrNotificationNotFound):
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("error marking notification read", "error", err, "notificationID", id)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		h.writeJSON(w, http.StatusOK, notification)
	}
}

// MarkAllReadV1 marks every unread notification of the caller read
func (h *HandlerV1) MarkAllReadV1(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		h.logger.Error("error marking notifications read", "error", err, "userID", userID)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, V1MarkAllReadResponse{Updated: updated})
}
