package notification

import (
	"errors"
	"net/http"
	"sociallink/internal/core/domain"
)

// DeleteNotificationV1 deletes one of the caller's notifications
func (h *HandlerV1) DeleteNotificationV1(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := notificationID(w, r)
	if !ok {
		return
	}

	err := h.notificationService.Delete(r.Context(), userID, id)
	switch {
	case errors.Is(err, domain.ErrNotificationNotFound):
		http.Error(w, "notification not found", http.StatusNotFound)
	case err != nil:
		h.logger.Error("error deleting notification", "error", err, "notificationID", id)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
