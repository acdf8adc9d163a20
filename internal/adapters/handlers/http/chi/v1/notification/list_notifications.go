package notification

import (
	"net/http"
	"sociallink/internal/core/domain"
	"strconv"
	"time"
)

type v1ListNotificationsQuery struct {
	Unread string `validate:"omitempty,boolean"`
	Limit  string `validate:"omitempty,number"`
	Before string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// V1ListNotificationsResponse is the response to list notifications
type V1ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// ListNotificationsV1 returns the caller's notifications, newest first
func (h *HandlerV1) ListNotificationsV1(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	q := v1ListNotificationsQuery{
		Unread: r.URL.Query().Get("unread"),
		Limit:  r.URL.Query().Get("limit"),
		Before: r.URL.Query().Get("before"),
	}
	if err := h.validate.Struct(q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var filter domain.NotificationFilter
	filter.UnreadOnly, _ = strconv.ParseBool(q.Unread)
	if q.Limit != "" {
		limit, err := strconv.ParseUint(q.Limit, 10, 64)
		if err != nil {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}
	if q.Before != "" {
		before, err := time.Parse(time.RFC3339, q.Before)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Before = &before
	}

	notifications, err := h.notificationService.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("error listing notifications", "error", err, "userID", userID)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	h.writeJSON(w, http.StatusOK, V1ListNotificationsResponse{Notifications: notifications})
}
