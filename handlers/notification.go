// Package handlers — NotificationHandler: bildirim HTTP endpoint'leri.
//
// Route'lar:
//
//	GET    /api/notifications              → List
//	GET    /api/notifications/unread-count → UnreadCount
//	POST   /api/notifications/{id}/read    → MarkRead
//	POST   /api/notifications/read-all     → MarkAllRead
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/services"
)

// NotificationHandler, bildirim endpoint'lerini yöneten struct.
type NotificationHandler struct {
	notifService services.NotificationService
}

// NewNotificationHandler, constructor.
func NewNotificationHandler(notifService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

// List godoc
// GET /api/notifications?limit=50&offset=0
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.notifService.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, notifications)
}

// UnreadCount godoc
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead godoc
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notifService.MarkRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// MarkAllRead godoc
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.notifService.MarkAllRead(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "all notifications marked as read"})
}
