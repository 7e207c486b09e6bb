// Package handlers — MessageHandler: mesaj HTTP endpoint'leri.
//
// Route'lar:
//
//	GET    /api/chats/{id}/messages          → GetMessages
//	POST   /api/chats/{id}/messages          → SendMessage (rate limitli)
//	POST   /api/chats/{id}/read              → MarkRead
//	PATCH  /api/messages/{id}                → EditMessage
//	DELETE /api/messages/{id}                → DeleteMessage
//	GET    /api/messages/{id}/history        → EditHistory
//	POST   /api/messages/{id}/reactions      → React
//	DELETE /api/messages/{id}/reactions      → RemoveReaction
//	GET    /api/messages/search?q=...        → Search
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/pkg/ratelimit"
	"github.com/gulfreturn/pulse/services"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	msgService services.MessageService
	limiter    *ratelimit.MessageRateLimiter
}

// NewMessageHandler, constructor.
func NewMessageHandler(msgService services.MessageService, limiter *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{
		msgService: msgService,
		limiter:    limiter,
	}
}

// GetMessages godoc
// GET /api/chats/{id}/messages?limit=50&offset=0
// Mesajlar kronolojik döner; çağrı sohbeti okundu işaretler.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.msgService.GetMessages(r.Context(), user.ID, r.PathValue("id"), limit, offset)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// SendMessage godoc
// POST /api/chats/{id}/messages
// Body: { "content": "...", "type": "text" }
// Kullanıcı başına rate limit uygulanır — aşımda 429.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if !h.limiter.Allow(user.ID) {
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many messages, slow down")
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.msgService.SendMessage(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// MarkRead godoc
// POST /api/chats/{id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.msgService.MarkRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "chat marked as read"})
}

// EditMessage godoc
// PATCH /api/messages/{id}
// Body: { "content": "..." }
func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.msgService.EditMessage(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, msg)
}

// DeleteMessage godoc
// DELETE /api/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.msgService.DeleteMessage(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// EditHistory godoc
// GET /api/messages/{id}/history
func (h *MessageHandler) EditHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	history, err := h.msgService.EditHistory(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, history)
}

// React godoc
// POST /api/messages/{id}/reactions
// Body: { "emoji": "👍" }
// Kullanıcının mevcut reaksiyonu varsa emoji değiştirilir.
func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.msgService.React(r.Context(), user.ID, r.PathValue("id"), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "reaction added"})
}

// RemoveReaction godoc
// DELETE /api/messages/{id}/reactions
func (h *MessageHandler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.msgService.RemoveReaction(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "reaction removed"})
}

// Search godoc
// GET /api/messages/search?q=...&chat_id=...&limit=25
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	results, err := h.msgService.Search(r.Context(), user.ID, q.Get("q"), q.Get("chat_id"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, results)
}
