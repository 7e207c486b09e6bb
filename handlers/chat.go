// Package handlers — ChatHandler: sohbet HTTP endpoint'leri.
//
// Route'lar:
//
//	GET    /api/chats                     → ListChats
//	POST   /api/chats                     → CreateChat
//	GET    /api/chats/{id}                → GetChat
//	PATCH  /api/chats/{id}                → UpdateSettings
//	DELETE /api/chats/{id}                → DeleteChat
//	POST   /api/chats/{id}/mute           → Mute
//	DELETE /api/chats/{id}/mute           → Unmute
//	POST   /api/chats/{id}/leave          → Leave
//	GET    /api/chats/can-message/{userId} → CanMessage
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/services"
)

// ChatHandler, sohbet endpoint'lerini yöneten struct.
type ChatHandler struct {
	chatService services.ChatService
}

// NewChatHandler, constructor.
func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListChats godoc
// GET /api/chats
// Sohbetler katılımcı, okunmamış sayısı ve is_accessible ile döner.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, chats)
}

// CreateChat godoc
// POST /api/chats
// Body: { "type": "direct", "participant_ids": ["..."] }
// Direct sohbet idempotent'tir — mevcutsa 200 ile mevcut sohbet döner.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, chat)
}

// GetChat godoc
// GET /api/chats/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, chat)
}

// UpdateSettings godoc
// PATCH /api/chats/{id}
// Body: { "name": "...", "encryption_enabled": true, "disappearing_messages": false }
func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateChatSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chatService.UpdateSettings(r.Context(), user.ID, r.PathValue("id"), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "chat settings updated"})
}

// DeleteChat godoc
// DELETE /api/chats/{id}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "chat deleted"})
}

// Mute godoc
// POST /api/chats/{id}/mute
func (h *ChatHandler) Mute(w http.ResponseWriter, r *http.Request) {
	h.setMuted(w, r, true)
}

// Unmute godoc
// DELETE /api/chats/{id}/mute
func (h *ChatHandler) Unmute(w http.ResponseWriter, r *http.Request) {
	h.setMuted(w, r, false)
}

func (h *ChatHandler) setMuted(w http.ResponseWriter, r *http.Request, muted bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.chatService.SetMuted(r.Context(), user.ID, r.PathValue("id"), muted); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"is_muted": muted})
}

// Leave godoc
// POST /api/chats/{id}/leave
func (h *ChatHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.chatService.LeaveChat(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left chat"})
}

// CanMessage godoc
// GET /api/chats/can-message/{userId}
// Response: { "can_message": true, "reason": "users are connected" }
func (h *ChatHandler) CanMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.chatService.CanMessage(r.Context(), user.ID, r.PathValue("userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}
