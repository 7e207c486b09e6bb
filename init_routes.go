// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Tüm /api route'ları (health hariç) authMw.Require ile sarılır —
// JWT token doğrulanır ve kullanıcı request context'ine konur.
package main

import (
	"fmt"
	"net/http"

	"github.com/gulfreturn/pulse/middleware"
	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE tanımlanır.
// Örnek: "/api/connections/requests" → "/api/connections/{id}" öncesinde.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check — public
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"pulse"}`)
	})

	// ─── Connections ───
	mux.Handle("GET /api/connections", auth(h.Connection.ListConnections))
	mux.Handle("GET /api/connections/requests", auth(h.Connection.ListRequests))
	mux.Handle("POST /api/connections/requests", auth(h.Connection.SendRequest))
	mux.Handle("POST /api/connections/requests/{id}", auth(h.Connection.Respond))
	mux.Handle("GET /api/connections/blocked", auth(h.Connection.ListBlocked))
	mux.Handle("POST /api/connections/block/{userId}", auth(h.Connection.Block))
	mux.Handle("DELETE /api/connections/block/{userId}", auth(h.Connection.Unblock))
	mux.Handle("GET /api/connections/suggestions", auth(h.Connection.Suggestions))
	mux.Handle("GET /api/connections/status/{userId}", auth(h.Connection.PairStatus))
	mux.Handle("GET /api/connections/mutual/{userId}", auth(h.Connection.Mutual))
	mux.Handle("GET /api/connections/stats", auth(h.Connection.Stats))
	mux.Handle("DELETE /api/connections/{id}", auth(h.Connection.Remove))

	// ─── Chats ───
	mux.Handle("GET /api/chats", auth(h.Chat.ListChats))
	mux.Handle("POST /api/chats", auth(h.Chat.CreateChat))
	mux.Handle("GET /api/chats/can-message/{userId}", auth(h.Chat.CanMessage))
	mux.Handle("GET /api/chats/{id}", auth(h.Chat.GetChat))
	mux.Handle("PATCH /api/chats/{id}", auth(h.Chat.UpdateSettings))
	mux.Handle("DELETE /api/chats/{id}", auth(h.Chat.DeleteChat))
	mux.Handle("POST /api/chats/{id}/mute", auth(h.Chat.Mute))
	mux.Handle("DELETE /api/chats/{id}/mute", auth(h.Chat.Unmute))
	mux.Handle("POST /api/chats/{id}/leave", auth(h.Chat.Leave))

	// ─── Messages ───
	mux.Handle("GET /api/chats/{id}/messages", auth(h.Message.GetMessages))
	mux.Handle("POST /api/chats/{id}/messages", auth(h.Message.SendMessage))
	mux.Handle("POST /api/chats/{id}/read", auth(h.Message.MarkRead))
	mux.Handle("GET /api/messages/search", auth(h.Message.Search))
	mux.Handle("PATCH /api/messages/{id}", auth(h.Message.EditMessage))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.DeleteMessage))
	mux.Handle("GET /api/messages/{id}/history", auth(h.Message.EditHistory))
	mux.Handle("POST /api/messages/{id}/reactions", auth(h.Message.React))
	mux.Handle("DELETE /api/messages/{id}/reactions", auth(h.Message.RemoveReaction))

	// ─── Notifications ───
	mux.Handle("GET /api/notifications", auth(h.Notification.List))
	mux.Handle("GET /api/notifications/unread-count", auth(h.Notification.UnreadCount))
	mux.Handle("POST /api/notifications/read-all", auth(h.Notification.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/read", auth(h.Notification.MarkRead))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
