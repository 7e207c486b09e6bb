// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Handler'lar "thin"dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/gulfreturn/pulse/handlers"
	"github.com/gulfreturn/pulse/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Connection   *handlers.ConnectionHandler
	Chat         *handlers.ChatHandler
	Message      *handlers.MessageHandler
	Notification *handlers.NotificationHandler
	WS           *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
//
// WS handler token doğrulaması için AuthService alır — WebSocket upgrade
// sırasında Authorization header gönderilemediğinden auth middleware yerine
// handler'ın kendisi query parameter'daki token'ı doğrular.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub) *Handlers {
	return &Handlers{
		Connection:   handlers.NewConnectionHandler(svcs.Connection),
		Chat:         handlers.NewChatHandler(svcs.Chat),
		Message:      handlers.NewMessageHandler(svcs.Message, limiters.Message),
		Notification: handlers.NewNotificationHandler(svcs.Notification),
		WS:           ws.NewHandler(hub, svcs.Auth),
	}
}
