// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama kuralı: notificationService ve chatService, messageService'den
// ÖNCE oluşturulmalı — messageService her ikisine de bağımlıdır.
package main

import (
	"time"

	"github.com/gulfreturn/pulse/config"
	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/pkg/ratelimit"
	"github.com/gulfreturn/pulse/services"
	"github.com/gulfreturn/pulse/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth         services.AuthService
	Notification services.NotificationService
	Connection   services.ConnectionService
	Chat         services.ChatService
	Message      services.MessageService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Message *ratelimit.MessageRateLimiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// hub, ws.Broadcaster interface'i üzerinden geçilir — service'ler Hub'ın
// somut tipine değil, yayın yeteneğine bağımlıdır.
func initServices(db *database.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config) (*Services, *RateLimiters) {
	authService := services.NewAuthService(cfg.JWT.Secret)
	notificationService := services.NewNotificationService(repos.Notification)

	connectionService := services.NewConnectionService(
		repos.Connection, repos.User, repos.Social, notificationService, hub,
	)

	chatService := services.NewChatService(
		repos.Chat, repos.Message, repos.Connection, repos.User, hub,
	)

	messageService := services.NewMessageService(
		db, repos.Message, repos.Chat, repos.User, chatService, notificationService, hub,
	)

	// Mesaj gönderimi kullanıcı başına sınırlıdır:
	// 10 saniyelik pencerede 20 mesaj; aşımda 30 saniye cooldown.
	limiters := &RateLimiters{
		Message: ratelimit.NewMessageRateLimiter(20, 10*time.Second, 30*time.Second),
	}

	return &Services{
		Auth:         authService,
		Notification: notificationService,
		Connection:   connectionService,
		Chat:         chatService,
		Message:      messageService,
	}, limiters
}
