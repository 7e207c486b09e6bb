// Package main — WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın presence ve typing callback'lerini ayarlar.
//
// Bu callback'ler neden burada (main package'da)?
// Hub ws paketinde yaşıyor, ama DB güncellemesi service/repo katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
// main package wire-up noktasıdır — tüm katmanları birbirine bağlar.
//
// Callback'ler Hub.Run() goroutine'inden ayrı goroutine'de çalışır
// (addClient/removeClient içinde `go callback()` ile çağrılır),
// böylece Hub'ın mutex Lock'u ile broadcast RLock'u çakışmaz.
package main

import (
	"context"
	"log"

	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/services"
	"github.com/gulfreturn/pulse/ws"
)

// registerHubCallbacks, tüm Hub callback'lerini register eder.
//
// Presence yayını global değildir — kullanıcının durumu yalnızca bağlı
// olduğu (accepted) kullanıcılara gönderilir. Bağlantı grafı aynı zamanda
// görünürlük sınırıdır.
func registerHubCallbacks(
	hub *ws.Hub,
	userRepo repository.UserRepository,
	connRepo repository.ConnectionRepository,
	chatService services.ChatService,
) {
	// broadcastPresence, durumu kullanıcının bağlantılarına yayar.
	broadcastPresence := func(userID, status string) {
		neighbors, err := connRepo.AcceptedNeighborIDs(context.Background(), userID)
		if err != nil {
			log.Printf("[presence] failed to load connections for user %s: %v", userID, err)
			return
		}
		hub.BroadcastToUsers(neighbors, ws.Event{
			Type: ws.EventUserStatusUpdate,
			Data: ws.UserStatusData{
				UserID: userID,
				Status: status,
			},
		})
	}

	hub.OnUserFirstConnect(func(userID string) {
		if err := userRepo.SetOnline(context.Background(), userID, true); err != nil {
			log.Printf("[presence] failed to set online for user %s: %v", userID, err)
			return
		}
		broadcastPresence(userID, "online")
		log.Printf("[presence] user %s is now online", userID)
	})

	hub.OnUserFullyDisconnected(func(userID string) {
		if err := userRepo.SetOnline(context.Background(), userID, false); err != nil {
			log.Printf("[presence] failed to set offline for user %s: %v", userID, err)
			return
		}
		broadcastPresence(userID, "offline")
		log.Printf("[presence] user %s is now offline", userID)
	})

	// Client mark_online / mark_away gönderdiğinde tetiklenir.
	// "away" DB'ye yazılmaz — kullanıcı hâlâ bağlıdır, sadece durum yayılır.
	hub.OnPresenceUpdate(func(userID, status string) {
		if status == "online" {
			if err := userRepo.SetOnline(context.Background(), userID, true); err != nil {
				log.Printf("[presence] failed to set online for user %s: %v", userID, err)
				return
			}
		}
		broadcastPresence(userID, status)
	})

	// Typing event'i sohbetin diğer katılımcılarına yayılır.
	// Katılımcılık kontrolü chatService içindedir.
	hub.OnTyping(func(userID, username, chatID string, isTyping bool) {
		chatService.BroadcastTyping(context.Background(), userID, username, chatID, isTyping)
	})
}
