// Package services — NotificationService: kalıcı bildirimler.
//
// WebSocket frame'i anlıktır, bağlı olmayan kullanıcıya ulaşmaz.
// Notify bu yüzden bildirimi DB'ye de yazar — kullanıcı sonradan
// /api/notifications ile çeker.
//
// Notify best-effort'tur: bildirim yazılamazsa loglanır, asıl operasyon
// (bağlantı isteği, mesaj) başarısız SAYILMAZ.
package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/repository"
)

// NotificationService, bildirim işlemleri için public interface.
type NotificationService interface {
	// Notify, kullanıcıya kalıcı bildirim yazar (best-effort, hata dönmez).
	Notify(ctx context.Context, userID, notifType, actorID, title, body, dataJSON string)

	// List, kullanıcının bildirimlerini sayfalı döner.
	List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)

	// UnreadCount, okunmamış bildirim sayısını döner.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead, tek bildirimi okundu işaretler.
	MarkRead(ctx context.Context, userID, notificationID string) error

	// MarkAllRead, kullanıcının tüm bildirimlerini okundu işaretler.
	MarkAllRead(ctx context.Context, userID string) error
}

// notificationService, NotificationService'in private implementasyonu.
type notificationService struct {
	notifRepo repository.NotificationRepository
}

// NewNotificationService, constructor.
func NewNotificationService(notifRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notifRepo: notifRepo}
}

// Notify, kullanıcıya kalıcı bildirim yazar.
func (s *notificationService) Notify(ctx context.Context, userID, notifType, actorID, title, body, dataJSON string) {
	if dataJSON == "" {
		dataJSON = "{}"
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      notifType,
		ActorID:   actorID,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.notifRepo.Create(ctx, n); err != nil {
		log.Printf("[notification] failed to persist %s for user %s: %v", notifType, userID, err)
	}
}

// List, kullanıcının bildirimlerini sayfalı döner.
func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notifRepo.ListForUser(ctx, userID, limit, offset)
}

// UnreadCount, okunmamış bildirim sayısını döner.
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifRepo.UnreadCount(ctx, userID)
}

// MarkRead, tek bildirimi okundu işaretler.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notifRepo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead, kullanıcının tüm bildirimlerini okundu işaretler.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}
