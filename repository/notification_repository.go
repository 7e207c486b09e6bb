// Package repository — NotificationRepository interface.
package repository

import (
	"context"

	"github.com/gulfreturn/pulse/models"
)

// NotificationRepository, kalıcı bildirim kayıtları için interface.
type NotificationRepository interface {
	// Create, yeni bir bildirim kaydı oluşturur.
	Create(ctx context.Context, n *models.Notification) error

	// ListForUser, kullanıcının bildirimlerini yeniden eskiye döner.
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)

	// UnreadCount, okunmamış bildirim sayısını döner.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead, tek bildirimi okundu işaretler (sahiplik kontrolü dahil).
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead, kullanıcının tüm bildirimlerini okundu işaretler.
	MarkAllRead(ctx context.Context, userID string) error
}
