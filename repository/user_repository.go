// Package repository — UserRepository interface.
//
// Kullanıcı profilleri bu serviste OLUŞTURULMAZ — kimlik servisi yazar.
// Burada profil okuma ve presence güncellemeleri yapılır.
// Create sadece test fixture'ları ve kimlik servisi sync'i için vardır.
package repository

import (
	"context"

	"github.com/gulfreturn/pulse/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	// Create, yeni bir kullanıcı kaydı oluşturur.
	Create(ctx context.Context, user *models.User) error

	// GetByID, ID ile kullanıcı döner. Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDs, ID listesi ile kullanıcıları batch döner.
	// Bulunamayan ID'ler sessizce atlanır — map'te yer almaz.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.UserSummary, error)

	// SetOnline, kullanıcının online durumunu günceller.
	// Online → false geçişinde last_seen de güncellenir.
	SetOnline(ctx context.Context, userID string, online bool) error
}
