// Package repository — ConnectionRepository interface.
//
// Bağlantı grafı soyutlaması. Bir kullanıcı çifti için tabloda en fazla
// bir satır bulunur — pair sorguları her iki yönü de kontrol eder.
package repository

import (
	"context"

	"github.com/gulfreturn/pulse/models"
)

// ConnectionRepository, bağlantı grafı veritabanı işlemleri için interface.
type ConnectionRepository interface {
	// Create, yeni bir bağlantı kaydı oluşturur.
	Create(ctx context.Context, conn *models.Connection) error

	// GetByID, ID ile bağlantı kaydı döner. Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Connection, error)

	// GetByPair, iki kullanıcı arasındaki kaydı döner (yön fark etmez).
	// Bulunamazsa pkg.ErrNotFound.
	GetByPair(ctx context.Context, userA, userB string) (*models.Connection, error)

	// UpdateStatus, kaydın durumunu günceller; accepted geçişinde
	// connected_at set edilir ve expires_at temizlenir.
	UpdateStatus(ctx context.Context, id, status string) error

	// Delete, kaydı ID ile siler.
	Delete(ctx context.Context, id string) error

	// DeleteByPair, iki kullanıcı arasındaki kaydı siler (yön fark etmez).
	DeleteByPair(ctx context.Context, userA, userB string) error

	// ListAccepted, kullanıcının bağlantılarını karşı taraf profiliyle döner.
	ListAccepted(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// ListIncoming, kullanıcıya gelen pending istekleri döner (süresi dolmamış).
	ListIncoming(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// ListOutgoing, kullanıcının gönderdiği pending istekleri döner (süresi dolmamış).
	ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// ListBlocked, kullanıcının engellediği kullanıcıları döner.
	ListBlocked(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// AreConnected, iki kullanıcının accepted bağlantısı var mı?
	AreConnected(ctx context.Context, userA, userB string) (bool, error)

	// AcceptedNeighborIDs, kullanıcının bağlı olduğu kullanıcı ID'lerini döner.
	// Presence yayını (online/offline fan-out) için kullanılır.
	AcceptedNeighborIDs(ctx context.Context, userID string) ([]string, error)

	// Suggestions, ikinci derece bağlantı önerilerini mutual sayısına göre
	// azalan sırada döner. Mevcut bağlantılar, pending/rejected/blocked
	// çiftler ve kullanıcının kendisi hariç tutulur.
	Suggestions(ctx context.Context, userID string, limit int) ([]models.ConnectionSuggestion, error)

	// MutualCount, iki kullanıcının ortak bağlantı sayısını döner.
	MutualCount(ctx context.Context, userA, userB string) (int, error)

	// MutualConnections, iki kullanıcının ortak bağlantılarının profillerini döner.
	MutualConnections(ctx context.Context, userA, userB string, limit int) ([]models.UserSummary, error)

	// Stats, kullanıcının bağlantı istatistiklerini döner.
	Stats(ctx context.Context, userID string) (*models.ConnectionStats, error)

	// DeleteExpiredPending, süresi dolmuş pending istekleri siler ve
	// silinen satır sayısını döner. Okuma yollarından lazy çağrılır.
	DeleteExpiredPending(ctx context.Context, userID string) (int64, error)
}
