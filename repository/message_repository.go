// Package repository — MessageRepository interface.
//
// Okuma kayıtları (message_reads) ve reaksiyonlar (message_reactions)
// mesajın parçası değildir, ayrı tablolarda tutulur ve liste sorgularında
// batch olarak yüklenir — N+1 sorgu yapılmaz.
package repository

import (
	"context"
	"time"

	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/models"
)

// MessageRepository, mesaj veritabanı işlemleri için interface.
type MessageRepository interface {
	// CreateTx, mesajı transaction içinde oluşturur.
	// Mesaj gönderimi çok adımlıdır (mesaj + gönderen okuma kaydı +
	// chat last_message) — adımlar service'te WithTx ile sarılır.
	CreateTx(ctx context.Context, q database.TxQuerier, m *models.Message) error

	// GetByID, ID ile mesaj döner (enrich edilmemiş). Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// List, sohbetin mesajlarını en yeniden eskiye doğru sayfalar.
	// Süresi geçmiş kaybolan mesajlar filtrelenir.
	List(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error)

	// InsertReadTx, tek mesaj için okuma kaydı ekler (INSERT OR IGNORE).
	// Gönderen kendi mesajını "okumuş" sayılır — gönderim transaction'ında çağrılır.
	InsertReadTx(ctx context.Context, q database.TxQuerier, messageID, userID string) error

	// MarkRead, sohbetteki başkalarına ait tüm mesajları okundu işaretler.
	// INSERT OR IGNORE — tekrar çağırmak idempotenttir, kayıt asla geri alınmaz.
	MarkRead(ctx context.Context, chatID, userID string) error

	// ReadsByMessageIDs, mesaj → okuyan kullanıcı ID'leri map'ini batch döner.
	ReadsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]string, error)

	// ReactionsByMessageIDs, mesaj → reaksiyon listesi map'ini batch döner.
	ReactionsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.Reaction, error)

	// UpsertReaction, kullanıcının mesaja reaksiyonunu yazar.
	// Mevcut reaksiyon varsa emoji değiştirilir (kullanıcı başına tek reaksiyon).
	UpsertReaction(ctx context.Context, messageID, userID, emoji string, at time.Time) error

	// DeleteReaction, kullanıcının reaksiyonunu kaldırır.
	// Silinen satır yoksa false döner.
	DeleteReaction(ctx context.Context, messageID, userID string) (bool, error)

	// Edit, mesaj içeriğini günceller ve önceki içeriği geçmişe yazar
	// (tek transaction).
	Edit(ctx context.Context, messageID, newContent, priorContent string) error

	// EditHistory, mesajın düzenleme geçmişini eskiden yeniye döner.
	EditHistory(ctx context.Context, messageID string) ([]models.MessageEdit, error)

	// Delete, mesajı siler (okuma kayıtları ve reaksiyonlar CASCADE ile gider).
	Delete(ctx context.Context, id string) error

	// Search, kullanıcının üyesi olduğu sohbetlerde içerik araması yapar.
	// chatID dolu ise arama o sohbetle sınırlanır.
	Search(ctx context.Context, userID, query, chatID string, limit int) ([]models.SearchResult, error)

	// UnreadCounts, sohbet → okunmamış mesaj sayısı map'ini döner.
	// Okunmamış = başkasının gönderdiği ve okuma kaydı olmayan mesaj.
	UnreadCounts(ctx context.Context, userID string, chatIDs []string) (map[string]int, error)
}
