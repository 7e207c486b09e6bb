// Package repository — ChatRepository interface.
package repository

import (
	"context"
	"time"

	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/models"
)

// ChatRepository, sohbet ve katılımcı veritabanı işlemleri için interface.
type ChatRepository interface {
	// Create, sohbeti ve katılımcılarını tek transaction'da oluşturur.
	Create(ctx context.Context, chat *models.Chat, participantIDs []string) error

	// GetByID, ID ile sohbet döner. Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Chat, error)

	// GetByDirectKey, kanonik çift anahtarı ile direct sohbeti döner.
	// Bulunamazsa pkg.ErrNotFound.
	GetByDirectKey(ctx context.Context, key string) (*models.Chat, error)

	// ListForUser, kullanıcının üyesi olduğu aktif sohbetleri
	// son mesaj zamanına göre azalan sırada döner.
	ListForUser(ctx context.Context, userID string) ([]models.Chat, error)

	// Participants, sohbetin katılımcılarını döner.
	Participants(ctx context.Context, chatID string) ([]models.ChatParticipant, error)

	// ParticipantsForChats, birden fazla sohbetin katılımcılarını batch döner.
	ParticipantsForChats(ctx context.Context, chatIDs []string) (map[string][]models.ChatParticipant, error)

	// IsParticipant, kullanıcının sohbet üyesi olup olmadığını döner.
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)

	// AddParticipant, sohbete katılımcı ekler.
	AddParticipant(ctx context.Context, chatID, userID string) error

	// RemoveParticipant, katılımcıyı sohbetten çıkarır.
	RemoveParticipant(ctx context.Context, chatID, userID string) error

	// SetMuted, kullanıcının sohbeti sessize alma durumunu günceller.
	SetMuted(ctx context.Context, chatID, userID string, muted bool) error

	// UpdateSettings, sohbet ayarlarını günceller (nil alanlar dokunulmaz).
	UpdateSettings(ctx context.Context, chatID string, req *models.UpdateChatSettingsRequest) error

	// SetActive, sohbetin aktiflik durumunu günceller (soft delete).
	SetActive(ctx context.Context, chatID string, active bool) error

	// SetLastMessageTx, sohbetin denormalize son-mesaj alanlarını günceller.
	// Mesaj gönderme transaction'ının parçası olarak çağrılır.
	SetLastMessageTx(ctx context.Context, q database.TxQuerier, chatID, content, senderID, msgType string, at time.Time) error
}
