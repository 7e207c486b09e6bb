package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gulfreturn/pulse/pkg"
)

// Sohbet tipleri.
const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

// Chat, bir sohbet odası.
//
// Direct sohbetler idempotent'tir: aynı çift için ikinci kez oluşturma
// mevcut sohbeti döner (DirectKey unique index'i bunu garanti eder).
// last_message_* alanları denormalize'dir — sohbet listesi tek sorguda döner.
type Chat struct {
	ID                   string     `json:"id"`
	Type                 string     `json:"type"`
	Name                 string     `json:"name,omitempty"`
	CreatorID            string     `json:"creator_id"`
	DirectKey            string     `json:"-"`
	IsActive             bool       `json:"is_active"`
	EncryptionEnabled    bool       `json:"encryption_enabled"`
	DisappearingMessages bool       `json:"disappearing_messages"`
	LastMessageContent   string     `json:"last_message_content,omitempty"`
	LastMessageSenderID  string     `json:"last_message_sender_id,omitempty"`
	LastMessageType      string     `json:"last_message_type,omitempty"`
	LastMessageAt        *time.Time `json:"last_message_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DirectKeyFor, bir kullanıcı çiftinin kanonik direct sohbet anahtarını üretir.
// ID'ler sıralanır — (A,B) ve (B,A) aynı anahtarı verir.
func DirectKeyFor(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// ChatParticipant, sohbet üyeliği.
type ChatParticipant struct {
	ChatID   string    `json:"chat_id"`
	UserID   string    `json:"user_id"`
	IsMuted  bool      `json:"is_muted"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatWithDetails, sohbet listesi için zenginleştirilmiş sohbet.
//
// IsAccessible: direct sohbette bağlantı hâlâ geçerli mi? Bağlantı
// kopmuşsa sohbet listede görünür ama mesaj gönderilemez — istemci
// bunu soluk gösterir.
type ChatWithDetails struct {
	Chat
	Participants []UserSummary `json:"participants"`
	UnreadCount  int           `json:"unread_count"`
	IsMuted      bool          `json:"is_muted"`
	IsAccessible bool          `json:"is_accessible"`
}

// CreateChatRequest, sohbet oluşturma isteği.
// Direct sohbette ParticipantIDs tek kişidir (karşı taraf);
// group sohbette en az iki kişi ve Name zorunludur.
type CreateChatRequest struct {
	Type                 string   `json:"type"`
	Name                 string   `json:"name,omitempty"`
	ParticipantIDs       []string `json:"participant_ids"`
	EncryptionEnabled    bool     `json:"encryption_enabled,omitempty"`
	DisappearingMessages bool     `json:"disappearing_messages,omitempty"`
}

// Validate, sohbet oluşturma isteğini kontrol eder.
func (r *CreateChatRequest) Validate() error {
	if r.Type == "" {
		r.Type = ChatTypeDirect
	}
	switch r.Type {
	case ChatTypeDirect:
		if len(r.ParticipantIDs) != 1 {
			return fmt.Errorf("%w: direct chat requires exactly one participant", pkg.ErrBadRequest)
		}
	case ChatTypeGroup:
		if len(r.ParticipantIDs) < 2 {
			return fmt.Errorf("%w: group chat requires at least two participants", pkg.ErrBadRequest)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%w: group chat requires a name", pkg.ErrBadRequest)
		}
	default:
		return fmt.Errorf("%w: invalid chat type", pkg.ErrBadRequest)
	}
	return nil
}

// UpdateChatSettingsRequest, sohbet ayarlarını günceller.
// Pointer alanlar "gönderilmedi" ile "false gönderildi"yi ayırt eder.
type UpdateChatSettingsRequest struct {
	Name                 *string `json:"name,omitempty"`
	EncryptionEnabled    *bool   `json:"encryption_enabled,omitempty"`
	DisappearingMessages *bool   `json:"disappearing_messages,omitempty"`
}

// Validate, ayar güncellemesinde en az bir alan olmasını ister.
func (r *UpdateChatSettingsRequest) Validate() error {
	if r.Name == nil && r.EncryptionEnabled == nil && r.DisappearingMessages == nil {
		return fmt.Errorf("%w: no settings to update", pkg.ErrBadRequest)
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", pkg.ErrBadRequest)
	}
	return nil
}

// CanMessageResult, iki kullanıcının mesajlaşıp mesajlaşamayacağı.
// Reason stable bir makine string'idir: "users are connected" |
// "connection required".
type CanMessageResult struct {
	CanMessage bool   `json:"can_message"`
	Reason     string `json:"reason"`
}
