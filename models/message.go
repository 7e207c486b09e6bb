package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gulfreturn/pulse/pkg"
)

// Mesaj tipleri.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeVoice    = "voice"
	MessageTypeFile     = "file"
	MessageTypeLocation = "location"
)

// MessageEditWindow, gönderen mesajını bu süre içinde düzenleyebilir.
const MessageEditWindow = 15 * time.Minute

// DisappearingMessageTTL, kaybolan mesaj modunda mesajın yaşam süresi.
// Süresi geçen mesajlar okuma yolunda filtrelenir (lazy silme).
const DisappearingMessageTTL = 24 * time.Hour

// MaxMessageLength, mesaj içeriği karakter sınırı.
const MaxMessageLength = 4000

// Message, bir sohbet mesajı.
type Message struct {
	ID             string     `json:"id"`
	ChatID         string     `json:"chat_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	MediaURL       string     `json:"media_url,omitempty"`
	ReplyToID      string     `json:"reply_to_id,omitempty"`
	DeliveryStatus string     `json:"delivery_status"`
	IsEdited       bool       `json:"is_edited"`
	DisappearsAt   *time.Time `json:"disappears_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Enrich edilen alanlar — messages tablosunda durmaz,
	// liste sorgularında batch join ile doldurulur.
	Sender    *UserSummary `json:"sender,omitempty"`
	ReadBy    []string     `json:"read_by"`
	Reactions []Reaction   `json:"reactions"`
}

// Reaction, bir mesaja verilen emoji reaksiyonu.
// Kullanıcı başına mesaj başına tek reaksiyon tutulur —
// yeni emoji eskisinin yerine geçer.
type Reaction struct {
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagePage, sayfalanmış mesaj listesi.
// Mesajlar kronolojik (eski → yeni) sıradadır; HasMore true ise istemci
// bir sonraki sayfayı offset ile ister.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// SendMessageRequest, mesaj gönderme isteği.
type SendMessageRequest struct {
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// Validate, mesaj içeriğini kontrol eder.
func (r *SendMessageRequest) Validate() error {
	if r.Type == "" {
		r.Type = MessageTypeText
	}
	switch r.Type {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeVoice,
		MessageTypeFile, MessageTypeLocation:
	default:
		return fmt.Errorf("%w: invalid message type", pkg.ErrBadRequest)
	}
	// text içerik taşır, location koordinatları content'te taşır;
	// kalan tipler bir media URL'si gerektirir.
	switch r.Type {
	case MessageTypeText, MessageTypeLocation:
		if strings.TrimSpace(r.Content) == "" {
			return fmt.Errorf("%w: message content is required", pkg.ErrBadRequest)
		}
	default:
		if r.MediaURL == "" {
			return fmt.Errorf("%w: media_url is required for media messages", pkg.ErrBadRequest)
		}
	}
	if len(r.Content) > MaxMessageLength {
		return fmt.Errorf("%w: message too long (max %d characters)", pkg.ErrBadRequest, MaxMessageLength)
	}
	return nil
}

// EditMessageRequest, mesaj düzenleme isteği.
type EditMessageRequest struct {
	Content string `json:"content"`
}

// Validate, yeni içeriği kontrol eder.
func (r *EditMessageRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: message content is required", pkg.ErrBadRequest)
	}
	if len(r.Content) > MaxMessageLength {
		return fmt.Errorf("%w: message too long (max %d characters)", pkg.ErrBadRequest, MaxMessageLength)
	}
	return nil
}

// ReactionRequest, reaksiyon ekleme isteği.
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// Validate, emoji alanını kontrol eder.
func (r *ReactionRequest) Validate() error {
	if r.Emoji == "" {
		return fmt.Errorf("%w: emoji is required", pkg.ErrBadRequest)
	}
	if len(r.Emoji) > 16 {
		return fmt.Errorf("%w: invalid emoji", pkg.ErrBadRequest)
	}
	return nil
}

// MessageEdit, düzenleme geçmişi kaydı — düzenleme ÖNCESİ içerik.
type MessageEdit struct {
	MessageID    string    `json:"message_id"`
	PriorContent string    `json:"prior_content"`
	EditedAt     time.Time `json:"edited_at"`
}

// SearchResult, katılımcı-kapsamlı mesaj araması sonucu.
type SearchResult struct {
	Message Message `json:"message"`
	ChatID  string  `json:"chat_id"`
}
