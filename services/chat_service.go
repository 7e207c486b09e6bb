// Package services — ChatService: sohbet yaşam döngüsü ve erişim kuralları.
//
// Temel kural: direct sohbet sadece ACCEPTED bağlantısı olan çiftler
// arasında açılabilir ve bağlantı koptuğu anda mesajlaşmaya kapanır.
// Sohbet kaydı silinmez — geçmiş okunabilir kalır, yazma engellenir.
//
// Direct sohbet idempotent'tir: aynı çift için CreateChat ikinci kez
// çağrıldığında yeni kayıt açılmaz, mevcut sohbet döner.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/ws"
)

// ChatService, sohbet işlemleri için public interface.
type ChatService interface {
	// CreateChat, yeni sohbet oluşturur.
	// Direct: bağlantı şartı aranır, çift başına tek sohbet (idempotent).
	// Group: creator tüm katılımcılarla bağlantılı olmalıdır.
	CreateChat(ctx context.Context, creatorID string, req *models.CreateChatRequest) (*models.Chat, error)

	// ListChats, kullanıcının sohbetlerini katılımcı, okunmamış sayısı ve
	// erişilebilirlik bilgisiyle döner.
	ListChats(ctx context.Context, userID string) ([]models.ChatWithDetails, error)

	// GetChat, tek sohbeti detaylarıyla döner (katılımcı kontrolü yapılır).
	GetChat(ctx context.Context, userID, chatID string) (*models.ChatWithDetails, error)

	// UpdateSettings, sohbet ayarlarını günceller (katılımcı yetkisi gerekir).
	UpdateSettings(ctx context.Context, userID, chatID string, req *models.UpdateChatSettingsRequest) error

	// SetMuted, kullanıcının sohbeti sessize alma tercihini günceller.
	SetMuted(ctx context.Context, userID, chatID string, muted bool) error

	// LeaveChat, kullanıcıyı group sohbetten çıkarır.
	// Direct sohbetten çıkılmaz — DeleteChat kullanılır.
	LeaveChat(ctx context.Context, userID, chatID string) error

	// DeleteChat, sohbeti deaktive eder (soft delete).
	// Direct: her iki katılımcı da silebilir. Group: sadece creator.
	DeleteChat(ctx context.Context, userID, chatID string) error

	// CanMessage, iki kullanıcının mesajlaşıp mesajlaşamayacağını döner.
	CanMessage(ctx context.Context, userID, otherID string) (*models.CanMessageResult, error)

	// VerifyAccess, kullanıcının sohbete erişim hakkını kontrol eder.
	// MessageService'in hem gönderim hem okuma yolunda kullanılır.
	VerifyAccess(ctx context.Context, userID, chatID string) (*models.Chat, error)

	// BroadcastTyping, typing durumunu sohbetin diğer katılımcılarına yayar.
	// WS callback'inden çağrılır — katılımcı olmayan kullanıcının frame'i düşer.
	BroadcastTyping(ctx context.Context, userID, username, chatID string, isTyping bool)
}

// chatService, ChatService'in private implementasyonu.
type chatService struct {
	chatRepo repository.ChatRepository
	msgRepo  repository.MessageRepository
	connRepo repository.ConnectionRepository
	userRepo repository.UserRepository
	hub      ws.Broadcaster
}

// NewChatService, constructor.
func NewChatService(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	connRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	hub ws.Broadcaster,
) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		msgRepo:  msgRepo,
		connRepo: connRepo,
		userRepo: userRepo,
		hub:      hub,
	}
}

// CreateChat, yeni sohbet oluşturur.
func (s *chatService) CreateChat(ctx context.Context, creatorID string, req *models.CreateChatRequest) (*models.Chat, error) {
	// 1. Validasyon
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Katılımcılar var mı + creator hepsiyle bağlantılı mı?
	for _, pid := range req.ParticipantIDs {
		if pid == creatorID {
			return nil, fmt.Errorf("%w: cannot add yourself as participant", pkg.ErrBadRequest)
		}
		if _, err := s.userRepo.GetByID(ctx, pid); err != nil {
			return nil, err
		}
		connected, err := s.connRepo.AreConnected(ctx, creatorID, pid)
		if err != nil {
			return nil, err
		}
		if !connected {
			return nil, fmt.Errorf("%w: connection required", pkg.ErrForbidden)
		}
	}

	// 3. Direct sohbette idempotency: mevcut sohbet varsa onu dön
	var directKey string
	if req.Type == models.ChatTypeDirect {
		directKey = models.DirectKeyFor(creatorID, req.ParticipantIDs[0])
		existing, err := s.chatRepo.GetByDirectKey(ctx, directKey)
		if err == nil {
			// Deaktive edilmişse yeniden aç
			if !existing.IsActive {
				if err := s.chatRepo.SetActive(ctx, existing.ID, true); err != nil {
					return nil, err
				}
				existing.IsActive = true
			}
			return existing, nil
		}
		if !errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
	}

	// 4. Sohbeti oluştur
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:                   uuid.NewString(),
		Type:                 req.Type,
		Name:                 req.Name,
		CreatorID:            creatorID,
		DirectKey:            directKey,
		IsActive:             true,
		EncryptionEnabled:    req.EncryptionEnabled,
		DisappearingMessages: req.DisappearingMessages,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	participants := append([]string{creatorID}, req.ParticipantIDs...)
	if err := s.chatRepo.Create(ctx, chat, participants); err != nil {
		return nil, err
	}

	return chat, nil
}

// ListChats, kullanıcının sohbetlerini detaylarıyla döner.
// Katılımcılar, okunmamış sayıları ve profiller batch sorgularla yüklenir.
func (s *chatService) ListChats(ctx context.Context, userID string) ([]models.ChatWithDetails, error) {
	chats, err := s.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	chatIDs := make([]string, len(chats))
	for i, c := range chats {
		chatIDs[i] = c.ID
	}

	participants, err := s.chatRepo.ParticipantsForChats(ctx, chatIDs)
	if err != nil {
		return nil, err
	}
	unread, err := s.msgRepo.UnreadCounts(ctx, userID, chatIDs)
	if err != nil {
		return nil, err
	}

	// Tüm karşı tarafların profilleri tek sorguda
	userIDSet := map[string]bool{}
	for _, plist := range participants {
		for _, p := range plist {
			userIDSet[p.UserID] = true
		}
	}
	allIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		allIDs = append(allIDs, id)
	}
	profiles, err := s.userRepo.GetByIDs(ctx, allIDs)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatWithDetails, 0, len(chats))
	for _, c := range chats {
		detail := models.ChatWithDetails{
			Chat:         c,
			UnreadCount:  unread[c.ID],
			IsAccessible: true,
		}

		for _, p := range participants[c.ID] {
			if p.UserID == userID {
				detail.IsMuted = p.IsMuted
				continue
			}
			if profile, ok := profiles[p.UserID]; ok {
				detail.Participants = append(detail.Participants, profile)
			}

			// Direct sohbette erişilebilirlik = bağlantı hâlâ geçerli mi
			if c.Type == models.ChatTypeDirect {
				connected, cErr := s.connRepo.AreConnected(ctx, userID, p.UserID)
				if cErr != nil {
					return nil, cErr
				}
				detail.IsAccessible = connected
			}
		}

		result = append(result, detail)
	}

	return result, nil
}

// GetChat, tek sohbeti detaylarıyla döner.
func (s *chatService) GetChat(ctx context.Context, userID, chatID string) (*models.ChatWithDetails, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	isParticipant, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		// Üye olmayan kullanıcıya sohbetin varlığı sızdırılmaz
		return nil, fmt.Errorf("%w: chat %s", pkg.ErrNotFound, chatID)
	}

	participants, err := s.chatRepo.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	profiles, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	unread, err := s.msgRepo.UnreadCounts(ctx, userID, []string{chatID})
	if err != nil {
		return nil, err
	}

	detail := &models.ChatWithDetails{
		Chat:         *chat,
		UnreadCount:  unread[chatID],
		IsAccessible: true,
	}
	for _, p := range participants {
		if p.UserID == userID {
			detail.IsMuted = p.IsMuted
			continue
		}
		if profile, ok := profiles[p.UserID]; ok {
			detail.Participants = append(detail.Participants, profile)
		}
		if chat.Type == models.ChatTypeDirect {
			connected, cErr := s.connRepo.AreConnected(ctx, userID, p.UserID)
			if cErr != nil {
				return nil, cErr
			}
			detail.IsAccessible = connected
		}
	}

	return detail, nil
}

// UpdateSettings, sohbet ayarlarını günceller.
func (s *chatService) UpdateSettings(ctx context.Context, userID, chatID string, req *models.UpdateChatSettingsRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	chat, err := s.requireParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}

	// Direct sohbetin adı değiştirilmez
	if chat.Type == models.ChatTypeDirect && req.Name != nil {
		return fmt.Errorf("%w: direct chats cannot be renamed", pkg.ErrBadRequest)
	}

	return s.chatRepo.UpdateSettings(ctx, chatID, req)
}

// SetMuted, kullanıcının sohbeti sessize alma tercihini günceller.
func (s *chatService) SetMuted(ctx context.Context, userID, chatID string, muted bool) error {
	if _, err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return err
	}
	return s.chatRepo.SetMuted(ctx, chatID, userID, muted)
}

// LeaveChat, kullanıcıyı group sohbetten çıkarır.
func (s *chatService) LeaveChat(ctx context.Context, userID, chatID string) error {
	chat, err := s.requireParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if chat.Type != models.ChatTypeGroup {
		return fmt.Errorf("%w: cannot leave a direct chat", pkg.ErrBadRequest)
	}
	return s.chatRepo.RemoveParticipant(ctx, chatID, userID)
}

// DeleteChat, sohbeti deaktive eder.
func (s *chatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	chat, err := s.requireParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if chat.Type == models.ChatTypeGroup && chat.CreatorID != userID {
		return fmt.Errorf("%w: only the creator can delete a group chat", pkg.ErrForbidden)
	}

	return s.chatRepo.SetActive(ctx, chatID, false)
}

// CanMessage, iki kullanıcının mesajlaşıp mesajlaşamayacağını döner.
// Reason stable bir string'dir — istemci branch edebilir.
func (s *chatService) CanMessage(ctx context.Context, userID, otherID string) (*models.CanMessageResult, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	connected, err := s.connRepo.AreConnected(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}

	if connected {
		return &models.CanMessageResult{CanMessage: true, Reason: "users are connected"}, nil
	}
	return &models.CanMessageResult{CanMessage: false, Reason: "connection required"}, nil
}

// VerifyAccess, kullanıcının sohbete erişim hakkını kontrol eder.
// Gönderim ve okuma aynı kapıdan geçer.
//
// Sıra önemli:
// 1. Sohbet var ve aktif mi?
// 2. Kullanıcı katılımcı mı? (değilse NotFound — varlık sızdırılmaz)
// 3. Direct sohbette bağlantı hâlâ geçerli mi? (değilse Forbidden
//    "connection required" — bağlantı kopunca erişim anında kapanır)
func (s *chatService) VerifyAccess(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chat, err := s.requireParticipant(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsActive {
		return nil, fmt.Errorf("%w: chat %s", pkg.ErrNotFound, chatID)
	}

	if chat.Type == models.ChatTypeDirect {
		participants, err := s.chatRepo.Participants(ctx, chatID)
		if err != nil {
			return nil, err
		}
		for _, p := range participants {
			if p.UserID == userID {
				continue
			}
			connected, err := s.connRepo.AreConnected(ctx, userID, p.UserID)
			if err != nil {
				return nil, err
			}
			if !connected {
				return nil, fmt.Errorf("%w: connection required", pkg.ErrForbidden)
			}
		}
	}

	return chat, nil
}

// BroadcastTyping, typing durumunu sohbetin diğer katılımcılarına yayar.
func (s *chatService) BroadcastTyping(ctx context.Context, userID, username, chatID string, isTyping bool) {
	isParticipant, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil || !isParticipant {
		return
	}

	participants, err := s.chatRepo.Participants(ctx, chatID)
	if err != nil {
		return
	}

	recipients := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserID != userID {
			recipients = append(recipients, p.UserID)
		}
	}

	s.hub.BroadcastToUsers(recipients, ws.Event{
		Type: ws.EventTypingStatus,
		Data: ws.TypingStatusData{
			ChatID:   chatID,
			UserID:   userID,
			Username: username,
			IsTyping: isTyping,
		},
	})
}

// requireParticipant, sohbeti yükler ve kullanıcının üyeliğini doğrular.
// Üye değilse NotFound döner — sohbetin varlığı sızdırılmaz.
func (s *chatService) requireParticipant(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	isParticipant, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: chat %s", pkg.ErrNotFound, chatID)
	}

	return chat, nil
}
