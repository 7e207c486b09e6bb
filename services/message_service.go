// Package services — MessageService: mesaj CRUD, okuma kayıtları, reaksiyonlar.
//
// Business logic:
// - Gönderim ve okuma aynı erişim kapısından geçer
//   (ChatService.VerifyAccess): katılımcılık + direct sohbette bağlantının
//   hâlâ geçerli olması. Bağlantı kopunca her iki yol da anında kapanır.
// - Gönderim: mesaj + gönderenin okuma kaydı + chat last_message tek
//   transaction'dır.
// - Okuma: GetMessages çağrısı sohbeti önce okundu işaretler — dönen
//   sayfadaki read_by listeleri çağıranın okumasını içerir. Okundu bilgisi
//   monoton büyür, asla geri alınmaz.
// - Düzenleme: sadece gönderen, 15 dakika içinde. Önceki içerik geçmişe yazılır.
// - Reaksiyon: kullanıcı başına mesaj başına tek emoji (replace semantiği).
//
// WS broadcast: new_message ve message_reaction sohbetin DİĞER
// katılımcılarına gönderilir — gönderen kendi event'ini almaz.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/ws"
)

// MessageService, mesaj işlemleri için public interface.
type MessageService interface {
	// SendMessage, sohbete mesaj gönderir.
	SendMessage(ctx context.Context, userID, chatID string, req *models.SendMessageRequest) (*models.Message, error)

	// GetMessages, sohbet geçmişini kronolojik sırada sayfalı döner.
	// Çağrı aynı zamanda sohbeti okundu işaretler.
	GetMessages(ctx context.Context, userID, chatID string, limit, offset int) (*models.MessagePage, error)

	// EditMessage, gönderenin mesajını düzenler (15 dakikalık pencere).
	EditMessage(ctx context.Context, userID, messageID string, req *models.EditMessageRequest) (*models.Message, error)

	// DeleteMessage, gönderenin mesajını siler.
	DeleteMessage(ctx context.Context, userID, messageID string) error

	// React, mesaja reaksiyon ekler veya mevcut reaksiyonu değiştirir.
	React(ctx context.Context, userID, messageID string, req *models.ReactionRequest) error

	// RemoveReaction, kullanıcının reaksiyonunu kaldırır.
	RemoveReaction(ctx context.Context, userID, messageID string) error

	// MarkRead, sohbetteki tüm mesajları okundu işaretler.
	MarkRead(ctx context.Context, userID, chatID string) error

	// EditHistory, mesajın düzenleme geçmişini döner (katılımcılara açık).
	EditHistory(ctx context.Context, userID, messageID string) ([]models.MessageEdit, error)

	// Search, kullanıcının sohbetlerinde içerik araması yapar.
	// chatID dolu ise arama o sohbetle sınırlanır.
	Search(ctx context.Context, userID, query, chatID string, limit int) ([]models.SearchResult, error)
}

// messageService, MessageService'in private implementasyonu.
type messageService struct {
	db          *database.DB
	msgRepo     repository.MessageRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	chatService ChatService
	notifier    NotificationService
	hub         ws.Broadcaster
}

// NewMessageService, constructor.
func NewMessageService(
	db *database.DB,
	msgRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	chatService ChatService,
	notifier NotificationService,
	hub ws.Broadcaster,
) MessageService {
	return &messageService{
		db:          db,
		msgRepo:     msgRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		chatService: chatService,
		notifier:    notifier,
		hub:         hub,
	}
}

// SendMessage, sohbete mesaj gönderir.
func (s *messageService) SendMessage(ctx context.Context, userID, chatID string, req *models.SendMessageRequest) (*models.Message, error) {
	// 1. Validasyon
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Erişim kontrolü (katılımcılık + bağlantı şartı)
	chat, err := s.chatService.VerifyAccess(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	// 3. Reply hedefi aynı sohbette mi?
	if req.ReplyToID != "" {
		replyTo, err := s.msgRepo.GetByID(ctx, req.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("%w: reply target not found", pkg.ErrBadRequest)
		}
		if replyTo.ChatID != chatID {
			return nil, fmt.Errorf("%w: reply target belongs to another chat", pkg.ErrBadRequest)
		}
	}

	// 4. Mesajı kur
	now := time.Now().UTC()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		SenderID:       userID,
		Content:        req.Content,
		Type:           req.Type,
		MediaURL:       req.MediaURL,
		ReplyToID:      req.ReplyToID,
		DeliveryStatus: "sent",
		CreatedAt:      now,
	}
	if chat.DisappearingMessages {
		expires := now.Add(models.DisappearingMessageTTL)
		msg.DisappearsAt = &expires
	}

	// 5. Atomik yazma: mesaj + gönderen okuma kaydı + chat last_message
	if err := s.persistMessage(ctx, msg); err != nil {
		return nil, err
	}

	// 6. Enrich: gönderen profili + kendi okuması
	sender, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		summary := sender.Summary()
		msg.Sender = &summary
	}
	msg.ReadBy = []string{userID}
	msg.Reactions = []models.Reaction{}

	// 7. Diğer katılımcılara WS event + bildirim (sessize alanlar hariç)
	participants, pErr := s.chatRepo.Participants(ctx, chatID)
	if pErr == nil {
		recipients := make([]string, 0, len(participants))
		for _, p := range participants {
			if p.UserID == userID {
				continue
			}
			recipients = append(recipients, p.UserID)

			if !p.IsMuted && sender != nil {
				s.notifier.Notify(ctx, p.UserID, models.NotificationNewMessage, userID,
					"New message from "+sender.Username, "", `{"chat_id":"`+chatID+`"}`)
			}
		}
		s.hub.BroadcastToUsers(recipients, ws.Event{Type: ws.EventNewMessage, Data: msg})
	}

	return msg, nil
}

// persistMessage, mesaj gönderiminin üç yazmasını tek transaction'da yapar.
func (s *messageService) persistMessage(ctx context.Context, msg *models.Message) error {
	return database.WithTx(ctx, s.db.Conn, func(tx *sql.Tx) error {
		if err := s.msgRepo.CreateTx(ctx, tx, msg); err != nil {
			return err
		}
		// Gönderen kendi mesajını okumuş sayılır
		if err := s.msgRepo.InsertReadTx(ctx, tx, msg.ID, msg.SenderID); err != nil {
			return err
		}
		return s.chatRepo.SetLastMessageTx(ctx, tx, msg.ChatID, msg.Content, msg.SenderID, msg.Type, msg.CreatedAt)
	})
}

// GetMessages, sohbet geçmişini kronolojik sırada sayfalı döner.
func (s *messageService) GetMessages(ctx context.Context, userID, chatID string, limit, offset int) (*models.MessagePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	// 1. Erişim kontrolü — gönderimle aynı kapı: katılımcılık, aktiflik
	// ve direct sohbette bağlantının hâlâ geçerli olması
	if _, err := s.chatService.VerifyAccess(ctx, userID, chatID); err != nil {
		return nil, err
	}

	// 2. Önce okundu işaretle — dönen sayfadaki read_by listeleri
	// çağıranın okumasını içersin
	if err := s.msgRepo.MarkRead(ctx, chatID, userID); err != nil {
		return nil, err
	}

	// 3. Sayfayı çek (DESC) — HasMore için bir fazla iste
	messages, err := s.msgRepo.List(ctx, chatID, limit+1, offset)
	if err != nil {
		return nil, err
	}

	hasMore := false
	if len(messages) > limit {
		hasMore = true
		messages = messages[:limit]
	}

	// 4. DESC → ASC çevir (istemci kronolojik bekler)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	// 5. Batch enrich: profiller, okumalar, reaksiyonlar
	if err := s.enrichMessages(ctx, messages); err != nil {
		return nil, err
	}

	return &models.MessagePage{Messages: messages, HasMore: hasMore}, nil
}

// enrichMessages, mesaj listesine gönderen profili, read_by ve
// reaksiyonları batch sorgularla ekler.
func (s *messageService) enrichMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]string, len(messages))
	senderSet := map[string]bool{}
	for i, m := range messages {
		ids[i] = m.ID
		senderSet[m.SenderID] = true
	}

	reads, err := s.msgRepo.ReadsByMessageIDs(ctx, ids)
	if err != nil {
		return err
	}
	reactions, err := s.msgRepo.ReactionsByMessageIDs(ctx, ids)
	if err != nil {
		return err
	}

	senderIDs := make([]string, 0, len(senderSet))
	for id := range senderSet {
		senderIDs = append(senderIDs, id)
	}
	profiles, err := s.userRepo.GetByIDs(ctx, senderIDs)
	if err != nil {
		return err
	}

	for i := range messages {
		m := &messages[i]
		m.ReadBy = reads[m.ID]
		if m.ReadBy == nil {
			m.ReadBy = []string{}
		}
		m.Reactions = reactions[m.ID]
		if m.Reactions == nil {
			m.Reactions = []models.Reaction{}
		}
		if profile, ok := profiles[m.SenderID]; ok {
			p := profile
			m.Sender = &p
		}
	}
	return nil
}

// EditMessage, gönderenin mesajını düzenler.
func (s *messageService) EditMessage(ctx context.Context, userID, messageID string, req *models.EditMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	// Sadece gönderen düzenleyebilir
	if msg.SenderID != userID {
		return nil, fmt.Errorf("%w: only the sender can edit a message", pkg.ErrForbidden)
	}

	// 15 dakikalık pencere
	if time.Since(msg.CreatedAt) > models.MessageEditWindow {
		return nil, fmt.Errorf("%w: edit window expired", pkg.ErrForbidden)
	}

	if err := s.msgRepo.Edit(ctx, messageID, req.Content, msg.Content); err != nil {
		return nil, err
	}

	updated, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.enrichOne(ctx, updated); err != nil {
		return nil, err
	}

	s.broadcastToOthers(ctx, msg.ChatID, userID, ws.Event{Type: ws.EventMessageEdited, Data: updated})
	return updated, nil
}

// DeleteMessage, gönderenin mesajını siler.
func (s *messageService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != userID {
		return fmt.Errorf("%w: only the sender can delete a message", pkg.ErrForbidden)
	}

	return s.msgRepo.Delete(ctx, messageID)
}

// React, mesaja reaksiyon ekler veya mevcut reaksiyonu değiştirir.
func (s *messageService) React(ctx context.Context, userID, messageID string, req *models.ReactionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	msg, err := s.requireReadable(ctx, userID, messageID)
	if err != nil {
		return err
	}

	if err := s.msgRepo.UpsertReaction(ctx, messageID, userID, req.Emoji, time.Now().UTC()); err != nil {
		return err
	}

	s.broadcastReaction(ctx, msg, userID, req.Emoji, "added")
	return nil
}

// RemoveReaction, kullanıcının reaksiyonunu kaldırır.
func (s *messageService) RemoveReaction(ctx context.Context, userID, messageID string) error {
	msg, err := s.requireReadable(ctx, userID, messageID)
	if err != nil {
		return err
	}

	removed, err := s.msgRepo.DeleteReaction(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: no reaction to remove", pkg.ErrNotFound)
	}

	s.broadcastReaction(ctx, msg, userID, "", "removed")
	return nil
}

// MarkRead, sohbetteki tüm mesajları okundu işaretler.
// GetMessages ile aynı erişim kapısından geçer.
func (s *messageService) MarkRead(ctx context.Context, userID, chatID string) error {
	if _, err := s.chatService.VerifyAccess(ctx, userID, chatID); err != nil {
		return err
	}
	return s.msgRepo.MarkRead(ctx, chatID, userID)
}

// EditHistory, mesajın düzenleme geçmişini döner.
func (s *messageService) EditHistory(ctx context.Context, userID, messageID string) ([]models.MessageEdit, error) {
	if _, err := s.requireReadable(ctx, userID, messageID); err != nil {
		return nil, err
	}
	return s.msgRepo.EditHistory(ctx, messageID)
}

// Search, kullanıcının sohbetlerinde içerik araması yapar.
// Kapsam repository sorgusunda katılımcılıkla sınırlıdır; chatID verilirse
// arama tek sohbete daraltılır (katılımcı olunmayan sohbet boş döner).
func (s *messageService) Search(ctx context.Context, userID, query, chatID string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", pkg.ErrBadRequest)
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.msgRepo.Search(ctx, userID, query, chatID, limit)
}

// requireReadable, mesajı yükler ve kullanıcının sohbet üyeliğini doğrular.
func (s *messageService) requireReadable(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	isParticipant, err := s.chatRepo.IsParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: message %s", pkg.ErrNotFound, messageID)
	}

	return msg, nil
}

// enrichOne, tek mesajı enrich eder.
func (s *messageService) enrichOne(ctx context.Context, msg *models.Message) error {
	page := []models.Message{*msg}
	if err := s.enrichMessages(ctx, page); err != nil {
		return err
	}
	*msg = page[0]
	return nil
}

// broadcastToOthers, event'i sohbetin gönderen dışındaki katılımcılarına yayar.
func (s *messageService) broadcastToOthers(ctx context.Context, chatID, senderID string, event ws.Event) {
	participants, err := s.chatRepo.Participants(ctx, chatID)
	if err != nil {
		return
	}

	recipients := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserID != senderID {
			recipients = append(recipients, p.UserID)
		}
	}
	s.hub.BroadcastToUsers(recipients, event)
}

// ReactionEventData, message_reaction WS event'inin payload'ı.
type ReactionEventData struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	Emoji     string `json:"emoji,omitempty"`
	Action    string `json:"action"` // "added" | "removed"
}

// broadcastReaction, reaksiyon değişikliğini diğer katılımcılara yayar.
func (s *messageService) broadcastReaction(ctx context.Context, msg *models.Message, userID, emoji, action string) {
	s.broadcastToOthers(ctx, msg.ChatID, userID, ws.Event{
		Type: ws.EventMessageReaction,
		Data: ReactionEventData{
			MessageID: msg.ID,
			ChatID:    msg.ChatID,
			UserID:    userID,
			Emoji:     emoji,
			Action:    action,
		},
	})
}
