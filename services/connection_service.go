// Package services — ConnectionService: bağlantı grafı iş mantığı.
//
// Business logic:
// - İstek gönderme: Kendine istek yollanamaz; çift başına tek kayıt kuralı
//   mevcut kaydın durumuna göre uygulanır (aşağıdaki SendRequest akışı).
// - Cevaplama: Sadece isteğin alıcısı kabul/red edebilir.
// - Süre: Pending istekler 30 gün sonra geçersizdir — lazy silinir.
// - Engelleme: Çiftin mevcut kaydı silinir, yönlü blocked kaydı yazılır,
//   çift birbirinin kullanıcı listelerinden temizlenir.
// - Öneriler: İkinci derece bağlantılar, ortak bağlantı sayısına göre.
//
// WS broadcast: connection_request alıcıya, connection_response isteği
// gönderen tarafa iletilir. Broadcast başarısız olamaz — kullanıcı offline
// ise frame düşer, kalıcı bildirim zaten DB'dedir.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/pkg/cache"
	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/ws"
)

// suggestionCacheTTL, öneri listesinin cache'te kalma süresi.
// Öneriler türetilmiş veridir — biraz bayat olması zararsızdır.
const suggestionCacheTTL = 2 * time.Minute

// ConnectionService, bağlantı grafı işlemleri için public interface.
type ConnectionService interface {
	// SendRequest, bağlantı isteği gönderir.
	SendRequest(ctx context.Context, senderID string, req *models.SendConnectionRequest) (*models.Connection, error)

	// Respond, gelen pending isteği kabul veya red eder.
	// Sadece isteğin alıcısı cevaplayabilir.
	Respond(ctx context.Context, userID, connectionID string, req *models.RespondConnectionRequest) (*models.Connection, error)

	// Remove, mevcut accepted bağlantıyı kaldırır (her iki taraf da yapabilir).
	Remove(ctx context.Context, userID, connectionID string) error

	// Block, hedef kullanıcıyı engeller. Mevcut kayıt ne durumda olursa
	// olsun silinir ve yönlü blocked kaydı yazılır.
	Block(ctx context.Context, userID, targetID string) (*models.Connection, error)

	// Unblock, kullanıcının koyduğu engeli kaldırır.
	Unblock(ctx context.Context, userID, targetID string) error

	// ListConnections, kullanıcının accepted bağlantılarını döner.
	ListConnections(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// ListRequests, gelen ve giden pending istekleri döner.
	ListRequests(ctx context.Context, userID string) (*ConnectionRequestsResponse, error)

	// ListBlocked, kullanıcının engellediği kullanıcıları döner.
	ListBlocked(ctx context.Context, userID string) ([]models.ConnectionWithUser, error)

	// Suggestions, ikinci derece bağlantı önerilerini döner.
	Suggestions(ctx context.Context, userID string, limit int) ([]models.ConnectionSuggestion, error)

	// PairStatus, iki kullanıcı arasındaki ilişkinin özetini döner.
	PairStatus(ctx context.Context, userID, otherID string) (*models.ConnectionStatusInfo, error)

	// MutualCount, iki kullanıcının ortak bağlantı sayısını döner.
	MutualCount(ctx context.Context, userID, otherID string) (int, error)

	// MutualConnections, iki kullanıcının ortak bağlantılarının profillerini döner.
	MutualConnections(ctx context.Context, userID, otherID string, limit int) ([]models.UserSummary, error)

	// Stats, kullanıcının bağlantı istatistiklerini döner.
	Stats(ctx context.Context, userID string) (*models.ConnectionStats, error)
}

// ConnectionRequestsResponse, gelen ve giden istekleri ayıran DTO.
type ConnectionRequestsResponse struct {
	Incoming []models.ConnectionWithUser `json:"incoming"`
	Outgoing []models.ConnectionWithUser `json:"outgoing"`
}

// connectionService, ConnectionService'in private implementasyonu.
type connectionService struct {
	connRepo   repository.ConnectionRepository
	userRepo   repository.UserRepository
	socialRepo repository.SocialRepository
	notifier   NotificationService
	hub        ws.Broadcaster

	// suggestionCache: userID → öneri listesi.
	// Graf değiştiren her operasyon ilgili kullanıcıların girdisini düşürür.
	suggestionCache *cache.TTLCache[string, []models.ConnectionSuggestion]
}

// NewConnectionService, constructor. Tüm dependency'ler injection ile alınır.
func NewConnectionService(
	connRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	socialRepo repository.SocialRepository,
	notifier NotificationService,
	hub ws.Broadcaster,
) ConnectionService {
	return &connectionService{
		connRepo:        connRepo,
		userRepo:        userRepo,
		socialRepo:      socialRepo,
		notifier:        notifier,
		hub:             hub,
		suggestionCache: cache.New[string, []models.ConnectionSuggestion](suggestionCacheTTL, 5*time.Minute),
	}
}

// SendRequest, bağlantı isteği gönderir.
//
// Mevcut kayıt durumuna göre davranış:
// - accepted → ErrAlreadyExists ("already connected")
// - pending  → süresi dolmuşsa sil ve devam et; dolmamışsa ErrAlreadyExists
// - rejected → eski kayıt silinir, yeni pending açılır; ilk gönderen de
//   reddeden taraf da tekrar istek atabilir
// - blocked  → her iki yönde de ErrForbidden (engel bilgisi sızdırılmaz)
func (s *connectionService) SendRequest(ctx context.Context, senderID string, req *models.SendConnectionRequest) (*models.Connection, error) {
	// 1. Validasyon
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Kendine istek kontrolü
	if senderID == req.ReceiverID {
		return nil, fmt.Errorf("%w: cannot send connection request to yourself", pkg.ErrBadRequest)
	}

	// 3. Hedef kullanıcı var mı?
	target, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	// 4. Mevcut kayıt kontrolü
	existing, err := s.connRepo.GetByPair(ctx, senderID, target.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		switch existing.Status {
		case models.ConnectionStatusAccepted:
			return nil, fmt.Errorf("%w: already connected", pkg.ErrAlreadyExists)

		case models.ConnectionStatusPending:
			if existing.IsExpired(time.Now().UTC()) {
				// Süresi dolmuş istek — temizle, yeni istek açılabilir
				if err := s.connRepo.Delete(ctx, existing.ID); err != nil {
					return nil, err
				}
			} else {
				return nil, fmt.Errorf("%w: connection request already pending", pkg.ErrAlreadyExists)
			}

		case models.ConnectionStatusRejected:
			// Reddedilen kayıt yeni istekle silinip yeniden açılır —
			// red kalıcı bir engel değildir, o iş blocked'ındır.
			if err := s.connRepo.Delete(ctx, existing.ID); err != nil {
				return nil, err
			}

		case models.ConnectionStatusBlocked:
			return nil, fmt.Errorf("%w: cannot send connection request", pkg.ErrForbidden)
		}
	}

	// 5. Pending kayıt oluştur
	now := time.Now().UTC()
	expires := now.Add(models.PendingRequestTTL)
	conn := &models.Connection{
		ID:             uuid.NewString(),
		SenderID:       senderID,
		ReceiverID:     target.ID,
		Status:         models.ConnectionStatusPending,
		ConnectionType: req.ConnectionType,
		Message:        req.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      &expires,
	}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}

	// 6. Alıcıya bildirim + WS event
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err == nil {
		s.notifier.Notify(ctx, target.ID, models.NotificationConnectionRequest, senderID,
			sender.Username+" sent you a connection request", req.Message, "")

		s.hub.BroadcastToUser(target.ID, ws.Event{
			Type: ws.EventConnectionRequest,
			Data: models.ConnectionWithUser{Connection: *conn, User: sender.Summary()},
		})
	}

	return conn, nil
}

// Respond, gelen pending isteği kabul veya red eder.
func (s *connectionService) Respond(ctx context.Context, userID, connectionID string, req *models.RespondConnectionRequest) (*models.Connection, error) {
	// 1. Validasyon
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Kaydı bul
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	// 3. Sadece alıcı cevaplayabilir; pending olmayan kayıt cevaplanamaz.
	// Başkasının isteği NotFound döner — kaydın varlığı sızdırılmaz.
	if conn.ReceiverID != userID || conn.Status != models.ConnectionStatusPending {
		return nil, fmt.Errorf("%w: connection request %s", pkg.ErrNotFound, connectionID)
	}

	// 4. Süre kontrolü — dolmuşsa lazy sil
	if conn.IsExpired(time.Now().UTC()) {
		if err := s.connRepo.Delete(ctx, conn.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: connection request expired", pkg.ErrNotFound)
	}

	// 5. Durumu güncelle
	newStatus := models.ConnectionStatusAccepted
	if req.Action == "reject" {
		newStatus = models.ConnectionStatusRejected
	}
	if err := s.connRepo.UpdateStatus(ctx, conn.ID, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.connRepo.GetByID(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	// 6. Graf değişti — her iki tarafın öneri cache'i bayatladı
	s.invalidateSuggestions(conn.SenderID, conn.ReceiverID)

	// 7. Gönderen tarafa sonuç bildirilir
	responder, rErr := s.userRepo.GetByID(ctx, userID)
	if rErr == nil {
		if newStatus == models.ConnectionStatusAccepted {
			s.notifier.Notify(ctx, conn.SenderID, models.NotificationConnectionAccepted, userID,
				responder.Username+" accepted your connection request", "", "")
		}
		s.hub.BroadcastToUser(conn.SenderID, ws.Event{
			Type: ws.EventConnectionResponse,
			Data: models.ConnectionWithUser{Connection: *updated, User: responder.Summary()},
		})
	}

	return updated, nil
}

// Remove, mevcut accepted bağlantıyı kaldırır.
func (s *connectionService) Remove(ctx context.Context, userID, connectionID string) error {
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}

	if !conn.Involves(userID) {
		return fmt.Errorf("%w: connection %s", pkg.ErrNotFound, connectionID)
	}
	if conn.Status != models.ConnectionStatusAccepted {
		return fmt.Errorf("%w: connection is not active", pkg.ErrBadRequest)
	}

	if err := s.connRepo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	s.invalidateSuggestions(conn.SenderID, conn.ReceiverID)
	return nil
}

// Block, hedef kullanıcıyı engeller.
//
// Akış:
// 1. Çiftin mevcut kaydı (ne durumda olursa olsun) silinir
// 2. Yönlü blocked kaydı yazılır: sender = engelleyen
// 3. Çift birbirinin kullanıcı listelerinden temizlenir (best-effort)
func (s *connectionService) Block(ctx context.Context, userID, targetID string) (*models.Connection, error) {
	if userID == targetID {
		return nil, fmt.Errorf("%w: cannot block yourself", pkg.ErrBadRequest)
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	// Zaten benim koyduğum bir engel varsa idempotent davran
	existing, err := s.connRepo.GetByPair(ctx, userID, targetID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == models.ConnectionStatusBlocked && existing.SenderID == userID {
		return existing, nil
	}

	if err := s.connRepo.DeleteByPair(ctx, userID, targetID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	blocked := &models.Connection{
		ID:             uuid.NewString(),
		SenderID:       userID,
		ReceiverID:     targetID,
		Status:         models.ConnectionStatusBlocked,
		ConnectionType: models.ConnectionTypeStandard,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.connRepo.Create(ctx, blocked); err != nil {
		return nil, err
	}

	// Liste temizliği best-effort — başarısızlık engellemeyi geri almaz
	if err := s.socialRepo.RemoveFromAllLists(ctx, userID, targetID); err != nil {
		log.Printf("[connection] list cleanup failed for %s/%s: %v", userID, targetID, err)
	}

	s.invalidateSuggestions(userID, targetID)
	return blocked, nil
}

// Unblock, kullanıcının koyduğu engeli kaldırır.
// Sadece engeli koyan taraf kaldırabilir.
func (s *connectionService) Unblock(ctx context.Context, userID, targetID string) error {
	existing, err := s.connRepo.GetByPair(ctx, userID, targetID)
	if err != nil {
		return err
	}

	if existing.Status != models.ConnectionStatusBlocked || existing.SenderID != userID {
		return fmt.Errorf("%w: no block to remove", pkg.ErrNotFound)
	}

	return s.connRepo.Delete(ctx, existing.ID)
}

// ListConnections, kullanıcının accepted bağlantılarını döner.
func (s *connectionService) ListConnections(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	return s.connRepo.ListAccepted(ctx, userID)
}

// ListRequests, gelen ve giden pending istekleri döner.
// Önce süresi dolmuş istekler temizlenir (lazy silme).
func (s *connectionService) ListRequests(ctx context.Context, userID string) (*ConnectionRequestsResponse, error) {
	if _, err := s.connRepo.DeleteExpiredPending(ctx, userID); err != nil {
		return nil, err
	}

	incoming, err := s.connRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.connRepo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ConnectionRequestsResponse{Incoming: incoming, Outgoing: outgoing}, nil
}

// ListBlocked, kullanıcının engellediği kullanıcıları döner.
func (s *connectionService) ListBlocked(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	return s.connRepo.ListBlocked(ctx, userID)
}

// Suggestions, ikinci derece bağlantı önerilerini döner (cache'li).
func (s *connectionService) Suggestions(ctx context.Context, userID string, limit int) ([]models.ConnectionSuggestion, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if cached, ok := s.suggestionCache.Get(userID); ok && len(cached) >= limit {
		return cached[:limit], nil
	}

	suggestions, err := s.connRepo.Suggestions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	s.suggestionCache.Set(userID, suggestions)
	return suggestions, nil
}

// PairStatus, iki kullanıcı arasındaki ilişkinin özetini döner.
func (s *connectionService) PairStatus(ctx context.Context, userID, otherID string) (*models.ConnectionStatusInfo, error) {
	conn, err := s.connRepo.GetByPair(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return &models.ConnectionStatusInfo{Status: "none"}, nil
		}
		return nil, err
	}

	info := &models.ConnectionStatusInfo{ConnectionID: conn.ID}

	switch conn.Status {
	case models.ConnectionStatusAccepted:
		info.Status = "connected"
		info.Since = conn.ConnectedAt
	case models.ConnectionStatusPending:
		if conn.IsExpired(time.Now().UTC()) {
			// Süresi dolmuş — yok say (temizlik liste endpoint'inde yapılır)
			return &models.ConnectionStatusInfo{Status: "none"}, nil
		}
		if conn.SenderID == userID {
			info.Status = "pending_sent"
		} else {
			info.Status = "pending_received"
		}
	case models.ConnectionStatusRejected:
		info.Status = "rejected"
	case models.ConnectionStatusBlocked:
		if conn.SenderID == userID {
			info.Status = "blocked_by_me"
		} else {
			info.Status = "blocked_by_them"
		}
	}

	return info, nil
}

// MutualCount, iki kullanıcının ortak bağlantı sayısını döner.
func (s *connectionService) MutualCount(ctx context.Context, userID, otherID string) (int, error) {
	return s.connRepo.MutualCount(ctx, userID, otherID)
}

// MutualConnections, iki kullanıcının ortak bağlantılarının profillerini döner.
func (s *connectionService) MutualConnections(ctx context.Context, userID, otherID string, limit int) ([]models.UserSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.connRepo.MutualConnections(ctx, userID, otherID, limit)
}

// Stats, kullanıcının bağlantı istatistiklerini döner.
func (s *connectionService) Stats(ctx context.Context, userID string) (*models.ConnectionStats, error) {
	return s.connRepo.Stats(ctx, userID)
}

// invalidateSuggestions, graf değiştiğinde ilgili kullanıcıların
// öneri cache'lerini düşürür.
func (s *connectionService) invalidateSuggestions(userIDs ...string) {
	for _, id := range userIDs {
		s.suggestionCache.Delete(id)
	}
}
