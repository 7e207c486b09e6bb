package models

import (
	"fmt"
	"time"

	"github.com/gulfreturn/pulse/pkg"
)

// Bağlantı durumları.
// Bir kullanıcı çifti için connections tablosunda en fazla bir satır bulunur;
// status o satırın hangi aşamada olduğunu söyler.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusRejected = "rejected"
	ConnectionStatusBlocked  = "blocked"
)

// Bağlantı tipleri. Tip graf semantiğini değiştirmez, sadece etikettir.
const (
	ConnectionTypeStandard     = "standard"
	ConnectionTypeClose        = "close"
	ConnectionTypeProfessional = "professional"
)

// PendingRequestTTL, cevaplanmayan isteğin geçerlilik süresi.
// Süresi dolan istekler lazy silinir: okuma yolunda fark edilip temizlenir.
const PendingRequestTTL = 30 * 24 * time.Hour

// Connection, iki kullanıcı arasındaki bağlantı kaydı.
//
// Yön anlamı status'a göre değişir:
//   - pending/rejected: sender istek atan, receiver cevaplayacak olan.
//   - accepted: yön önemsiz, çift bağlı.
//   - blocked: sender engelleyen, receiver engellenen (yönlü).
type Connection struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	Status         string     `json:"status"`
	ConnectionType string     `json:"connection_type"`
	Message        string     `json:"message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// OtherUserID, bağlantının verilen kullanıcı olmayan tarafını döner.
func (c *Connection) OtherUserID(userID string) string {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

// Involves, kullanıcının bu bağlantının bir tarafı olup olmadığını söyler.
func (c *Connection) Involves(userID string) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// IsExpired, pending isteğin süresinin dolup dolmadığını söyler.
func (c *Connection) IsExpired(now time.Time) bool {
	return c.Status == ConnectionStatusPending &&
		c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// ConnectionWithUser, bağlantı kaydı + karşı tarafın profili.
// Liste endpoint'leri bu tipi döner — istemci ayrıca kullanıcı çekmesin.
type ConnectionWithUser struct {
	Connection
	User UserSummary `json:"user"`
	// MutualCount sadece accepted listesinde doldurulur.
	MutualCount int `json:"mutual_count,omitempty"`
}

// ConnectionSuggestion, ikinci derece bağlantı önerisi.
type ConnectionSuggestion struct {
	User        UserSummary `json:"user"`
	MutualCount int         `json:"mutual_count"`
}

// ConnectionStatusInfo, iki kullanıcı arasındaki ilişkinin özeti.
// "none" | "pending_sent" | "pending_received" | "connected" |
// "rejected" | "blocked_by_me" | "blocked_by_them"
type ConnectionStatusInfo struct {
	Status       string     `json:"status"`
	ConnectionID string     `json:"connection_id,omitempty"`
	Since        *time.Time `json:"since,omitempty"`
}

// ConnectionStats, kullanıcının bağlantı grafı istatistikleri.
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
	PendingSent      int `json:"pending_sent"`
	PendingReceived  int `json:"pending_received"`
	Blocked          int `json:"blocked"`
}

// SendConnectionRequest, bağlantı isteği gönderme isteği.
type SendConnectionRequest struct {
	ReceiverID     string `json:"receiver_id"`
	ConnectionType string `json:"connection_type,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Validate, istek alanlarını kontrol eder.
func (r *SendConnectionRequest) Validate() error {
	if r.ReceiverID == "" {
		return fmt.Errorf("%w: receiver_id is required", pkg.ErrBadRequest)
	}
	if r.ConnectionType == "" {
		r.ConnectionType = ConnectionTypeStandard
	}
	switch r.ConnectionType {
	case ConnectionTypeStandard, ConnectionTypeClose, ConnectionTypeProfessional:
	default:
		return fmt.Errorf("%w: invalid connection_type", pkg.ErrBadRequest)
	}
	if len(r.Message) > 500 {
		return fmt.Errorf("%w: message too long (max 500 characters)", pkg.ErrBadRequest)
	}
	return nil
}

// RespondConnectionRequest, pending isteğe cevap.
type RespondConnectionRequest struct {
	Action string `json:"action"` // "accept" | "reject"
}

// Validate, cevabın geçerli bir aksiyon olduğunu kontrol eder.
func (r *RespondConnectionRequest) Validate() error {
	if r.Action != "accept" && r.Action != "reject" {
		return fmt.Errorf("%w: action must be 'accept' or 'reject'", pkg.ErrBadRequest)
	}
	return nil
}
