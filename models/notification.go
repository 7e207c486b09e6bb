package models

import "time"

// Bildirim tipleri — ws event tipleriyle paralel tutulur.
const (
	NotificationConnectionRequest  = "connection_request"
	NotificationConnectionAccepted = "connection_accepted"
	NotificationNewMessage         = "new_message"
)

// Notification, kalıcı bildirim kaydı.
// WebSocket frame'i anlıktır; offline kullanıcı için bildirim ayrıca
// DB'ye yazılır. Yazma best-effort'tur — bildirim kaydı başarısız olsa
// da asıl operasyon (istek gönderme, mesaj) geri alınmaz.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Data      string    `json:"data,omitempty"` // JSON string — tip bazlı ekstra alanlar
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
