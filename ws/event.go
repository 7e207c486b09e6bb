// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mesaj gönderir → HTTP POST → Service → DB kayıt
// 2. Service, Hub'ın BroadcastToUser metodunu çağırır (sadece ilgili alıcılar)
// 3. Hub, event'i alıcının tüm açık bağlantılarına iletir
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
package ws

import "time"

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Type: Event türü — "new_message", "connection_request" vb.
// Data: Event'e özgü payload.
// Seq: Her outbound event'e verilen artan sayı.
//
//	İstemci eksik event tespit etmek için seq'i takip eder:
//	seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
//
// Timestamp: Broadcast anı, RFC 3339 / UTC. Hub yazar, caller set etmez.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Seq       int64     `json:"seq,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client → Server event tipleri
const (
	EventPing       = "ping"        // Heartbeat — "hâlâ bağlıyım" sinyali
	EventTyping     = "typing"      // Kullanıcı bir sohbette yazıyor / yazmayı bıraktı
	EventMarkOnline = "mark_online" // Kullanıcı kendini manuel online işaretledi
	EventMarkAway   = "mark_away"   // Kullanıcı kendini away işaretledi
)

// Server → Client event tipleri
const (
	EventConnectionEstablished = "connection_established" // WS bağlantısı kuruldu — ilk frame
	EventPong                  = "pong"                   // Ping'e yanıt
	EventConnectionRequest     = "connection_request"     // Yeni bağlantı isteği geldi
	EventConnectionResponse    = "connection_response"    // İstek kabul/red edildi
	EventNewMessage            = "new_message"            // Yeni sohbet mesajı
	EventMessageEdited         = "message_edited"         // Mevcut mesajın içeriği değişti
	EventMessageReaction       = "message_reaction"       // Mesaj reaksiyonu eklendi/kaldırıldı
	EventTypingStatus          = "typing_status"          // Sohbette biri yazıyor
	EventUserStatusUpdate      = "user_status_update"     // Bağlantıdaki bir kullanıcının presence'ı değişti
	EventError                 = "error"                  // İşlenemeyen inbound frame
)

// ConnectionEstablishedData, bağlantı kurulduğunda gönderilen ilk payload.
type ConnectionEstablishedData struct {
	UserID string `json:"user_id"`
}

// TypingData, typing event'inin Client → Server payload'ı.
type TypingData struct {
	ChatID   string `json:"chat_id"`
	IsTyping bool   `json:"is_typing"`
}

// TypingStatusData, typing_status event'inin Server → Client payload'ı.
type TypingStatusData struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// UserStatusData, user_status_update event'inin payload'ı.
// Status: "online" | "away" | "offline"
type UserStatusData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// ErrorData, error event'inin payload'ı.
type ErrorData struct {
	Message string `json:"message"`
}
