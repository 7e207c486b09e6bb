package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gulfreturn/pulse/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı interface.
//
// services.AuthService yerine kendi interface'imizi tanımlıyoruz —
// circular dependency önlenir: services ws.Broadcaster'ı kullanıyor,
// ws services'i kullansaydı döngü oluşurdu. Handler'ın tek ihtiyacı
// ValidateAccessToken'dır (Interface Segregation).
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler, yeni bir WebSocket handler oluşturur.
// tokenValidator pratikte authService'dir — Go'da interface'ler implicit'tir.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı
// Hub'a kaydeder.
//
// Tarayıcı WS bağlantısında Authorization header gönderemez —
// token URL query parameter'ı olarak gelir:
//
//	ws://server/ws?token=JWT_TOKEN
//
// Upgrade SONRASI doğrulama başarısız olursa bağlantı policy violation
// (1008) close frame'i ile kapatılır.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	now := time.Now()
	client := &Client{
		hub:         h.hub,
		conn:        conn,
		userID:      claims.UserID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: now,
		lastPing:    now,
	}

	// Username cache'ini güncelle (typing broadcast için)
	h.hub.SetUsername(claims.UserID, claims.Username)

	h.hub.register <- client

	// İlk frame: bağlantı kuruldu onayı.
	client.sendEvent(Event{
		Type: EventConnectionEstablished,
		Data: ConnectionEstablishedData{UserID: claims.UserID},
	})

	// WritePump ayrı goroutine'de, ReadPump bu goroutine'de çalışır.
	// ReadPump bağlantı kapanana kadar bloklar — HTTP handler açık kalır.
	go client.WritePump()
	client.ReadPump()
}
