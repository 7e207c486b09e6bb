package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Broadcaster, service katmanının WebSocket event'leri göndermek için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken fake Broadcaster kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type Broadcaster interface {
	BroadcastToUser(userID string, event Event)
	BroadcastToUsers(userIDs []string, event Event)
	IsOnline(userID string) bool
}

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır (Observer pattern).
//
// Hub.Run() goroutine'i register/unregister channel'larından `select` ile okur:
// - register channel'dan yeni client gelirse → clients map'e ekle
// - unregister channel'dan client gelirse → map'ten çıkar
//
// Broadcast metodları fan-out'u çağıran goroutine'de yapar (RLock yeterli),
// event loop'tan geçirmez.
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla cihazı olabilir).
	// Go'da set yoktur — map[*Client]bool kullanılır, değer hep true'dur.
	clients map[string]map[*Client]bool

	// mu: clients map'ini koruyan read-write mutex.
	// Broadcast'ler okuma ağırlıklıdır — RWMutex ile paralel okunur.
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64 — birden fazla goroutine güvenle artırabilir.
	seq atomic.Int64

	// usernames: userID → username cache (typing broadcast için).
	usernames map[string]string
	userMu    sync.RWMutex

	// Callback'ler — main package wire-up sırasında set eder.
	// Hub service katmanını tanımaz; DB güncellemesi ve domain yayını
	// bu callback'lerin işidir. addClient/removeClient içinde
	// `go callback()` ile çağrılırlar — Hub mutex'i ile deadlock olmaz.
	onUserFirstConnect      func(userID string)
	onUserFullyDisconnected func(userID string)
	onTyping                func(userID, username, chatID string, isTyping bool)
	onPresenceUpdate        func(userID, status string)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		usernames:  make(map[string]string),
	}
}

// OnUserFirstConnect, kullanıcının İLK bağlantısı açıldığında çağrılacak
// callback'i set eder. İkinci cihaz bağlandığında tetiklenmez.
func (h *Hub) OnUserFirstConnect(fn func(userID string)) {
	h.onUserFirstConnect = fn
}

// OnUserFullyDisconnected, kullanıcının SON bağlantısı kapandığında
// çağrılacak callback'i set eder.
func (h *Hub) OnUserFullyDisconnected(fn func(userID string)) {
	h.onUserFullyDisconnected = fn
}

// OnTyping, typing frame'i geldiğinde çağrılacak callback'i set eder.
// Katılımcı kontrolü ve fan-out callback tarafında yapılır.
func (h *Hub) OnTyping(fn func(userID, username, chatID string, isTyping bool)) {
	h.onTyping = fn
}

// OnPresenceUpdate, mark_online/mark_away frame'i geldiğinde çağrılacak
// callback'i set eder.
func (h *Hub) OnPresenceUpdate(fn func(userID, status string)) {
	h.onPresenceUpdate = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler.
// Kullanıcının ilk bağlantısıysa onUserFirstConnect tetiklenir.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	first := false
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
		first = true
	}
	h.clients[client.userID][client] = true
	total := len(h.clients[client.userID])
	h.mu.Unlock()

	log.Printf("[ws] client connected: user=%s (connections: %d)", client.userID, total)

	if first && h.onUserFirstConnect != nil {
		go h.onUserFirstConnect(client.userID)
	}
}

// removeClient, bir client'ı Hub'dan çıkarır ve send channel'ını kapatır.
// Kullanıcının son bağlantısıysa onUserFullyDisconnected tetiklenir.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	last := false
	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.clients, client.userID)
				last = true
			}
		}
	}
	h.mu.Unlock()

	if last {
		log.Printf("[ws] user fully disconnected: %s", client.userID)
		if h.onUserFullyDisconnected != nil {
			go h.onUserFullyDisconnected(client.userID)
		}
	} else {
		log.Printf("[ws] client disconnected: user=%s", client.userID)
	}
}

// stamp, event'e seq ve timestamp yazıp JSON'a çevirir.
func (h *Hub) stamp(event Event) ([]byte, error) {
	event.Seq = h.seq.Add(1)
	event.Timestamp = time.Now().UTC()
	return json.Marshal(event)
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
// Kullanıcı offline ise sessizce düşer — kalıcı bildirim DB'de zaten var.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, err := h.stamp(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	h.sendToUserLocked(userID, data)
}

// BroadcastToUsers, bir kullanıcı listesinin tüm bağlantılarına event gönderir.
// Tüm alıcılar aynı seq'i görür — frame tek kez stamp'lenir.
func (h *Hub) BroadcastToUsers(userIDs []string, event Event) {
	data, err := h.stamp(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		h.sendToUserLocked(userID, data)
	}
}

// sendToUserLocked, kullanıcının tüm client'larına frame yazar.
// Çağıran RLock tutuyor olmalı. Buffer'ı dolu (yavaş) client'lar
// unregister'a gönderilir — tek yavaş bağlantı diğerlerini bloklamaz.
func (h *Hub) sendToUserLocked(userID string, data []byte) {
	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// IsOnline, kullanıcının en az bir açık bağlantısı var mı?
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// SetUsername, kullanıcı bağlandığında username cache'ini günceller.
func (h *Hub) SetUsername(userID, username string) {
	h.userMu.Lock()
	defer h.userMu.Unlock()
	h.usernames[userID] = username
}

// getUsername, userID'den username döner (typing broadcast için).
func (h *Hub) getUsername(userID string) string {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return h.usernames[userID]
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
