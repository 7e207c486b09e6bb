package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın ping göndermesi için beklenen maksimum süre.
	// 3 ping kaçırma = 30s × 3 = 90s. Bu sürede ping gelmezse bağlantı
	// kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum frame boyutu (byte).
	// WS frame'leri küçüktür — mesaj içeriği HTTP ile gönderilir.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa client yavaş demektir — bağlantı kapatılır.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen frame'leri okur ve işler
// - WritePump: send channel'ından gelen frame'leri bağlantıya yazar
//
// gorilla/websocket aynı anda tek okuma ve tek yazma destekler —
// iki ayrı goroutine ile okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// send, client'a gönderilecek frame'lerin buffer'landığı channel.
	// Hub `client.send <- data` yazar, WritePump okur.
	send chan []byte

	mu sync.Mutex // conn.WriteMessage çağrılarını korur

	connectedAt time.Time
	lastPing    time.Time
}

// ReadPump, WebSocket bağlantısından gelen frame'leri okur ve işler.
// Bağlantı kapanana kadar bloklar; kapandığında Hub'dan çıkış yapar.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// SetReadDeadline: Bu süre içinde frame gelmezse Read hata verir.
	// Her ping geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			c.sendEvent(Event{Type: EventError, Data: ErrorData{Message: "invalid frame"}})
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen frame'leri türüne göre işler.
// Bilinmeyen tipler loglanır ve error frame'i ile yanıtlanır —
// bağlantı KAPATILMAZ.
func (c *Client) handleEvent(event Event) {
	switch event.Type {
	case EventPing:
		// Ping geldi — deadline'ı yenile ve pong gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.lastPing = time.Now()
		c.sendEvent(Event{Type: EventPong})

	case EventTyping:
		c.handleTyping(event)

	case EventMarkOnline:
		if c.hub.onPresenceUpdate != nil {
			go c.hub.onPresenceUpdate(c.userID, "online")
		}

	case EventMarkAway:
		if c.hub.onPresenceUpdate != nil {
			go c.hub.onPresenceUpdate(c.userID, "away")
		}

	default:
		log.Printf("[ws] unknown event type from user %s: %s", c.userID, event.Type)
		c.sendEvent(Event{Type: EventError, Data: ErrorData{Message: "unknown event type: " + event.Type}})
	}
}

// handleTyping, typing frame'ini işler.
//
// event.Data tipi `any` — doğrudan cast edilemez, JSON üzerinden
// TypingData'ya parse edilir. Katılımcı kontrolü ve sohbet üyelerine
// fan-out callback'in (init_callbacks.go) işidir.
func (c *Client) handleTyping(event Event) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var typing TypingData
	if err := json.Unmarshal(dataBytes, &typing); err != nil {
		return
	}

	if typing.ChatID == "" {
		return
	}

	if c.hub.onTyping != nil {
		go c.hub.onTyping(c.userID, c.hub.getUsername(c.userID), typing.ChatID, typing.IsTyping)
	}
}

// sendEvent, client'a tek bir event gönderir (seq + timestamp stamp'li).
func (c *Client) sendEvent(event Event) {
	data, err := c.hub.stamp(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, send channel'ından gelen frame'leri bağlantıya yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e frame yazar (mutex ile korunur).
// gorilla/websocket conn'a aynı anda birden fazla yazma yasaktır.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
