package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient, websocket bağlantısı olmadan Hub'a takılabilen client üretir.
// Frame'ler send channel'ından okunur — WritePump çalışmaz.
func newTestClient(h *Hub, userID string, buffer int) *Client {
	return &Client{
		hub:    h,
		userID: userID,
		send:   make(chan []byte, buffer),
	}
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPresenceCallbacks(t *testing.T) {
	hub := NewHub()

	firstConnect := make(chan string, 4)
	fullDisconnect := make(chan string, 4)
	hub.OnUserFirstConnect(func(userID string) { firstConnect <- userID })
	hub.OnUserFullyDisconnected(func(userID string) { fullDisconnect <- userID })

	c1 := newTestClient(hub, "u1", 8)
	c2 := newTestClient(hub, "u1", 8)

	// İlk bağlantı callback'i sadece bir kez tetiklenir
	hub.addClient(c1)
	hub.addClient(c2)

	select {
	case id := <-firstConnect:
		assert.Equal(t, "u1", id)
	case <-time.After(time.Second):
		t.Fatal("first connect callback not fired")
	}
	select {
	case <-firstConnect:
		t.Fatal("first connect fired twice for the same user")
	case <-time.After(50 * time.Millisecond):
	}

	// İlk client kopunca kullanıcı hâlâ online — callback tetiklenmez
	hub.removeClient(c1)
	assert.True(t, hub.IsOnline("u1"))
	select {
	case <-fullDisconnect:
		t.Fatal("full disconnect fired while a connection remains")
	case <-time.After(50 * time.Millisecond):
	}

	// Son client kopunca tetiklenir
	hub.removeClient(c2)
	assert.False(t, hub.IsOnline("u1"))
	select {
	case id := <-fullDisconnect:
		assert.Equal(t, "u1", id)
	case <-time.After(time.Second):
		t.Fatal("full disconnect callback not fired")
	}
}

func TestBroadcastStamping(t *testing.T) {
	hub := NewHub()
	alice := newTestClient(hub, "alice", 8)
	bob := newTestClient(hub, "bob", 8)
	hub.addClient(alice)
	hub.addClient(bob)

	hub.BroadcastToUser("alice", Event{Type: EventNewMessage, Data: map[string]string{"id": "m1"}})
	hub.BroadcastToUser("alice", Event{Type: EventNewMessage, Data: map[string]string{"id": "m2"}})

	first := recvEvent(t, alice)
	second := recvEvent(t, alice)

	assert.Equal(t, EventNewMessage, first.Type)
	assert.False(t, first.Timestamp.IsZero())
	// Seq monoton artar — istemci out-of-order frame'leri ayıklayabilir
	assert.Greater(t, second.Seq, first.Seq)

	// Çoklu alıcı yayını tek kez stamp'lenir — herkes aynı seq'i görür
	hub.BroadcastToUsers([]string{"alice", "bob"}, Event{Type: EventUserStatusUpdate})
	fromAlice := recvEvent(t, alice)
	fromBob := recvEvent(t, bob)
	assert.Equal(t, fromAlice.Seq, fromBob.Seq)

	// Offline kullanıcıya yayın sessizce düşer
	hub.BroadcastToUser("nobody", Event{Type: EventNewMessage})
}

func TestSlowClientPruned(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newTestClient(hub, "slow", 1)
	hub.addClient(slow)

	// Buffer'ı doldur: ikinci yayın select-default'a düşer ve
	// client unregister edilir.
	hub.BroadcastToUser("slow", Event{Type: EventNewMessage})
	hub.BroadcastToUser("slow", Event{Type: EventNewMessage})

	require.Eventually(t, func() bool {
		return !hub.IsOnline("slow")
	}, time.Second, 10*time.Millisecond)
}

func TestOnlineUserIDs(t *testing.T) {
	hub := NewHub()
	hub.addClient(newTestClient(hub, "u1", 1))
	hub.addClient(newTestClient(hub, "u2", 1))

	ids := hub.OnlineUserIDs()
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}
