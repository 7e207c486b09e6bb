package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/repository"
	"github.com/gulfreturn/pulse/ws"
)

// fakeBroadcaster, ws.Broadcaster'ın test implementasyonu.
// Gönderilen event'leri kullanıcı başına biriktirir.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events map[string][]ws.Event
	online map[string]bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		events: make(map[string][]ws.Event),
		online: make(map[string]bool),
	}
}

func (f *fakeBroadcaster) BroadcastToUser(userID string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[userID] = append(f.events[userID], event)
}

func (f *fakeBroadcaster) BroadcastToUsers(userIDs []string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		f.events[id] = append(f.events[id], event)
	}
}

func (f *fakeBroadcaster) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

// eventsFor, kullanıcıya gönderilen event'lerin kopyasını döner.
func (f *fakeBroadcaster) eventsFor(userID string) []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ws.Event, len(f.events[userID]))
	copy(out, f.events[userID])
	return out
}

// testEnv, gerçek SQLite üzerinde çalışan tam service stack'i.
// WS katmanı fake'tir — event'ler DB yerine memory'de biriktirilir.
type testEnv struct {
	db            *database.DB
	hub           *fakeBroadcaster
	users         repository.UserRepository
	connRepo      repository.ConnectionRepository
	msgRepo       repository.MessageRepository
	connections   ConnectionService
	chats         ChatService
	messages      MessageService
	notifications NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	connRepo := repository.NewSQLiteConnectionRepo(db.Conn)
	chatRepo := repository.NewSQLiteChatRepo(db.Conn)
	msgRepo := repository.NewSQLiteMessageRepo(db.Conn)
	notifRepo := repository.NewSQLiteNotificationRepo(db.Conn)
	socialRepo := repository.NewSQLiteSocialRepo(db.Conn)

	hub := newFakeBroadcaster()
	notifications := NewNotificationService(notifRepo)
	connections := NewConnectionService(connRepo, userRepo, socialRepo, notifications, hub)
	chats := NewChatService(chatRepo, msgRepo, connRepo, userRepo, hub)
	messages := NewMessageService(db, msgRepo, chatRepo, userRepo, chats, notifications, hub)

	return &testEnv{
		db:            db,
		hub:           hub,
		users:         userRepo,
		connRepo:      connRepo,
		msgRepo:       msgRepo,
		connections:   connections,
		chats:         chats,
		messages:      messages,
		notifications: notifications,
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		FullName:  username,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// connect, iki kullanıcı arasında accepted bağlantı kurar
// (istek gönder + kabul et).
func (e *testEnv) connect(t *testing.T, a, b *models.User) *models.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := e.connections.SendRequest(ctx, a.ID, &models.SendConnectionRequest{ReceiverID: b.ID})
	require.NoError(t, err)

	accepted, err := e.connections.Respond(ctx, b.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
	require.NoError(t, err)
	return accepted
}

// directChat, iki bağlı kullanıcı arasında direct sohbet açar.
func (e *testEnv) directChat(t *testing.T, a, b *models.User) *models.Chat {
	t.Helper()
	chat, err := e.chats.CreateChat(context.Background(), a.ID, &models.CreateChatRequest{
		Type:           models.ChatTypeDirect,
		ParticipantIDs: []string{b.ID},
	})
	require.NoError(t, err)
	return chat
}

// sendText, sohbete basit bir text mesajı gönderir.
func (e *testEnv) sendText(t *testing.T, senderID, chatID, content string) *models.Message {
	t.Helper()
	msg, err := e.messages.SendMessage(context.Background(), senderID, chatID, &models.SendMessageRequest{
		Content: content,
	})
	require.NoError(t, err)
	return msg
}
