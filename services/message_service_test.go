package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/ws"
)

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers message and updates chat preview", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)

		msg := env.sendText(t, alice.ID, chat.ID, "hello bob")

		assert.Equal(t, models.MessageTypeText, msg.Type)
		assert.Equal(t, "sent", msg.DeliveryStatus)
		// Gönderenin kendi okuma kaydı mesajla aynı transaction'da yazılır
		assert.Equal(t, []string{alice.ID}, msg.ReadBy)
		require.NotNil(t, msg.Sender)
		assert.Equal(t, "alice", msg.Sender.Username)

		// Sohbet preview'i denormalize güncellenir
		got, err := env.chats.GetChat(ctx, alice.ID, chat.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello bob", got.LastMessageContent)
		assert.Equal(t, alice.ID, got.LastMessageSenderID)

		// Diğer katılımcıya WS event, gönderene gitmez
		bobEvents := env.hub.eventsFor(bob.ID)
		var sawNewMessage bool
		for _, ev := range bobEvents {
			if ev.Type == ws.EventNewMessage {
				sawNewMessage = true
			}
		}
		assert.True(t, sawNewMessage)
		for _, ev := range env.hub.eventsFor(alice.ID) {
			assert.NotEqual(t, ws.EventNewMessage, ev.Type)
		}
	})

	t.Run("access is revoked with the connection", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		conn := env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)
		env.sendText(t, alice.ID, chat.ID, "before the fallout")

		require.NoError(t, env.connections.Remove(ctx, bob.ID, conn.ID))

		// Yazma kapanır
		_, err := env.messages.SendMessage(ctx, alice.ID, chat.ID, &models.SendMessageRequest{Content: "still there?"})
		require.ErrorIs(t, err, pkg.ErrForbidden)
		assert.ErrorContains(t, err, "connection required")

		// Okuma da aynı anda kapanır — geçmiş, bağlantı geri kurulana
		// kadar iki taraf için de erişilemezdir
		_, err = env.messages.GetMessages(ctx, bob.ID, chat.ID, 50, 0)
		require.ErrorIs(t, err, pkg.ErrForbidden)
		assert.ErrorContains(t, err, "connection required")

		err = env.messages.MarkRead(ctx, bob.ID, chat.ID)
		assert.ErrorIs(t, err, pkg.ErrForbidden)

		// Yeniden bağlanınca geçmiş yerli yerindedir
		env.connect(t, alice, bob)
		page, err := env.messages.GetMessages(ctx, bob.ID, chat.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "before the fallout", page.Messages[0].Content)
	})

	t.Run("reply target must be in the same chat", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		carol := env.createUser(t, "carol")
		env.connect(t, alice, bob)
		env.connect(t, alice, carol)

		chatAB := env.directChat(t, alice, bob)
		chatAC := env.directChat(t, alice, carol)
		other := env.sendText(t, alice.ID, chatAC.ID, "elsewhere")

		_, err := env.messages.SendMessage(ctx, alice.ID, chatAB.ID, &models.SendMessageRequest{
			Content:   "replying wrong",
			ReplyToID: other.ID,
		})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)

		target := env.sendText(t, alice.ID, chatAB.ID, "reply to me")
		reply, err := env.messages.SendMessage(ctx, bob.ID, chatAB.ID, &models.SendMessageRequest{
			Content:   "done",
			ReplyToID: target.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, target.ID, reply.ReplyToID)
	})

	t.Run("disappearing chat stamps expiry on messages", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)

		chat, err := env.chats.CreateChat(ctx, alice.ID, &models.CreateChatRequest{
			Type:                 models.ChatTypeDirect,
			ParticipantIDs:       []string{bob.ID},
			DisappearingMessages: true,
		})
		require.NoError(t, err)

		msg := env.sendText(t, alice.ID, chat.ID, "this will fade")
		require.NotNil(t, msg.DisappearsAt)
		assert.WithinDuration(t, time.Now().Add(models.DisappearingMessageTTL), *msg.DisappearsAt, time.Minute)

		// Süresi dolan mesaj listeden ve tekil erişimden düşer
		past := time.Now().UTC().Add(-time.Minute)
		_, err = env.db.Conn.Exec(`UPDATE messages SET disappears_at = ? WHERE id = ?`, past, msg.ID)
		require.NoError(t, err)

		page, err := env.messages.GetMessages(ctx, bob.ID, chat.ID, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, page.Messages)
	})
}

func TestGetMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("marks chat read before returning the page", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)
		env.sendText(t, alice.ID, chat.ID, "one")
		env.sendText(t, alice.ID, chat.ID, "two")

		page, err := env.messages.GetMessages(ctx, bob.ID, chat.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)

		// Dönen sayfadaki read_by çağıranın kendi okumasını içerir
		for _, msg := range page.Messages {
			assert.Contains(t, msg.ReadBy, bob.ID)
		}

		chats, err := env.chats.ListChats(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.Zero(t, chats[0].UnreadCount)
	})

	t.Run("chronological order with pagination", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)

		for _, content := range []string{"first", "second", "third"} {
			env.sendText(t, alice.ID, chat.ID, content)
		}

		page, err := env.messages.GetMessages(ctx, bob.ID, chat.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.True(t, page.HasMore)
		// En yeni sayfa, eski → yeni sırada
		assert.Equal(t, "second", page.Messages[0].Content)
		assert.Equal(t, "third", page.Messages[1].Content)

		page, err = env.messages.GetMessages(ctx, bob.ID, chat.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		assert.False(t, page.HasMore)
		assert.Equal(t, "first", page.Messages[0].Content)
	})

	t.Run("non-participant gets not found", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		outsider := env.createUser(t, "outsider")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)

		_, err := env.messages.GetMessages(ctx, outsider.ID, chat.ID, 50, 0)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.connect(t, alice, bob)
	chat := env.directChat(t, alice, bob)
	env.sendText(t, alice.ID, chat.ID, "hello")

	require.NoError(t, env.messages.MarkRead(ctx, bob.ID, chat.ID))

	// Okundu bilgisi monotondur — tekrar işaretlemek durumu bozmaz
	require.NoError(t, env.messages.MarkRead(ctx, bob.ID, chat.ID))

	var reads int
	require.NoError(t, env.db.Conn.QueryRow(
		`SELECT COUNT(*) FROM message_reads mr
		 JOIN messages m ON m.id = mr.message_id
		 WHERE m.chat_id = ? AND mr.user_id = ?`, chat.ID, bob.ID).Scan(&reads))
	assert.Equal(t, 1, reads)
}

func TestEditMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("sender edits within the window", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)
		msg := env.sendText(t, alice.ID, chat.ID, "helo")

		edited, err := env.messages.EditMessage(ctx, alice.ID, msg.ID, &models.EditMessageRequest{Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", edited.Content)
		assert.True(t, edited.IsEdited)

		// Önceki içerik geçmişe yazılır
		history, err := env.messages.EditHistory(ctx, bob.ID, msg.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "helo", history[0].PriorContent)

		// Düzenleme diğer katılımcıya kendi event tipiyle yayılır —
		// istemci yeni mesajla güncellemeyi ayırt edebilir
		var sawEdit bool
		for _, ev := range env.hub.eventsFor(bob.ID) {
			if ev.Type == ws.EventMessageEdited {
				sawEdit = true
			}
		}
		assert.True(t, sawEdit)
	})

	t.Run("only sender can edit", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)
		msg := env.sendText(t, alice.ID, chat.ID, "mine")

		_, err := env.messages.EditMessage(ctx, bob.ID, msg.ID, &models.EditMessageRequest{Content: "hijacked"})
		assert.ErrorIs(t, err, pkg.ErrForbidden)
	})

	t.Run("window expires", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)
		chat := env.directChat(t, alice, bob)
		msg := env.sendText(t, alice.ID, chat.ID, "too late")

		old := time.Now().UTC().Add(-models.MessageEditWindow - time.Minute)
		_, err := env.db.Conn.Exec(`UPDATE messages SET created_at = ? WHERE id = ?`, old, msg.ID)
		require.NoError(t, err)

		_, err = env.messages.EditMessage(ctx, alice.ID, msg.ID, &models.EditMessageRequest{Content: "edit"})
		require.ErrorIs(t, err, pkg.ErrForbidden)
		assert.ErrorContains(t, err, "edit window expired")
	})
}

func TestReactions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.connect(t, alice, bob)
	chat := env.directChat(t, alice, bob)
	msg := env.sendText(t, alice.ID, chat.ID, "react to this")

	t.Run("new emoji replaces the old one", func(t *testing.T) {
		require.NoError(t, env.messages.React(ctx, bob.ID, msg.ID, &models.ReactionRequest{Emoji: "👍"}))
		require.NoError(t, env.messages.React(ctx, bob.ID, msg.ID, &models.ReactionRequest{Emoji: "❤️"}))

		page, err := env.messages.GetMessages(ctx, alice.ID, chat.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		require.Len(t, page.Messages[0].Reactions, 1)
		assert.Equal(t, "❤️", page.Messages[0].Reactions[0].Emoji)
	})

	t.Run("remove reaction", func(t *testing.T) {
		require.NoError(t, env.messages.RemoveReaction(ctx, bob.ID, msg.ID))

		// Olmayan reaksiyonu kaldırmak hata döner
		err := env.messages.RemoveReaction(ctx, bob.ID, msg.ID)
		require.ErrorIs(t, err, pkg.ErrNotFound)
		assert.ErrorContains(t, err, "no reaction to remove")
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.connect(t, alice, bob)
	env.connect(t, bob, carol)

	chatAB := env.directChat(t, alice, bob)
	chatBC := env.directChat(t, bob, carol)
	env.sendText(t, alice.ID, chatAB.ID, "pizza tonight?")
	env.sendText(t, bob.ID, chatBC.ID, "pizza with carol instead")

	t.Run("scoped to own chats", func(t *testing.T) {
		results, err := env.messages.Search(ctx, alice.ID, "pizza", "", 25)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, chatAB.ID, results[0].ChatID)

		results, err = env.messages.Search(ctx, bob.ID, "pizza", "", 25)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("chat id narrows the scope", func(t *testing.T) {
		results, err := env.messages.Search(ctx, bob.ID, "pizza", chatBC.ID, 25)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, chatBC.ID, results[0].ChatID)

		// Katılımcı olunmayan sohbete daraltma sonuç sızdırmaz
		results, err = env.messages.Search(ctx, alice.ID, "pizza", chatBC.ID, 25)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("matches non-text message content", func(t *testing.T) {
		_, err := env.messages.SendMessage(ctx, alice.ID, chatAB.ID, &models.SendMessageRequest{
			Content:  "vacation photo",
			Type:     models.MessageTypeImage,
			MediaURL: "https://cdn.example.com/p/1.jpg",
		})
		require.NoError(t, err)

		results, err := env.messages.Search(ctx, alice.ID, "vacation", "", 25)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, models.MessageTypeImage, results[0].Message.Type)
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		_, err := env.messages.Search(ctx, alice.ID, "   ", "", 25)
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.connect(t, alice, bob)
	chat := env.directChat(t, alice, bob)
	msg := env.sendText(t, alice.ID, chat.ID, "oops")

	err := env.messages.DeleteMessage(ctx, bob.ID, msg.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	require.NoError(t, env.messages.DeleteMessage(ctx, alice.ID, msg.ID))

	page, err := env.messages.GetMessages(ctx, bob.ID, chat.ID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
}
