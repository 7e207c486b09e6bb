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

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request with expiry", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{
			ReceiverID: bob.ID,
			Message:    "hi bob",
		})
		require.NoError(t, err)

		assert.Equal(t, models.ConnectionStatusPending, conn.Status)
		assert.Equal(t, models.ConnectionTypeStandard, conn.ConnectionType)
		require.NotNil(t, conn.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(models.PendingRequestTTL), *conn.ExpiresAt, time.Minute)

		// Alıcıya WS event gitti
		events := env.hub.eventsFor(bob.ID)
		require.Len(t, events, 1)
		assert.Equal(t, ws.EventConnectionRequest, events[0].Type)

		// Kalıcı bildirim yazıldı
		count, err := env.notifications.UnreadCount(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("rejects self request", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")

		_, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	t.Run("rejects unknown receiver", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")

		_, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: "no-such-user"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("one record per pair", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		_, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		// Aynı yönde tekrar
		_, err = env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

		// Ters yönde de tek kayıt kuralı geçerli
		_, err = env.connections.SendRequest(ctx, bob.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("already connected pair", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)

		_, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("expired pending is replaced by new request", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		old, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		expireConnection(t, env, old.ID)

		fresh, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)
		assert.NotEqual(t, old.ID, fresh.ID)
		assert.Equal(t, models.ConnectionStatusPending, fresh.Status)
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("accept connects both directions", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		accepted, err := env.connections.Respond(ctx, bob.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)
		assert.NotNil(t, accepted.ConnectedAt)
		assert.Nil(t, accepted.ExpiresAt)

		// Bağlantı simetriktir — iki taraf da birbirinin listesinde görür
		for _, u := range []*models.User{alice, bob} {
			list, err := env.connections.ListConnections(ctx, u.ID)
			require.NoError(t, err)
			require.Len(t, list, 1)
		}

		connected, err := env.connRepo.AreConnected(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, connected)
	})

	t.Run("only receiver can respond", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		// Gönderen kendi isteğini cevaplayamaz — varlık sızdırılmaz
		_, err = env.connections.Respond(ctx, alice.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		// Üçüncü taraf da cevaplayamaz
		carol := env.createUser(t, "carol")
		_, err = env.connections.Respond(ctx, carol.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("expired request cannot be answered", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		expireConnection(t, env, conn.ID)

		_, err = env.connections.Respond(ctx, bob.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("fresh request replaces a rejected record", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		rejected, err := env.connections.Respond(ctx, bob.ID, conn.ID, &models.RespondConnectionRequest{Action: "reject"})
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusRejected, rejected.Status)

		// İlk gönderen tekrar istek atabilir — eski kayıt silinir,
		// yeni pending açılır
		fresh, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusPending, fresh.Status)
		assert.Equal(t, alice.ID, fresh.SenderID)
		assert.NotEqual(t, conn.ID, fresh.ID)

		// Çift başına hâlâ tek kayıt vardır
		var rows int
		require.NoError(t, env.db.Conn.QueryRow(
			`SELECT COUNT(*) FROM connections
			 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
			alice.ID, bob.ID, bob.ID, alice.ID).Scan(&rows))
		assert.Equal(t, 1, rows)

		// Reddeden tarafın fikir değiştirip istek atması da serbesttir
		rej2, err := env.connections.Respond(ctx, bob.ID, fresh.ID, &models.RespondConnectionRequest{Action: "reject"})
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusRejected, rej2.Status)

		fromDecliner, err := env.connections.SendRequest(ctx, bob.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusPending, fromDecliner.Status)
		assert.Equal(t, bob.ID, fromDecliner.SenderID)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("either side can remove accepted connection", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		conn := env.connect(t, alice, bob)

		require.NoError(t, env.connections.Remove(ctx, bob.ID, conn.ID))

		connected, err := env.connRepo.AreConnected(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, connected)
	})

	t.Run("non-party cannot remove", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		carol := env.createUser(t, "carol")
		conn := env.connect(t, alice, bob)

		err := env.connections.Remove(ctx, carol.ID, conn.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("pending request cannot be removed as connection", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		require.NoError(t, err)

		err = env.connections.Remove(ctx, alice.ID, conn.ID)
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})
}

func TestBlock(t *testing.T) {
	ctx := context.Background()

	t.Run("block purges pair record and is directional", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")
		env.connect(t, alice, bob)

		blocked, err := env.connections.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusBlocked, blocked.Status)
		assert.Equal(t, alice.ID, blocked.SenderID)

		connected, err := env.connRepo.AreConnected(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, connected)

		statusMine, err := env.connections.PairStatus(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "blocked_by_me", statusMine.Status)

		statusTheirs, err := env.connections.PairStatus(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "blocked_by_them", statusTheirs.Status)
	})

	t.Run("blocked pair cannot exchange requests", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		_, err := env.connections.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		_, err = env.connections.SendRequest(ctx, bob.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
		assert.ErrorIs(t, err, pkg.ErrForbidden)

		_, err = env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
		assert.ErrorIs(t, err, pkg.ErrForbidden)
	})

	t.Run("block is idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		first, err := env.connections.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		second, err := env.connections.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("only blocker can unblock", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createUser(t, "alice")
		bob := env.createUser(t, "bob")

		_, err := env.connections.Block(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		err = env.connections.Unblock(ctx, bob.ID, alice.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		require.NoError(t, env.connections.Unblock(ctx, alice.ID, bob.ID))

		// Engel kalktıktan sonra istek atılabilir
		_, err = env.connections.SendRequest(ctx, bob.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
		require.NoError(t, err)
	})
}

func TestListRequests(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	// bob → alice (gelen), alice → carol (giden)
	_, err := env.connections.SendRequest(ctx, bob.ID, &models.SendConnectionRequest{ReceiverID: alice.ID})
	require.NoError(t, err)
	stale, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: carol.ID})
	require.NoError(t, err)

	requests, err := env.connections.ListRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, requests.Incoming, 1)
	require.Len(t, requests.Outgoing, 1)
	assert.Equal(t, bob.ID, requests.Incoming[0].User.ID)
	assert.Equal(t, carol.ID, requests.Outgoing[0].User.ID)

	// Süresi dolan istek listelemede lazy silinir
	expireConnection(t, env, stale.ID)

	requests, err = env.connections.ListRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, requests.Outgoing)

	var remaining int
	require.NoError(t, env.db.Conn.QueryRow(
		`SELECT COUNT(*) FROM connections WHERE id = ?`, stale.ID).Scan(&remaining))
	assert.Zero(t, remaining)
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	me := env.createUser(t, "me")
	a := env.createUser(t, "a")
	b := env.createUser(t, "b")
	c := env.createUser(t, "c")
	d := env.createUser(t, "d")
	e := env.createUser(t, "e")

	// Graf: me–a, me–b; a–c, b–c, a–d; e ile pending (önerilmemeli)
	env.connect(t, me, a)
	env.connect(t, me, b)
	env.connect(t, a, c)
	env.connect(t, b, c)
	env.connect(t, a, d)
	env.connect(t, a, e)
	_, err := env.connections.SendRequest(ctx, me.ID, &models.SendConnectionRequest{ReceiverID: e.ID})
	require.NoError(t, err)

	suggestions, err := env.connections.Suggestions(ctx, me.ID, 10)
	require.NoError(t, err)

	// c iki ortak bağlantı (a, b) ile ilk sırada; d tek ortak ile ikinci.
	// e pending kaydı yüzünden, a/b zaten bağlı oldukları için dışarıda.
	require.Len(t, suggestions, 2)
	assert.Equal(t, c.ID, suggestions[0].User.ID)
	assert.Equal(t, 2, suggestions[0].MutualCount)
	assert.Equal(t, d.ID, suggestions[1].User.ID)
	assert.Equal(t, 1, suggestions[1].MutualCount)

	// Graf değişince cache düşer — c ile bağlanınca öneriden çıkar
	env.connect(t, me, c)

	suggestions, err = env.connections.Suggestions(ctx, me.ID, 10)
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.NotEqual(t, c.ID, s.User.ID)
	}
}

func TestMutualCountAndStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	dave := env.createUser(t, "dave")

	env.connect(t, alice, carol)
	env.connect(t, bob, carol)
	env.connect(t, alice, dave)
	env.connect(t, dave, carol)

	mutual, err := env.connections.MutualCount(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mutual)

	// Ortak bağlantı listesi sadece kesişimi içerir
	shared, err := env.connections.MutualConnections(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, carol.ID, shared[0].ID)

	// Bağlantı listesi satır başına mutual count ile zenginleşir:
	// alice–carol için dave, alice–dave için carol ortak.
	list, err := env.connections.ListConnections(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, cw := range list {
		assert.Equal(t, 1, cw.MutualCount, "connection to %s", cw.User.Username)
	}

	_, err = env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
	require.NoError(t, err)
	_, err = env.connections.Block(ctx, alice.ID, env.createUser(t, "spammer").ID)
	require.NoError(t, err)

	stats, err := env.connections.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalConnections)
	assert.Equal(t, 1, stats.PendingSent)
	assert.Equal(t, 0, stats.PendingReceived)
	assert.Equal(t, 1, stats.Blocked)
}

func TestPairStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	status, err := env.connections.PairStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "none", status.Status)

	conn, err := env.connections.SendRequest(ctx, alice.ID, &models.SendConnectionRequest{ReceiverID: bob.ID})
	require.NoError(t, err)

	status, err = env.connections.PairStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending_sent", status.Status)

	status, err = env.connections.PairStatus(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending_received", status.Status)

	_, err = env.connections.Respond(ctx, bob.ID, conn.ID, &models.RespondConnectionRequest{Action: "accept"})
	require.NoError(t, err)

	status, err = env.connections.PairStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "connected", status.Status)
	assert.NotNil(t, status.Since)
}

// expireConnection, pending kaydın süresini geçmişe çeker.
func expireConnection(t *testing.T, env *testEnv, connectionID string) {
	t.Helper()
	past := time.Now().UTC().Add(-time.Hour)
	_, err := env.db.Conn.Exec(`UPDATE connections SET expires_at = ? WHERE id = ?`, past, connectionID)
	require.NoError(t, err)
}
