// Package repository — ConnectionRepository SQLite implementasyonu.
//
// connections tablosu çift başına tek satır tutar; liste sorgularında
// karşı tarafın ID'si CASE WHEN ile çözülür ve users tablosuna JOIN edilir.
// Öneri sorgusu CTE ile tek seferde hesaplanır (bkz. Suggestions).
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// sqliteConnectionRepo, ConnectionRepository'nin SQLite implementasyonu.
type sqliteConnectionRepo struct {
	db *sql.DB
}

// NewSQLiteConnectionRepo, constructor.
func NewSQLiteConnectionRepo(db *sql.DB) ConnectionRepository {
	return &sqliteConnectionRepo{db: db}
}

const connectionColumns = `id, sender_id, receiver_id, status, connection_type, message,
	created_at, updated_at, connected_at, expires_at`

// scanConnection, tek satırlık Scan hedeflerini toplar.
func scanConnection(row interface{ Scan(...any) error }) (*models.Connection, error) {
	var c models.Connection
	err := row.Scan(
		&c.ID, &c.SenderID, &c.ReceiverID, &c.Status, &c.ConnectionType, &c.Message,
		&c.CreatedAt, &c.UpdatedAt, &c.ConnectedAt, &c.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create, yeni bir bağlantı kaydı oluşturur.
func (r *sqliteConnectionRepo) Create(ctx context.Context, c *models.Connection) error {
	query := `INSERT INTO connections
	          (id, sender_id, receiver_id, status, connection_type, message,
	           created_at, updated_at, connected_at, expires_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.SenderID, c.ReceiverID, c.Status, c.ConnectionType, c.Message,
		c.CreatedAt, c.UpdatedAt, c.ConnectedAt, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("connection create: %w", err)
	}
	return nil
}

// GetByID, ID ile bağlantı kaydı döner.
func (r *sqliteConnectionRepo) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = ?`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: connection %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("connection get by id: %w", err)
	}
	return c, nil
}

// GetByPair, iki kullanıcı arasındaki kaydı döner (yön fark etmez).
func (r *sqliteConnectionRepo) GetByPair(ctx context.Context, userA, userB string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
	          WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, userA, userB, userB, userA))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: connection between %s and %s", pkg.ErrNotFound, userA, userB)
	}
	if err != nil {
		return nil, fmt.Errorf("connection get by pair: %w", err)
	}
	return c, nil
}

// UpdateStatus, kaydın durumunu günceller.
// accepted geçişinde connected_at set edilir, expires_at temizlenir.
func (r *sqliteConnectionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC()

	var result sql.Result
	var err error
	if status == models.ConnectionStatusAccepted {
		result, err = r.db.ExecContext(ctx,
			`UPDATE connections SET status = ?, updated_at = ?, connected_at = ?, expires_at = NULL WHERE id = ?`,
			status, now, now, id)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE connections SET status = ?, updated_at = ? WHERE id = ?`,
			status, now, id)
	}
	if err != nil {
		return fmt.Errorf("connection update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("connection update status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: connection %s", pkg.ErrNotFound, id)
	}
	return nil
}

// Delete, kaydı ID ile siler.
func (r *sqliteConnectionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("connection delete: %w", err)
	}
	return nil
}

// DeleteByPair, iki kullanıcı arasındaki kaydı siler (yön fark etmez).
func (r *sqliteConnectionRepo) DeleteByPair(ctx context.Context, userA, userB string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM connections
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
		userA, userB, userB, userA)
	if err != nil {
		return fmt.Errorf("connection delete by pair: %w", err)
	}
	return nil
}

// listWithUser, bağlantı + karşı taraf profili sorgularının ortak scan döngüsü.
func (r *sqliteConnectionRepo) listWithUser(ctx context.Context, query string, args ...any) ([]models.ConnectionWithUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("connection list: %w", err)
	}
	defer rows.Close()

	result := []models.ConnectionWithUser{}
	for rows.Next() {
		var cw models.ConnectionWithUser
		err := rows.Scan(
			&cw.ID, &cw.SenderID, &cw.ReceiverID, &cw.Status, &cw.ConnectionType, &cw.Message,
			&cw.CreatedAt, &cw.UpdatedAt, &cw.ConnectedAt, &cw.ExpiresAt,
			&cw.User.ID, &cw.User.Username, &cw.User.FullName, &cw.User.AvatarURL,
			&cw.User.IsVerified, &cw.User.IsOnline,
		)
		if err != nil {
			return nil, fmt.Errorf("connection scan: %w", err)
		}
		result = append(result, cw)
	}
	return result, rows.Err()
}

// ListAccepted, kullanıcının bağlantılarını karşı taraf profiliyle döner.
// Karşı tarafın ID'si CASE WHEN ile çözülür — tek sorgu, UNION gerekmez.
// mutual_count, her satır için korelasyonlu scalar subquery ile hesaplanır:
// hem kullanıcıya hem karşı tarafa accepted bağlı olan üçüncü kişilerin sayısı.
func (r *sqliteConnectionRepo) ListAccepted(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	query := `SELECT c.id, c.sender_id, c.receiver_id, c.status, c.connection_type, c.message,
	                 c.created_at, c.updated_at, c.connected_at, c.expires_at,
	                 u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online,
	                 (SELECT COUNT(*)
	                  FROM connections m1
	                  JOIN connections m2 ON
	                    (CASE WHEN m1.sender_id = ? THEN m1.receiver_id ELSE m1.sender_id END) =
	                    (CASE WHEN m2.sender_id = u.id THEN m2.receiver_id ELSE m2.sender_id END)
	                  WHERE (m1.sender_id = ? OR m1.receiver_id = ?) AND m1.status = 'accepted'
	                    AND (m2.sender_id = u.id OR m2.receiver_id = u.id) AND m2.status = 'accepted'
	                    AND (CASE WHEN m1.sender_id = ? THEN m1.receiver_id ELSE m1.sender_id END) != u.id
	                 ) AS mutual_count
	          FROM connections c
	          JOIN users u ON u.id = CASE WHEN c.sender_id = ? THEN c.receiver_id ELSE c.sender_id END
	          WHERE (c.sender_id = ? OR c.receiver_id = ?) AND c.status = 'accepted'
	          ORDER BY c.connected_at DESC`

	rows, err := r.db.QueryContext(ctx, query,
		userID, userID, userID, userID,
		userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("connection list: %w", err)
	}
	defer rows.Close()

	result := []models.ConnectionWithUser{}
	for rows.Next() {
		var cw models.ConnectionWithUser
		err := rows.Scan(
			&cw.ID, &cw.SenderID, &cw.ReceiverID, &cw.Status, &cw.ConnectionType, &cw.Message,
			&cw.CreatedAt, &cw.UpdatedAt, &cw.ConnectedAt, &cw.ExpiresAt,
			&cw.User.ID, &cw.User.Username, &cw.User.FullName, &cw.User.AvatarURL,
			&cw.User.IsVerified, &cw.User.IsOnline, &cw.MutualCount,
		)
		if err != nil {
			return nil, fmt.Errorf("connection scan: %w", err)
		}
		result = append(result, cw)
	}
	return result, rows.Err()
}

// ListIncoming, kullanıcıya gelen pending istekleri döner.
// Süresi dolmuş istekler sorguda filtrelenir (silme işini service yapar).
func (r *sqliteConnectionRepo) ListIncoming(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	query := `SELECT c.id, c.sender_id, c.receiver_id, c.status, c.connection_type, c.message,
	                 c.created_at, c.updated_at, c.connected_at, c.expires_at,
	                 u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online
	          FROM connections c
	          JOIN users u ON u.id = c.sender_id
	          WHERE c.receiver_id = ? AND c.status = 'pending'
	            AND (c.expires_at IS NULL OR c.expires_at > ?)
	          ORDER BY c.created_at DESC`

	return r.listWithUser(ctx, query, userID, time.Now().UTC())
}

// ListOutgoing, kullanıcının gönderdiği pending istekleri döner.
func (r *sqliteConnectionRepo) ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	query := `SELECT c.id, c.sender_id, c.receiver_id, c.status, c.connection_type, c.message,
	                 c.created_at, c.updated_at, c.connected_at, c.expires_at,
	                 u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online
	          FROM connections c
	          JOIN users u ON u.id = c.receiver_id
	          WHERE c.sender_id = ? AND c.status = 'pending'
	            AND (c.expires_at IS NULL OR c.expires_at > ?)
	          ORDER BY c.created_at DESC`

	return r.listWithUser(ctx, query, userID, time.Now().UTC())
}

// ListBlocked, kullanıcının engellediği kullanıcıları döner.
// blocked kayıtlar yönlüdür: sender_id engelleyen taraftır.
func (r *sqliteConnectionRepo) ListBlocked(ctx context.Context, userID string) ([]models.ConnectionWithUser, error) {
	query := `SELECT c.id, c.sender_id, c.receiver_id, c.status, c.connection_type, c.message,
	                 c.created_at, c.updated_at, c.connected_at, c.expires_at,
	                 u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online
	          FROM connections c
	          JOIN users u ON u.id = c.receiver_id
	          WHERE c.sender_id = ? AND c.status = 'blocked'
	          ORDER BY c.updated_at DESC`

	return r.listWithUser(ctx, query, userID)
}

// AreConnected, iki kullanıcının accepted bağlantısı var mı?
func (r *sqliteConnectionRepo) AreConnected(ctx context.Context, userA, userB string) (bool, error) {
	query := `SELECT COUNT(*) FROM connections
	          WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
	            AND status = 'accepted'`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userA, userB, userB, userA).Scan(&count); err != nil {
		return false, fmt.Errorf("connection are connected: %w", err)
	}
	return count > 0, nil
}

// AcceptedNeighborIDs, kullanıcının bağlı olduğu kullanıcı ID'lerini döner.
func (r *sqliteConnectionRepo) AcceptedNeighborIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
	          FROM connections
	          WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("connection neighbors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("connection neighbor scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Suggestions, ikinci derece bağlantı önerilerini döner.
//
// CTE adımları:
//  1. neighbors   → kullanıcının accepted komşuları
//  2. excluded    → kendisi + herhangi bir kayıtla (pending/accepted/
//     rejected/blocked, her iki yönde) ilişkili olduğu herkes
//  3. candidates  → komşuların komşuları, excluded hariç; her aday için
//     kaç farklı komşu üzerinden ulaşıldığı = mutual count
//
// Sıralama: mutual_count DESC, eşitlikte kullanıcı ID'si ASC (deterministik).
func (r *sqliteConnectionRepo) Suggestions(ctx context.Context, userID string, limit int) ([]models.ConnectionSuggestion, error) {
	query := `
	WITH neighbors AS (
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS id
		FROM connections
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'
	),
	excluded AS (
		SELECT ? AS id
		UNION
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM connections
		WHERE sender_id = ? OR receiver_id = ?
	),
	candidates AS (
		SELECT CASE WHEN c.sender_id = n.id THEN c.receiver_id ELSE c.sender_id END AS id
		FROM connections c
		JOIN neighbors n ON n.id IN (c.sender_id, c.receiver_id)
		WHERE c.status = 'accepted'
	)
	SELECT u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online,
	       COUNT(*) AS mutual_count
	FROM candidates cand
	JOIN users u ON u.id = cand.id
	WHERE cand.id NOT IN (SELECT id FROM excluded)
	GROUP BY cand.id
	ORDER BY mutual_count DESC, u.id ASC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query,
		userID, userID, userID,
		userID, userID, userID, userID,
		limit)
	if err != nil {
		return nil, fmt.Errorf("connection suggestions: %w", err)
	}
	defer rows.Close()

	result := []models.ConnectionSuggestion{}
	for rows.Next() {
		var s models.ConnectionSuggestion
		err := rows.Scan(
			&s.User.ID, &s.User.Username, &s.User.FullName, &s.User.AvatarURL,
			&s.User.IsVerified, &s.User.IsOnline, &s.MutualCount,
		)
		if err != nil {
			return nil, fmt.Errorf("suggestion scan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// MutualCount, iki kullanıcının ortak bağlantı sayısını döner.
// İki komşu kümesinin kesişimi INTERSECT ile alınır.
func (r *sqliteConnectionRepo) MutualCount(ctx context.Context, userA, userB string) (int, error) {
	query := `
	SELECT COUNT(*) FROM (
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM connections
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'
		INTERSECT
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM connections
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'
	)`

	var count int
	err := r.db.QueryRowContext(ctx, query,
		userA, userA, userA,
		userB, userB, userB,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("connection mutual count: %w", err)
	}
	return count, nil
}

// MutualConnections, iki kullanıcının ortak bağlantılarının profillerini döner.
// Kesişim MutualCount ile aynı INTERSECT üzerinden alınır.
func (r *sqliteConnectionRepo) MutualConnections(ctx context.Context, userA, userB string, limit int) ([]models.UserSummary, error) {
	query := `
	SELECT u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online
	FROM users u
	WHERE u.id IN (
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM connections
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'
		INTERSECT
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM connections
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'accepted'
	)
	ORDER BY u.username ASC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query,
		userA, userA, userA,
		userB, userB, userB,
		limit)
	if err != nil {
		return nil, fmt.Errorf("connection mutual list: %w", err)
	}
	defer rows.Close()

	result := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.AvatarURL, &u.IsVerified, &u.IsOnline)
		if err != nil {
			return nil, fmt.Errorf("mutual user scan: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Stats, kullanıcının bağlantı istatistiklerini döner.
func (r *sqliteConnectionRepo) Stats(ctx context.Context, userID string) (*models.ConnectionStats, error) {
	query := `
	SELECT
		COALESCE(SUM(CASE WHEN status = 'accepted' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'pending' AND sender_id = ?
		              AND (expires_at IS NULL OR expires_at > ?) THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'pending' AND receiver_id = ?
		              AND (expires_at IS NULL OR expires_at > ?) THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'blocked' AND sender_id = ? THEN 1 ELSE 0 END), 0)
	FROM connections
	WHERE sender_id = ? OR receiver_id = ?`

	now := time.Now().UTC()
	var s models.ConnectionStats
	err := r.db.QueryRowContext(ctx, query,
		userID, now, userID, now, userID, userID, userID,
	).Scan(&s.TotalConnections, &s.PendingSent, &s.PendingReceived, &s.Blocked)
	if err != nil {
		return nil, fmt.Errorf("connection stats: %w", err)
	}
	return &s, nil
}

// DeleteExpiredPending, süresi dolmuş pending istekleri siler.
// userID'yi ilgilendiren kayıtlarla sınırlı — global sweep yapılmaz.
func (r *sqliteConnectionRepo) DeleteExpiredPending(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM connections
		 WHERE (sender_id = ? OR receiver_id = ?)
		   AND status = 'pending' AND expires_at IS NOT NULL AND expires_at <= ?`,
		userID, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("connection delete expired: %w", err)
	}
	return result.RowsAffected()
}
