// Package repository — UserRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// sqliteUserRepo, UserRepository'nin SQLite implementasyonu.
// Private struct — dışarıdan sadece interface üzerinden erişilir.
type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, constructor. Dependency injection ile DB bağlantısı alır.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

// Create, yeni bir kullanıcı kaydı oluşturur.
func (r *sqliteUserRepo) Create(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (id, username, full_name, avatar_url, bio, is_verified, is_online, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.FullName, u.AvatarURL, u.Bio, u.IsVerified, u.IsOnline, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

// GetByID, ID ile kullanıcı döner.
func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, full_name, avatar_url, bio, is_verified, is_online, last_seen, created_at
	          FROM users WHERE id = ?`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.AvatarURL, &u.Bio,
		&u.IsVerified, &u.IsOnline, &u.LastSeen, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return &u, nil
}

// GetByIDs, ID listesi ile kullanıcıları batch döner.
// IN (?) placeholder'ları dinamik üretilir — SQLite'ta array bind yok.
func (r *sqliteUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	result := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(
		`SELECT id, username, full_name, avatar_url, is_verified, is_online
		 FROM users WHERE id IN (%s)`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user get by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.AvatarURL, &s.IsVerified, &s.IsOnline); err != nil {
			return nil, fmt.Errorf("user scan: %w", err)
		}
		result[s.ID] = s
	}
	return result, rows.Err()
}

// SetOnline, kullanıcının online durumunu günceller.
func (r *sqliteUserRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	var err error
	if online {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_online = 1 WHERE id = ?`, userID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_online = 0, last_seen = ? WHERE id = ?`, time.Now().UTC(), userID)
	}
	if err != nil {
		return fmt.Errorf("user set online: %w", err)
	}
	return nil
}
