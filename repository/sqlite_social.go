// Package repository — SocialRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gulfreturn/pulse/models"
)

// sqliteSocialRepo, SocialRepository'nin SQLite implementasyonu.
type sqliteSocialRepo struct {
	db *sql.DB
}

// NewSQLiteSocialRepo, constructor.
func NewSQLiteSocialRepo(db *sql.DB) SocialRepository {
	return &sqliteSocialRepo{db: db}
}

// AddToList, hedef kullanıcıyı listeye ekler.
func (r *sqliteSocialRepo) AddToList(ctx context.Context, ownerID, targetID, listType string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_lists (owner_id, target_id, list_type, added_at)
		 VALUES (?, ?, ?, ?)`,
		ownerID, targetID, listType, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("social add to list: %w", err)
	}
	return nil
}

// RemoveFromList, hedef kullanıcıyı listeden çıkarır.
func (r *sqliteSocialRepo) RemoveFromList(ctx context.Context, ownerID, targetID, listType string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_lists WHERE owner_id = ? AND target_id = ? AND list_type = ?`,
		ownerID, targetID, listType)
	if err != nil {
		return fmt.Errorf("social remove from list: %w", err)
	}
	return nil
}

// ListMembers, listedeki kullanıcıları ekleme sırasına göre döner.
func (r *sqliteSocialRepo) ListMembers(ctx context.Context, ownerID, listType string) ([]models.UserSummary, error) {
	query := `SELECT u.id, u.username, u.full_name, u.avatar_url, u.is_verified, u.is_online
	          FROM user_lists l
	          JOIN users u ON u.id = l.target_id
	          WHERE l.owner_id = ? AND l.list_type = ?
	          ORDER BY l.added_at ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID, listType)
	if err != nil {
		return nil, fmt.Errorf("social list members: %w", err)
	}
	defer rows.Close()

	result := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.AvatarURL, &s.IsVerified, &s.IsOnline); err != nil {
			return nil, fmt.Errorf("social member scan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// RemoveFromAllLists, iki kullanıcıyı birbirinin tüm listelerinden çıkarır.
func (r *sqliteSocialRepo) RemoveFromAllLists(ctx context.Context, userA, userB string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_lists
		 WHERE (owner_id = ? AND target_id = ?) OR (owner_id = ? AND target_id = ?)`,
		userA, userB, userB, userA)
	if err != nil {
		return fmt.Errorf("social remove from all lists: %w", err)
	}
	return nil
}
