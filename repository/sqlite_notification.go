// Package repository — NotificationRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// sqliteNotificationRepo, NotificationRepository'nin SQLite implementasyonu.
type sqliteNotificationRepo struct {
	db *sql.DB
}

// NewSQLiteNotificationRepo, constructor.
func NewSQLiteNotificationRepo(db *sql.DB) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

// Create, yeni bir bildirim kaydı oluşturur.
func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (id, user_id, type, actor_id, title, body, data, is_read, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.ActorID, n.Title, n.Body, n.Data, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notification create: %w", err)
	}
	return nil
}

// ListForUser, kullanıcının bildirimlerini yeniden eskiye döner.
func (r *sqliteNotificationRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, actor_id, title, body, data, is_read, created_at
	          FROM notifications WHERE user_id = ?
	          ORDER BY created_at DESC, rowid DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notification list: %w", err)
	}
	defer rows.Close()

	result := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.ActorID, &n.Title, &n.Body, &n.Data, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("notification scan: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// UnreadCount, okunmamış bildirim sayısını döner.
func (r *sqliteNotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notification unread count: %w", err)
	}
	return count, nil
}

// MarkRead, tek bildirimi okundu işaretler.
// user_id koşulu sahiplik kontrolüdür — başkasının bildirimi NotFound döner.
func (r *sqliteNotificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("notification mark read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("notification mark read: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %s", pkg.ErrNotFound, notificationID)
	}
	return nil
}

// MarkAllRead, kullanıcının tüm bildirimlerini okundu işaretler.
func (r *sqliteNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return fmt.Errorf("notification mark all read: %w", err)
	}
	return nil
}
