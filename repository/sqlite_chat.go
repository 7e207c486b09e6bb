// Package repository — ChatRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gulfreturn/pulse/database"
	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// sqliteChatRepo, ChatRepository'nin SQLite implementasyonu.
type sqliteChatRepo struct {
	db *sql.DB
}

// NewSQLiteChatRepo, constructor.
func NewSQLiteChatRepo(db *sql.DB) ChatRepository {
	return &sqliteChatRepo{db: db}
}

const chatColumns = `id, type, name, creator_id, direct_key, is_active,
	encryption_enabled, disappearing_messages,
	last_message_content, last_message_sender_id, last_message_type, last_message_at,
	created_at, updated_at`

func scanChat(row interface{ Scan(...any) error }) (*models.Chat, error) {
	var c models.Chat
	var directKey sql.NullString
	err := row.Scan(
		&c.ID, &c.Type, &c.Name, &c.CreatorID, &directKey, &c.IsActive,
		&c.EncryptionEnabled, &c.DisappearingMessages,
		&c.LastMessageContent, &c.LastMessageSenderID, &c.LastMessageType, &c.LastMessageAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DirectKey = directKey.String
	return &c, nil
}

// Create, sohbeti ve katılımcılarını tek transaction'da oluşturur.
// direct_key NULL olabilir (group sohbetlerde) — unique index sadece
// dolu değerlere uygulanır.
func (r *sqliteChatRepo) Create(ctx context.Context, c *models.Chat, participantIDs []string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var directKey any
		if c.DirectKey != "" {
			directKey = c.DirectKey
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO chats
			 (id, type, name, creator_id, direct_key, is_active,
			  encryption_enabled, disappearing_messages, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Type, c.Name, c.CreatorID, directKey, c.IsActive,
			c.EncryptionEnabled, c.DisappearingMessages, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("chat create: %w", err)
		}

		for _, userID := range participantIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO chat_participants (chat_id, user_id, joined_at) VALUES (?, ?, ?)`,
				c.ID, userID, c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("chat add participant: %w", err)
			}
		}
		return nil
	})
}

// GetByID, ID ile sohbet döner.
func (r *sqliteChatRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = ?`

	c, err := scanChat(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: chat %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("chat get by id: %w", err)
	}
	return c, nil
}

// GetByDirectKey, kanonik çift anahtarı ile direct sohbeti döner.
func (r *sqliteChatRepo) GetByDirectKey(ctx context.Context, key string) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE direct_key = ?`

	c, err := scanChat(r.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: direct chat %s", pkg.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("chat get by direct key: %w", err)
	}
	return c, nil
}

// ListForUser, kullanıcının aktif sohbetlerini döner.
// Son mesajı olmayan sohbetler oluşturulma zamanına göre sıralanır.
func (r *sqliteChatRepo) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	query := `SELECT ` + prefixColumns("c", chatColumns) + `
	          FROM chats c
	          JOIN chat_participants cp ON cp.chat_id = c.id
	          WHERE cp.user_id = ? AND c.is_active = 1
	          ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("chat list for user: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("chat scan: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// prefixColumns, "a, b, c" kolon listesine tablo alias'ı ekler → "c.a, c.b, c.c".
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// Participants, sohbetin katılımcılarını döner.
func (r *sqliteChatRepo) Participants(ctx context.Context, chatID string) ([]models.ChatParticipant, error) {
	query := `SELECT chat_id, user_id, is_muted, joined_at
	          FROM chat_participants WHERE chat_id = ?`

	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat participants: %w", err)
	}
	defer rows.Close()

	var result []models.ChatParticipant
	for rows.Next() {
		var p models.ChatParticipant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.IsMuted, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("participant scan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ParticipantsForChats, birden fazla sohbetin katılımcılarını batch döner.
func (r *sqliteChatRepo) ParticipantsForChats(ctx context.Context, chatIDs []string) (map[string][]models.ChatParticipant, error) {
	result := make(map[string][]models.ChatParticipant, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(chatIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(
		`SELECT chat_id, user_id, is_muted, joined_at
		 FROM chat_participants WHERE chat_id IN (%s)`, placeholders)

	args := make([]any, len(chatIDs))
	for i, id := range chatIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chat participants batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ChatParticipant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.IsMuted, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("participant scan: %w", err)
		}
		result[p.ChatID] = append(result[p.ChatID], p)
	}
	return result, rows.Err()
}

// IsParticipant, kullanıcının sohbet üyesi olup olmadığını döner.
func (r *sqliteChatRepo) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?`,
		chatID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("chat is participant: %w", err)
	}
	return count > 0, nil
}

// AddParticipant, sohbete katılımcı ekler. Zaten üyeyse no-op.
func (r *sqliteChatRepo) AddParticipant(ctx context.Context, chatID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_participants (chat_id, user_id, joined_at) VALUES (?, ?, ?)`,
		chatID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("chat add participant: %w", err)
	}
	return nil
}

// RemoveParticipant, katılımcıyı sohbetten çıkarır.
func (r *sqliteChatRepo) RemoveParticipant(ctx context.Context, chatID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_participants WHERE chat_id = ? AND user_id = ?`,
		chatID, userID)
	if err != nil {
		return fmt.Errorf("chat remove participant: %w", err)
	}
	return nil
}

// SetMuted, kullanıcının sohbeti sessize alma durumunu günceller.
func (r *sqliteChatRepo) SetMuted(ctx context.Context, chatID, userID string, muted bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chat_participants SET is_muted = ? WHERE chat_id = ? AND user_id = ?`,
		muted, chatID, userID)
	if err != nil {
		return fmt.Errorf("chat set muted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat set muted: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: not a participant of chat %s", pkg.ErrNotFound, chatID)
	}
	return nil
}

// UpdateSettings, sohbet ayarlarını günceller.
// SET cümlesi sadece dolu alanlardan dinamik kurulur.
func (r *sqliteChatRepo) UpdateSettings(ctx context.Context, chatID string, req *models.UpdateChatSettingsRequest) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.EncryptionEnabled != nil {
		sets = append(sets, "encryption_enabled = ?")
		args = append(args, *req.EncryptionEnabled)
	}
	if req.DisappearingMessages != nil {
		sets = append(sets, "disappearing_messages = ?")
		args = append(args, *req.DisappearingMessages)
	}
	args = append(args, chatID)

	query := fmt.Sprintf(`UPDATE chats SET %s WHERE id = ?`, strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("chat update settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat update settings: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: chat %s", pkg.ErrNotFound, chatID)
	}
	return nil
}

// SetActive, sohbetin aktiflik durumunu günceller (soft delete).
func (r *sqliteChatRepo) SetActive(ctx context.Context, chatID string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("chat set active: %w", err)
	}
	return nil
}

// SetLastMessageTx, sohbetin denormalize son-mesaj alanlarını günceller.
// Uzun içerik liste görünümü için 120 karaktere kırpılır.
func (r *sqliteChatRepo) SetLastMessageTx(ctx context.Context, q database.TxQuerier, chatID, content, senderID, msgType string, at time.Time) error {
	preview := content
	if len(preview) > 120 {
		preview = preview[:120]
	}

	_, err := q.ExecContext(ctx,
		`UPDATE chats
		 SET last_message_content = ?, last_message_sender_id = ?,
		     last_message_type = ?, last_message_at = ?, updated_at = ?
		 WHERE id = ?`,
		preview, senderID, msgType, at, at, chatID)
	if err != nil {
		return fmt.Errorf("chat set last message: %w", err)
	}
	return nil
}
