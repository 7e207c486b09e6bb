// Package repository — MessageRepository SQLite implementasyonu.
//
// Sayfalama: created_at DESC, rowid DESC — aynı saniyede atılmış
// mesajlarda rowid insert sırasını korur (deterministik tiebreak).
// Kaybolan mesajlar lazy filtrelenir: disappears_at geçmişse satır
// sorgu sonuçlarına girmez, fiziksel silme yapılmaz.
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

// sqliteMessageRepo, MessageRepository'nin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, type, media_url,
	reply_to_id, delivery_status, is_edited, disappears_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	var replyTo sql.NullString
	err := row.Scan(
		&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Type, &m.MediaURL,
		&replyTo, &m.DeliveryStatus, &m.IsEdited, &m.DisappearsAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ReplyToID = replyTo.String
	return &m, nil
}

// CreateTx, mesajı transaction içinde oluşturur.
func (r *sqliteMessageRepo) CreateTx(ctx context.Context, q database.TxQuerier, m *models.Message) error {
	var replyTo any
	if m.ReplyToID != "" {
		replyTo = m.ReplyToID
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO messages
		 (id, chat_id, sender_id, content, type, media_url,
		  reply_to_id, delivery_status, is_edited, disappears_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.SenderID, m.Content, m.Type, m.MediaURL,
		replyTo, m.DeliveryStatus, m.IsEdited, m.DisappearsAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("message create: %w", err)
	}
	return nil
}

// GetByID, ID ile mesaj döner. Süresi geçmiş kaybolan mesaj da NotFound sayılır.
func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
	          WHERE id = ? AND (disappears_at IS NULL OR disappears_at > ?)`

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id, time.Now().UTC()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: message %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("message get by id: %w", err)
	}
	return m, nil
}

// List, sohbetin mesajlarını en yeniden eskiye doğru sayfalar.
func (r *sqliteMessageRepo) List(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
	          WHERE chat_id = ? AND (disappears_at IS NULL OR disappears_at > ?)
	          ORDER BY created_at DESC, rowid DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, chatID, time.Now().UTC(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("message list: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("message scan: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// InsertReadTx, tek mesaj için okuma kaydı ekler.
func (r *sqliteMessageRepo) InsertReadTx(ctx context.Context, q database.TxQuerier, messageID, userID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO message_reads (message_id, user_id, read_at) VALUES (?, ?, ?)`,
		messageID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("message insert read: %w", err)
	}
	return nil
}

// MarkRead, sohbetteki başkalarına ait tüm mesajları okundu işaretler.
// INSERT OR IGNORE: var olan kayıtlara dokunmaz — read_at ilk okuma
// zamanında sabit kalır ve okundu bilgisi asla geri alınmaz.
func (r *sqliteMessageRepo) MarkRead(ctx context.Context, chatID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO message_reads (message_id, user_id, read_at)
		 SELECT id, ?, ? FROM messages
		 WHERE chat_id = ? AND sender_id != ?`,
		userID, time.Now().UTC(), chatID, userID)
	if err != nil {
		return fmt.Errorf("message mark read: %w", err)
	}
	return nil
}

// inPlaceholders, IN (?) listesi için placeholder string ve arg slice üretir.
func inPlaceholders(ids []string) (string, []any) {
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return placeholders, args
}

// ReadsByMessageIDs, mesaj → okuyan kullanıcı ID'leri map'ini batch döner.
func (r *sqliteMessageRepo) ReadsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(messageIDs)
	query := fmt.Sprintf(
		`SELECT message_id, user_id FROM message_reads
		 WHERE message_id IN (%s) ORDER BY read_at ASC`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("message reads batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID string
		if err := rows.Scan(&messageID, &userID); err != nil {
			return nil, fmt.Errorf("read scan: %w", err)
		}
		result[messageID] = append(result[messageID], userID)
	}
	return result, rows.Err()
}

// ReactionsByMessageIDs, mesaj → reaksiyon listesi map'ini batch döner.
func (r *sqliteMessageRepo) ReactionsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.Reaction, error) {
	result := make(map[string][]models.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(messageIDs)
	query := fmt.Sprintf(
		`SELECT message_id, user_id, emoji, created_at FROM message_reactions
		 WHERE message_id IN (%s) ORDER BY created_at ASC`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("message reactions batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var re models.Reaction
		if err := rows.Scan(&messageID, &re.UserID, &re.Emoji, &re.CreatedAt); err != nil {
			return nil, fmt.Errorf("reaction scan: %w", err)
		}
		result[messageID] = append(result[messageID], re)
	}
	return result, rows.Err()
}

// UpsertReaction, kullanıcının mesaja reaksiyonunu yazar.
// ON CONFLICT: PK (message_id, user_id) — yeni emoji eskisinin yerine geçer.
func (r *sqliteMessageRepo) UpsertReaction(ctx context.Context, messageID, userID, emoji string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (message_id, user_id) DO UPDATE SET emoji = excluded.emoji, created_at = excluded.created_at`,
		messageID, userID, emoji, at)
	if err != nil {
		return fmt.Errorf("message upsert reaction: %w", err)
	}
	return nil
}

// DeleteReaction, kullanıcının reaksiyonunu kaldırır.
func (r *sqliteMessageRepo) DeleteReaction(ctx context.Context, messageID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id = ? AND user_id = ?`,
		messageID, userID)
	if err != nil {
		return false, fmt.Errorf("message delete reaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("message delete reaction: %w", err)
	}
	return affected > 0, nil
}

// Edit, mesaj içeriğini günceller ve önceki içeriği geçmişe yazar.
func (r *sqliteMessageRepo) Edit(ctx context.Context, messageID, newContent, priorContent string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		result, err := tx.ExecContext(ctx,
			`UPDATE messages SET content = ?, is_edited = 1 WHERE id = ?`,
			newContent, messageID)
		if err != nil {
			return fmt.Errorf("message edit: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("message edit: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: message %s", pkg.ErrNotFound, messageID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO message_edits (message_id, prior_content, edited_at) VALUES (?, ?, ?)`,
			messageID, priorContent, now)
		if err != nil {
			return fmt.Errorf("message edit history: %w", err)
		}
		return nil
	})
}

// EditHistory, mesajın düzenleme geçmişini eskiden yeniye döner.
func (r *sqliteMessageRepo) EditHistory(ctx context.Context, messageID string) ([]models.MessageEdit, error) {
	query := `SELECT message_id, prior_content, edited_at
	          FROM message_edits WHERE message_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("message edit history: %w", err)
	}
	defer rows.Close()

	history := []models.MessageEdit{}
	for rows.Next() {
		var e models.MessageEdit
		if err := rows.Scan(&e.MessageID, &e.PriorContent, &e.EditedAt); err != nil {
			return nil, fmt.Errorf("edit scan: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// Delete, mesajı siler.
func (r *sqliteMessageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("message delete: %w", err)
	}
	return nil
}

// Search, kullanıcının üyesi olduğu sohbetlerde içerik araması yapar.
// LIKE ile basit substring arama — katılımcı kapsamı JOIN ile garanti edilir.
// Tip filtrelenmez: media ve location mesajlarının içeriği de aranabilir.
func (r *sqliteMessageRepo) Search(ctx context.Context, userID, search, chatID string, limit int) ([]models.SearchResult, error) {
	query := `SELECT ` + prefixColumns("m", messageColumns) + `
	          FROM messages m
	          JOIN chat_participants cp ON cp.chat_id = m.chat_id AND cp.user_id = ?
	          JOIN chats c ON c.id = m.chat_id AND c.is_active = 1
	          WHERE m.content LIKE ?
	            AND (? = '' OR m.chat_id = ?)
	            AND (m.disappears_at IS NULL OR m.disappears_at > ?)
	          ORDER BY m.created_at DESC, m.rowid DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, "%"+search+"%", chatID, chatID, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("message search: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("message scan: %w", err)
		}
		results = append(results, models.SearchResult{Message: *m, ChatID: m.ChatID})
	}
	return results, rows.Err()
}

// UnreadCounts, sohbet → okunmamış mesaj sayısı map'ini döner.
func (r *sqliteMessageRepo) UnreadCounts(ctx context.Context, userID string, chatIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(chatIDs)
	query := fmt.Sprintf(
		`SELECT m.chat_id, COUNT(*)
		 FROM messages m
		 LEFT JOIN message_reads mr ON mr.message_id = m.id AND mr.user_id = ?
		 WHERE m.chat_id IN (%s) AND m.sender_id != ?
		   AND mr.message_id IS NULL
		   AND (m.disappears_at IS NULL OR m.disappears_at > ?)
		 GROUP BY m.chat_id`, placeholders)

	queryArgs := append([]any{userID}, args...)
	queryArgs = append(queryArgs, userID, time.Now().UTC())

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("message unread counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chatID string
		var count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, fmt.Errorf("unread scan: %w", err)
		}
		result[chatID] = count
	}
	return result, rows.Err()
}
