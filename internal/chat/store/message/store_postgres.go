package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"touch/internal/chat/models"
	id "touch/pkg/domain"
	"touch/pkg/platform/tx"
)

// PostgresStore persists messages in PostgreSQL. The seq column records
// insertion order and breaks created_at ties.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, text, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		msg.ID.String(),
		msg.ChatID.String(),
		msg.SenderID.String(),
		msg.Text,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByChat(ctx context.Context, chatID id.ChatID) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, text, is_read, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, chatID.String())
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, chatID id.ChatID, readerID id.UserID) (int, error) {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE chat_id = $1 AND sender_id <> $2 AND NOT is_read
	`, chatID.String(), readerID.String())
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark read rows affected: %w", err)
	}
	return int(n), nil
}

// DeleteByChat is a no-op after a chat delete, since the cascade already
// removed the rows, but keeps both store backends interchangeable.
func (s *PostgresStore) DeleteByChat(ctx context.Context, chatID id.ChatID) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID.String())
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// ActivityByChats loads last message and unread count for a page of chats in
// two round trips instead of two per chat.
func (s *PostgresStore) ActivityByChats(ctx context.Context, chatIDs []id.ChatID, viewerID id.UserID) (map[id.ChatID]models.Activity, error) {
	out := make(map[id.ChatID]models.Activity, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(chatIDs))
	for i, chatID := range chatIDs {
		ids[i] = chatID.String()
	}
	exec := tx.Pick(ctx, s.db)

	latest, err := exec.QueryContext(ctx, `
		SELECT DISTINCT ON (chat_id) chat_id, text, created_at
		FROM messages
		WHERE chat_id = ANY($1::uuid[])
		ORDER BY chat_id, created_at DESC, seq DESC
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}
	defer latest.Close()
	for latest.Next() {
		var (
			rawID     string
			text      string
			createdAt time.Time
		)
		if err := latest.Scan(&rawID, &text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan latest message: %w", err)
		}
		chatID, err := id.ParseChatID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse chat id: %w", err)
		}
		out[chatID] = models.Activity{LastMessage: text, LastMessageDate: createdAt}
	}
	if err := latest.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest messages: %w", err)
	}

	unread, err := exec.QueryContext(ctx, `
		SELECT chat_id, COUNT(*)
		FROM messages
		WHERE chat_id = ANY($1::uuid[]) AND sender_id <> $2 AND NOT is_read
		GROUP BY chat_id
	`, pq.Array(ids), viewerID.String())
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	defer unread.Close()
	for unread.Next() {
		var (
			rawID string
			count int
		)
		if err := unread.Scan(&rawID, &count); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		chatID, err := id.ParseChatID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse chat id: %w", err)
		}
		activity := out[chatID]
		activity.UnreadCount = count
		out[chatID] = activity
	}
	if err := unread.Err(); err != nil {
		return nil, fmt.Errorf("iterate unread counts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		rawID, rawChat, rawSender string
		msg                       models.Message
	)
	if err := row.Scan(&rawID, &rawChat, &rawSender, &msg.Text, &msg.Read, &msg.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if msg.ID, err = id.ParseMessageID(rawID); err != nil {
		return nil, fmt.Errorf("parse message id: %w", err)
	}
	if msg.ChatID, err = id.ParseChatID(rawChat); err != nil {
		return nil, fmt.Errorf("parse chat id: %w", err)
	}
	if msg.SenderID, err = id.ParseUserID(rawSender); err != nil {
		return nil, fmt.Errorf("parse sender id: %w", err)
	}
	return &msg, nil
}
