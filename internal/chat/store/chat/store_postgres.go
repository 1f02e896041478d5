package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"touch/internal/chat/models"
	"touch/internal/platform/postgres"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
	"touch/pkg/platform/tx"
)

const chatColumns = `id, user_id, contact_name, contact_phone, is_muted, is_pinned, linked_chat_id, created_at`

// PostgresStore persists chats in PostgreSQL. Statements join the transaction
// carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, chat *models.Chat) error {
	query := `
		INSERT INTO chats (id, user_id, contact_name, contact_phone, is_muted, is_pinned, linked_chat_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		chat.ID.String(),
		chat.OwnerID.String(),
		chat.ContactName,
		chat.ContactPhone,
		chat.Muted,
		chat.Pinned,
		nullableChatID(chat.LinkedChatID),
		chat.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("chat %s exists: %w", chat.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetLink(ctx context.Context, chatID, linkedChatID id.ChatID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx,
		`UPDATE chats SET linked_chat_id = $2 WHERE id = $1`,
		chatID.String(), linkedChatID.String(),
	)
	if err != nil {
		return fmt.Errorf("link chat: %w", err)
	}
	return requireRow(res)
}

// FindLinked looks a chat up regardless of owner and takes a key-share lock on
// the row. A concurrent delete of that chat waits until the caller's
// transaction ends, so rows inserted against it cannot hit the foreign key.
func (s *PostgresStore) FindLinked(ctx context.Context, chatID id.ChatID) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 FOR KEY SHARE`
	chat, err := scanChat(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, chatID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return chat, nil
}

func (s *PostgresStore) FindOwned(ctx context.Context, chatID id.ChatID, ownerID id.UserID) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND user_id = $2`
	chat, err := scanChat(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, chatID.String(), ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find owned chat: %w", err)
	}
	return chat, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*models.Chat, 0)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func (s *PostgresStore) UpdateFlags(ctx context.Context, chatID id.ChatID, ownerID id.UserID, update models.FlagsUpdate) (*models.Chat, error) {
	query := `
		UPDATE chats
		SET is_muted = COALESCE($3::boolean, is_muted),
		    is_pinned = COALESCE($4::boolean, is_pinned)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + chatColumns
	chat, err := scanChat(tx.Pick(ctx, s.db).QueryRowContext(ctx, query,
		chatID.String(), ownerID.String(), update.Muted, update.Pinned,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("update chat flags: %w", err)
	}
	return chat, nil
}

// DeleteOwned removes the caller's chat; its messages go with it through the
// foreign key cascade.
func (s *PostgresStore) DeleteOwned(ctx context.Context, chatID id.ChatID, ownerID id.UserID) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx,
		`DELETE FROM chats WHERE id = $1 AND user_id = $2`,
		chatID.String(), ownerID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func nullableChatID(chatID *id.ChatID) any {
	if chatID == nil {
		return nil
	}
	return chatID.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*models.Chat, error) {
	var (
		rawID, rawOwner string
		linked          sql.NullString
		chat            models.Chat
	)
	if err := row.Scan(&rawID, &rawOwner, &chat.ContactName, &chat.ContactPhone, &chat.Muted, &chat.Pinned, &linked, &chat.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if chat.ID, err = id.ParseChatID(rawID); err != nil {
		return nil, fmt.Errorf("parse chat id: %w", err)
	}
	if chat.OwnerID, err = id.ParseUserID(rawOwner); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	if linked.Valid {
		linkedID, err := id.ParseChatID(linked.String)
		if err != nil {
			return nil, fmt.Errorf("parse linked chat id: %w", err)
		}
		chat.LinkedChatID = &linkedID
	}
	return &chat, nil
}
