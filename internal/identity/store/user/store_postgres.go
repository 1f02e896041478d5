package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"touch/internal/identity/models"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
	"touch/pkg/platform/tx"
)

const userColumns = `id, phone_number, display_name, avatar_url, verification_code, code_expires_at, is_verified, created_at`

// PostgresStore persists users in PostgreSQL. Statements join the transaction
// carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertPendingCode(ctx context.Context, candidate *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, phone_number, display_name, avatar_url, verification_code, code_expires_at, is_verified, created_at)
		VALUES ($1, $2, $3, NULL, $4, $5, FALSE, $6)
		ON CONFLICT (phone_number) DO UPDATE SET
			verification_code = EXCLUDED.verification_code,
			code_expires_at = EXCLUDED.code_expires_at
		RETURNING ` + userColumns
	user, err := scanUser(tx.Pick(ctx, s.db).QueryRowContext(ctx, query,
		candidate.ID.String(),
		candidate.PhoneNumber,
		candidate.DisplayName,
		candidate.VerificationCode,
		candidate.CodeExpiresAt,
		candidate.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert pending code: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	user, err := scanUser(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return user, nil
}

// ConsumeCode is a single conditional UPDATE so two concurrent verifications
// of the same code cannot both succeed.
func (s *PostgresStore) ConsumeCode(ctx context.Context, phone, code string, now time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_code = NULL, code_expires_at = NULL
		WHERE phone_number = $1
		  AND verification_code = $2
		  AND code_expires_at > $3
		RETURNING ` + userColumns
	user, err := scanUser(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, phone, code, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code not consumable: %w", sentinel.ErrInvalidState)
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, userID id.UserID, displayName string, avatarURL *string) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = $2, avatar_url = $3
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, userID.String(), displayName, avatarURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SearchVerified(ctx context.Context, query string, exclude id.UserID, limit int) ([]*models.User, error) {
	stmt := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_verified
		  AND id <> $1
		  AND phone_number LIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY phone_number
		LIMIT $3`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, stmt, exclude.String(), escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// escapeLike makes query match literally inside a LIKE pattern.
func escapeLike(query string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		rawID     string
		avatarURL sql.NullString
		code      sql.NullString
		expiresAt sql.NullTime
		user      models.User
	)
	if err := row.Scan(&rawID, &user.PhoneNumber, &user.DisplayName, &avatarURL, &code, &expiresAt, &user.Verified, &user.CreatedAt); err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	user.ID = userID
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}
	if code.Valid {
		user.VerificationCode = &code.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		user.CodeExpiresAt = &t
	}
	return &user, nil
}
