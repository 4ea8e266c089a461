package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const createAPIKeysTable = `
CREATE TABLE IF NOT EXISTS api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	key_value TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	last_used DATETIME NULL,
	created_at DATETIME NOT NULL,
	revoked INTEGER NOT NULL DEFAULT 0
);
`

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) repository.APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAPIKeysTable); err != nil {
		return fmt.Errorf("create api_keys table: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) (int64, error) {
	key.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO api_keys (user_id, key_value, description, created_at, revoked)
VALUES (?, ?, ?, ?, 0)`,
		key.UserID,
		key.KeyValue,
		key.Description,
		key.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("api key value already exists: %w", ErrConflict)
		}
		return 0, fmt.Errorf("insert api key: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("api key last insert id: %w", err)
	}
	key.ID = id
	return id, nil
}

func (r *APIKeyRepository) GetByValue(ctx context.Context, value string) (*domain.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, key_value, description, last_used, created_at, revoked
FROM api_keys
WHERE key_value = ?`,
		value,
	)
	return scanAPIKey(row)
}

func (r *APIKeyRepository) ListByUser(ctx context.Context, userID int64) ([]domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, key_value, description, last_used, created_at, revoked
FROM api_keys
WHERE user_id = ?
ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id int64, usedAt time.Time) error {
	// MAX keeps last_used monotonic under concurrent validations.
	res, err := r.db.ExecContext(ctx, `
UPDATE api_keys
SET last_used = MAX(COALESCE(last_used, ?), ?)
WHERE id = ?`,
		usedAt.UTC(), usedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touch api key last_used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch api key rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("api key %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *APIKeyRepository) Revoke(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("api key %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *APIKeyRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete api keys for user: %w", err)
	}
	return nil
}

func scanAPIKey(row interface {
	Scan(dest ...any) error
}) (*domain.APIKey, error) {
	var (
		key      domain.APIKey
		lastUsed sql.NullTime
	)
	if err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.KeyValue,
		&key.Description,
		&lastUsed,
		&key.CreatedAt,
		&key.Revoked,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("api key: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		key.LastUsed = &t
	}
	return &key, nil
}
