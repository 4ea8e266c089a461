package repository

import (
	"context"
	"time"

	"taskboard/internal/domain"
)

// APIKeyRepository defines persistence operations for API key credentials.
type APIKeyRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, key *domain.APIKey) (int64, error)
	GetByValue(ctx context.Context, value string) (*domain.APIKey, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.APIKey, error)
	// TouchLastUsed records a successful use. The stored timestamp only
	// moves forward, even under concurrent validations of the same key.
	TouchLastUsed(ctx context.Context, id int64, usedAt time.Time) error
	// Revoke marks a key revoked. Revocation is terminal; there is no
	// corresponding un-revoke operation.
	Revoke(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
