package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// ErrAPIKeyNotFound indicates the key does not exist or belongs to another user.
var ErrAPIKeyNotFound = errors.New("api key not found")

const (
	apiKeyLength  = 32
	apiKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// APIKeyService manages a user's long-lived API key credentials.
type APIKeyService interface {
	Create(ctx context.Context, userID int64, description string) (*domain.APIKey, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.APIKey, error)
	Revoke(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	keys repository.APIKeyRepository
}

func NewAPIKeyService(keys repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{keys: keys}
}

func (s *apiKeyService) Create(ctx context.Context, userID int64, description string) (*domain.APIKey, error) {
	value, err := generateKeyValue()
	if err != nil {
		return nil, err
	}

	key := &domain.APIKey{
		UserID:      userID,
		KeyValue:    value,
		Description: description,
	}
	if _, err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *apiKeyService) ListForUser(ctx context.Context, userID int64) ([]domain.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

func (s *apiKeyService) Revoke(ctx context.Context, userID, keyID int64) error {
	keys, err := s.keys.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for i := range keys {
		if keys[i].ID == keyID {
			return s.keys.Revoke(ctx, keyID)
		}
	}
	return ErrAPIKeyNotFound
}

func generateKeyValue() (string, error) {
	// Rejection sampling: 256 is not a multiple of the charset size, so
	// bytes past the largest even multiple are discarded to keep every
	// character equally likely.
	const limit = 256 - 256%len(apiKeyCharset)

	out := make([]byte, 0, apiKeyLength)
	buf := make([]byte, apiKeyLength*2)
	for len(out) < apiKeyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, apiKeyCharset[int(b)%len(apiKeyCharset)])
			if len(out) == apiKeyLength {
				break
			}
		}
	}
	return string(out), nil
}
