package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// APIKeyValidator resolves a presented API key to its owning user,
// enforcing revocation and recording usage.
type APIKeyValidator struct {
	keys   repository.APIKeyRepository
	users  repository.UserRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewAPIKeyValidator(keys repository.APIKeyRepository, users repository.UserRepository, logger *logrus.Logger) *APIKeyValidator {
	return &APIKeyValidator{
		keys:   keys,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// Validate looks up the key, checks revocation, resolves the owner and
// touches last_used. An empty value returns ErrAPIKeyAbsent so callers can
// treat "no key supplied" as a normal non-authentication.
func (v *APIKeyValidator) Validate(ctx context.Context, keyValue string) (*domain.User, error) {
	if keyValue == "" {
		return nil, ErrAPIKeyAbsent
	}

	key, err := v.keys.GetByValue(ctx, keyValue)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAPIKeyInvalid
		}
		return nil, &StoreError{Op: "find api key", Err: err}
	}

	if key.Revoked {
		return nil, ErrAPIKeyRevoked
	}

	user, err := v.users.GetByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Data-integrity anomaly: the owner was deleted without the
			// key cascade. Not a normal auth failure.
			v.logger.WithFields(logrus.Fields{
				"api_key_id": key.ID,
				"user_id":    key.UserID,
			}).Error("api key references missing user")
			return nil, ErrAPIKeyOrphaned
		}
		return nil, &StoreError{Op: "resolve api key owner", Err: err}
	}

	// Best-effort audit write; authentication succeeds even if it fails.
	if err := v.keys.TouchLastUsed(ctx, key.ID, v.now()); err != nil {
		v.logger.WithError(err).WithField("api_key_id", key.ID).
			Warn("update api key last_used")
	}

	return user, nil
}
