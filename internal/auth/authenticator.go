package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// Credentials carries everything a request presented for authentication.
// Either field may be empty.
type Credentials struct {
	Token  string
	APIKey string
}

// Authenticator combines token and API key authentication into one
// decision per request. The token always takes priority when both are
// presented; the API key is only consulted after the token path is
// exhausted.
type Authenticator struct {
	codec  *TokenCodec
	keys   *APIKeyValidator
	users  repository.UserRepository
	logger *logrus.Logger
}

func NewAuthenticator(codec *TokenCodec, keys *APIKeyValidator, users repository.UserRepository, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		codec:  codec,
		keys:   keys,
		users:  users,
		logger: logger,
	}
}

// Authenticate resolves the caller's identity from whichever credential is
// usable. It returns ErrNoCredential when nothing was presented and
// ErrInvalidCredentials when something was presented but nothing validated;
// the specific reason is never surfaced, only logged. Store failures
// propagate as *StoreError.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*domain.User, error) {
	if creds.Token == "" && creds.APIKey == "" {
		return nil, ErrNoCredential
	}

	if creds.Token != "" {
		user, err := a.AuthenticateToken(ctx, creds.Token)
		if err == nil {
			return user, nil
		}
		if IsStoreError(err) {
			return nil, err
		}
		a.logger.WithError(err).Debug("bearer token rejected")
		if creds.APIKey == "" {
			return nil, ErrInvalidCredentials
		}
	}

	user, err := a.keys.Validate(ctx, creds.APIKey)
	if err == nil {
		return user, nil
	}
	if IsStoreError(err) {
		return nil, err
	}
	a.logger.WithError(err).Debug("api key rejected")
	return nil, ErrInvalidCredentials
}

// AuthenticateToken accepts only a bearer token, surfacing the
// fine-grained parse failures. A token whose subject no longer exists is
// indistinguishable from a bad token.
func (a *Authenticator) AuthenticateToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	userID, err := a.codec.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &StoreError{Op: "resolve token subject", Err: err}
	}
	return user, nil
}

// AuthenticateAPIKey accepts only an API key, surfacing the fine-grained
// validation failures. An absent key fails with ErrNoCredential rather
// than falling back.
func (a *Authenticator) AuthenticateAPIKey(ctx context.Context, key string) (*domain.User, error) {
	user, err := a.keys.Validate(ctx, key)
	if errors.Is(err, ErrAPIKeyAbsent) {
		return nil, ErrNoCredential
	}
	return user, err
}
