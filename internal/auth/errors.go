package auth

import "errors"

// Token parse failures. Surfaced by the token-only entry point; the unified
// authenticator collapses them into ErrInvalidCredentials.
var (
	ErrTokenMalformed  = errors.New("token malformed")
	ErrTokenSignature  = errors.New("token signature invalid")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenNoSubject  = errors.New("token has no subject")
	ErrTokenBadSubject = errors.New("token subject malformed")
)

// API key validation outcomes.
var (
	// ErrAPIKeyAbsent means no key was presented at all. It is a normal
	// non-authentication, not a rejection; callers fall through to other
	// credentials instead of failing the request.
	ErrAPIKeyAbsent = errors.New("api key not presented")
	// ErrAPIKeyInvalid covers every unknown key uniformly so responses do
	// not leak whether a key ever existed.
	ErrAPIKeyInvalid  = errors.New("invalid api key")
	ErrAPIKeyRevoked  = errors.New("api key has been revoked")
	ErrAPIKeyOrphaned = errors.New("api key owner missing")
)

// Combined outcomes of the unified authenticator.
var (
	ErrNoCredential       = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("could not validate credentials")
)

// StoreError marks a credential store failure. It distinguishes
// infrastructure trouble (500) from credential rejection (401) and is never
// retried here; retry policy belongs to the store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "credential store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err originated in the credential store
// rather than in credential validation.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
