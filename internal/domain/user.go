package domain

import "time"

// User represents an account holder of the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// APIKey is a long-lived static credential bound to exactly one user.
// Revocation is terminal: a revoked key never becomes valid again.
type APIKey struct {
	ID          int64
	UserID      int64
	KeyValue    string
	Description string
	LastUsed    *time.Time
	CreatedAt   time.Time
	Revoked     bool
}
