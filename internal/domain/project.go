package domain

import "time"

// Project groups a user's tasks. Projects are always scoped to their owner.
type Project struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
