package repository

import (
	"context"

	"taskboard/internal/domain"
)

// ProjectRepository exposes persistence operations for Project entities.
// All reads are scoped to the owning user.
type ProjectRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, project *domain.Project) (int64, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Project, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id, userID int64) error
}
