package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// ErrProjectNotFound indicates the project does not exist or belongs to another user.
var ErrProjectNotFound = errors.New("project not found")

// ProjectUpdate carries optional project changes; nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// ProjectService coordinates project operations scoped to their owner.
type ProjectService interface {
	Create(ctx context.Context, userID int64, name, description string) (*domain.Project, error)
	Get(ctx context.Context, userID, projectID int64) (*domain.Project, error)
	List(ctx context.Context, userID int64, offset, limit int) ([]domain.Project, error)
	Update(ctx context.Context, userID, projectID int64, update ProjectUpdate) (*domain.Project, error)
	Delete(ctx context.Context, userID, projectID int64) error
}

type projectService struct {
	projects repository.ProjectRepository
}

func NewProjectService(projects repository.ProjectRepository) ProjectService {
	return &projectService{projects: projects}
}

func (s *projectService) Create(ctx context.Context, userID int64, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", ErrInvalidInput)
	}

	project := &domain.Project{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if _, err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	project, err := s.projects.GetByIDForUser(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, userID int64, offset, limit int) ([]domain.Project, error) {
	return s.projects.ListByUser(ctx, userID, offset, limit)
}

func (s *projectService) Update(ctx context.Context, userID, projectID int64, update ProjectUpdate) (*domain.Project, error) {
	project, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("project name is required: %w", ErrInvalidInput)
		}
		project.Name = name
	}
	if update.Description != nil {
		project.Description = *update.Description
	}

	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, userID, projectID int64) error {
	if err := s.projects.Delete(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	return nil
}
