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

const createProjectsTable = `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) repository.ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProjectsTable); err != nil {
		return fmt.Errorf("create projects table: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (int64, error) {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO projects (user_id, name, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		project.UserID,
		project.Name,
		project.Description,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project last insert id: %w", err)
	}
	project.ID = id
	return id, nil
}

func (r *ProjectRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, description, created_at, updated_at
FROM projects
WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanProject(row)
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, description, created_at, updated_at
FROM projects
WHERE user_id = ?
ORDER BY id
LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE projects
SET name = ?, description = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		project.Name,
		project.Description,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %d: %w", project.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanProject(row interface {
	Scan(dest ...any) error
}) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &project, nil
}
