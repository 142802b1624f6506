package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/pkg/db"
)

type ProjectRepository struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewProjectRepository(db db.DBTX, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("user_id", p.UserID),
		zap.String("title", p.Title),
	)

	query := `
        INSERT INTO projects (id, user_id, title, description, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Title,
		p.Description,
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return fmt.Errorf("insert project: %w", err)
	}

	r.logger.Info("Project inserted successfully",
		zap.String("project_id", p.ID),
		zap.String("user_id", p.UserID),
	)
	return nil
}

func (r *ProjectRepository) GetOwned(ctx context.Context, id, ownerID string, lock LockMode) (*model.Project, error) {
	query := `
        SELECT id, user_id, title, description, created_at
        FROM projects
        WHERE id = $1 AND user_id = $2
    ` + lockClause(lock, "")

	var p model.Project
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.CreatedAt,
	)
	if err != nil {
		if err = notFound(err); err == model.ErrNotFound {
			return nil, err
		}
		r.logger.Error("Failed to get project",
			zap.String("project_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	r.logger.Debug("Listing projects for user", zap.String("user_id", ownerID))
	query := `
        SELECT id, user_id, title, description, created_at
        FROM projects
        WHERE user_id = $1
        ORDER BY created_at DESC, id
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to query projects",
			zap.Error(err),
			zap.String("user_id", ownerID),
		)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Title,
			&p.Description,
			&p.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Deleting project", zap.String("project_id", id))
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project",
			zap.Error(err),
			zap.String("project_id", id),
		)
		return fmt.Errorf("delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	r.logger.Info("Project deleted", zap.String("project_id", id))
	return nil
}
