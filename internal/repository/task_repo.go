package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/pkg/db"
)

type TaskRepository struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewTaskRepository(db db.DBTX, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.due_date, t.is_completed, t.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, extra ...any) (*model.Task, error) {
	var t model.Task
	dest := append([]any{
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.IsCompleted,
		&t.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.String("project_id", t.ProjectID),
		zap.String("title", t.Title),
	)
	query := `
        INSERT INTO tasks (id, project_id, title, description, due_date, is_completed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.ProjectID,
		t.Title,
		t.Description,
		t.DueDate,
		t.IsCompleted,
		t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("project_id", t.ProjectID),
		)
		return fmt.Errorf("insert task: %w", err)
	}
	r.logger.Info("Task inserted successfully",
		zap.String("task_id", t.ID),
		zap.String("project_id", t.ProjectID),
	)
	return nil
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, ownerID string, lock LockMode) (*model.Task, *model.Project, error) {
	query := `
        SELECT ` + taskColumns + `,
               p.id, p.user_id, p.title, p.description, p.created_at
        FROM tasks t
        JOIN projects p ON p.id = t.project_id
        WHERE t.id = $1 AND p.user_id = $2
    ` + lockClause(lock, "t")

	var p model.Project
	t, err := scanTask(r.db.QueryRow(ctx, query, id, ownerID),
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt,
	)
	if err != nil {
		if err = notFound(err); err == model.ErrNotFound {
			return nil, nil, err
		}
		r.logger.Error("Failed to get task",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("get task: %w", err)
	}
	return t, &p, nil
}

func (r *TaskRepository) List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for project",
		zap.String("project_id", projectID),
		zap.String("status", string(filter.Status)),
		zap.String("search", filter.Search),
	)

	conditions := []string{"t.project_id = $1"}
	args := []any{projectID}
	switch filter.Status {
	case model.StatusCompleted:
		conditions = append(conditions, "t.is_completed")
	case model.StatusPending:
		conditions = append(conditions, "NOT t.is_completed")
	}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := "$" + strconv.Itoa(len(args))
		conditions = append(conditions,
			"(t.title ILIKE "+n+` ESCAPE '\' OR t.description ILIKE `+n+` ESCAPE '\')`)
	}

	query := `
        SELECT ` + taskColumns + `
        FROM tasks t
        WHERE ` + strings.Join(conditions, " AND ") + `
        ORDER BY t.created_at DESC, t.id
    `
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.String("project_id", projectID),
		)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.String("project_id", projectID),
			)
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	r.logger.Info("Tasks listed successfully",
		zap.String("project_id", projectID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

func (r *TaskRepository) Toggle(ctx context.Context, id string) (*model.Task, error) {
	r.logger.Debug("Toggling task", zap.String("task_id", id))
	query := `
        UPDATE tasks t
        SET is_completed = NOT t.is_completed
        WHERE t.id = $1
        RETURNING ` + taskColumns

	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err = notFound(err); err == model.ErrNotFound {
			return nil, err
		}
		r.logger.Error("Failed to toggle task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	r.logger.Info("Task toggled",
		zap.String("task_id", id),
		zap.Bool("is_completed", t.IsCompleted),
	)
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Deleting task", zap.String("task_id", id))
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	r.logger.Info("Task deleted", zap.String("task_id", id))
	return nil
}

func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	r.logger.Debug("Deleting tasks of project", zap.String("project_id", projectID))
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID)
	if err != nil {
		r.logger.Error("Failed to delete project tasks",
			zap.Error(err),
			zap.String("project_id", projectID),
		)
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}
	rowsAffected := result.RowsAffected()
	r.logger.Info("Project tasks deleted",
		zap.String("project_id", projectID),
		zap.Int64("tasks_deleted", rowsAffected),
	)
	return rowsAffected, nil
}

func (r *TaskRepository) CountByProjects(ctx context.Context, projectIDs []string) (map[string]model.TaskCounts, error) {
	counts := make(map[string]model.TaskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	query := `
        SELECT project_id,
               COUNT(*),
               COUNT(*) FILTER (WHERE is_completed)
        FROM tasks
        WHERE project_id = ANY($1)
        GROUP BY project_id
    `
	rows, err := r.db.Query(ctx, query, projectIDs)
	if err != nil {
		r.logger.Error("Failed to count tasks", zap.Error(err))
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			projectID string
			c         model.TaskCounts
		)
		if err := rows.Scan(&projectID, &c.Total, &c.Completed); err != nil {
			return nil, fmt.Errorf("scan task counts: %w", err)
		}
		counts[projectID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}
	return counts, nil
}
