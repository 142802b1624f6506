package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"projectsmanager/contracts/mq"
	"projectsmanager/internal/model"
	"projectsmanager/internal/repository"
	"projectsmanager/internal/service/ownership"
	"projectsmanager/pkg/logger"
	"projectsmanager/pkg/metrics"
	"projectsmanager/pkg/trace"
	"projectsmanager/pkg/util"
)

type Service struct {
	repos    repository.Manager
	resolver *ownership.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repos repository.Manager, resolver *ownership.Resolver, log *zap.Logger) *Service {
	return &Service{
		repos:    repos,
		resolver: resolver,
		logger:   log,
		now:      util.Now,
	}
}

// WithClock replaces the clock used for created_at.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns the project's tasks matching filter, newest first.
func (s *Service) List(ctx context.Context, projectID, accountID string, filter model.TaskFilter) ([]model.Task, error) {
	p, err := s.resolver.ResolveOwnedProject(ctx, s.repos, projectID, accountID, repository.LockNone)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks().List(ctx, p.ID, filter)
	if err != nil {
		return nil, model.AsStorage(err)
	}
	return tasks, nil
}

// Create validates in, then inserts a pending task while holding a share lock on the project.
func (s *Service) Create(ctx context.Context, projectID, accountID string, in model.TaskInput) (*model.Task, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	var t model.Task
	err := s.repos.InTx(ctx, func(tx repository.Manager) error {
		p, err := s.resolver.ResolveOwnedProject(ctx, tx, projectID, accountID, repository.LockShare)
		if err != nil {
			return err
		}
		t = model.Task{
			ID:          uuid.NewString(),
			ProjectID:   p.ID,
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			CreatedAt:   s.now(),
		}
		if err := tx.Tasks().Insert(ctx, &t); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateTask, t.ID, mq.RoutingTaskCreated, mq.TaskCreatedPayload{
			TaskID:     t.ID,
			ProjectID:  p.ID,
			UserID:     p.UserID,
			Title:      t.Title,
			DueDate:    t.DueDate,
			OccurredAt: t.CreatedAt,
			TraceID:    trace.FromContext(ctx),
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	metrics.IncrementDomainMutation("task", "create")
	return &t, nil
}

// Toggle flips the completion flag. Applying it twice restores the original state.
func (s *Service) Toggle(ctx context.Context, taskID, accountID string) (*model.Task, error) {
	var toggled *model.Task
	err := s.repos.InTx(ctx, func(tx repository.Manager) error {
		t, p, err := s.resolver.ResolveOwnedTask(ctx, tx, taskID, accountID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if toggled, err = tx.Tasks().Toggle(ctx, t.ID); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateTask, t.ID, mq.RoutingTaskToggled, mq.TaskToggledPayload{
			TaskID:      t.ID,
			ProjectID:   p.ID,
			UserID:      p.UserID,
			IsCompleted: toggled.IsCompleted,
			OccurredAt:  s.now(),
			TraceID:     trace.FromContext(ctx),
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "toggle", err)
	}

	metrics.IncrementDomainMutation("task", "toggle")
	return toggled, nil
}

// Delete removes a single task; its project and siblings are untouched.
func (s *Service) Delete(ctx context.Context, taskID, accountID string) error {
	err := s.repos.InTx(ctx, func(tx repository.Manager) error {
		t, p, err := s.resolver.ResolveOwnedTask(ctx, tx, taskID, accountID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if err := tx.Tasks().Delete(ctx, t.ID); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateTask, t.ID, mq.RoutingTaskDeleted, mq.TaskDeletedPayload{
			TaskID:     t.ID,
			ProjectID:  p.ID,
			UserID:     p.UserID,
			OccurredAt: s.now(),
			TraceID:    trace.FromContext(ctx),
		})
	})
	if err != nil {
		return s.fail(ctx, "delete", err)
	}

	metrics.IncrementDomainMutation("task", "delete")
	return nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	err = model.AsStorage(err)
	if errors.Is(err, model.ErrStorage) {
		logger.WithTrace(ctx, s.logger).Error("Task mutation failed",
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	return err
}
