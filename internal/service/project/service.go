package project

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

// List returns the account's projects, newest first, each with live progress.
func (s *Service) List(ctx context.Context, accountID string) ([]model.ProjectView, error) {
	projects, err := s.repos.Projects().ListByOwner(ctx, accountID)
	if err != nil {
		return nil, model.AsStorage(err)
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	counts, err := s.repos.Tasks().CountByProjects(ctx, ids)
	if err != nil {
		return nil, model.AsStorage(err)
	}

	views := make([]model.ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, model.ProjectView{
			Project:  p,
			Progress: model.ComputeProgress(counts[p.ID]),
		})
	}
	return views, nil
}

func (s *Service) Create(ctx context.Context, accountID string, in model.ProjectInput) (*model.ProjectView, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	p := model.Project{
		ID:          uuid.NewString(),
		UserID:      accountID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now(),
	}

	err := s.repos.InTx(ctx, func(tx repository.Manager) error {
		if err := tx.Projects().Insert(ctx, &p); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateProject, p.ID, mq.RoutingProjectCreated, mq.ProjectCreatedPayload{
			ProjectID:  p.ID,
			UserID:     p.UserID,
			Title:      p.Title,
			OccurredAt: p.CreatedAt,
			TraceID:    trace.FromContext(ctx),
		})
	})
	if err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to create project", zap.Error(err))
		return nil, model.AsStorage(err)
	}

	metrics.IncrementDomainMutation("project", "create")
	return &model.ProjectView{Project: p, Progress: model.ComputeProgress(model.TaskCounts{})}, nil
}

func (s *Service) Get(ctx context.Context, projectID, accountID string) (*model.ProjectView, error) {
	p, err := s.resolver.ResolveOwnedProject(ctx, s.repos, projectID, accountID, repository.LockNone)
	if err != nil {
		return nil, err
	}
	counts, err := s.repos.Tasks().CountByProjects(ctx, []string{p.ID})
	if err != nil {
		return nil, model.AsStorage(err)
	}
	return &model.ProjectView{Project: *p, Progress: model.ComputeProgress(counts[p.ID])}, nil
}

// Delete removes the project and all of its tasks atomically.
func (s *Service) Delete(ctx context.Context, projectID, accountID string) error {
	log := logger.WithTrace(ctx, s.logger)

	var deleted int64
	err := s.repos.InTx(ctx, func(tx repository.Manager) error {
		p, err := s.resolver.ResolveOwnedProject(ctx, tx, projectID, accountID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if deleted, err = tx.Tasks().DeleteByProject(ctx, p.ID); err != nil {
			return err
		}
		if err := tx.Projects().Delete(ctx, p.ID); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateProject, p.ID, mq.RoutingProjectDeleted, mq.ProjectDeletedPayload{
			ProjectID:    p.ID,
			UserID:       p.UserID,
			DeletedTasks: deleted,
			OccurredAt:   s.now(),
			TraceID:      trace.FromContext(ctx),
		})
	})
	if err != nil {
		err = model.AsStorage(err)
		if errors.Is(err, model.ErrStorage) {
			log.Error("Failed to delete project", zap.String("project_id", projectID), zap.Error(err))
		}
		return err
	}

	metrics.IncrementDomainMutation("project", "delete")
	log.Info("Project deleted",
		zap.String("project_id", projectID),
		zap.Int64("tasks_deleted", deleted),
	)
	return nil
}
