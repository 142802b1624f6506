// Package ownership enforces the account → project → task chain. A resource that
// exists but belongs to another account is reported exactly like a missing one.
package ownership

import (
	"context"

	"github.com/google/uuid"

	"projectsmanager/internal/model"
	"projectsmanager/internal/repository"
)

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveOwnedProject returns the project when accountID owns it, model.ErrNotFound otherwise.
// repos may be transactional; lock is applied to the project row.
func (r *Resolver) ResolveOwnedProject(
	ctx context.Context,
	repos repository.Manager,
	projectID, accountID string,
	lock repository.LockMode,
) (*model.Project, error) {
	id, ok := canonicalID(projectID)
	if !ok || accountID == "" {
		return nil, model.ErrNotFound
	}
	p, err := repos.Projects().GetOwned(ctx, id, accountID, lock)
	if err != nil {
		return nil, model.AsStorage(err)
	}
	return p, nil
}

// ResolveOwnedTask returns the task and its project when accountID owns the project.
func (r *Resolver) ResolveOwnedTask(
	ctx context.Context,
	repos repository.Manager,
	taskID, accountID string,
	lock repository.LockMode,
) (*model.Task, *model.Project, error) {
	id, ok := canonicalID(taskID)
	if !ok || accountID == "" {
		return nil, nil, model.ErrNotFound
	}
	t, p, err := repos.Tasks().GetOwned(ctx, id, accountID, lock)
	if err != nil {
		return nil, nil, model.AsStorage(err)
	}
	return t, p, nil
}

func canonicalID(raw string) (string, bool) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
