package repository

import (
	"context"

	"projectsmanager/internal/model"
)

// LockMode selects the row lock taken by ownership lookups inside a transaction.
type LockMode int

const (
	LockNone LockMode = iota
	// LockShare blocks concurrent deletes of the row; used when inserting children.
	LockShare
	// LockUpdate takes an exclusive row lock; used when mutating or deleting.
	LockUpdate
)

type UserStore interface {
	// Create assigns nothing; the caller sets ID and CreatedAt. Returns model.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type ProjectStore interface {
	Insert(ctx context.Context, p *model.Project) error
	// GetOwned returns model.ErrNotFound when the project does not exist or belongs to someone else.
	GetOwned(ctx context.Context, id, ownerID string, lock LockMode) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) error
	// GetOwned resolves a task through its project; the lock applies to the task row.
	GetOwned(ctx context.Context, id, ownerID string, lock LockMode) (*model.Task, *model.Project, error)
	List(ctx context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error)
	Toggle(ctx context.Context, id string) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	// CountByProjects omits projects without tasks.
	CountByProjects(ctx context.Context, projectIDs []string) (map[string]model.TaskCounts, error)
}

// EventStore appends domain events to the outbox.
type EventStore interface {
	Record(ctx context.Context, aggregateType, aggregateID, routingKey string, payload any) error
}

// Manager vends stores bound to one connection or transaction.
type Manager interface {
	Users() UserStore
	Projects() ProjectStore
	Tasks() TaskStore
	Events() EventStore
	// InTx runs fn against a transactional Manager. fn's error rolls everything back.
	InTx(ctx context.Context, fn func(tx Manager) error) error
	Ping(ctx context.Context) error
}
