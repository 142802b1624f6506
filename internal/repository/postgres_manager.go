package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projectsmanager/pkg/db"
	"projectsmanager/pkg/outbox"
)

type PostgresManager struct {
	pool   *pgxpool.Pool
	conn   db.Conn
	logger *zap.Logger
}

func NewPostgresManager(pool *pgxpool.Pool, logger *zap.Logger) *PostgresManager {
	return &PostgresManager{pool: pool, conn: pool, logger: logger}
}

func (m *PostgresManager) Users() UserStore {
	return NewUserRepository(m.conn, m.logger)
}

func (m *PostgresManager) Projects() ProjectStore {
	return NewProjectRepository(m.conn, m.logger)
}

func (m *PostgresManager) Tasks() TaskStore {
	return NewTaskRepository(m.conn, m.logger)
}

func (m *PostgresManager) Events() EventStore {
	return outbox.NewRepository(m.conn)
}

// InTx opens a transaction, or a savepoint when m is already transactional.
func (m *PostgresManager) InTx(ctx context.Context, fn func(tx Manager) error) error {
	return db.WithTx(ctx, m.conn, func(ctx context.Context, tx pgx.Tx) error {
		return fn(&PostgresManager{pool: m.pool, conn: tx, logger: m.logger})
	})
}

func (m *PostgresManager) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}
