package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/pkg/db"
)

type UserRepository struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewUserRepository(db db.DBTX, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	r.logger.Debug("Inserting user", zap.String("user_id", u.ID))

	query := `
        INSERT INTO users (id, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4)
    `
	if _, err := r.db.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		r.logger.Error("Failed to insert user", zap.Error(err))
		return fmt.Errorf("insert user: %w", err)
	}

	r.logger.Info("User inserted successfully", zap.String("user_id", u.ID))
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if err = notFound(err); err == model.ErrNotFound {
			return nil, err
		}
		r.logger.Error("Failed to find user by email", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
