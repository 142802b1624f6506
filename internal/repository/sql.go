package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"projectsmanager/internal/model"
)

const uniqueViolation = "23505"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern where LIKE metacharacters in s match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// lockClause renders the row locking suffix; of names the locked table when the query joins.
func lockClause(lock LockMode, of string) string {
	var clause string
	switch lock {
	case LockShare:
		clause = " FOR SHARE"
	case LockUpdate:
		clause = " FOR UPDATE"
	default:
		return ""
	}
	if of != "" {
		clause += " OF " + of
	}
	return clause
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
