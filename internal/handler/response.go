package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectsmanager/internal/model"
	"projectsmanager/pkg/logger"
)

// ContextUserIDKey is the gin context key holding the authenticated account id.
const ContextUserIDKey = "user_id"

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type projectResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	Progress    model.Progress `json:"progress"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newProjectResponse(v model.ProjectView) projectResponse {
	return projectResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		CreatedAt:   v.CreatedAt.UTC(),
		Progress:    v.Progress,
	}
}

func newTaskResponse(t model.Task) taskResponse {
	var due *time.Time
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		due = &d
	}
	return taskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     due,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

// WriteError maps err to a status code and the JSON error body. Storage failures
// are logged and reported with a generic message.
func WriteError(c *gin.Context, log *zap.Logger, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:   "validation_failed",
			Message: "request validation failed",
			Fields:  ve.Fields,
		})
	case errors.Is(err, model.ErrEmailTaken):
		abort(c, http.StatusBadRequest, "email_taken", model.ErrEmailTaken)
	case errors.Is(err, model.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, "invalid_credentials", model.ErrInvalidCredentials)
	case errors.Is(err, model.ErrTooManyAttempts):
		abort(c, http.StatusTooManyRequests, "too_many_attempts", model.ErrTooManyAttempts)
	case errors.Is(err, model.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
			Error:   "unauthenticated",
			Message: "missing or invalid session token",
		})
	case errors.Is(err, model.ErrNotFound):
		abort(c, http.StatusNotFound, "not_found", model.ErrNotFound)
	default:
		logger.WithTrace(c.Request.Context(), log).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error:   "internal_error",
			Message: "internal server error",
		})
	}
}

func abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: err.Error()})
}

// bindError turns a gin binding failure into a ValidationError.
func bindError(err error) error {
	if ve, ok := model.NewValidationErrorFrom(err); ok {
		return ve
	}
	return &model.ValidationError{Fields: map[string]string{"body": "request body is not valid JSON"}}
}

func userID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserIDKey)
	return id, id != ""
}

// parseDueDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date (midnight UTC).
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	return nil, &model.ValidationError{Fields: map[string]string{
		"dueDate": "dueDate must be an RFC 3339 timestamp or a YYYY-MM-DD date",
	}}
}
