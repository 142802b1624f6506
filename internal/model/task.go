package model

import "time"

type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description *string
	DueDate     *time.Time
	IsCompleted bool
	CreatedAt   time.Time
}
