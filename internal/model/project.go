package model

import "time"

type Project struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	CreatedAt   time.Time
}

// ProjectView is a project together with progress computed from its live task counts.
type ProjectView struct {
	Project
	Progress Progress
}
