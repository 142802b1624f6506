package mq

import "time"

type TaskCreatedPayload struct {
	TaskID     string     `json:"task_id"`
	ProjectID  string     `json:"project_id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
	TraceID    string     `json:"trace_id,omitempty"`
}

type TaskToggledPayload struct {
	TaskID      string    `json:"task_id"`
	ProjectID   string    `json:"project_id"`
	UserID      string    `json:"user_id"`
	IsCompleted bool      `json:"is_completed"`
	OccurredAt  time.Time `json:"occurred_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}

type TaskDeletedPayload struct {
	TaskID     string    `json:"task_id"`
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}
