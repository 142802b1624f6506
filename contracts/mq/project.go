package mq

import "time"

// ProjectCreatedPayload 项目创建事件的 payload
type ProjectCreatedPayload struct {
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// ProjectDeletedPayload 项目删除事件的 payload，DeletedTasks 为级联删除的任务数
type ProjectDeletedPayload struct {
	ProjectID    string    `json:"project_id"`
	UserID       string    `json:"user_id"`
	DeletedTasks int64     `json:"deleted_tasks"`
	OccurredAt   time.Time `json:"occurred_at"`
	TraceID      string    `json:"trace_id,omitempty"`
}
