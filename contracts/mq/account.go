package mq

import "time"

// AccountRegisteredPayload 用户注册事件的 payload
type AccountRegisteredPayload struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}
