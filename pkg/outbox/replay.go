package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// ReplayStore 是 ReplayService 依赖的 outbox 操作
type ReplayStore interface {
	GetEventByID(ctx context.Context, eventID int64) (*Event, error)
	GetFailedEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkAsSent(ctx context.Context, eventID int64) error
	MarkAsFailed(ctx context.Context, eventID int64, maxRetries int) error
}

// ReplayService 提供重放 Outbox 事件的服务
type ReplayService struct {
	store     ReplayStore
	publisher Publisher
}

// NewReplayService 创建新的 ReplayService
func NewReplayService(store ReplayStore, publisher Publisher) *ReplayService {
	return &ReplayService{
		store:     store,
		publisher: publisher,
	}
}

// ReplayEvent 重放指定的事件
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.store.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	return s.replay(ctx, event)
}

func (s *ReplayService) replay(ctx context.Context, event *Event) error {
	var payload interface{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	ctx = contextWithPayloadTrace(ctx, event.Payload)
	if err := s.publisher.PublishWithContext(ctx, event.RoutingKey, payload); err != nil {
		// 发布失败，重新计入失败次数
		if markErr := s.store.MarkAsFailed(ctx, event.ID, 1); markErr != nil {
			return fmt.Errorf("failed to publish and mark as failed: %w (mark error: %v)", err, markErr)
		}
		return fmt.Errorf("failed to publish: %w", err)
	}

	if err := s.store.MarkAsSent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}

	return nil
}

// ReplayFailedEvents 重放最多 limit 个失败的事件，返回成功数量
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.store.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed events: %w", err)
	}

	successCount := 0
	var firstErr error
	for _, event := range events {
		if err := s.replay(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		successCount++
	}

	return successCount, firstErr
}
