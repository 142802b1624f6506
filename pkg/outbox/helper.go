package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// Record 序列化 payload 并以 pending 状态写入 outbox
func (r *Repository) Record(
	ctx context.Context,
	aggregateType string,
	aggregateID string,
	routingKey string,
	payload any,
) error {
	event, err := NewEvent(aggregateType, aggregateID, routingKey, payload)
	if err != nil {
		return err
	}
	return r.InsertEvent(ctx, event)
}

// NewEvent 构造一个 pending 事件
func NewEvent(aggregateType, aggregateID, routingKey string, payload any) (*Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	return &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        StatusPending,
	}, nil
}
