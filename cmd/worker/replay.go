package main

import (
	"context"
	"fmt"
)

// replayer is implemented by *outbox.ReplayService.
type replayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
}

// replay republishes one event when eventID is set, otherwise up to failedLimit failed events.
func replay(ctx context.Context, r replayer, eventID int64, failedLimit int) (int, error) {
	if eventID > 0 {
		if err := r.ReplayEvent(ctx, eventID); err != nil {
			return 0, fmt.Errorf("replay event %d: %w", eventID, err)
		}
		return 1, nil
	}
	return r.ReplayFailedEvents(ctx, failedLimit)
}
