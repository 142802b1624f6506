package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsmanager/pkg/outbox"
)

type fakeReplayer struct {
	replayedIDs []int64
	failedLimit int
	eventErr    error
}

func (f *fakeReplayer) ReplayEvent(_ context.Context, eventID int64) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.replayedIDs = append(f.replayedIDs, eventID)
	return nil
}

func (f *fakeReplayer) ReplayFailedEvents(_ context.Context, limit int) (int, error) {
	f.failedLimit = limit
	return 3, nil
}

func TestReplay_SingleEvent(t *testing.T) {
	r := &fakeReplayer{}

	n, err := replay(context.Background(), r, 42, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{42}, r.replayedIDs)
	assert.Zero(t, r.failedLimit)
}

func TestReplay_SingleEventNotFound(t *testing.T) {
	r := &fakeReplayer{eventErr: outbox.ErrEventNotFound}

	n, err := replay(context.Background(), r, 7, 0)
	assert.Zero(t, n)
	assert.True(t, errors.Is(err, outbox.ErrEventNotFound))
}

func TestReplay_FailedBatch(t *testing.T) {
	r := &fakeReplayer{}

	n, err := replay(context.Background(), r, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 25, r.failedLimit)
	assert.Empty(t, r.replayedIDs)
}

var _ replayer = (*outbox.ReplayService)(nil)
