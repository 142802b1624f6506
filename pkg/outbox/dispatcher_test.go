package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projectsmanager/pkg/circuitbreaker"
	"projectsmanager/pkg/trace"
)

type fakeStore struct {
	mu      sync.Mutex
	events  map[int64]*Event
	sent    []int64
	failed  []int64
	listErr error
}

func newFakeStore(events ...*Event) *fakeStore {
	s := &fakeStore{events: make(map[int64]*Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	return s.byStatus(StatusPending, limit)
}

func (s *fakeStore) GetFailedEvents(_ context.Context, limit int) ([]*Event, error) {
	return s.byStatus(StatusFailed, limit)
}

func (s *fakeStore) byStatus(status string, limit int) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*Event
	for id := int64(1); id <= int64(len(s.events)) && len(out) < limit; id++ {
		if e, ok := s.events[id]; ok && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetEventByID(_ context.Context, id int64) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *fakeStore) MarkAsSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id].Status = StatusSent
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkAsFailed(_ context.Context, id int64, maxRetries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	e.RetryCount++
	if e.RetryCount >= maxRetries {
		e.Status = StatusFailed
	}
	s.failed = append(s.failed, id)
	return nil
}

type published struct {
	routingKey string
	payload    any
	traceID    string
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	msgs []published
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{routingKey: routingKey, payload: payload, traceID: trace.FromContext(ctx)})
	return nil
}

func pendingEvent(t *testing.T, id int64, routingKey string, payload any) *Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &Event{ID: id, AggregateType: "project", AggregateID: "p-1", RoutingKey: routingKey, Payload: raw, Status: StatusPending}
}

func TestDispatcher_PublishesAndMarksSent(t *testing.T) {
	store := newFakeStore(
		pendingEvent(t, 1, "project.created", map[string]string{"project_id": "p-1", "trace_id": "trace-abc"}),
		pendingEvent(t, 2, "task.created", map[string]string{"task_id": "t-1"}),
	)
	pub := &fakePublisher{}
	d := NewDispatcher(store, pub, zap.NewNop())

	sent := d.ProcessPendingEvents(context.Background())

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{1, 2}, store.sent)
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "project.created", pub.msgs[0].routingKey)
	assert.Equal(t, "trace-abc", pub.msgs[0].traceID)
	assert.Empty(t, pub.msgs[1].traceID)
}

func TestDispatcher_PublishFailureMarksFailed(t *testing.T) {
	store := newFakeStore(pendingEvent(t, 1, "task.deleted", map[string]string{"task_id": "t-1"}))
	pub := &fakePublisher{err: errors.New("broker down")}
	d := NewDispatcher(store, pub, zap.NewNop()).WithMaxRetries(2)

	assert.Equal(t, 0, d.ProcessPendingEvents(context.Background()))
	assert.Equal(t, StatusPending, store.events[1].Status)

	d.ProcessPendingEvents(context.Background())
	assert.Equal(t, StatusFailed, store.events[1].Status)
	assert.Equal(t, []int64{1, 1}, store.failed)
}

func TestDispatcher_OpenBreakerPostponesBatch(t *testing.T) {
	store := newFakeStore(
		pendingEvent(t, 1, "task.toggled", map[string]string{"task_id": "t-1"}),
		pendingEvent(t, 2, "task.toggled", map[string]string{"task_id": "t-2"}),
	)
	pub := &fakePublisher{err: errors.New("broker down")}
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		Timeout:             time.Hour,
		HalfOpenMaxRequests: 1,
	})
	d := NewDispatcher(store, pub, zap.NewNop()).WithBreaker(cb)

	d.ProcessPendingEvents(context.Background())

	// 第一个事件失败后熔断器打开，第二个事件不计入失败
	assert.Equal(t, []int64{1}, store.failed)
	assert.Equal(t, 0, store.events[2].RetryCount)
}

func TestDispatcher_ListErrorIsSwallowed(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db down")
	d := NewDispatcher(store, &fakePublisher{}, zap.NewNop())

	assert.Equal(t, 0, d.ProcessPendingEvents(context.Background()))
}

func TestDispatcher_StartStopsOnCancel(t *testing.T) {
	store := newFakeStore(pendingEvent(t, 1, "project.deleted", map[string]int{"deleted_tasks": 3}))
	pub := &fakePublisher{}
	d := NewDispatcher(store, pub, zap.NewNop()).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestReplayService_ReplaysFailedEvents(t *testing.T) {
	failed := pendingEvent(t, 1, "task.created", map[string]string{"task_id": "t-1"})
	failed.Status = StatusFailed
	store := newFakeStore(failed)
	pub := &fakePublisher{}

	n, err := NewReplayService(store, pub).ReplayFailedEvents(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusSent, store.events[1].Status)
}

func TestReplayService_UnknownEvent(t *testing.T) {
	err := NewReplayService(newFakeStore(), &fakePublisher{}).ReplayEvent(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
