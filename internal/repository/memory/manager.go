// Package memory is a mutex-guarded, snapshot-on-transaction implementation of
// repository.Manager used by tests and by the memory storage driver.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"projectsmanager/internal/model"
	"projectsmanager/internal/repository"
)

// RecordedEvent is an outbox row kept in memory.
type RecordedEvent struct {
	AggregateType string
	AggregateID   string
	RoutingKey    string
	Payload       json.RawMessage
}

type taskRow struct {
	task model.Task
	seq  int64
}

type projectRow struct {
	project model.Project
	seq     int64
}

type state struct {
	users    map[string]model.User // keyed by email
	projects map[string]projectRow
	tasks    map[string]taskRow
	events   []RecordedEvent
	seq      int64
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[string]model.User, len(s.users)),
		projects: make(map[string]projectRow, len(s.projects)),
		tasks:    make(map[string]taskRow, len(s.tasks)),
		events:   append([]RecordedEvent(nil), s.events...),
		seq:      s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	return c
}

// Manager is safe for concurrent use. Transactions are serialized.
type Manager struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
}

func NewManager() *Manager {
	st := &state{
		users:    make(map[string]model.User),
		projects: make(map[string]projectRow),
		tasks:    make(map[string]taskRow),
	}
	return &Manager{mu: &sync.Mutex{}, st: &st}
}

func (m *Manager) Users() repository.UserStore       { return userStore{m} }
func (m *Manager) Projects() repository.ProjectStore { return projectStore{m} }
func (m *Manager) Tasks() repository.TaskStore       { return taskStore{m} }
func (m *Manager) Events() repository.EventStore     { return eventStore{m} }

func (m *Manager) Ping(context.Context) error { return nil }

// InTx holds the lock for the whole of fn and restores the pre-transaction state when fn fails.
func (m *Manager) InTx(ctx context.Context, fn func(tx repository.Manager) error) (err error) {
	if m.inTx {
		return fn(m)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := (*m.st).clone()
	tx := &Manager{mu: m.mu, st: m.st, inTx: true}

	defer func() {
		if p := recover(); p != nil {
			*m.st = snapshot
			panic(p)
		}
		if err != nil {
			*m.st = snapshot
		}
	}()
	return fn(tx)
}

// RecordedEvents returns a copy of the events recorded so far.
func (m *Manager) RecordedEvents() []RecordedEvent {
	m.lock()
	defer m.unlock()
	return append([]RecordedEvent(nil), (*m.st).events...)
}

// lock is a no-op inside a transaction, which already holds the mutex.
func (m *Manager) lock() {
	if !m.inTx {
		m.mu.Lock()
	}
}

func (m *Manager) unlock() {
	if !m.inTx {
		m.mu.Unlock()
	}
}

func (m *Manager) cur() *state { return *m.st }

func (m *Manager) nextSeq() int64 {
	s := m.cur()
	s.seq++
	return s.seq
}

type eventStore struct{ m *Manager }

func (s eventStore) Record(_ context.Context, aggregateType, aggregateID, routingKey string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	st.events = append(st.events, RecordedEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       raw,
	})
	return nil
}
