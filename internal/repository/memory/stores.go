package memory

import (
	"context"
	"sort"

	"projectsmanager/internal/model"
	"projectsmanager/internal/repository"
)

type userStore struct{ m *Manager }

func (s userStore) Create(_ context.Context, u *model.User) error {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	if _, ok := st.users[u.Email]; ok {
		return model.ErrEmailTaken
	}
	st.users[u.Email] = *u
	return nil
}

func (s userStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.lock()
	defer s.m.unlock()
	u, ok := s.m.cur().users[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

type projectStore struct{ m *Manager }

func (s projectStore) Insert(_ context.Context, p *model.Project) error {
	s.m.lock()
	defer s.m.unlock()
	s.m.cur().projects[p.ID] = projectRow{project: *p, seq: s.m.nextSeq()}
	return nil
}

// GetOwned ignores lock: transactions are already serialized.
func (s projectStore) GetOwned(_ context.Context, id, ownerID string, _ repository.LockMode) (*model.Project, error) {
	s.m.lock()
	defer s.m.unlock()
	row, ok := s.m.cur().projects[id]
	if !ok || row.project.UserID != ownerID {
		return nil, model.ErrNotFound
	}
	p := row.project
	return &p, nil
}

func (s projectStore) ListByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	s.m.lock()
	defer s.m.unlock()

	var rows []projectRow
	for _, row := range s.m.cur().projects {
		if row.project.UserID == ownerID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.project.CreatedAt.Equal(b.project.CreatedAt) {
			return a.project.CreatedAt.After(b.project.CreatedAt)
		}
		return a.seq > b.seq
	})

	projects := make([]model.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.project)
	}
	return projects, nil
}

func (s projectStore) Delete(_ context.Context, id string) error {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	if _, ok := st.projects[id]; !ok {
		return model.ErrNotFound
	}
	for _, row := range st.tasks {
		if row.task.ProjectID == id {
			// mirrors the tasks.project_id foreign key
			return errForeignKey
		}
	}
	delete(st.projects, id)
	return nil
}

type taskStore struct{ m *Manager }

func (s taskStore) Insert(_ context.Context, t *model.Task) error {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	if _, ok := st.projects[t.ProjectID]; !ok {
		return errForeignKey
	}
	st.tasks[t.ID] = taskRow{task: *t, seq: s.m.nextSeq()}
	return nil
}

func (s taskStore) GetOwned(_ context.Context, id, ownerID string, _ repository.LockMode) (*model.Task, *model.Project, error) {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	trow, ok := st.tasks[id]
	if !ok {
		return nil, nil, model.ErrNotFound
	}
	prow, ok := st.projects[trow.task.ProjectID]
	if !ok || prow.project.UserID != ownerID {
		return nil, nil, model.ErrNotFound
	}
	t, p := trow.task, prow.project
	return &t, &p, nil
}

func (s taskStore) List(_ context.Context, projectID string, filter model.TaskFilter) ([]model.Task, error) {
	s.m.lock()
	defer s.m.unlock()

	var rows []taskRow
	for _, row := range s.m.cur().tasks {
		if row.task.ProjectID == projectID && filter.Matches(&row.task) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.task)
	}
	return tasks, nil
}

func (s taskStore) Toggle(_ context.Context, id string) (*model.Task, error) {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	row, ok := st.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	row.task.IsCompleted = !row.task.IsCompleted
	st.tasks[id] = row
	t := row.task
	return &t, nil
}

func (s taskStore) Delete(_ context.Context, id string) error {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	if _, ok := st.tasks[id]; !ok {
		return model.ErrNotFound
	}
	delete(st.tasks, id)
	return nil
}

func (s taskStore) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	s.m.lock()
	defer s.m.unlock()
	st := s.m.cur()
	var n int64
	for id, row := range st.tasks {
		if row.task.ProjectID == projectID {
			delete(st.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s taskStore) CountByProjects(_ context.Context, projectIDs []string) (map[string]model.TaskCounts, error) {
	s.m.lock()
	defer s.m.unlock()

	wanted := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[string]model.TaskCounts, len(projectIDs))
	for _, row := range s.m.cur().tasks {
		if _, ok := wanted[row.task.ProjectID]; !ok {
			continue
		}
		c := counts[row.task.ProjectID]
		c.Total++
		if row.task.IsCompleted {
			c.Completed++
		}
		counts[row.task.ProjectID] = c
	}
	return counts, nil
}
