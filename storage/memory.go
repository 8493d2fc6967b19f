package storage

import (
	"context"
	"sync"

	"board-api/domain"
)

// MemoryStore keeps the board in process memory for the service lifetime.
// A single RWMutex serializes map access; same-record writes remain
// last-write-wins, matching the persistent backend.
type MemoryStore struct {
	mu      sync.RWMutex
	columns map[string]domain.Column
	tasks   map[string]domain.Task
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		columns: make(map[string]domain.Column),
		tasks:   make(map[string]domain.Task),
	}
}

func (s *MemoryStore) ListColumns(_ context.Context, ownerID string) ([]domain.Column, error) {
	s.mu.RLock()
	cols := []domain.Column{}
	for _, c := range s.columns {
		if c.OwnerID == ownerID {
			cols = append(cols, c)
		}
	}
	s.mu.RUnlock()
	sortColumns(cols)
	return cols, nil
}

func (s *MemoryStore) GetColumn(_ context.Context, id, ownerID string) (domain.Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[id]
	if !ok {
		return domain.Column{}, domain.ErrNotFound
	}
	if c.OwnerID != ownerID {
		return domain.Column{}, domain.ErrForbidden
	}
	return c, nil
}

func (s *MemoryStore) InsertColumn(_ context.Context, col domain.Column) error {
	s.mu.Lock()
	s.columns[col.ID] = col
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) InsertColumns(_ context.Context, cols []domain.Column) error {
	s.mu.Lock()
	for _, col := range cols {
		s.columns[col.ID] = col
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateColumn(_ context.Context, col domain.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.columns[col.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.OwnerID != col.OwnerID {
		return domain.ErrForbidden
	}
	s.columns[col.ID] = col
	return nil
}

func (s *MemoryStore) DeleteColumn(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.columns[id]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	delete(s.columns, id)
	return nil
}

func (s *MemoryStore) ListTasks(_ context.Context, ownerID string) ([]domain.Task, error) {
	s.mu.RLock()
	tasks := []domain.Task{}
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, copyTask(t))
		}
	}
	s.mu.RUnlock()
	sortTasks(tasks)
	return tasks, nil
}

func (s *MemoryStore) GetTask(_ context.Context, id, ownerID string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	if t.OwnerID != ownerID {
		return domain.Task{}, domain.ErrForbidden
	}
	return copyTask(t), nil
}

func (s *MemoryStore) InsertTask(_ context.Context, task domain.Task) error {
	s.mu.Lock()
	s.tasks[task.ID] = copyTask(task)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.OwnerID != task.OwnerID {
		return domain.ErrForbidden
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	delete(s.tasks, id)
	return nil
}

// copyTask detaches the DueDate pointer so callers can't mutate stored state.
func copyTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}
