package storage

import (
	"context"
	"sort"

	"board-api/domain"
)

// Store is the keyed persistence contract shared by both backends. All reads
// and writes are scoped by the owning user; Get/Update/Delete distinguish a
// missing id (domain.ErrNotFound) from an id held by another owner
// (domain.ErrForbidden).
type Store interface {
	ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error)
	GetColumn(ctx context.Context, id, ownerID string) (domain.Column, error)
	InsertColumn(ctx context.Context, col domain.Column) error
	// InsertColumns inserts all columns as one unit. It exists for the
	// default-board bootstrap, so all columns must share one owner.
	InsertColumns(ctx context.Context, cols []domain.Column) error
	UpdateColumn(ctx context.Context, col domain.Column) error
	DeleteColumn(ctx context.Context, id, ownerID string) error

	ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetTask(ctx context.Context, id, ownerID string) (domain.Task, error)
	InsertTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id, ownerID string) error
}

func sortColumns(cols []domain.Column) {
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].CreatedAt.Before(cols[j].CreatedAt)
	})
}

func sortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
