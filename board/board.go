// Package board implements the ownership-scoped board operations on top of a
// storage.Store: default-column bootstrap, column and task CRUD, the move
// operation, and the due-soon query.
package board

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"board-api/domain"
	"board-api/storage"
)

// Service validates input and ownership before delegating to the store.
type Service struct {
	store storage.Store
	log   *log.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a board service over the given store.
func NewService(store storage.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		store: store,
		log:   logger,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateColumnInput carries the caller-supplied fields for a new column.
type CreateColumnInput struct {
	Name     string `json:"name"`
	Position *int   `json:"position"`
}

// CreateTaskInput carries the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	ColumnID    string     `json:"columnId"`
	Position    *int       `json:"position"`
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return domain.ValidationError{Field: "owner", Reason: "authenticated subject required"}
	}
	return nil
}

// ListColumns returns the owner's columns in position order. A user who has
// no columns yet gets the default board; the empty state is never surfaced.
func (s *Service) ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	cols, err := s.store.ListColumns(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return s.seedDefaults(ctx, ownerID)
	}
	return cols, nil
}

// InitColumns creates the default columns for the owner. It is idempotent:
// when the owner already has any column the existing set is returned
// unchanged.
func (s *Service) InitColumns(ctx context.Context, ownerID string) ([]domain.Column, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	cols, err := s.store.ListColumns(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		return cols, nil
	}
	return s.seedDefaults(ctx, ownerID)
}

func (s *Service) seedDefaults(ctx context.Context, ownerID string) ([]domain.Column, error) {
	now := s.now()
	cols := make([]domain.Column, 0, len(domain.DefaultColumnNames))
	for i, name := range domain.DefaultColumnNames {
		cols = append(cols, domain.Column{
			ID:        s.newID(),
			OwnerID:   ownerID,
			Name:      name,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.store.InsertColumns(ctx, cols); err != nil {
		return nil, err
	}
	s.log.WithField("user", ownerID).Info("seeded default board columns")
	return cols, nil
}

// CreateColumn adds a column for the owner. Position defaults to 0.
func (s *Service) CreateColumn(ctx context.Context, ownerID string, in CreateColumnInput) (domain.Column, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Column{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Column{}, domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	position := 0
	if in.Position != nil {
		position = *in.Position
	}
	now := s.now()
	col := domain.Column{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Name:      name,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertColumn(ctx, col); err != nil {
		return domain.Column{}, err
	}
	return col, nil
}

// GetColumn fetches one column, distinguishing missing ids from foreign ones.
func (s *Service) GetColumn(ctx context.Context, ownerID, id string) (domain.Column, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Column{}, err
	}
	return s.store.GetColumn(ctx, id, ownerID)
}

// UpdateColumn applies a patch to the owner's column and restamps UpdatedAt.
func (s *Service) UpdateColumn(ctx context.Context, ownerID, id string, patch domain.ColumnPatch) (domain.Column, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Column{}, err
	}
	col, err := s.store.GetColumn(ctx, id, ownerID)
	if err != nil {
		return domain.Column{}, err
	}
	if err := patch.Apply(&col, s.now()); err != nil {
		return domain.Column{}, err
	}
	if err := s.store.UpdateColumn(ctx, col); err != nil {
		return domain.Column{}, err
	}
	return col, nil
}

// DeleteColumn removes the owner's column. Tasks keep their columnId; the
// board has no referential constraint between the two collections.
func (s *Service) DeleteColumn(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	return s.store.DeleteColumn(ctx, id, ownerID)
}

// ListTasks returns the owner's tasks in position order.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, ownerID)
}

// CreateTask adds a task for the owner. Priority defaults to medium, position
// to 0. The column id must be present but is not checked against the column
// collection.
func (s *Service) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.ColumnID == "" {
		return domain.Task{}, domain.ValidationError{Field: "columnId", Reason: "must not be empty"}
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return domain.Task{}, err
	}
	position := 0
	if in.Position != nil {
		position = *in.Position
	}
	now := s.now()
	task := domain.Task{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate,
		ColumnID:    in.ColumnID,
		Position:    position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask fetches one task, distinguishing missing ids from foreign ones.
func (s *Service) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Task{}, err
	}
	return s.store.GetTask(ctx, id, ownerID)
}

// UpdateTask applies a patch to the owner's task and restamps UpdatedAt.
func (s *Service) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Task{}, err
	}
	task, err := s.store.GetTask(ctx, id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := patch.Apply(&task, s.now()); err != nil {
		return domain.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTask reassigns the task's column and position. It touches nothing else:
// sibling tasks are not renumbered, so the caller supplies a position that
// yields the order it wants.
func (s *Service) MoveTask(ctx context.Context, ownerID, id, columnID string, position int) (domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Task{}, err
	}
	if columnID == "" {
		return domain.Task{}, domain.ValidationError{Field: "columnId", Reason: "must not be empty"}
	}
	task, err := s.store.GetTask(ctx, id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	task.ColumnID = columnID
	task.Position = position
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the owner's task permanently.
func (s *Service) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, id, ownerID)
}
