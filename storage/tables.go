package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"board-api/domain"
)

// TableStore persists the board in Azure Table Storage. Records live under
// PartitionKey = owner id and RowKey = record id, so every single-entity
// operation is already scoped to its owner, and the default-column bootstrap
// can run as one transaction batch inside a single partition.
type TableStore struct {
	columns *aztables.Client
	tasks   *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, columnsTable, tasksTable string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableStore{
		columns: svc.NewClient(columnsTable),
		tasks:   svc.NewClient(tasksTable),
	}, nil
}

type columnEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	Position  int    `json:"Position"`
	CreatedAt string `json:"CreatedAt"`
	UpdatedAt string `json:"UpdatedAt"`
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	DueDate     string `json:"DueDate"`
	ColumnID    string `json:"ColumnId"`
	Position    int    `json:"Position"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

func encodeColumn(col domain.Column) ([]byte, error) {
	return sonic.Marshal(columnEntity{
		Entity:    aztables.Entity{PartitionKey: col.OwnerID, RowKey: col.ID},
		Name:      col.Name,
		Position:  col.Position,
		CreatedAt: col.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: col.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func decodeColumn(data []byte) (domain.Column, error) {
	var ent columnEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Column{}, err
	}
	createdAt, err := parseEntityTime(ent.CreatedAt)
	if err != nil {
		return domain.Column{}, err
	}
	updatedAt, err := parseEntityTime(ent.UpdatedAt)
	if err != nil {
		return domain.Column{}, err
	}
	return domain.Column{
		ID:        ent.RowKey,
		OwnerID:   ent.PartitionKey,
		Name:      ent.Name,
		Position:  ent.Position,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func encodeTask(task domain.Task) ([]byte, error) {
	due := ""
	if task.DueDate != nil {
		due = task.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return sonic.Marshal(taskEntity{
		Entity:      aztables.Entity{PartitionKey: task.OwnerID, RowKey: task.ID},
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		DueDate:     due,
		ColumnID:    task.ColumnID,
		Position:    task.Position,
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	createdAt, err := parseEntityTime(ent.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	updatedAt, err := parseEntityTime(ent.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	task := domain.Task{
		ID:          ent.RowKey,
		OwnerID:     ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		ColumnID:    ent.ColumnID,
		Position:    ent.Position,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if ent.DueDate != "" {
		due, err := time.Parse(time.RFC3339Nano, ent.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		task.DueDate = &due
	}
	return task, nil
}

func parseEntityTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *TableStore) ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error) {
	cols := []domain.Column{}
	err := s.listPartition(ctx, s.columns, ownerID, func(data []byte) error {
		col, err := decodeColumn(data)
		if err != nil {
			return err
		}
		cols = append(cols, col)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortColumns(cols)
	return cols, nil
}

func (s *TableStore) GetColumn(ctx context.Context, id, ownerID string) (domain.Column, error) {
	resp, err := s.columns.GetEntity(ctx, ownerID, id, nil)
	if err != nil {
		return domain.Column{}, s.missError(ctx, s.columns, id, err)
	}
	return decodeColumn(resp.Value)
}

func (s *TableStore) InsertColumn(ctx context.Context, col domain.Column) error {
	body, err := encodeColumn(col)
	if err != nil {
		return err
	}
	_, err = s.columns.AddEntity(ctx, body, nil)
	return err
}

func (s *TableStore) InsertColumns(ctx context.Context, cols []domain.Column) error {
	actions := make([]aztables.TransactionAction, 0, len(cols))
	for _, col := range cols {
		body, err := encodeColumn(col)
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeAdd,
			Entity:     body,
		})
	}
	_, err := s.columns.SubmitTransaction(ctx, actions, nil)
	return err
}

func (s *TableStore) UpdateColumn(ctx context.Context, col domain.Column) error {
	body, err := encodeColumn(col)
	if err != nil {
		return err
	}
	_, err = s.columns.UpdateEntity(ctx, body, &aztables.UpdateEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	if err != nil {
		return s.missError(ctx, s.columns, col.ID, err)
	}
	return nil
}

func (s *TableStore) DeleteColumn(ctx context.Context, id, ownerID string) error {
	_, err := s.columns.DeleteEntity(ctx, ownerID, id, nil)
	if err != nil {
		return s.missError(ctx, s.columns, id, err)
	}
	return nil
}

func (s *TableStore) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := s.listPartition(ctx, s.tasks, ownerID, func(data []byte) error {
		task, err := decodeTask(data)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *TableStore) GetTask(ctx context.Context, id, ownerID string) (domain.Task, error) {
	resp, err := s.tasks.GetEntity(ctx, ownerID, id, nil)
	if err != nil {
		return domain.Task{}, s.missError(ctx, s.tasks, id, err)
	}
	return decodeTask(resp.Value)
}

func (s *TableStore) InsertTask(ctx context.Context, task domain.Task) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}
	_, err = s.tasks.AddEntity(ctx, body, nil)
	return err
}

func (s *TableStore) UpdateTask(ctx context.Context, task domain.Task) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}
	_, err = s.tasks.UpdateEntity(ctx, body, &aztables.UpdateEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	if err != nil {
		return s.missError(ctx, s.tasks, task.ID, err)
	}
	return nil
}

func (s *TableStore) DeleteTask(ctx context.Context, id, ownerID string) error {
	_, err := s.tasks.DeleteEntity(ctx, ownerID, id, nil)
	if err != nil {
		return s.missError(ctx, s.tasks, id, err)
	}
	return nil
}

func (s *TableStore) listPartition(ctx context.Context, client *aztables.Client, ownerID string, visit func([]byte) error) error {
	filter := "PartitionKey eq '" + escapeODataString(ownerID) + "'"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			if err := visit(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// missError turns a storage 404 into the domain failure: ErrForbidden when the
// row key exists under some other partition, ErrNotFound otherwise.
func (s *TableStore) missError(ctx context.Context, client *aztables.Client, id string, err error) error {
	if !isStatusNotFound(err) {
		return err
	}
	foreign, probeErr := s.rowExists(ctx, client, id)
	if probeErr != nil {
		return probeErr
	}
	if foreign {
		return domain.ErrForbidden
	}
	return domain.ErrNotFound
}

func (s *TableStore) rowExists(ctx context.Context, client *aztables.Client, id string) (bool, error) {
	filter := "RowKey eq '" + escapeODataString(id) + "'"
	top := int32(1)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return false, err
		}
		if len(resp.Entities) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func isStatusNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// escapeODataString doubles single quotes; ids arrive from request paths, so
// they can't be trusted inside a filter literal.
func escapeODataString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
