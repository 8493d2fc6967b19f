package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"board-api/domain"
	"board-api/storage"
)

func newTestService() *Service {
	svc := NewService(storage.NewMemoryStore(), nil)
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	return svc
}

func TestListColumnsBootstrapsEmptyBoard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cols, err := svc.ListColumns(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 default columns, got %d", len(cols))
	}
	for i, want := range []string{"Backlog", "In Progress", "Done"} {
		if cols[i].Name != want || cols[i].Position != i {
			t.Fatalf("column %d = %+v, want %s@%d", i, cols[i], want, i)
		}
		if cols[i].OwnerID != "alice" {
			t.Fatalf("column owner = %q", cols[i].OwnerID)
		}
	}
}

func TestInitColumnsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.InitColumns(ctx, "alice")
	if err != nil {
		t.Fatalf("first init: %v", err)
	}
	second, err := svc.InitColumns(ctx, "alice")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("second init created duplicates: %d columns", len(second))
	}
	for i := range first {
		if second[i].ID != first[i].ID || second[i].Name != first[i].Name || second[i].Position != first[i].Position {
			t.Fatalf("second init changed column %d: %+v vs %+v", i, second[i], first[i])
		}
	}
}

func TestInitColumnsKeepsCustomBoard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.CreateColumn(ctx, "alice", CreateColumnInput{Name: "Only Lane"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	cols, err := svc.InitColumns(ctx, "alice")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "Only Lane" {
		t.Fatalf("init overwrote custom board: %+v", cols)
	}
}

func TestMoveTaskTouchesOnlyColumnPositionUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cols, err := svc.InitColumns(ctx, "alice")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	task, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "Write spec", ColumnID: cols[0].ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	other, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "Untouched", ColumnID: cols[0].ID, Position: intp(1)})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	moved, err := svc.MoveTask(ctx, "alice", task.ID, cols[1].ID, 5)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ColumnID != cols[1].ID || moved.Position != 5 {
		t.Fatalf("move did not land: %+v", moved)
	}
	if !moved.UpdatedAt.After(task.UpdatedAt) {
		t.Fatalf("UpdatedAt not restamped: %v -> %v", task.UpdatedAt, moved.UpdatedAt)
	}
	if moved.Title != task.Title || moved.Description != task.Description ||
		moved.Priority != task.Priority || !moved.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("move touched unrelated fields: %+v", moved)
	}

	after, err := svc.GetTask(ctx, "alice", other.ID)
	if err != nil {
		t.Fatalf("get sibling: %v", err)
	}
	if after.Position != other.Position || after.ColumnID != other.ColumnID || !after.UpdatedAt.Equal(other.UpdatedAt) {
		t.Fatalf("sibling task changed by move: %+v", after)
	}
}

func TestMoveTaskRequiresColumn(t *testing.T) {
	svc := newTestService()
	_, err := svc.MoveTask(context.Background(), "alice", "t1", "", 0)
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	task, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "  Trim me  ", ColumnID: "col-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Trim me" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.Priority != domain.PriorityMedium || task.Position != 0 || task.Description != "" || task.DueDate != nil {
		t.Fatalf("defaults wrong: %+v", task)
	}

	if _, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", ColumnID: "col-1", Priority: "urgent"}); err == nil {
		t.Fatal("expected priority validation error")
	}
	if _, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "x"}); err == nil {
		t.Fatal("expected columnId validation error")
	}
	if _, err := svc.CreateTask(ctx, "alice", CreateTaskInput{ColumnID: "col-1"}); err == nil {
		t.Fatal("expected title validation error")
	}
}

func TestOwnershipIsolationAcrossOperations(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cols, _ := svc.InitColumns(ctx, "alice")
	task, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "secret", ColumnID: cols[0].ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetTask(ctx, "bob", task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("get: expected ErrForbidden, got %v", err)
	}
	name := "hijack"
	if _, err := svc.UpdateColumn(ctx, "bob", cols[0].ID, domain.ColumnPatch{Name: &name}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("update: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteTask(ctx, "bob", task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteTask(ctx, "bob", "no-such-task"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete missing: expected ErrNotFound, got %v", err)
	}

	// Bob's probing left alice's data intact.
	got, err := svc.GetTask(ctx, "alice", task.ID)
	if err != nil || got.Title != "secret" {
		t.Fatalf("alice's task damaged: %+v, %v", got, err)
	}

	// Bob's own board bootstraps independently.
	bobCols, err := svc.ListColumns(ctx, "bob")
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(bobCols) != 3 || bobCols[0].ID == cols[0].ID {
		t.Fatalf("bob's board shares state with alice: %+v", bobCols)
	}
}

func TestOperationsRejectEmptyOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	var verr domain.ValidationError
	if _, err := svc.ListColumns(ctx, ""); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateTask(ctx, "", CreateTaskInput{Title: "x", ColumnID: "c"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.DeleteColumn(ctx, "", "c1"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteColumnLeavesTasksBehind(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cols, _ := svc.InitColumns(ctx, "alice")
	task, err := svc.CreateTask(ctx, "alice", CreateTaskInput{Title: "stranded", ColumnID: cols[0].ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteColumn(ctx, "alice", cols[0].ID); err != nil {
		t.Fatalf("delete column: %v", err)
	}

	// No cascade: the task survives and still points at the deleted column.
	got, err := svc.GetTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ColumnID != cols[0].ID {
		t.Fatalf("task columnId rewritten: %+v", got)
	}
}

func TestBoardScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cols, err := svc.InitColumns(ctx, "u1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	backlog, inProgress := cols[0], cols[1]

	task, err := svc.CreateTask(ctx, "u1", CreateTaskInput{Title: "Write spec", ColumnID: backlog.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := svc.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Position != 0 {
		t.Fatalf("unexpected listing: %+v", tasks)
	}

	if _, err := svc.MoveTask(ctx, "u1", task.ID, inProgress.ID, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	tasks, _ = svc.ListTasks(ctx, "u1")
	if tasks[0].ColumnID != inProgress.ID {
		t.Fatalf("task not in In Progress: %+v", tasks[0])
	}
}

func intp(v int) *int { return &v }
