package domain

import (
	"strings"
	"time"
)

// Priority ranks how urgently a task needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a raw priority value. The empty string maps to the
// medium default.
func ParsePriority(raw string) (Priority, error) {
	switch Priority(raw) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(raw), nil
	default:
		return "", invalid("priority", "must be one of low, medium, high")
	}
}

// Task is a single card on a user's board. A task's state is its column; a nil
// DueDate means no deadline.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ColumnID    string     `json:"columnId"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch enumerates the mutable task fields. ID, OwnerID and CreatedAt are
// deliberately unreachable through a patch.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	ColumnID    *string    `json:"columnId"`
	Position    *int       `json:"position"`
}

// Apply merges the patch into the task and restamps UpdatedAt. The task is
// left untouched when any patched field fails validation.
func (p TaskPatch) Apply(t *Task, now time.Time) error {
	updated := *t
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return invalid("title", "must not be empty")
		}
		updated.Title = title
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.Priority != nil {
		prio, err := ParsePriority(*p.Priority)
		if err != nil {
			return err
		}
		updated.Priority = prio
	}
	if p.DueDate != nil {
		due := *p.DueDate
		updated.DueDate = &due
	}
	if p.ColumnID != nil {
		if *p.ColumnID == "" {
			return invalid("columnId", "must not be empty")
		}
		updated.ColumnID = *p.ColumnID
	}
	if p.Position != nil {
		updated.Position = *p.Position
	}
	updated.UpdatedAt = now
	*t = updated
	return nil
}
