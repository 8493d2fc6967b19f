package board

import (
	"context"
	"sort"
	"time"

	"board-api/domain"
)

// dueSoonWindowDays is the calendar-day horizon of the due-soon query.
const dueSoonWindowDays = 7

// DueSoon returns the owner's high-priority tasks whose deadline falls within
// [now, now + 7 calendar days], both bounds inclusive, ascending by deadline.
// Tasks without a deadline never qualify.
func (s *Service) DueSoon(ctx context.Context, ownerID string, now time.Time) ([]domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	horizon := now.AddDate(0, 0, dueSoonWindowDays)
	due := []domain.Task{}
	for _, t := range tasks {
		if t.Priority != domain.PriorityHigh || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(now) || t.DueDate.After(horizon) {
			continue
		}
		due = append(due, t)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueDate.Before(*due[j].DueDate)
	})
	return due, nil
}
