package domain

import (
	"strings"
	"time"
)

// Column is an ordered lane on a user's board.
type Column struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultColumnNames seeds a brand-new board, in display order. Their
// positions are their indexes in this slice.
var DefaultColumnNames = []string{"Backlog", "In Progress", "Done"}

// ColumnPatch enumerates the mutable column fields.
type ColumnPatch struct {
	Name     *string `json:"name"`
	Position *int    `json:"position"`
}

// Apply merges the patch into the column and restamps UpdatedAt.
func (p ColumnPatch) Apply(c *Column, now time.Time) error {
	updated := *c
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		updated.Name = name
	}
	if p.Position != nil {
		updated.Position = *p.Position
	}
	updated.UpdatedAt = now
	*c = updated
	return nil
}
