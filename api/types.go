package api

import (
	"context"
	"time"

	"board-api/board"
	"board-api/domain"
	"board-api/users"
)

// Board abstracts the board service for handlers.
type Board interface {
	ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error)
	InitColumns(ctx context.Context, ownerID string) ([]domain.Column, error)
	CreateColumn(ctx context.Context, ownerID string, in board.CreateColumnInput) (domain.Column, error)
	GetColumn(ctx context.Context, ownerID, id string) (domain.Column, error)
	UpdateColumn(ctx context.Context, ownerID, id string, patch domain.ColumnPatch) (domain.Column, error)
	DeleteColumn(ctx context.Context, ownerID, id string) error

	ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	DueSoon(ctx context.Context, ownerID string, now time.Time) ([]domain.Task, error)
	CreateTask(ctx context.Context, ownerID string, in board.CreateTaskInput) (domain.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error)
	MoveTask(ctx context.Context, ownerID, id, columnID string, position int) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// Identity is the verified caller: the token subject plus the profile-facing
// claims that came with it.
type Identity struct {
	Subject     string
	Email       string
	Name        string
	Picture     string
	Scope       string
	Permissions []string
}

// TokenInfo converts the identity's claims into the profile service's input.
func (id Identity) TokenInfo() users.TokenInfo {
	return users.TokenInfo{
		Email:       id.Email,
		Name:        id.Name,
		Picture:     id.Picture,
		Permissions: id.Permissions,
		Scope:       id.Scope,
	}
}

// Authenticator is implemented by types able to verify bearer credentials.
type Authenticator interface {
	IdentityFromAuthHeader(header string) (Identity, error)
}

// Profiles abstracts the user-profile service for handlers.
type Profiles interface {
	Lookup(ownerID string, info users.TokenInfo) domain.Profile
	Update(ownerID string, patch domain.ProfilePatch) (domain.Profile, error)
}
