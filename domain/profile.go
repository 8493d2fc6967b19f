package domain

import "time"

// Profile is the user-facing identity record derived from verified token
// claims. It is bookkeeping, not a source of authorization decisions.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Picture     string    `json:"picture"`
	Permissions []string  `json:"permissions"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	LastLogin   time.Time `json:"lastLogin"`
	TotalLogins int       `json:"totalLogins"`
}

// ProfilePatch enumerates the profile fields a user may edit themselves.
type ProfilePatch struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}
