// Package users keeps a lightweight per-subject profile assembled from
// verified token claims. It is deliberately in-memory: the identity provider
// owns the canonical record, this is per-instance bookkeeping.
package users

import (
	"strings"
	"sync"
	"time"

	"board-api/domain"
)

// TokenInfo carries the profile-relevant claims of a verified token.
type TokenInfo struct {
	Email       string
	Name        string
	Picture     string
	Permissions []string
	Scope       string
}

// Service stores profiles keyed by subject id.
type Service struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile

	now func() time.Time
}

// NewService creates an empty profile service.
func NewService() *Service {
	return &Service{
		profiles: make(map[string]domain.Profile),
		now:      time.Now,
	}
}

// Lookup returns the subject's profile, creating it from the token claims on
// first sight and bumping the login bookkeeping on every later call.
func (s *Service) Lookup(ownerID string, info TokenInfo) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	profile, ok := s.profiles[ownerID]
	if !ok {
		email := info.Email
		if email == "" {
			email = ownerID + "@example.com"
		}
		name := info.Name
		if name == "" {
			name = "User"
		}
		profile = domain.Profile{
			ID:          ownerID,
			Email:       email,
			Name:        name,
			Picture:     info.Picture,
			Permissions: append([]string(nil), info.Permissions...),
			Scope:       info.Scope,
			CreatedAt:   now,
			UpdatedAt:   now,
			LastLogin:   now,
			TotalLogins: 1,
		}
	} else {
		profile.LastLogin = now
		profile.TotalLogins++
	}
	s.profiles[ownerID] = profile
	return profile
}

// Update merges the user-editable fields into the subject's profile. Updating
// a subject that has never logged in yields domain.ErrNotFound.
func (s *Service) Update(ownerID string, patch domain.ProfilePatch) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[ownerID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Profile{}, domain.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		profile.Name = name
	}
	if patch.Picture != nil {
		profile.Picture = *patch.Picture
	}
	profile.UpdatedAt = s.now()
	s.profiles[ownerID] = profile
	return profile, nil
}
