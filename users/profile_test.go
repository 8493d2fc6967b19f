package users

import (
	"errors"
	"testing"
	"time"

	"board-api/domain"
)

func TestLookupCreatesThenCounts(t *testing.T) {
	svc := NewService()
	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := svc.Lookup("auth0|u1", TokenInfo{
		Email:       "u1@corp.example",
		Name:        "U. One",
		Permissions: []string{"read:tasks"},
		Scope:       "openid profile",
	})
	if first.Email != "u1@corp.example" || first.Name != "U. One" || first.TotalLogins != 1 {
		t.Fatalf("unexpected first profile: %+v", first)
	}

	second := svc.Lookup("auth0|u1", TokenInfo{})
	if second.TotalLogins != 2 {
		t.Fatalf("login count not bumped: %+v", second)
	}
	if second.Email != first.Email || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("repeat lookup rewrote profile: %+v", second)
	}
	if !second.LastLogin.After(first.LastLogin) {
		t.Fatalf("LastLogin not advanced: %v -> %v", first.LastLogin, second.LastLogin)
	}
}

func TestLookupFillsClaimDefaults(t *testing.T) {
	svc := NewService()
	profile := svc.Lookup("auth0|u2", TokenInfo{})
	if profile.Email != "auth0|u2@example.com" || profile.Name != "User" {
		t.Fatalf("defaults not applied: %+v", profile)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService()

	name := "New Name"
	if _, err := svc.Update("never-seen", domain.ProfilePatch{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	svc.Lookup("auth0|u1", TokenInfo{Name: "Old Name"})
	updated, err := svc.Update("auth0|u1", domain.ProfilePatch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" {
		t.Fatalf("name not updated: %+v", updated)
	}

	blank := "  "
	if _, err := svc.Update("auth0|u1", domain.ProfilePatch{Name: &blank}); err == nil {
		t.Fatal("expected validation error for blank name")
	}
}
