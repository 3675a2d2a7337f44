package user

import (
	"testing"

	"github.com/readmark/readmark/internal/domain"
)

func TestSignInAndOut(t *testing.T) {
	s := NewSession()

	if s.Current() != nil {
		t.Error("fresh session should be signed out")
	}
	if s.CurrentID() != "" {
		t.Errorf("CurrentID() = %q, want empty", s.CurrentID())
	}

	s.SignIn(domain.UserProfile{ID: "user-1", Email: "u@example.com", Name: "U"})
	if s.CurrentID() != "user-1" {
		t.Errorf("CurrentID() = %q, want user-1", s.CurrentID())
	}

	s.SignOut()
	if s.Current() != nil {
		t.Error("session should be signed out after SignOut")
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	s := NewSession()
	s.SignIn(domain.UserProfile{ID: "user-1", Name: "Original"})

	p := s.Current()
	p.Name = "Mutated"

	if got := s.Current().Name; got != "Original" {
		t.Errorf("Name = %q, caller mutation leaked into the session", got)
	}
}

func TestUpdate(t *testing.T) {
	s := NewSession()

	// Update while signed out is a no-op, not a panic.
	s.Update(func(p *domain.UserProfile) { p.Name = "x" })

	s.SignIn(domain.UserProfile{ID: "user-1"})
	s.Update(func(p *domain.UserProfile) { p.LastSyncTime = 42 })

	if got := s.Current().LastSyncTime; got != 42 {
		t.Errorf("LastSyncTime = %d, want 42", got)
	}
}
