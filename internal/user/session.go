// Package user holds the signed-in user for this daemon instance as an
// explicit, injected object. Components that need the current user get
// this dependency handed to them; there is no ambient global.
package user

import (
	"sync"

	"github.com/readmark/readmark/internal/domain"
)

// Session is the current sign-in state. Safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	profile *domain.UserProfile
}

// NewSession creates a signed-out session.
func NewSession() *Session {
	return &Session{}
}

// SignIn installs the profile as the current user.
func (s *Session) SignIn(profile domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := profile
	s.profile = &p
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = nil
}

// Current returns a copy of the signed-in profile, or nil.
func (s *Session) Current() *domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// CurrentID returns the signed-in user id, empty when signed out.
func (s *Session) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return ""
	}
	return s.profile.ID
}

// Update applies fn to the profile if someone is signed in.
func (s *Session) Update(fn func(*domain.UserProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile != nil {
		fn(s.profile)
	}
}
