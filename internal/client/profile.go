package client

import (
	"context"
	"sync"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

type profileAPI interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	UserData(ctx context.Context) (*domain.Profile, error)
}

// ProfileStore caches the signed-in user's profile. Views call Load when
// they mount and read LoggedIn and Profile afterwards.
type ProfileStore struct {
	api profileAPI

	mu       sync.RWMutex
	loggedIn bool
	profile  *domain.Profile
}

func NewProfileStore(api profileAPI) *ProfileStore {
	return &ProfileStore{api: api}
}

// Load refreshes the store from the API. An unauthenticated session is not
// an error: the store is simply left logged out.
func (s *ProfileStore) Load(ctx context.Context) error {
	ok, err := s.api.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.Reset()
		return nil
	}
	p, err := s.api.UserData(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			s.Reset()
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.loggedIn = true
	s.profile = p
	s.mu.Unlock()
	return nil
}

// Set replaces the cached profile, e.g. with the body of an update-profile response.
func (s *ProfileStore) Set(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = p != nil
	s.profile = p
}

// Reset drops the cached profile after logout or an expired session.
func (s *ProfileStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.profile = nil
}

func (s *ProfileStore) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Profile returns a copy of the cached profile, or nil when logged out.
func (s *ProfileStore) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	cp := *s.profile
	return &cp
}
