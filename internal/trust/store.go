package trust

import (
	"context"
	"sync"
)

// Store is the injected persistence capability for trust state.
// All mutations are atomic per user key: two concurrent deltas to the same
// user must both land (no lost updates).
type Store interface {
	// Get returns the profile, creating the default on first access.
	Get(ctx context.Context, user string) (Profile, error)
	// AdjustKarma applies a delta, clamps the result at 0, and returns the
	// new value.
	AdjustKarma(ctx context.Context, user string, delta int) (int, error)
	// AddHarassment raises the harassment score (floor 0) and returns the
	// new value. This core never decrements it.
	AddHarassment(ctx context.Context, user string, delta int) (int, error)
	// SetProfile overwrites the static profile attributes.
	SetProfile(ctx context.Context, user string, attrs Attrs) error
}

// MemStore is an in-process Store for tests and embedded SDK use.
type MemStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{profiles: make(map[string]Profile)}
}

func (s *MemStore) Get(_ context.Context, user string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(user), nil
}

func (s *MemStore) AdjustKarma(_ context.Context, user string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.load(user)
	p.Karma += delta
	if p.Karma < 0 {
		p.Karma = 0
	}
	s.profiles[user] = p
	return p.Karma, nil
}

func (s *MemStore) AddHarassment(_ context.Context, user string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.load(user)
	p.HarassmentScore += delta
	if p.HarassmentScore < 0 {
		p.HarassmentScore = 0
	}
	s.profiles[user] = p
	return p.HarassmentScore, nil
}

func (s *MemStore) SetProfile(_ context.Context, user string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.load(user)
	p.IsMinor = attrs.IsMinor
	p.Age = attrs.Age
	p.InstitutionRestricted = attrs.InstitutionRestricted
	s.profiles[user] = p
	return nil
}

// load returns the stored profile or materializes the default.
// Caller holds s.mu.
func (s *MemStore) load(user string) Profile {
	if p, ok := s.profiles[user]; ok {
		return p
	}
	p := DefaultProfile()
	s.profiles[user] = p
	return p
}
