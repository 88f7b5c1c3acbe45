// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pshanbhag/codetrack/internal/models"
)

// MemoryStore implements ProfileStore in process memory. State is lost on
// restart; used by tests and ephemeral deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	handles  map[string]string // handle -> profile ID
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*models.Profile),
		handles:  make(map[string]string),
	}
}

// Create stores a new profile.
func (s *MemoryStore) Create(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handles[profile.Handle]; exists {
		return fmt.Errorf("%w: %s", ErrHandleExists, profile.Handle)
	}

	s.profiles[profile.ID] = clone(profile)
	s.handles[profile.Handle] = profile.ID
	return nil
}

// Get retrieves a profile by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", ErrProfileNotFound, id)
	}
	return clone(profile), nil
}

// GetByHandle retrieves a profile by Codeforces handle.
func (s *MemoryStore) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.handles[handle]
	if !ok {
		return nil, fmt.Errorf("%w: handle %s", ErrProfileNotFound, handle)
	}
	return clone(s.profiles[id]), nil
}

// Update replaces an existing profile record.
func (s *MemoryStore) Update(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.ID]
	if !ok {
		return fmt.Errorf("%w: id %s", ErrProfileNotFound, profile.ID)
	}

	if existing.Handle != profile.Handle {
		if _, taken := s.handles[profile.Handle]; taken {
			return fmt.Errorf("%w: %s", ErrHandleExists, profile.Handle)
		}
		delete(s.handles, existing.Handle)
		s.handles[profile.Handle] = profile.ID
	}

	s.profiles[profile.ID] = clone(profile)
	return nil
}

// Delete removes a profile.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ErrProfileNotFound, id)
	}

	delete(s.handles, existing.Handle)
	delete(s.profiles, id)
	return nil
}

// List returns all profiles.
func (s *MemoryStore) List(ctx context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]*models.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, clone(profile))
	}
	return profiles, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// clone copies a profile so callers never share mutable state with the
// store. Slices are copied shallowly; their elements are value types
// apart from rating pointers, which are read-only by convention.
func clone(p *models.Profile) *models.Profile {
	cp := *p
	if p.ContestHistory != nil {
		cp.ContestHistory = append([]models.ContestResult(nil), p.ContestHistory...)
	}
	if p.RecentSubmissions != nil {
		cp.RecentSubmissions = append([]models.Submission(nil), p.RecentSubmissions...)
	}
	return &cp
}
