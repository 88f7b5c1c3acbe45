// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package store persists profile records.
//
// Profiles are keyed twice: by stable ID and by Codeforces handle, both
// unique. The BadgerDB implementation is the production store; the memory
// implementation backs tests and ephemeral deployments.
package store

import (
	"context"
	"errors"

	"github.com/pshanbhag/codetrack/internal/models"
)

// Sentinel errors shared by all implementations.
var (
	// ErrProfileNotFound indicates no profile exists for the given ID or
	// handle.
	ErrProfileNotFound = errors.New("store: profile not found")

	// ErrHandleExists indicates the Codeforces handle is already tracked
	// by another profile.
	ErrHandleExists = errors.New("store: handle already tracked")
)

// ProfileStore is the persistence contract for profile records.
//
// Writes replace the whole record: the sync orchestrator owns a profile
// during sync and persists it atomically, so partial-field updates are
// never needed.
type ProfileStore interface {
	// Create stores a new profile. Fails with ErrHandleExists when the
	// handle is already tracked.
	Create(ctx context.Context, profile *models.Profile) error

	// Get retrieves a profile by ID.
	Get(ctx context.Context, id string) (*models.Profile, error)

	// GetByHandle retrieves a profile by Codeforces handle.
	GetByHandle(ctx context.Context, handle string) (*models.Profile, error)

	// Update replaces an existing profile record. A handle change is
	// re-indexed and fails with ErrHandleExists when the new handle is
	// taken.
	Update(ctx context.Context, profile *models.Profile) error

	// Delete removes a profile and its handle index entry.
	Delete(ctx context.Context, id string) error

	// List returns all profiles. Order is unspecified; callers sort.
	List(ctx context.Context) ([]*models.Profile, error)

	// Close releases the underlying storage.
	Close() error
}
