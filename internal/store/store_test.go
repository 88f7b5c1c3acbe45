// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pshanbhag/codetrack/internal/models"
)

// newBadgerTestStore opens an in-memory BadgerDB instance.
func newBadgerTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewBadgerStore(db)
}

// forEachStore runs the test against both implementations so they stay
// behaviorally identical.
func forEachStore(t *testing.T, fn func(t *testing.T, s ProfileStore)) {
	t.Run("badger", func(t *testing.T) {
		fn(t, newBadgerTestStore(t))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func newProfile(id, handle string) *models.Profile {
	now := time.Now().UTC()
	return &models.Profile{
		ID:        id,
		Name:      "Test User",
		Email:     handle + "@example.com",
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		if err := s.Create(ctx, newProfile("id-1", "alice")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Handle != "alice" {
			t.Errorf("expected handle alice, got %q", got.Handle)
		}

		byHandle, err := s.GetByHandle(ctx, "alice")
		if err != nil {
			t.Fatalf("get by handle failed: %v", err)
		}
		if byHandle.ID != "id-1" {
			t.Errorf("expected id-1, got %q", byHandle.ID)
		}
	})
}

func TestCreateDuplicateHandle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		if err := s.Create(ctx, newProfile("id-1", "alice")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := s.Create(ctx, newProfile("id-2", "alice")); !errors.Is(err, ErrHandleExists) {
			t.Fatalf("expected ErrHandleExists, got %v", err)
		}
	})
}

func TestGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound by id, got %v", err)
		}
		if _, err := s.GetByHandle(ctx, "nope"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound by handle, got %v", err)
		}
	})
}

func TestUpdateReplacesRecord(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		profile := newProfile("id-1", "alice")
		if err := s.Create(ctx, profile); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		profile.CurrentRating = 1500
		profile.ContestHistory = []models.ContestResult{{ContestID: 1, NewRating: 1500}}
		if err := s.Update(ctx, profile); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := s.Get(ctx, "id-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.CurrentRating != 1500 || len(got.ContestHistory) != 1 {
			t.Errorf("update not persisted: %+v", got)
		}
	})
}

func TestUpdateReindexesHandle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		profile := newProfile("id-1", "alice")
		if err := s.Create(ctx, profile); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := s.Create(ctx, newProfile("id-2", "bob")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		// Taking an existing handle must fail.
		profile.Handle = "bob"
		if err := s.Update(ctx, profile); !errors.Is(err, ErrHandleExists) {
			t.Fatalf("expected ErrHandleExists, got %v", err)
		}

		// Moving to a free handle re-indexes.
		profile.Handle = "carol"
		if err := s.Update(ctx, profile); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if _, err := s.GetByHandle(ctx, "carol"); err != nil {
			t.Errorf("new handle not indexed: %v", err)
		}
		if _, err := s.GetByHandle(ctx, "alice"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("old handle still indexed: %v", err)
		}
	})
}

func TestUpdateMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		if err := s.Update(context.Background(), newProfile("ghost", "ghost")); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		if err := s.Create(ctx, newProfile("id-1", "alice")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := s.Delete(ctx, "id-1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if _, err := s.Get(ctx, "id-1"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("profile still present: %v", err)
		}
		if _, err := s.GetByHandle(ctx, "alice"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("handle index still present: %v", err)
		}

		// Handle is free for reuse after deletion.
		if err := s.Create(ctx, newProfile("id-2", "alice")); err != nil {
			t.Errorf("handle not released: %v", err)
		}

		if err := s.Delete(ctx, "ghost"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ProfileStore) {
		ctx := context.Background()

		for _, h := range []string{"alice", "bob", "carol"} {
			if err := s.Create(ctx, newProfile("id-"+h, h)); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		profiles, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(profiles) != 3 {
			t.Fatalf("expected 3 profiles, got %d", len(profiles))
		}

		seen := make(map[string]bool)
		for _, p := range profiles {
			seen[p.Handle] = true
		}
		for _, h := range []string{"alice", "bob", "carol"} {
			if !seen[h] {
				t.Errorf("missing profile %q in listing", h)
			}
		}
	})
}
