// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/pshanbhag/codetrack/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	profileKeyPrefix = "profile:"
	handleKeyPrefix  = "handle:"
)

// BadgerStore implements ProfileStore using BadgerDB for durable storage.
// The handle index maps handle -> profile ID so both lookups are a single
// point read.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed profile store on an already
// opened database. The caller owns the database lifecycle when sharing
// it; Close here closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens the BadgerDB at path with badger's own logging
// disabled; it is too chatty for production logs.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

func profileKey(id string) []byte    { return []byte(profileKeyPrefix + id) }
func handleKey(handle string) []byte { return []byte(handleKeyPrefix + handle) }

// Create stores a new profile and its handle index entry.
func (s *BadgerStore) Create(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(handleKey(profile.Handle))
		if err == nil {
			return fmt.Errorf("%w: %s", ErrHandleExists, profile.Handle)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check handle index: %w", err)
		}

		if err := txn.Set(profileKey(profile.ID), data); err != nil {
			return fmt.Errorf("set profile: %w", err)
		}
		if err := txn.Set(handleKey(profile.Handle), []byte(profile.ID)); err != nil {
			return fmt.Errorf("set handle index: %w", err)
		}
		return nil
	})
}

// Get retrieves a profile by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile

	err := s.db.View(func(txn *badger.Txn) error {
		return readProfile(txn, id, &profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByHandle retrieves a profile via the handle index.
func (s *BadgerStore) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	var profile models.Profile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(handleKey(handle))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: handle %s", ErrProfileNotFound, handle)
		}
		if err != nil {
			return fmt.Errorf("get handle index: %w", err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		return readProfile(txn, id, &profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update replaces an existing profile record, re-indexing the handle
// when it changed.
func (s *BadgerStore) Update(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Profile
		if err := readProfile(txn, profile.ID, &existing); err != nil {
			return err
		}

		if existing.Handle != profile.Handle {
			if _, err := txn.Get(handleKey(profile.Handle)); err == nil {
				return fmt.Errorf("%w: %s", ErrHandleExists, profile.Handle)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check handle index: %w", err)
			}
			if err := txn.Delete(handleKey(existing.Handle)); err != nil {
				return fmt.Errorf("delete old handle index: %w", err)
			}
			if err := txn.Set(handleKey(profile.Handle), []byte(profile.ID)); err != nil {
				return fmt.Errorf("set handle index: %w", err)
			}
		}

		if err := txn.Set(profileKey(profile.ID), data); err != nil {
			return fmt.Errorf("set profile: %w", err)
		}
		return nil
	})
}

// Delete removes a profile and its handle index entry.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Profile
		if err := readProfile(txn, id, &existing); err != nil {
			return err
		}

		if err := txn.Delete(profileKey(id)); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if err := txn.Delete(handleKey(existing.Handle)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete handle index: %w", err)
		}
		return nil
	})
}

// List returns every stored profile by scanning the profile key prefix.
func (s *BadgerStore) List(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var profile models.Profile
				if err := json.Unmarshal(val, &profile); err != nil {
					return fmt.Errorf("unmarshal profile: %w", err)
				}
				profiles = append(profiles, &profile)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readProfile(txn *badger.Txn, id string, out *models.Profile) error {
	item, err := txn.Get(profileKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: id %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
