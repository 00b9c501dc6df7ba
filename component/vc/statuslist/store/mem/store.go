/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem provides a process-local status list store, for embedders that
// do not need durability and for tests.
package mem

import (
	"context"
	"sync"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

// Store is an in-memory implementation of api.Store. It is safe for
// concurrent use; records are copied on the way in and out so callers never
// share state with the store's internals.
type Store struct {
	mu      sync.RWMutex
	records map[string]*api.Record
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{records: map[string]*api.Record{}}
}

// Get returns the record for the (issuer, purpose) pair.
func (s *Store) Get(_ context.Context, issuer identity.BPN, purpose api.Purpose) (*api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey(issuer, purpose)]
	if !ok {
		return nil, api.ErrNotFound
	}

	return record.Clone(), nil
}

// Create stores a new record at version 1.
func (s *Store) Create(_ context.Context, record *api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.Issuer, record.Purpose)

	if _, ok := s.records[key]; ok {
		return api.ErrDuplicate
	}

	record.Version = 1
	s.records[key] = record.Clone()

	return nil
}

// Update writes the record back if its version still matches the stored one,
// bumping the version on success.
func (s *Store) Update(_ context.Context, record *api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.Issuer, record.Purpose)

	current, ok := s.records[key]
	if !ok {
		return api.ErrNotFound
	}

	if current.Version != record.Version {
		return api.ErrVersionConflict
	}

	record.Version++
	s.records[key] = record.Clone()

	return nil
}

func recordKey(issuer identity.BPN, purpose api.Purpose) string {
	return issuer.String() + "|" + string(purpose)
}
