/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package api contains dependency-injection interfaces and the persisted
// record type for the status list engine.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
)

// Purpose identifies what a status list tracks. The enumeration is closed:
// only revocation is supported until the publisher side can serve a second
// purpose page per issuer.
type Purpose string

// PurposeRevocation is the only supported status purpose.
const PurposeRevocation Purpose = "revocation"

// Store errors. Implementations must return these sentinels (possibly
// wrapped) so the engine can tell contention from absence.
var (
	// ErrNotFound is returned when no record exists for an (issuer, purpose)
	// pair.
	ErrNotFound = errors.New("status list not found")

	// ErrDuplicate is returned by Create when a record already exists.
	ErrDuplicate = errors.New("status list already exists")

	// ErrVersionConflict is returned by Update when the record changed since
	// it was read. The engine retries these; everything else is terminal.
	ErrVersionConflict = errors.New("status list version conflict")
)

// Record is the persisted state of one status list: one row per
// (issuer BPN, purpose) holding the list capacity, the next-free-index
// cursor, the compressed encoding, and a version column for optimistic
// concurrency.
type Record struct {
	Issuer      identity.BPN `json:"issuer"`
	Purpose     Purpose      `json:"purpose"`
	Capacity    int          `json:"capacity"`
	Cursor      int          `json:"cursor"`
	EncodedList string       `json:"encodedList"`
	Version     int64        `json:"version"`
}

// Clone returns a copy of the record, so stores can hand out records without
// sharing mutable state with their internals.
func (r *Record) Clone() *Record {
	clone := *r

	return &clone
}

// Store persists status list records. Update must compare-and-swap on the
// record's Version: it succeeds only if the stored version still matches,
// increments the version as part of the same atomic write, and reflects the
// new version in record.Version before returning.
type Store interface {
	Get(ctx context.Context, issuer identity.BPN, purpose Purpose) (*Record, error)
	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) error
}

// Publication is the payload handed to the external publisher after a
// revocation changed a list: the full re-encoded bitstring for the re-signer
// to wrap into a fresh status list credential.
type Publication struct {
	Issuer      identity.BPN `json:"issuer"`
	Purpose     Purpose      `json:"purpose"`
	EncodedList string       `json:"encodedList"`
	Version     int64        `json:"version"`
	PublishedAt time.Time    `json:"publishedAt"`
}

// Publisher hands a changed status list to the external component that
// re-signs and republishes the status list credential.
type Publisher interface {
	Publish(ctx context.Context, publication *Publication) error
}
