/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist implements the issuer side of Bitstring Status List
// revocation: index allocation, revoke and verify operations over a
// fixed-capacity bit array, and the unsigned status list credential pages
// handed to an external re-signer.
package statuslist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/internal/bitstring"
)

var logger = log.New("ssi-trust-go/vc/statuslist")

var (
	// ErrListExhausted is returned by AllocateIndex once the cursor reaches
	// the list capacity. A new (issuer, purpose, page) must be provisioned
	// externally; the engine does not auto-page.
	ErrListExhausted = errors.New("status list exhausted")

	// ErrDecode is returned when a persisted status list encoding cannot be
	// decoded. The corrupt content is never echoed back.
	ErrDecode = errors.New("status list decode failed")
)

// IndexOutOfRangeError is returned by Revoke and IsRevoked for an index
// beyond the list capacity. Indices are rejected, never clamped.
type IndexOutOfRangeError struct {
	Index    int
	Capacity int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for status list of %d bits", e.Index, e.Capacity)
}

const defaultMaxConflictRetries = 5

// Client is the status list engine for one store. Revocations and
// allocations on the same (issuer, purpose) list serialize behind a
// per-list critical section; different lists never contend.
type Client struct {
	store          api.Store
	publisher      api.Publisher
	capacity       int
	credentialBase string
	maxRetries     uint64
	now            func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures the status list client.
type Option func(*Client)

// WithPublisher hands every changed encoding to the given publisher after it
// has been durably committed.
func WithPublisher(publisher api.Publisher) Option {
	return func(c *Client) {
		c.publisher = publisher
	}
}

// WithCapacity overrides the bit capacity used when the client provisions a
// fresh list record. Existing records keep the capacity they were created
// with.
func WithCapacity(capacity int) Option {
	return func(c *Client) {
		c.capacity = capacity
	}
}

// WithCredentialBase sets the base URI used for the id of built status list
// credential pages.
func WithCredentialBase(base string) Option {
	return func(c *Client) {
		c.credentialBase = base
	}
}

// WithClock overrides the time source used for publication and issuance
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New returns a status list client backed by the given store.
func New(store api.Store, opts ...Option) *Client {
	client := &Client{
		store:      store,
		capacity:   DefaultCapacity,
		maxRetries: defaultMaxConflictRetries,
		now:        time.Now,
		locks:      map[string]*sync.Mutex{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// AllocateIndex reserves the next free index on the (issuer, purpose) list
// and advances the cursor, as one atomic unit: concurrent calls never
// observe the same pre-increment cursor. The first allocation against an
// absent record provisions a fresh all-zero list. Allocation is append-only;
// a later revocation sets a bit but never frees the index.
func (c *Client) AllocateIndex(ctx context.Context, issuer identity.BPN, purpose api.Purpose) (int, error) {
	if err := checkPurpose(purpose); err != nil {
		return 0, err
	}

	index := 0

	err := c.withList(ctx, issuer, purpose, func(record *api.Record) (bool, error) {
		if record.Cursor >= record.Capacity {
			return false, backoff.Permanent(fmt.Errorf("%w: all %d indices assigned", ErrListExhausted, record.Capacity))
		}

		index = record.Cursor
		record.Cursor++

		return true, nil
	})
	if err != nil {
		return 0, err
	}

	return index, nil
}

// Revoke sets the status bit at index on the (issuer, purpose) list,
// re-encodes the list and hands the new encoding to the publisher. Revoking
// an already-revoked index succeeds without rewriting or republishing
// anything.
func (c *Client) Revoke(ctx context.Context, issuer identity.BPN, purpose api.Purpose, index int) error {
	if err := checkPurpose(purpose); err != nil {
		return err
	}

	var committed *api.Record

	err := c.withList(ctx, issuer, purpose, func(record *api.Record) (bool, error) {
		// A previous attempt may have lost a version race after setting the
		// bit; only the record of the attempt that commits may be published.
		committed = nil

		if index < 0 || index >= record.Capacity {
			return false, backoff.Permanent(&IndexOutOfRangeError{Index: index, Capacity: record.Capacity})
		}

		bits, err := c.decodeRecord(record)
		if err != nil {
			return false, backoff.Permanent(err)
		}

		set, err := bitstring.BitAt(bits, index)
		if err != nil {
			return false, backoff.Permanent(err)
		}

		if set {
			return false, nil
		}

		if err := bitstring.SetBit(bits, index, true); err != nil {
			return false, backoff.Permanent(err)
		}

		encoded, err := bitstring.Encode(bits)
		if err != nil {
			return false, backoff.Permanent(fmt.Errorf("encode status list: %w", err))
		}

		record.EncodedList = encoded
		committed = record

		return true, nil
	})
	if err != nil {
		return err
	}

	if committed == nil || c.publisher == nil {
		return nil
	}

	publication := &api.Publication{
		Issuer:      committed.Issuer,
		Purpose:     committed.Purpose,
		EncodedList: committed.EncodedList,
		Version:     committed.Version,
		PublishedAt: c.now().UTC(),
	}

	if err := c.publisher.Publish(ctx, publication); err != nil {
		return fmt.Errorf("publish status list %s/%s: %w", issuer, purpose, err)
	}

	return nil
}

// IsRevoked reports the status bit at index on the (issuer, purpose) list.
// Pure read against the committed record; an absent record means nothing was
// ever allocated, so every in-range index reads as not revoked.
func (c *Client) IsRevoked(ctx context.Context, issuer identity.BPN, purpose api.Purpose, index int) (bool, error) {
	if err := checkPurpose(purpose); err != nil {
		return false, err
	}

	record, err := c.store.Get(ctx, issuer, purpose)
	if errors.Is(err, api.ErrNotFound) {
		if index < 0 || index >= c.capacity {
			return false, &IndexOutOfRangeError{Index: index, Capacity: c.capacity}
		}

		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("load status list %s/%s: %w", issuer, purpose, err)
	}

	if index < 0 || index >= record.Capacity {
		return false, &IndexOutOfRangeError{Index: index, Capacity: record.Capacity}
	}

	bits, err := c.decodeRecord(record)
	if err != nil {
		return false, err
	}

	return bitstring.BitAt(bits, index)
}

// Credential builds the current unsigned status list credential page for the
// (issuer, purpose) list, for the external re-signer to sign and publish.
func (c *Client) Credential(ctx context.Context, issuer identity.BPN, purpose api.Purpose) (*Credential, error) {
	if err := checkPurpose(purpose); err != nil {
		return nil, err
	}

	record, err := c.store.Get(ctx, issuer, purpose)
	if err != nil {
		return nil, fmt.Errorf("load status list %s/%s: %w", issuer, purpose, err)
	}

	id := fmt.Sprintf("%s/%s/%s", c.credentialBase, issuer, purpose)

	return newCredential(id, issuer.String(), string(record.Purpose), record.EncodedList, c.now()), nil
}

// withList runs fn inside the per-list critical section: read the record
// (provisioning a fresh one when none exists yet), let fn mutate it, and
// write it back under a version compare-and-swap. Version conflicts from
// writers outside this process are retried with exponential backoff; every
// other failure is terminal. fn returns whether the record changed.
func (c *Client) withList(ctx context.Context, issuer identity.BPN, purpose api.Purpose,
	fn func(record *api.Record) (bool, error)) error {
	lock := c.listLock(issuer, purpose)
	lock.Lock()
	defer lock.Unlock()

	operation := func() error {
		record, err := c.store.Get(ctx, issuer, purpose)

		created := false

		switch {
		case errors.Is(err, api.ErrNotFound):
			record, err = c.freshRecord(issuer, purpose)
			if err != nil {
				return backoff.Permanent(err)
			}

			created = true
		case err != nil:
			return backoff.Permanent(fmt.Errorf("load status list %s/%s: %w", issuer, purpose, err))
		}

		changed, err := fn(record)
		if err != nil {
			return err
		}

		if !changed && !created {
			return nil
		}

		if created {
			if err := c.store.Create(ctx, record); err != nil {
				if errors.Is(err, api.ErrDuplicate) {
					// lost a provisioning race with another writer
					return err
				}

				return backoff.Permanent(fmt.Errorf("create status list %s/%s: %w", issuer, purpose, err))
			}

			return nil
		}

		if err := c.store.Update(ctx, record); err != nil {
			if errors.Is(err, api.ErrVersionConflict) {
				return err
			}

			return backoff.Permanent(fmt.Errorf("update status list %s/%s: %w", issuer, purpose, err))
		}

		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx))
}

func (c *Client) freshRecord(issuer identity.BPN, purpose api.Purpose) (*api.Record, error) {
	encoded, err := bitstring.Encode(bitstring.New(c.capacity))
	if err != nil {
		return nil, fmt.Errorf("encode empty status list: %w", err)
	}

	return &api.Record{
		Issuer:      issuer,
		Purpose:     purpose,
		Capacity:    c.capacity,
		EncodedList: encoded,
	}, nil
}

func (c *Client) decodeRecord(record *api.Record) ([]byte, error) {
	bits, err := bitstring.Decode(record.EncodedList, record.Capacity)
	if err != nil {
		logger.Errorf("status list %s/%s has a corrupt encoding: %v", record.Issuer, record.Purpose, err)

		return nil, fmt.Errorf("%w for list %s/%s", ErrDecode, record.Issuer, record.Purpose)
	}

	return bits, nil
}

func (c *Client) listLock(issuer identity.BPN, purpose api.Purpose) *sync.Mutex {
	key := issuer.String() + "|" + string(purpose)

	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}

	return lock
}

func checkPurpose(purpose api.Purpose) error {
	if purpose != api.PurposeRevocation {
		return fmt.Errorf("%w: %q", ErrInvalidStatusPurpose, purpose)
	}

	return nil
}
