/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const (
	// EntryType is the credentialStatus type tag for entries pointing into a
	// status list, as per the VC Status List 2021 specification.
	//	Doc: https://w3c-ccg.github.io/vc-status-list-2021/
	EntryType = "StatusList2021Entry"

	// DefaultCapacity is the number of bits in a status list unless the
	// record says otherwise.
	DefaultCapacity = 131072
)

var (
	// ErrInvalidStatusPurpose is returned when a status purpose is outside
	// the supported enumeration.
	ErrInvalidStatusPurpose = errors.New("invalid status purpose")

	// ErrInvalidStatusListIndex is returned when a status list index is
	// outside the capacity of its list.
	ErrInvalidStatusListIndex = errors.New("invalid status list index")
)

// Entry is a validated credentialStatus entry: the pointer from an issued
// credential into one bit of a status list. Entries are immutable; the only
// way to obtain one is NewEntry or ParseEntry, both of which enforce the
// construction invariants instead of coercing bad input.
type Entry struct {
	id             string
	purpose        api.Purpose
	index          int
	listCredential string
}

// NewEntry builds a status entry after checking that purpose is in the
// supported enumeration and index lies in [0, capacity).
func NewEntry(id string, purpose api.Purpose, index, capacity int, listCredential string) (*Entry, error) {
	if purpose != api.PurposeRevocation {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatusPurpose, purpose)
	}

	if index < 0 || index >= capacity {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidStatusListIndex, index, capacity)
	}

	if listCredential == "" {
		return nil, errors.New("status list credential reference is required")
	}

	return &Entry{
		id:             id,
		purpose:        purpose,
		index:          index,
		listCredential: listCredential,
	}, nil
}

// ID returns the entry id.
func (e *Entry) ID() string { return e.id }

// Purpose returns the status purpose.
func (e *Entry) Purpose() api.Purpose { return e.purpose }

// Index returns the bit position inside the status list.
func (e *Entry) Index() int { return e.index }

// ListCredential returns the URI of the status list credential the entry
// points into.
func (e *Entry) ListCredential() string { return e.listCredential }

// entryDocument is the wire shape of a status entry. The statusListIndex is
// a decimal string on the wire, per the status list specification.
type entryDocument struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose"`
	StatusListIndex      string `json:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential"`
}

// MarshalJSON renders the entry in its wire shape.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryDocument{
		ID:                   e.id,
		Type:                 EntryType,
		StatusPurpose:        string(e.purpose),
		StatusListIndex:      strconv.Itoa(e.index),
		StatusListCredential: e.listCredential,
	})
}

// ParseEntry parses and validates a status entry document against the given
// list capacity. Unknown fields and a wrong type tag are rejected.
func ParseEntry(raw []byte, capacity int) (*Entry, error) {
	var doc entryDocument

	if err := strictUnmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse status entry: %w", err)
	}

	if doc.Type != EntryType {
		return nil, fmt.Errorf("status entry type %q not supported", doc.Type)
	}

	index, err := strconv.Atoi(doc.StatusListIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidStatusListIndex, doc.StatusListIndex)
	}

	return NewEntry(doc.ID, api.Purpose(doc.StatusPurpose), index, capacity, doc.StatusListCredential)
}
