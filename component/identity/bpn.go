/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package identity provides the identifier value types shared by the status
// list engine and the secure token service: business partner numbers (BPN),
// decentralized identifiers (DID), and the wallet/key-pair container resolved
// from an external wallet store.
package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidFormat is returned when an identifier does not match its
// required shape.
var ErrInvalidFormat = errors.New("invalid format")

// bpnPattern is the structural rule for business partner numbers: the BPN
// prefix, a classifier (L legal entity, S site, A address), then twelve
// uppercase alphanumerics.
var bpnPattern = regexp.MustCompile(`^BPN[LSA][0-9A-Z]{12}$`)

// BPN is a validated business partner number. Construct values through
// ParseBPN; equality and map-key behaviour are structural on the underlying
// string.
type BPN string

// ParseBPN validates raw against the BPN pattern.
func ParseBPN(raw string) (BPN, error) {
	if !bpnPattern.MatchString(raw) {
		return "", fmt.Errorf("bpn %q: %w", raw, ErrInvalidFormat)
	}

	return BPN(raw), nil
}

// String returns the underlying identifier.
func (b BPN) String() string {
	return string(b)
}

// DID is a decentralized identifier. The value is treated as opaque beyond
// the scheme check in ParseDID; method-specific semantics belong to an
// external resolver.
type DID string

// ParseDID checks that raw is a did URI with a method and a method-specific
// identifier.
func ParseDID(raw string) (DID, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("did %q: %w", raw, ErrInvalidFormat)
	}

	return DID(raw), nil
}

// String returns the underlying identifier.
func (d DID) String() string {
	return string(d)
}
