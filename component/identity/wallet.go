/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto"
	"errors"
	"fmt"
	"time"
)

// ErrNoSigningKey is returned by Wallet.SigningKey when the wallet holds no
// active key pair.
var ErrNoSigningKey = errors.New("wallet has no active signing key")

// KeyPair is signing material owned by exactly one wallet. The private key is
// kept out of JSON and String output so it cannot end up in logs or API
// responses.
type KeyPair struct {
	ID         string           `json:"id"`
	PrivateKey crypto.Signer    `json:"-"`
	PublicKey  crypto.PublicKey `json:"-"`
	CreatedAt  time.Time        `json:"createdAt"`
	Active     bool             `json:"active"`
}

// String renders the key pair without its key material.
func (k KeyPair) String() string {
	return fmt.Sprintf("KeyPair{ID: %s, CreatedAt: %s, Active: %t}", k.ID, k.CreatedAt.Format(time.RFC3339), k.Active)
}

// Wallet binds one BPN/DID pair to its key pairs. Wallets are resolved
// read-only from an external store; nothing in this module mutates them.
type Wallet struct {
	BPN  BPN       `json:"bpn"`
	DID  DID       `json:"did"`
	Keys []KeyPair `json:"keys"`
}

// SigningKey selects the wallet's signing key: the most recently created
// active key pair, ties broken by key ID in descending order. The rule is
// deliberately independent of slice order so that storage backends are free
// to return keys in any order.
func (w *Wallet) SigningKey() (*KeyPair, error) {
	var selected *KeyPair

	for i := range w.Keys {
		key := &w.Keys[i]
		if !key.Active || key.PrivateKey == nil {
			continue
		}

		if selected == nil || key.CreatedAt.After(selected.CreatedAt) ||
			(key.CreatedAt.Equal(selected.CreatedAt) && key.ID > selected.ID) {
			selected = key
		}
	}

	if selected == nil {
		return nil, ErrNoSigningKey
	}

	return selected, nil
}
