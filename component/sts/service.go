/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package sts implements the secure token service: validation of token
// requests, minting of signed access/identity tokens between two
// DID-identified parties, and the orchestration that resolves the caller's
// wallet and signing key.
package sts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
)

var logger = log.New("ssi-trust-go/sts")

// ErrKeyNotFound is returned when the resolved wallet has no usable signing
// key. Terminal for the request; the service never retries.
var ErrKeyNotFound = errors.New("no signing key found")

// WalletStore resolves wallets from the external wallet storage. The
// service only reads; wallet lifecycle belongs to the store's owner.
type WalletStore interface {
	ResolveWallet(ctx context.Context, did identity.DID) (*identity.Wallet, error)
}

const defaultTokenTTL = 5 * time.Minute

// Service orchestrates token issuance: validate the request, resolve the
// caller's wallet and signing key, and dispatch to the issuer operation
// matching the populated grant branch.
type Service struct {
	wallets  WalletStore
	issuer   *TokenIssuer
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// WithTokenIssuer replaces the default token issuer, e.g. to enable
// wrapped-token verification.
func WithTokenIssuer(issuer *TokenIssuer) ServiceOption {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithClock overrides the service's time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a secure token service reading wallets from the given
// store.
func NewService(wallets WalletStore, opts ...ServiceOption) *Service {
	service := &Service{
		wallets:  wallets,
		issuer:   NewTokenIssuer(),
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// IssueToken mints a token from self to partner for the given request.
// Validation failures surface as Violations, unknown grant types as
// UnsupportedGrantTypeError, and a wallet without keys as ErrKeyNotFound.
func (s *Service) IssueToken(ctx context.Context, self, partner identity.DID,
	request *TokenRequest) (*TokenResponse, error) {
	if violations := request.Validate(); len(violations) > 0 {
		return nil, violations
	}

	if request.GrantType != GrantTypeClientCredentials {
		return nil, &UnsupportedGrantTypeError{GrantType: request.GrantType}
	}

	wallet, err := s.wallets.ResolveWallet(ctx, self)
	if err != nil {
		return nil, fmt.Errorf("resolve wallet for %s: %w", self, err)
	}

	key, err := wallet.SigningKey()
	if err != nil {
		if errors.Is(err, identity.ErrNoSigningKey) {
			return nil, fmt.Errorf("%w for wallet %s", ErrKeyNotFound, wallet.BPN)
		}

		return nil, err
	}

	expiry := s.now().Add(s.tokenTTL)

	var token string

	if request.AccessToken != "" {
		token, err = s.issuer.IssueFromWrappedToken(key, self, partner, expiry, request.AccessToken)
	} else {
		token, err = s.issuer.IssueFromScopes(key, self, partner, expiry, request.BearerAccessScope)
	}

	if err != nil {
		return nil, err
	}

	logger.Debugf("issued token from %s to %s, expires %s", self, partner, expiry.UTC().Format(time.RFC3339))

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}
