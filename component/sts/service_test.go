/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package sts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/sts"
)

type fakeWalletStore struct {
	wallets map[identity.DID]*identity.Wallet
}

func (f *fakeWalletStore) ResolveWallet(_ context.Context, did identity.DID) (*identity.Wallet, error) {
	wallet, ok := f.wallets[did]
	if !ok {
		return nil, errors.New("wallet not found")
	}

	return wallet, nil
}

func newServiceFixture(t *testing.T) (*sts.Service, *identity.KeyPair) {
	t.Helper()

	key := newEd25519Key(t)

	store := &fakeWalletStore{wallets: map[identity.DID]*identity.Wallet{
		selfDID: {
			BPN:  "BPNL000000000001",
			DID:  selfDID,
			Keys: []identity.KeyPair{*key},
		},
	}}

	return sts.NewService(store, sts.WithTokenTTL(time.Minute)), key
}

func TestServiceIssueToken(t *testing.T) {
	ctx := context.Background()

	t.Run("scope grant", func(t *testing.T) {
		service, key := newServiceFixture(t)

		response, err := service.IssueToken(ctx, selfDID, partnerDID, validScopeRequest())
		require.NoError(t, err)

		require.Equal(t, "Bearer", response.TokenType)
		require.EqualValues(t, 60, response.ExpiresIn)

		claims, custom := parseToken(t, response.AccessToken, key.PublicKey)
		require.Equal(t, selfDID.String(), claims.Issuer)
		require.Equal(t, partnerDID.String(), claims.Subject)
		require.Equal(t, "read write", *custom.Scope)
	})

	t.Run("wrapped grant", func(t *testing.T) {
		service, key := newServiceFixture(t)

		request := validScopeRequest()
		request.BearerAccessScope = ""
		request.AccessToken = "prior.access.token"

		response, err := service.IssueToken(ctx, selfDID, partnerDID, request)
		require.NoError(t, err)

		_, custom := parseToken(t, response.AccessToken, key.PublicKey)
		require.Equal(t, "prior.access.token", *custom.AccessToken)
		require.Nil(t, custom.Scope)
	})

	t.Run("token expiry follows the configured TTL", func(t *testing.T) {
		now := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)

		key := newEd25519Key(t)
		store := &fakeWalletStore{wallets: map[identity.DID]*identity.Wallet{
			selfDID: {BPN: "BPNL000000000001", DID: selfDID, Keys: []identity.KeyPair{*key}},
		}}

		service := sts.NewService(store,
			sts.WithTokenTTL(time.Minute),
			sts.WithClock(func() time.Time { return now }))

		response, err := service.IssueToken(ctx, selfDID, partnerDID, validScopeRequest())
		require.NoError(t, err)

		claims, _ := parseToken(t, response.AccessToken, key.PublicKey)
		require.Equal(t, now.Add(time.Minute).Unix(), claims.Expiry.Time().Unix())
	})

	t.Run("invalid request surfaces violations", func(t *testing.T) {
		service, _ := newServiceFixture(t)

		request := validScopeRequest()
		request.AccessToken = "also.set"

		_, err := service.IssueToken(ctx, selfDID, partnerDID, request)

		var violations sts.Violations

		require.ErrorAs(t, err, &violations)
		require.Len(t, violations, 2)
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		service, _ := newServiceFixture(t)

		request := validScopeRequest()
		request.GrantType = "authorization_code"

		_, err := service.IssueToken(ctx, selfDID, partnerDID, request)

		var unsupported *sts.UnsupportedGrantTypeError

		require.ErrorAs(t, err, &unsupported)
		require.Equal(t, "authorization_code", unsupported.GrantType)
	})

	t.Run("unknown caller wallet", func(t *testing.T) {
		service, _ := newServiceFixture(t)

		_, err := service.IssueToken(ctx, "did:web:unknown.example.com", partnerDID, validScopeRequest())
		require.Error(t, err)
		require.Contains(t, err.Error(), "resolve wallet")
	})

	t.Run("wallet without keys", func(t *testing.T) {
		store := &fakeWalletStore{wallets: map[identity.DID]*identity.Wallet{
			selfDID: {BPN: "BPNL000000000001", DID: selfDID},
		}}

		service := sts.NewService(store)

		_, err := service.IssueToken(ctx, selfDID, partnerDID, validScopeRequest())
		require.ErrorIs(t, err, sts.ErrKeyNotFound)
	})

	t.Run("signs with the most recently created active key", func(t *testing.T) {
		oldKey := newEd25519Key(t)
		oldKey.ID = "key-old"
		oldKey.CreatedAt = time.Now().Add(-time.Hour)

		newKey := newEd25519Key(t)
		newKey.ID = "key-new"

		store := &fakeWalletStore{wallets: map[identity.DID]*identity.Wallet{
			selfDID: {BPN: "BPNL000000000001", DID: selfDID, Keys: []identity.KeyPair{*oldKey, *newKey}},
		}}

		service := sts.NewService(store)

		response, err := service.IssueToken(ctx, selfDID, partnerDID, validScopeRequest())
		require.NoError(t, err)

		parsed, err := jwt.ParseSigned(response.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "key-new", parsed.Headers[0].KeyID)

		var claims jwt.Claims
		require.NoError(t, parsed.Claims(newKey.PublicKey, &claims))
	})
}
