/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package storetest provides a conformance suite that every api.Store
// implementation must pass. Backend packages run it from their own tests
// against a connected store.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const testIssuer = identity.BPN("BPNL000000000001")

// Run exercises the api.Store contract against the given store. The store
// must be empty for the issuer BPNL000000000001.
func Run(t *testing.T, store api.Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("get absent record", func(t *testing.T) {
		_, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("create then get", func(t *testing.T) {
		record := &api.Record{
			Issuer:      testIssuer,
			Purpose:     api.PurposeRevocation,
			Capacity:    1024,
			Cursor:      0,
			EncodedList: "H4sIAAAAAAAA",
		}

		require.NoError(t, store.Create(ctx, record))
		require.EqualValues(t, 1, record.Version)

		got, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)
		require.Equal(t, record, got)
	})

	t.Run("create duplicate", func(t *testing.T) {
		err := store.Create(ctx, &api.Record{Issuer: testIssuer, Purpose: api.PurposeRevocation})
		require.ErrorIs(t, err, api.ErrDuplicate)
	})

	t.Run("update bumps version", func(t *testing.T) {
		record, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)

		record.Cursor = 7
		require.NoError(t, store.Update(ctx, record))
		require.EqualValues(t, 2, record.Version)

		got, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)
		require.Equal(t, 7, got.Cursor)
		require.EqualValues(t, 2, got.Version)
	})

	t.Run("update with stale version conflicts", func(t *testing.T) {
		stale, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)

		fresh, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)

		fresh.Cursor++
		require.NoError(t, store.Update(ctx, fresh))

		stale.Cursor = 999

		err = store.Update(ctx, stale)
		require.ErrorIs(t, err, api.ErrVersionConflict)

		got, err := store.Get(ctx, testIssuer, api.PurposeRevocation)
		require.NoError(t, err)
		require.NotEqual(t, 999, got.Cursor)
	})

	t.Run("update absent record", func(t *testing.T) {
		err := store.Update(ctx, &api.Record{
			Issuer:  identity.BPN("BPNL999999999999"),
			Purpose: api.PurposeRevocation,
			Version: 1,
		})
		require.ErrorIs(t, err, api.ErrNotFound)
	})
}
