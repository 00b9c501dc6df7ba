/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const listCredentialURI = "https://wallet.example.com/api/credentials/status/BPNL000000000001/revocation"

func TestNewEntry(t *testing.T) {
	t.Run("valid entry", func(t *testing.T) {
		entry, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", api.PurposeRevocation, 42,
			statuslist.DefaultCapacity, listCredentialURI)
		require.NoError(t, err)
		require.Equal(t, 42, entry.Index())
		require.Equal(t, api.PurposeRevocation, entry.Purpose())
		require.Equal(t, listCredentialURI, entry.ListCredential())
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", api.PurposeRevocation, -1,
			statuslist.DefaultCapacity, listCredentialURI)
		require.ErrorIs(t, err, statuslist.ErrInvalidStatusListIndex)
	})

	t.Run("index at capacity", func(t *testing.T) {
		_, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", api.PurposeRevocation,
			statuslist.DefaultCapacity, statuslist.DefaultCapacity, listCredentialURI)
		require.ErrorIs(t, err, statuslist.ErrInvalidStatusListIndex)
	})

	t.Run("unsupported purpose", func(t *testing.T) {
		_, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", "expiration", 0,
			statuslist.DefaultCapacity, listCredentialURI)
		require.ErrorIs(t, err, statuslist.ErrInvalidStatusPurpose)
	})

	t.Run("missing list credential reference", func(t *testing.T) {
		_, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", api.PurposeRevocation, 0,
			statuslist.DefaultCapacity, "")
		require.Error(t, err)
	})
}

func TestEntryWireFormat(t *testing.T) {
	t.Run("marshal and parse round-trip", func(t *testing.T) {
		entry, err := statuslist.NewEntry("urn:uuid:e9b1e9ab", api.PurposeRevocation, 42,
			statuslist.DefaultCapacity, listCredentialURI)
		require.NoError(t, err)

		raw, err := json.Marshal(entry)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"statusListIndex":"42"`)
		require.Contains(t, string(raw), `"type":"StatusList2021Entry"`)

		parsed, err := statuslist.ParseEntry(raw, statuslist.DefaultCapacity)
		require.NoError(t, err)
		require.Equal(t, entry, parsed)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := statuslist.ParseEntry([]byte(`{
			"id": "urn:uuid:e9b1e9ab",
			"type": "StatusList2021Entry",
			"statusPurpose": "revocation",
			"statusListIndex": "42",
			"statusListCredential": "`+listCredentialURI+`",
			"extra": true
		}`), statuslist.DefaultCapacity)
		require.Error(t, err)
	})

	t.Run("rejects wrong type tag", func(t *testing.T) {
		_, err := statuslist.ParseEntry([]byte(`{
			"id": "urn:uuid:e9b1e9ab",
			"type": "SomeOtherEntry",
			"statusPurpose": "revocation",
			"statusListIndex": "42",
			"statusListCredential": "`+listCredentialURI+`"
		}`), statuslist.DefaultCapacity)
		require.Error(t, err)
		require.Contains(t, err.Error(), "not supported")
	})

	t.Run("rejects non-numeric index", func(t *testing.T) {
		_, err := statuslist.ParseEntry([]byte(`{
			"id": "urn:uuid:e9b1e9ab",
			"type": "StatusList2021Entry",
			"statusPurpose": "revocation",
			"statusListIndex": "forty-two",
			"statusListCredential": "`+listCredentialURI+`"
		}`), statuslist.DefaultCapacity)
		require.ErrorIs(t, err, statuslist.ErrInvalidStatusListIndex)
	})
}

func TestParseCredential(t *testing.T) {
	t.Run("valid page", func(t *testing.T) {
		credential, err := statuslist.ParseCredential([]byte(`{
			"@context": ["https://www.w3.org/2018/credentials/v1", "https://w3id.org/vc/status-list/2021/v1"],
			"id": "` + listCredentialURI + `",
			"type": ["VerifiableCredential", "StatusList2021Credential"],
			"issuer": "BPNL000000000001",
			"issuanceDate": "2023-06-15T10:00:00Z",
			"credentialSubject": {
				"id": "` + listCredentialURI + `#list",
				"type": "StatusList2021",
				"statusPurpose": "revocation",
				"encodedList": "H4sIAAAAAAAA"
			}
		}`))
		require.NoError(t, err)
		require.Equal(t, "revocation", credential.CredentialSubject.StatusPurpose)
	})

	t.Run("rejects unknown subject fields", func(t *testing.T) {
		_, err := statuslist.ParseCredential([]byte(`{
			"@context": [],
			"id": "x",
			"type": [],
			"issuer": "BPNL000000000001",
			"issuanceDate": "2023-06-15T10:00:00Z",
			"credentialSubject": {
				"id": "x#list",
				"type": "StatusList2021",
				"statusPurpose": "revocation",
				"encodedList": "H4sIAAAAAAAA",
				"revokedCount": 3
			}
		}`))
		require.Error(t, err)
	})

	t.Run("rejects missing encodedList", func(t *testing.T) {
		_, err := statuslist.ParseCredential([]byte(`{
			"@context": [],
			"id": "x",
			"type": [],
			"issuer": "BPNL000000000001",
			"issuanceDate": "2023-06-15T10:00:00Z",
			"credentialSubject": {
				"id": "x#list",
				"type": "StatusList2021",
				"statusPurpose": "revocation",
				"encodedList": ""
			}
		}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "encodedList")
	})
}
