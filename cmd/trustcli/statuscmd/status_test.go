/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package statuscmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCmdWithMissingArg(t *testing.T) {
	t.Run("test missing arg issuer", func(t *testing.T) {
		cmd := allocateCmd()

		err := cmd.Execute()

		require.Error(t, err)
		require.Equal(t,
			"Neither issuer (command line flag) nor TRUSTCLI_ISSUER (environment variable) have been set.",
			err.Error())
	})

	t.Run("test missing arg store-type", func(t *testing.T) {
		cmd := allocateCmd()
		cmd.SetArgs([]string{"--issuer", "BPNL000000000001"})

		err := cmd.Execute()

		require.Error(t, err)
		require.Equal(t,
			"Neither store-type (command line flag) nor TRUSTCLI_STORE_TYPE (environment variable) have been set.",
			err.Error())
	})

	t.Run("test missing arg index", func(t *testing.T) {
		cmd := verifyCmd()
		cmd.SetArgs([]string{"--issuer", "BPNL000000000001"})

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "index")
	})
}

func TestStatusCmdWithInvalidArg(t *testing.T) {
	t.Run("test invalid issuer", func(t *testing.T) {
		cmd := allocateCmd()
		cmd.SetArgs([]string{"--issuer", "not-a-bpn"})

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})

	t.Run("test invalid index", func(t *testing.T) {
		cmd := revokeCmd()
		cmd.SetArgs([]string{
			"--issuer", "BPNL000000000001",
			"--index", "not-a-number",
		})

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid index value")
	})

	t.Run("test unsupported store type", func(t *testing.T) {
		cmd := allocateCmd()
		cmd.SetArgs([]string{
			"--issuer", "BPNL000000000001",
			"--store-type", "couchdb",
			"--store-url", "http://localhost:5984",
		})

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported store type")
	})

	t.Run("test invalid mysql dsn", func(t *testing.T) {
		cmd := allocateCmd()
		cmd.SetArgs([]string{
			"--issuer", "BPNL000000000001",
			"--store-type", "mysql",
			"--store-url", "invalid-dsn",
		})

		err := cmd.Execute()

		require.Error(t, err)
	})
}
