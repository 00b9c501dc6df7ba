/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package tokencmd

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T) (string, ed25519.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	keyFile := filepath.Join(t.TempDir(), "key.pem")

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
	require.NoError(t, os.WriteFile(keyFile, pemBytes, 0o600))

	return keyFile, pub
}

func issueArgs(keyFile string, extra ...string) []string {
	args := []string{
		"--self-did", "did:web:self.example.com:BPNL000000000001",
		"--partner-did", "did:web:partner.example.com:BPNL000000000002",
		"--key-file", keyFile,
		"--key-id", "key-1",
	}

	return append(args, extra...)
}

func TestIssueCmdWithMissingArg(t *testing.T) {
	t.Run("test missing arg self-did", func(t *testing.T) {
		cmd := issueCmd()

		err := cmd.Execute()

		require.Error(t, err)
		require.Equal(t,
			"Neither self-did (command line flag) nor TRUSTCLI_SELF_DID (environment variable) have been set.",
			err.Error())
	})

	t.Run("test missing grant branch", func(t *testing.T) {
		keyFile, _ := writeKeyFile(t)

		cmd := issueCmd()
		cmd.SetArgs(issueArgs(keyFile))

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "exactly one of --scope and --access-token")
	})
}

func TestIssueCmdWithInvalidArg(t *testing.T) {
	t.Run("test invalid self did", func(t *testing.T) {
		keyFile, _ := writeKeyFile(t)

		cmd := issueCmd()
		cmd.SetArgs([]string{
			"--self-did", "not-a-did",
			"--partner-did", "did:web:partner.example.com",
			"--key-file", keyFile,
			"--key-id", "key-1",
			"--scope", "read",
		})

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})

	t.Run("test both grant branches set", func(t *testing.T) {
		keyFile, _ := writeKeyFile(t)

		cmd := issueCmd()
		cmd.SetArgs(issueArgs(keyFile, "--scope", "read", "--access-token", "a.b.c"))

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "exactly one of --scope and --access-token")
	})

	t.Run("test missing key file", func(t *testing.T) {
		cmd := issueCmd()
		cmd.SetArgs(issueArgs(filepath.Join(t.TempDir(), "missing.pem"), "--scope", "read"))

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "read key file")
	})

	t.Run("test key file without pem block", func(t *testing.T) {
		keyFile := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(keyFile, []byte("not pem"), 0o600))

		cmd := issueCmd()
		cmd.SetArgs(issueArgs(keyFile, "--scope", "read"))

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "no PEM block")
	})

	t.Run("test invalid ttl", func(t *testing.T) {
		keyFile, _ := writeKeyFile(t)

		cmd := issueCmd()
		cmd.SetArgs(issueArgs(keyFile, "--scope", "read", "--ttl", "soon"))

		err := cmd.Execute()

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid ttl value")
	})
}

func TestIssueCmd(t *testing.T) {
	t.Run("test issue scope token", func(t *testing.T) {
		keyFile, pub := writeKeyFile(t)

		out := &bytes.Buffer{}

		cmd := issueCmd()
		cmd.SetOut(out)
		cmd.SetArgs(issueArgs(keyFile, "--scope", "read write"))

		require.NoError(t, cmd.Execute())

		raw := strings.TrimSpace(out.String())

		parsed, err := jwt.ParseSigned(raw)
		require.NoError(t, err)
		require.Equal(t, "key-1", parsed.Headers[0].KeyID)

		var claims jwt.Claims

		require.NoError(t, parsed.Claims(pub, &claims))
		require.Equal(t, "did:web:self.example.com:BPNL000000000001", claims.Issuer)
		require.Equal(t, "did:web:partner.example.com:BPNL000000000002", claims.Subject)
	})

	t.Run("test issue wrapped token", func(t *testing.T) {
		keyFile, pub := writeKeyFile(t)

		out := &bytes.Buffer{}

		cmd := issueCmd()
		cmd.SetOut(out)
		cmd.SetArgs(issueArgs(keyFile, "--access-token", "prior.access.token"))

		require.NoError(t, cmd.Execute())

		raw := strings.TrimSpace(out.String())

		parsed, err := jwt.ParseSigned(raw)
		require.NoError(t, err)

		var (
			claims jwt.Claims
			custom struct {
				AccessToken string `json:"access_token"`
			}
		)

		require.NoError(t, parsed.Claims(pub, &claims, &custom))
		require.Equal(t, "prior.access.token", custom.AccessToken)
	})
}
