/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package tokencmd contains the trustcli commands that mint
// secure-token-service tokens from a local signing key.
package tokencmd

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/edge-core/pkg/utils/cmd"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/sts"
)

const (
	selfDIDFlagName  = "self-did"
	selfDIDEnvKey    = "TRUSTCLI_SELF_DID"
	selfDIDFlagUsage = "DID of the token issuer." +
		" Alternatively, this can be set with the following environment variable: " + selfDIDEnvKey

	partnerDIDFlagName  = "partner-did"
	partnerDIDEnvKey    = "TRUSTCLI_PARTNER_DID"
	partnerDIDFlagUsage = "DID of the counterparty the token is issued for." +
		" Alternatively, this can be set with the following environment variable: " + partnerDIDEnvKey

	scopeFlagName  = "scope"
	scopeEnvKey    = "TRUSTCLI_SCOPE"
	scopeFlagUsage = "Space-separated access scopes to grant. Mutually exclusive with --access-token." +
		" Alternatively, this can be set with the following environment variable: " + scopeEnvKey

	accessTokenFlagName  = "access-token"
	accessTokenEnvKey    = "TRUSTCLI_ACCESS_TOKEN"
	accessTokenFlagUsage = "Counterparty access token to wrap. Mutually exclusive with --scope." +
		" Alternatively, this can be set with the following environment variable: " + accessTokenEnvKey

	keyFileFlagName  = "key-file"
	keyFileEnvKey    = "TRUSTCLI_KEY_FILE"
	keyFileFlagUsage = "Path to a PEM encoded PKCS#8 private key used to sign the token." +
		" Alternatively, this can be set with the following environment variable: " + keyFileEnvKey

	keyIDFlagName  = "key-id"
	keyIDEnvKey    = "TRUSTCLI_KEY_ID"
	keyIDFlagUsage = "Key identifier placed in the token's kid header." +
		" Alternatively, this can be set with the following environment variable: " + keyIDEnvKey

	ttlFlagName  = "ttl"
	ttlEnvKey    = "TRUSTCLI_TTL"
	ttlFlagUsage = "Token lifetime as a Go duration, for example 5m. Defaults to 5m." +
		" Alternatively, this can be set with the following environment variable: " + ttlEnvKey

	defaultTTL = 5 * time.Minute
)

// GetTokenCmd returns the token command group.
func GetTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint secure-token-service tokens",
	}

	tokenCmd.AddCommand(issueCmd())

	return tokenCmd
}

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a self-signed token with either a scope or a wrapped access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			selfDID, partnerDID, err := didArgs(cmd)
			if err != nil {
				return err
			}

			key, err := signingKeyArg(cmd)
			if err != nil {
				return err
			}

			ttl, err := ttlArg(cmd)
			if err != nil {
				return err
			}

			scope, err := cmdutils.GetUserSetVarFromString(cmd, scopeFlagName, scopeEnvKey, true)
			if err != nil {
				return err
			}

			accessToken, err := cmdutils.GetUserSetVarFromString(cmd, accessTokenFlagName, accessTokenEnvKey, true)
			if err != nil {
				return err
			}

			if (scope == "") == (accessToken == "") {
				return errors.New("exactly one of --scope and --access-token must be set")
			}

			issuer := sts.NewTokenIssuer()
			expiry := time.Now().Add(ttl)

			var raw string
			if accessToken != "" {
				raw, err = issuer.IssueFromWrappedToken(key, selfDID, partnerDID, expiry, accessToken)
			} else {
				raw, err = issuer.IssueFromScopes(key, selfDID, partnerDID, expiry, scope)
			}

			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)

			return nil
		},
	}

	cmd.Flags().StringP(selfDIDFlagName, "", "", selfDIDFlagUsage)
	cmd.Flags().StringP(partnerDIDFlagName, "", "", partnerDIDFlagUsage)
	cmd.Flags().StringP(scopeFlagName, "", "", scopeFlagUsage)
	cmd.Flags().StringP(accessTokenFlagName, "", "", accessTokenFlagUsage)
	cmd.Flags().StringP(keyFileFlagName, "", "", keyFileFlagUsage)
	cmd.Flags().StringP(keyIDFlagName, "", "", keyIDFlagUsage)
	cmd.Flags().StringP(ttlFlagName, "", "", ttlFlagUsage)

	return cmd
}

func didArgs(cmd *cobra.Command) (identity.DID, identity.DID, error) {
	rawSelf, err := cmdutils.GetUserSetVarFromString(cmd, selfDIDFlagName, selfDIDEnvKey, false)
	if err != nil {
		return "", "", err
	}

	selfDID, err := identity.ParseDID(rawSelf)
	if err != nil {
		return "", "", err
	}

	rawPartner, err := cmdutils.GetUserSetVarFromString(cmd, partnerDIDFlagName, partnerDIDEnvKey, false)
	if err != nil {
		return "", "", err
	}

	partnerDID, err := identity.ParseDID(rawPartner)
	if err != nil {
		return "", "", err
	}

	return selfDID, partnerDID, nil
}

func signingKeyArg(cmd *cobra.Command) (*identity.KeyPair, error) {
	keyFile, err := cmdutils.GetUserSetVarFromString(cmd, keyFileFlagName, keyFileEnvKey, false)
	if err != nil {
		return nil, err
	}

	keyID, err := cmdutils.GetUserSetVarFromString(cmd, keyIDFlagName, keyIDEnvKey, false)
	if err != nil {
		return nil, err
	}

	pemBytes, err := os.ReadFile(keyFile) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", keyFile)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
	}

	signer, ok := parsed.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key in %s does not support signing", keyFile)
	}

	return &identity.KeyPair{
		ID:         keyID,
		PrivateKey: signer,
		PublicKey:  signer.Public(),
		CreatedAt:  time.Now(),
		Active:     true,
	}, nil
}

func ttlArg(cmd *cobra.Command) (time.Duration, error) {
	rawTTL, err := cmdutils.GetUserSetVarFromString(cmd, ttlFlagName, ttlEnvKey, true)
	if err != nil {
		return 0, err
	}

	if rawTTL == "" {
		return defaultTTL, nil
	}

	ttl, err := time.ParseDuration(rawTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", ttlFlagName, rawTTL, err)
	}

	return ttl, nil
}
