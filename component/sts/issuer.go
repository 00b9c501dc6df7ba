/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package sts

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/uuid"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
)

const (
	claimScope       = "scope"
	claimAccessToken = "access_token"
)

// WrappedTokenKeyfunc resolves the verification key for the issuer of a
// wrapped access token.
type WrappedTokenKeyfunc func(issuer string) (crypto.PublicKey, error)

// TokenIssuer mints the signed tokens of the secure token service. Both
// operations are pure: nothing is persisted, and failures only come from the
// signing key or, when enabled, from wrapped-token verification.
type TokenIssuer struct {
	now            func() time.Time
	wrappedKeyfunc WrappedTokenKeyfunc
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithIssuerClock overrides the issuer's time source.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// WithWrappedTokenKeyfunc makes IssueFromWrappedToken verify the inner
// token's signature and expiry before re-attesting it. Without this option
// the inner token is embedded verbatim and the relying party stays
// responsible for verifying it.
func WithWrappedTokenKeyfunc(keyfunc WrappedTokenKeyfunc) IssuerOption {
	return func(i *TokenIssuer) {
		i.wrappedKeyfunc = keyfunc
	}
}

// NewTokenIssuer returns a token issuer.
func NewTokenIssuer(opts ...IssuerOption) *TokenIssuer {
	issuer := &TokenIssuer{now: time.Now}

	for _, opt := range opts {
		opt(issuer)
	}

	return issuer
}

// IssueFromScopes mints a token with issuer=self, subject and audience
// partner, the given expiration, and a scope claim built from the
// space-delimited scope string: duplicates collapse and an empty string
// yields an empty scope set, which is valid and denotes no elevated scope.
// The token is signed with the caller's own key pair, never the partner's.
func (i *TokenIssuer) IssueFromScopes(key *identity.KeyPair, self, partner identity.DID,
	expiry time.Time, scope string) (string, error) {
	return i.sign(key, self, partner, expiry, map[string]interface{}{
		claimScope: normalizeScope(scope),
	})
}

// IssueFromWrappedToken mints a token with the same envelope as
// IssueFromScopes but embeds the previously issued access token verbatim as
// a nested claim, re-attesting it under self's signature. Verification of
// the inner token only happens when WithWrappedTokenKeyfunc is set.
func (i *TokenIssuer) IssueFromWrappedToken(key *identity.KeyPair, self, partner identity.DID,
	expiry time.Time, accessToken string) (string, error) {
	if i.wrappedKeyfunc != nil {
		if err := i.verifyWrapped(accessToken); err != nil {
			return "", fmt.Errorf("wrapped access token rejected: %w", err)
		}
	}

	return i.sign(key, self, partner, expiry, map[string]interface{}{
		claimAccessToken: accessToken,
	})
}

func (i *TokenIssuer) sign(key *identity.KeyPair, self, partner identity.DID,
	expiry time.Time, privateClaims map[string]interface{}) (string, error) {
	if key == nil || key.PrivateKey == nil {
		return "", fmt.Errorf("signing key is required")
	}

	algorithm, err := signatureAlgorithm(key.PrivateKey)
	if err != nil {
		return "", err
	}

	options := (&jose.SignerOptions{}).WithType("JWT")
	if key.ID != "" {
		options = options.WithHeader(jose.HeaderKey("kid"), key.ID)
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: algorithm, Key: key.PrivateKey}, options)
	if err != nil {
		return "", fmt.Errorf("create signer: %w", err)
	}

	claims := jwt.Claims{
		Issuer:   self.String(),
		Subject:  partner.String(),
		Audience: jwt.Audience{partner.String()},
		Expiry:   jwt.NewNumericDate(expiry),
		IssuedAt: jwt.NewNumericDate(i.now()),
		ID:       uuid.NewString(),
	}

	raw, err := jwt.Signed(signer).Claims(claims).Claims(privateClaims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return raw, nil
}

func (i *TokenIssuer) verifyWrapped(accessToken string) error {
	parsed, err := jwt.ParseSigned(accessToken)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	var unverified jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&unverified); err != nil {
		return fmt.Errorf("read claims: %w", err)
	}

	verificationKey, err := i.wrappedKeyfunc(unverified.Issuer)
	if err != nil {
		return fmt.Errorf("resolve issuer key: %w", err)
	}

	var claims jwt.Claims
	if err := parsed.Claims(verificationKey, &claims); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	if err := claims.Validate(jwt.Expected{Time: i.now()}); err != nil {
		return fmt.Errorf("validate claims: %w", err)
	}

	return nil
}

// normalizeScope splits a space-delimited scope string into a sorted,
// de-duplicated set and joins it back, so equal scope sets always produce
// the same claim value.
func normalizeScope(scope string) string {
	fields := strings.Fields(scope)

	seen := make(map[string]struct{}, len(fields))
	unique := make([]string, 0, len(fields))

	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}

		seen[field] = struct{}{}
		unique = append(unique, field)
	}

	sort.Strings(unique)

	return strings.Join(unique, " ")
}

func signatureAlgorithm(key crypto.Signer) (jose.SignatureAlgorithm, error) {
	switch k := key.(type) {
	case ed25519.PrivateKey:
		return jose.EdDSA, nil
	case *ecdsa.PrivateKey:
		switch k.Curve {
		case elliptic.P256():
			return jose.ES256, nil
		case elliptic.P384():
			return jose.ES384, nil
		case elliptic.P521():
			return jose.ES512, nil
		default:
			return "", fmt.Errorf("unsupported ECDSA curve %q", k.Curve.Params().Name)
		}
	case *rsa.PrivateKey:
		return jose.RS256, nil
	default:
		return "", fmt.Errorf("unsupported signing key type %T", key)
	}
}
