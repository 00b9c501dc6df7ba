/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package sts

import (
	"fmt"
	"strings"
)

// GrantTypeClientCredentials is the only grant type the token service
// supports.
const GrantTypeClientCredentials = "client_credentials"

// TokenRequest is an inbound secure-token-service request. Exactly one of
// AccessToken and BearerAccessScope must be populated: a fresh-scope grant
// carries the requested scope string, a wrapped grant carries a previously
// issued access token to re-attest.
type TokenRequest struct {
	Audience          string `json:"audience"`
	ClientID          string `json:"client_id"`
	ClientSecret      string `json:"client_secret"`
	GrantType         string `json:"grant_type"`
	AccessToken       string `json:"access_token,omitempty"`
	BearerAccessScope string `json:"bearer_access_scope,omitempty"`
}

// Violation is one field-level validation failure.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// Violations aggregates the field violations of one request into a single
// error value.
type Violations []Violation

func (v Violations) Error() string {
	descriptions := make([]string, len(v))

	for i, violation := range v {
		descriptions[i] = fmt.Sprintf("%s: %s", violation.Field, violation.Description)
	}

	return "invalid token request: " + strings.Join(descriptions, "; ")
}

const incompatibleDescription = "access_token and bearer_access_scope are incompatible: set exactly one"

// Validate checks the request's field-level invariants and returns the full
// set of violations, or nil when the request is valid. Grant type support is
// checked by the service, not here: an unknown grant type is a protocol
// rejection, not a malformed field.
func (r *TokenRequest) Validate() Violations {
	var violations Violations

	for _, field := range []struct {
		name  string
		value string
	}{
		{"audience", r.Audience},
		{"client_id", r.ClientID},
		{"client_secret", r.ClientSecret},
		{"grant_type", r.GrantType},
	} {
		if strings.TrimSpace(field.value) == "" {
			violations = append(violations, Violation{Field: field.name, Description: "must not be blank"})
		}
	}

	hasToken := r.AccessToken != ""
	hasScope := r.BearerAccessScope != ""

	switch {
	case hasToken && hasScope:
		violations = append(violations,
			Violation{Field: "access_token", Description: incompatibleDescription},
			Violation{Field: "bearer_access_scope", Description: incompatibleDescription})
	case !hasToken && !hasScope:
		violations = append(violations,
			Violation{Field: "access_token", Description: incompatibleDescription},
			Violation{Field: "bearer_access_scope", Description: incompatibleDescription})
	case hasToken && strings.TrimSpace(r.AccessToken) == "":
		violations = append(violations, Violation{Field: "access_token", Description: "must not be blank"})
	case hasScope && strings.TrimSpace(r.BearerAccessScope) == "":
		violations = append(violations, Violation{Field: "bearer_access_scope", Description: "must not be blank"})
	}

	return violations
}

// UnsupportedGrantTypeError is the protocol-level rejection for any grant
// type other than client_credentials.
type UnsupportedGrantTypeError struct {
	GrantType string
}

func (e *UnsupportedGrantTypeError) Error() string {
	return fmt.Sprintf("grant type %q is not supported, use %q", e.GrantType, GrantTypeClientCredentials)
}

// Code returns the OAuth error code the transport layer puts into the error
// response body.
func (e *UnsupportedGrantTypeError) Code() string {
	return "client_metadata_value_not_supported"
}

// TokenResponse is the successful token endpoint response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ErrorResponse is the structured error body for protocol-level rejections.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
