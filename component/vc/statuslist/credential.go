/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// CredentialType is the type tag of a status list credential page.
	CredentialType = "StatusList2021Credential"

	// SubjectType is the type tag of the credentialSubject inside a status
	// list credential page.
	SubjectType = "StatusList2021"

	credentialContext = "https://www.w3.org/2018/credentials/v1"
	statusListContext = "https://w3id.org/vc/status-list/2021/v1"
)

// Subject is the credentialSubject of a status list credential. It is a
// fixed, strongly-typed record: parsing rejects unknown or missing fields
// rather than probing a generic map.
type Subject struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	StatusPurpose string `json:"statusPurpose"`
	EncodedList   string `json:"encodedList"`
}

// Credential is one unsigned status list credential page. The engine builds
// these; signing and publishing belong to the external re-signer.
type Credential struct {
	Context           []string `json:"@context"`
	ID                string   `json:"id"`
	Type              []string `json:"type"`
	Issuer            string   `json:"issuer"`
	IssuanceDate      string   `json:"issuanceDate"`
	CredentialSubject Subject  `json:"credentialSubject"`
}

// ParseCredential parses a status list credential page, rejecting unknown
// fields and validating the subject record.
func ParseCredential(raw []byte) (*Credential, error) {
	var credential Credential

	if err := strictUnmarshal(raw, &credential); err != nil {
		return nil, fmt.Errorf("parse status list credential: %w", err)
	}

	if err := credential.CredentialSubject.validate(); err != nil {
		return nil, err
	}

	return &credential, nil
}

func (s *Subject) validate() error {
	if s.Type != SubjectType {
		return fmt.Errorf("credential subject type %q not supported", s.Type)
	}

	if s.StatusPurpose == "" {
		return fmt.Errorf("credential subject is missing statusPurpose")
	}

	if s.EncodedList == "" {
		return fmt.Errorf("credential subject is missing encodedList")
	}

	return nil
}

func newCredential(id, issuer, purpose, encodedList string, issuedAt time.Time) *Credential {
	return &Credential{
		Context:      []string{credentialContext, statusListContext},
		ID:           id,
		Type:         []string{"VerifiableCredential", CredentialType},
		Issuer:       issuer,
		IssuanceDate: issuedAt.UTC().Format(time.RFC3339),
		CredentialSubject: Subject{
			ID:            id + "#list",
			Type:          SubjectType,
			StatusPurpose: purpose,
			EncodedList:   encodedList,
		},
	}
}

func strictUnmarshal(raw []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	return decoder.Decode(target)
}
