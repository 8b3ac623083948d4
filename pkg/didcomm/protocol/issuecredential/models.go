/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// ProposeCredentialV1 is sent by the potential Holder to the Issuer to initiate the protocol or to answer an
// offer the Holder wants adjusted. The indy filter travels as top level fields.
type ProposeCredentialV1 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// CredentialProposal is the credential data the Holder wants to receive.
	CredentialProposal *exchange.Preview `json:"credential_proposal,omitempty"`
	SchemaIssuerDID    string            `json:"schema_issuer_did,omitempty"`
	SchemaID           string            `json:"schema_id,omitempty"`
	SchemaName         string            `json:"schema_name,omitempty"`
	SchemaVersion      string            `json:"schema_version,omitempty"`
	CredDefID          string            `json:"cred_def_id,omitempty"`
	IssuerDID          string            `json:"issuer_did,omitempty"`
}

// OfferCredentialV1 is sent by the Issuer to describe the credential it intends to issue.
type OfferCredentialV1 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview *exchange.Preview      `json:"credential_preview,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach,omitempty"`
}

// RequestCredentialV1 is sent by the Holder to request the offered credential.
type RequestCredentialV1 struct {
	Type           string                 `json:"@type,omitempty"`
	ID             string                 `json:"@id,omitempty"`
	Thread         *decorator.Thread      `json:"~thread,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach,omitempty"`
}

// IssueCredentialV1 carries the issued credential.
type IssueCredentialV1 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`
}

// ProposeCredentialV2 is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message when the Holder
// wants some adjustments made to the credential data offered by Issuer.
type ProposeCredentialV2 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// CredentialPreview is the credential data that the Holder wants to receive.
	CredentialPreview *exchange.Preview `json:"credential_preview,omitempty"`
	// Formats contains an entry for each filters~attach array entry, providing the value of the attachment
	// @id and the verifiable credential format and version of the attachment.
	Formats []decorator.Format `json:"formats,omitempty"`
	// FiltersAttach further define the credential being proposed.
	FiltersAttach []decorator.Attachment `json:"filters~attach,omitempty"`
}

// OfferCredentialV2 is a message sent by the Issuer to the potential Holder,
// describing the credential they intend to offer.
type OfferCredentialV2 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview *exchange.Preview      `json:"credential_preview,omitempty"`
	Formats           []decorator.Format     `json:"formats,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach,omitempty"`
}

// RequestCredentialV2 is a message sent by the potential Holder to the Issuer,
// to request the issuance of a credential.
type RequestCredentialV2 struct {
	Type           string                 `json:"@type,omitempty"`
	ID             string                 `json:"@id,omitempty"`
	Thread         *decorator.Thread      `json:"~thread,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	Formats        []decorator.Format     `json:"formats,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach,omitempty"`
}

// IssueCredentialV2 contains as attached payload the credentials being issued.
type IssueCredentialV2 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	Formats           []decorator.Format     `json:"formats,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`
}
