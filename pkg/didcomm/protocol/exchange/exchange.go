/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange holds the types shared by the credential issuance and presentation proof negotiations:
// records, version neutral messages, the error taxonomy and the persistence and connection contracts.
package exchange

import (
	"fmt"
	"strings"
)

// Protocol names a negotiation kind.
type Protocol string

const (
	// IssueCredential is the credential issuance negotiation.
	IssueCredential Protocol = "issue-credential"
	// PresentProof is the presentation proof negotiation.
	PresentProof Protocol = "present-proof"
)

// Role of the local party in a negotiation.
type Role string

const (
	// RoleIssuer issues credentials.
	RoleIssuer Role = "issuer"
	// RoleHolder receives credentials.
	RoleHolder Role = "holder"
	// RoleVerifier requests presentations.
	RoleVerifier Role = "verifier"
	// RoleProver presents proofs.
	RoleProver Role = "prover"
)

// State of a negotiation record.
type State string

// States of both negotiations. StateStart is never persisted.
const (
	StateStart                State = "start"
	StateProposalSent         State = "proposal-sent"
	StateProposalReceived     State = "proposal-received"
	StateOfferSent            State = "offer-sent"
	StateOfferReceived        State = "offer-received"
	StateRequestSent          State = "request-sent"
	StateRequestReceived      State = "request-received"
	StateCredentialIssued     State = "credential-issued"
	StateCredentialReceived   State = "credential-received"
	StatePresentationSent     State = "presentation-sent"
	StatePresentationReceived State = "presentation-received"
	StateDone                 State = "done"
	StateDeclined             State = "declined"
	StateAbandoned            State = "abandoned"
)

// IsTerminal reports whether no further transition may leave s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateDeclined || s == StateAbandoned
}

// IsReceived reports whether s is waiting on a local decision about a peer message.
func (s State) IsReceived() bool {
	return strings.HasSuffix(string(s), "-received")
}

// MessageKind is the protocol neutral role of a message in a negotiation.
type MessageKind string

const (
	// KindProposal proposes credential or presentation content.
	KindProposal MessageKind = "proposal"
	// KindOffer offers a credential.
	KindOffer MessageKind = "offer"
	// KindRequest requests a credential or a presentation.
	KindRequest MessageKind = "request"
	// KindFinal carries the issued credential or the presentation.
	KindFinal MessageKind = "final"
	// KindAck acknowledges the final message.
	KindAck MessageKind = "ack"
	// KindProblemReport cancels the negotiation.
	KindProblemReport MessageKind = "problem-report"
)

// AutoAccept is an auto-accept policy.
type AutoAccept string

const (
	// AutoAcceptUnset defers to the process default.
	AutoAcceptUnset AutoAccept = ""
	// AutoAcceptAlways responds to every message automatically.
	AutoAcceptAlways AutoAccept = "always"
	// AutoAcceptContentApproved responds only when the negotiable content is unchanged.
	AutoAcceptContentApproved AutoAccept = "content-approved"
	// AutoAcceptNever leaves every decision to the operator.
	AutoAcceptNever AutoAccept = "never"
)

// ParseAutoAccept parses an auto-accept policy name.
func ParseAutoAccept(s string) (AutoAccept, error) {
	switch p := AutoAccept(strings.ToLower(strings.TrimSpace(s))); p {
	case AutoAcceptUnset, AutoAcceptAlways, AutoAcceptContentApproved, AutoAcceptNever:
		return p, nil
	case "contentapproved":
		return AutoAcceptContentApproved, nil
	default:
		return AutoAcceptUnset, fmt.Errorf("invalid auto-accept policy %q", s)
	}
}
