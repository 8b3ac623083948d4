/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statemachine

import (
	ex "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// nolint: gochecknoglobals
var (
	credential = newMachine(ex.IssueCredential, []ex.Role{ex.RoleHolder, ex.RoleIssuer}, []Transition{
		// holder
		{ex.StateStart, ex.RoleHolder, Send(ex.KindProposal), ex.StateProposalSent},
		{ex.StateStart, ex.RoleHolder, Receive(ex.KindOffer), ex.StateOfferReceived},
		{ex.StateStart, ex.RoleHolder, Send(ex.KindRequest), ex.StateRequestSent},
		{ex.StateProposalSent, ex.RoleHolder, Receive(ex.KindOffer), ex.StateOfferReceived},
		{ex.StateOfferReceived, ex.RoleHolder, Send(ex.KindProposal), ex.StateProposalSent},
		{ex.StateOfferReceived, ex.RoleHolder, Send(ex.KindRequest), ex.StateRequestSent},
		{ex.StateRequestSent, ex.RoleHolder, Receive(ex.KindFinal), ex.StateCredentialReceived},
		{ex.StateCredentialReceived, ex.RoleHolder, Send(ex.KindAck), ex.StateDone},
		// issuer
		{ex.StateStart, ex.RoleIssuer, Receive(ex.KindProposal), ex.StateProposalReceived},
		{ex.StateStart, ex.RoleIssuer, Send(ex.KindOffer), ex.StateOfferSent},
		{ex.StateStart, ex.RoleIssuer, Receive(ex.KindRequest), ex.StateRequestReceived},
		{ex.StateProposalReceived, ex.RoleIssuer, Send(ex.KindOffer), ex.StateOfferSent},
		{ex.StateOfferSent, ex.RoleIssuer, Receive(ex.KindProposal), ex.StateProposalReceived},
		{ex.StateOfferSent, ex.RoleIssuer, Receive(ex.KindRequest), ex.StateRequestReceived},
		{ex.StateRequestReceived, ex.RoleIssuer, Send(ex.KindFinal), ex.StateCredentialIssued},
		{ex.StateCredentialIssued, ex.RoleIssuer, Receive(ex.KindAck), ex.StateDone},
	})

	proof = newMachine(ex.PresentProof, []ex.Role{ex.RoleProver, ex.RoleVerifier}, []Transition{
		// prover
		{ex.StateStart, ex.RoleProver, Send(ex.KindProposal), ex.StateProposalSent},
		{ex.StateStart, ex.RoleProver, Receive(ex.KindRequest), ex.StateRequestReceived},
		{ex.StateProposalSent, ex.RoleProver, Receive(ex.KindRequest), ex.StateRequestReceived},
		{ex.StateRequestReceived, ex.RoleProver, Send(ex.KindProposal), ex.StateProposalSent},
		{ex.StateRequestReceived, ex.RoleProver, Send(ex.KindFinal), ex.StatePresentationSent},
		{ex.StatePresentationSent, ex.RoleProver, Receive(ex.KindAck), ex.StateDone},
		// verifier
		{ex.StateStart, ex.RoleVerifier, Receive(ex.KindProposal), ex.StateProposalReceived},
		{ex.StateStart, ex.RoleVerifier, Send(ex.KindRequest), ex.StateRequestSent},
		{ex.StateProposalReceived, ex.RoleVerifier, Send(ex.KindRequest), ex.StateRequestSent},
		{ex.StateRequestSent, ex.RoleVerifier, Receive(ex.KindProposal), ex.StateProposalReceived},
		{ex.StateRequestSent, ex.RoleVerifier, Receive(ex.KindFinal), ex.StatePresentationReceived},
		{ex.StatePresentationReceived, ex.RoleVerifier, Send(ex.KindAck), ex.StateDone},
	})
)

// Credential returns the issue-credential transition table.
func Credential() *Machine { return credential }

// Proof returns the present-proof transition table.
func Proof() *Machine { return proof }
