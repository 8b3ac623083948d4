/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package autoaccept

import (
	ex "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// DefaultRules compares what the parties negotiate over: the credential preview and definition while
// proposing and offering, the format set and definition once requested, and the requested attributes and
// predicates of a proof.
func DefaultRules() Rules {
	credentialTerms := []Field{
		Same("$.preview.attributes"),
		Same("$.content.hlindy.cred_def_id"),
		Same("$.content.ldproof.credential.credentialSubject"),
	}

	proofTerms := func(incomingDIF, priorDIF string) []Field {
		return []Field{
			Same("$.content.hlindy.requested_attributes"),
			Same("$.content.hlindy.requested_predicates"),
			{Incoming: incomingDIF, Prior: priorDIF},
		}
	}

	return Rules{
		ex.IssueCredential: {
			ex.KindProposal: {Prior: ex.KindOffer, Fields: credentialTerms},
			ex.KindOffer:    {Prior: ex.KindProposal, Fields: credentialTerms},
			ex.KindRequest: {Prior: ex.KindOffer, Fields: []Field{
				Same("$.formats"),
				Same("$.content.hlindy.cred_def_id"),
				Same("$.content.ldproof.credential"),
			}},
			ex.KindFinal: {Prior: ex.KindRequest, Fields: []Field{
				Same("$.formats"),
				Same("$.content.hlindy.cred_def_id"),
				{Incoming: "$.content.ldproof.credentialSubject", Prior: "$.content.ldproof.credential.credentialSubject"},
			}},
		},
		ex.PresentProof: {
			ex.KindProposal: {Prior: ex.KindRequest, Fields: proofTerms(
				"$.content.dif.input_descriptors", "$.content.dif.presentation_definition.input_descriptors")},
			ex.KindRequest: {Prior: ex.KindProposal, Fields: proofTerms(
				"$.content.dif.presentation_definition.input_descriptors", "$.content.dif.input_descriptors")},
			ex.KindFinal: {Prior: ex.KindRequest, Fields: []Field{Same("$.formats")}},
		},
	}
}
