/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuecredential implements the Aries issue-credential protocol, versions 1.0 and 2.0, on top of
// the exchange dispatcher.
package issuecredential

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/statemachine"
)

const (
	// Name defines the protocol name.
	Name = string(exchange.IssueCredential)

	// SpecV1 defines the protocol spec V1.
	SpecV1 = "https://didcomm.org/issue-credential/1.0/"
	// ProposeCredentialMsgTypeV1 defines the protocol propose-credential message type.
	ProposeCredentialMsgTypeV1 = SpecV1 + "propose-credential"
	// OfferCredentialMsgTypeV1 defines the protocol offer-credential message type.
	OfferCredentialMsgTypeV1 = SpecV1 + "offer-credential"
	// RequestCredentialMsgTypeV1 defines the protocol request-credential message type.
	RequestCredentialMsgTypeV1 = SpecV1 + "request-credential"
	// IssueCredentialMsgTypeV1 defines the protocol issue-credential message type.
	IssueCredentialMsgTypeV1 = SpecV1 + "issue-credential"
	// AckMsgTypeV1 defines the protocol ack message type.
	AckMsgTypeV1 = SpecV1 + "ack"
	// ProblemReportMsgTypeV1 defines the protocol problem-report message type.
	ProblemReportMsgTypeV1 = SpecV1 + "problem-report"
	// CredentialPreviewMsgTypeV1 defines the protocol credential-preview inner object type.
	CredentialPreviewMsgTypeV1 = SpecV1 + "credential-preview"

	// SpecV2 defines the protocol spec V2.
	SpecV2 = "https://didcomm.org/issue-credential/2.0/"
	// ProposeCredentialMsgTypeV2 defines the protocol propose-credential message type.
	ProposeCredentialMsgTypeV2 = SpecV2 + "propose-credential"
	// OfferCredentialMsgTypeV2 defines the protocol offer-credential message type.
	OfferCredentialMsgTypeV2 = SpecV2 + "offer-credential"
	// RequestCredentialMsgTypeV2 defines the protocol request-credential message type.
	RequestCredentialMsgTypeV2 = SpecV2 + "request-credential"
	// IssueCredentialMsgTypeV2 defines the protocol issue-credential message type.
	IssueCredentialMsgTypeV2 = SpecV2 + "issue-credential"
	// AckMsgTypeV2 defines the protocol ack message type.
	AckMsgTypeV2 = SpecV2 + "ack"
	// ProblemReportMsgTypeV2 defines the protocol problem-report message type.
	ProblemReportMsgTypeV2 = SpecV2 + "problem-report"
	// CredentialPreviewMsgTypeV2 defines the protocol credential-preview inner object type.
	CredentialPreviewMsgTypeV2 = SpecV2 + "credential-preview"
)

type stepKey struct {
	state exchange.State
	role  exchange.Role
}

// nolint: gochecknoglobals
var (
	replies = map[stepKey]dispatcher.Step{
		{exchange.StateProposalReceived, exchange.RoleIssuer}: {
			Answer: exchange.KindProposal, Next: exchange.KindOffer,
		},
		{exchange.StateOfferReceived, exchange.RoleHolder}: {
			Answer: exchange.KindOffer, Next: exchange.KindRequest, Prior: exchange.KindProposal,
		},
		{exchange.StateRequestReceived, exchange.RoleIssuer}: {
			Answer: exchange.KindRequest, Next: exchange.KindFinal, Prior: exchange.KindOffer, PriorRequired: true,
		},
		{exchange.StateCredentialReceived, exchange.RoleHolder}: {
			Answer: exchange.KindFinal, Next: exchange.KindAck,
		},
	}

	counterparts = map[exchange.MessageKind]exchange.MessageKind{
		exchange.KindProposal: exchange.KindOffer,
		exchange.KindOffer:    exchange.KindProposal,
		exchange.KindRequest:  exchange.KindOffer,
		exchange.KindFinal:    exchange.KindRequest,
	}
)

// Protocol serves issue-credential to the dispatcher.
type Protocol struct {
	registry *format.Registry
	codecs   map[int]dispatcher.Codec
}

// New returns the issue-credential protocol negotiating over the format services of registry.
func New(registry *format.Registry) *Protocol {
	return &Protocol{
		registry: registry,
		codecs: map[int]dispatcher.Codec{
			1: codecV1{},
			2: codecV2{}, // nolint: gomnd
		},
	}
}

// Name returns the protocol name.
func (p *Protocol) Name() exchange.Protocol { return exchange.IssueCredential }

// Codec returns the codec of a major version.
func (p *Protocol) Codec(major int) (dispatcher.Codec, bool) {
	c, ok := p.codecs[major]

	return c, ok
}

// Machine returns the issue-credential transition table.
func (p *Protocol) Machine() *statemachine.Machine { return statemachine.Credential() }

// Registry returns the format services.
func (p *Protocol) Registry() *format.Registry { return p.registry }

// Reply returns the reply the issuer or holder sends from a received state.
func (p *Protocol) Reply(state exchange.State, role exchange.Role) (dispatcher.Step, bool) {
	s, ok := replies[stepKey{state, role}]

	return s, ok
}

// Counterpart returns the kind of the local message an inbound message of kind answers: an offer answers a
// proposal, a request answers an offer, a credential answers a request.
func (p *Protocol) Counterpart(kind exchange.MessageKind) (exchange.MessageKind, bool) {
	k, ok := counterparts[kind]

	return k, ok
}
