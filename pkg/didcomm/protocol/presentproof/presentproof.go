/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package presentproof implements the Aries present-proof protocol, versions 1.0 and 2.0, on top of the
// exchange dispatcher.
package presentproof

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/statemachine"
)

const (
	// Name defines the protocol name.
	Name = string(exchange.PresentProof)

	// SpecV1 defines the protocol spec V1.
	SpecV1 = "https://didcomm.org/present-proof/1.0/"
	// ProposePresentationMsgTypeV1 defines the protocol propose-presentation message type.
	ProposePresentationMsgTypeV1 = SpecV1 + "propose-presentation"
	// RequestPresentationMsgTypeV1 defines the protocol request-presentation message type.
	RequestPresentationMsgTypeV1 = SpecV1 + "request-presentation"
	// PresentationMsgTypeV1 defines the protocol presentation message type.
	PresentationMsgTypeV1 = SpecV1 + "presentation"
	// AckMsgTypeV1 defines the protocol ack message type.
	AckMsgTypeV1 = SpecV1 + "ack"
	// ProblemReportMsgTypeV1 defines the protocol problem-report message type.
	ProblemReportMsgTypeV1 = SpecV1 + "problem-report"
	// PresentationPreviewMsgTypeV1 defines the protocol presentation-preview inner object type.
	PresentationPreviewMsgTypeV1 = SpecV1 + "presentation-preview"

	// SpecV2 defines the protocol spec V2.
	SpecV2 = "https://didcomm.org/present-proof/2.0/"
	// ProposePresentationMsgTypeV2 defines the protocol propose-presentation message type.
	ProposePresentationMsgTypeV2 = SpecV2 + "propose-presentation"
	// RequestPresentationMsgTypeV2 defines the protocol request-presentation message type.
	RequestPresentationMsgTypeV2 = SpecV2 + "request-presentation"
	// PresentationMsgTypeV2 defines the protocol presentation message type.
	PresentationMsgTypeV2 = SpecV2 + "presentation"
	// AckMsgTypeV2 defines the protocol ack message type.
	AckMsgTypeV2 = SpecV2 + "ack"
	// ProblemReportMsgTypeV2 defines the protocol problem-report message type.
	ProblemReportMsgTypeV2 = SpecV2 + "problem-report"
)

type stepKey struct {
	state exchange.State
	role  exchange.Role
}

// nolint: gochecknoglobals
var (
	replies = map[stepKey]dispatcher.Step{
		{exchange.StateProposalReceived, exchange.RoleVerifier}: {
			Answer: exchange.KindProposal, Next: exchange.KindRequest,
		},
		{exchange.StateRequestReceived, exchange.RoleProver}: {
			Answer: exchange.KindRequest, Next: exchange.KindFinal, Prior: exchange.KindProposal,
		},
		{exchange.StatePresentationReceived, exchange.RoleVerifier}: {
			Answer: exchange.KindFinal, Next: exchange.KindAck,
		},
	}

	counterparts = map[exchange.MessageKind]exchange.MessageKind{
		exchange.KindProposal: exchange.KindRequest,
		exchange.KindRequest:  exchange.KindProposal,
		exchange.KindFinal:    exchange.KindRequest,
	}
)

// Protocol serves present-proof to the dispatcher.
type Protocol struct {
	registry *format.Registry
	codecs   map[int]dispatcher.Codec
}

// New returns the present-proof protocol negotiating over the format services of registry.
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
func (p *Protocol) Name() exchange.Protocol { return exchange.PresentProof }

// Codec returns the codec of a major version.
func (p *Protocol) Codec(major int) (dispatcher.Codec, bool) {
	c, ok := p.codecs[major]

	return c, ok
}

// Machine returns the present-proof transition table.
func (p *Protocol) Machine() *statemachine.Machine { return statemachine.Proof() }

// Registry returns the format services.
func (p *Protocol) Registry() *format.Registry { return p.registry }

// Reply returns the reply the verifier or prover sends from a received state. The verifier acknowledges
// every presentation it accepts, whether or not its request promised to.
func (p *Protocol) Reply(state exchange.State, role exchange.Role) (dispatcher.Step, bool) {
	s, ok := replies[stepKey{state, role}]

	return s, ok
}

// Counterpart returns the kind of the local message an inbound message of kind answers.
func (p *Protocol) Counterpart(kind exchange.MessageKind) (exchange.MessageKind, bool) {
	k, ok := counterparts[kind]

	return k, ok
}
