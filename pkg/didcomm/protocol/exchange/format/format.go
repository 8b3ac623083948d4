/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package format binds attachment format identifiers to the services that validate and build them, and
// negotiates the formats two parties have in common.
package format

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// Stage is the step of a negotiation an attachment belongs to.
type Stage string

// Stages.
const (
	StageProposal Stage = "proposal"
	StageOffer    Stage = "offer"
	StageRequest  Stage = "request"
	StageFinal    Stage = "final"
)

// StageOf returns the stage of messages of kind. Acks and problem reports carry no attachments.
func StageOf(kind exchange.MessageKind) (Stage, bool) {
	switch kind {
	case exchange.KindProposal:
		return StageProposal, true
	case exchange.KindOffer:
		return StageOffer, true
	case exchange.KindRequest:
		return StageRequest, true
	case exchange.KindFinal:
		return StageFinal, true
	default:
		return "", false
	}
}

// Payload is the decoded content of one attachment.
type Payload map[string]interface{}

// DeriveInput is what a service needs to build the payload of the next stage.
type DeriveInput struct {
	// Received is the payload of the peer message being answered, in this format.
	Received Payload
	// Prior is the last payload the local party sent in this format, if any.
	Prior Payload
	// Preview is the attribute preview of the negotiation.
	Preview *exchange.Preview
	// Overrides replace top level fields of the derived payload.
	Overrides Payload
	// Nonce is a fresh nonce for stages that carry one.
	Nonce string
}

// Service validates and builds the attachments of one payload representation.
type Service interface {
	// Name is the short name the service is registered under, e.g. "hlindy".
	Name() string
	// FormatID returns the format identifier used at stage, or "" when the stage is not supported.
	FormatID(stage Stage) string
	// Validate checks an attachment of stage and returns its payload or an *exchange.ValidationError.
	Validate(stage Stage, att *decorator.Attachment) (Payload, error)
	// Build returns the attachment carrying p at stage.
	Build(stage Stage, p Payload) (*decorator.Attachment, error)
	// Derive builds the payload of stage from the surrounding negotiation.
	Derive(stage Stage, in *DeriveInput) (Payload, error)
	// Verify checks a received payload against the payload the local party sent before it.
	Verify(stage Stage, received, prior Payload) error
}

// Capability exposes the per stage operations of a Service.
type Capability struct {
	Service
}

// Of returns the Capability of svc.
func Of(svc Service) Capability {
	return Capability{Service: svc}
}

// ValidateProposal validates a proposal attachment.
func (c Capability) ValidateProposal(att *decorator.Attachment) (Payload, error) {
	return c.Validate(StageProposal, att)
}

// ValidateOffer validates an offer attachment.
func (c Capability) ValidateOffer(att *decorator.Attachment) (Payload, error) {
	return c.Validate(StageOffer, att)
}

// ValidateRequest validates a request attachment.
func (c Capability) ValidateRequest(att *decorator.Attachment) (Payload, error) {
	return c.Validate(StageRequest, att)
}

// ValidateFinal validates a credential or presentation attachment.
func (c Capability) ValidateFinal(att *decorator.Attachment) (Payload, error) {
	return c.Validate(StageFinal, att)
}

// BuildProposal builds a proposal attachment.
func (c Capability) BuildProposal(p Payload) (*decorator.Attachment, error) {
	return c.Build(StageProposal, p)
}

// BuildOffer builds an offer attachment.
func (c Capability) BuildOffer(p Payload) (*decorator.Attachment, error) {
	return c.Build(StageOffer, p)
}

// BuildRequest builds a request attachment.
func (c Capability) BuildRequest(p Payload) (*decorator.Attachment, error) {
	return c.Build(StageRequest, p)
}

// BuildFinal builds a credential or presentation attachment.
func (c Capability) BuildFinal(p Payload) (*decorator.Attachment, error) {
	return c.Build(StageFinal, p)
}
