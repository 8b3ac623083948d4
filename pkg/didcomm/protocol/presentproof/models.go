/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// ProposePresentationV1 is an optional message sent by the Prover to the verifier to initiate a proof
// presentation process, or in response to a request-presentation message when the Prover wants to
// propose using a different presentation format.
type ProposePresentationV1 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// PresentationProposal is the attributes and predicates the Prover proposes to present.
	PresentationProposal *exchange.Preview `json:"presentation_proposal,omitempty"`
}

// RequestPresentationV1 describes values that need to be revealed and predicates that need to be fulfilled.
type RequestPresentationV1 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// RequestPresentationsAttach holds the indy proof request.
	RequestPresentationsAttach []decorator.Attachment `json:"request_presentations~attach,omitempty"`
}

// PresentationV1 is a response to a RequestPresentationV1 message and contains signed presentations.
type PresentationV1 struct {
	Type                string                 `json:"@type,omitempty"`
	ID                  string                 `json:"@id,omitempty"`
	Thread              *decorator.Thread      `json:"~thread,omitempty"`
	Comment             string                 `json:"comment,omitempty"`
	PresentationsAttach []decorator.Attachment `json:"presentations~attach,omitempty"`
}

// ProposePresentationV2 is the version 2 proposal. Its attachments declare their formats.
type ProposePresentationV2 struct {
	Type            string                 `json:"@type,omitempty"`
	ID              string                 `json:"@id,omitempty"`
	Thread          *decorator.Thread      `json:"~thread,omitempty"`
	Comment         string                 `json:"comment,omitempty"`
	Formats         []decorator.Format     `json:"formats,omitempty"`
	ProposalsAttach []decorator.Attachment `json:"proposals~attach,omitempty"`
}

// RequestPresentationV2 is the version 2 request.
type RequestPresentationV2 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// WillConfirm tells the Prover the Verifier acknowledges the presentation.
	WillConfirm                bool                   `json:"will_confirm,omitempty"`
	Formats                    []decorator.Format     `json:"formats,omitempty"`
	RequestPresentationsAttach []decorator.Attachment `json:"request_presentations~attach,omitempty"`
}

// PresentationV2 is the version 2 presentation.
type PresentationV2 struct {
	Type                string                 `json:"@type,omitempty"`
	ID                  string                 `json:"@id,omitempty"`
	Thread              *decorator.Thread      `json:"~thread,omitempty"`
	Comment             string                 `json:"comment,omitempty"`
	Formats             []decorator.Format     `json:"formats,omitempty"`
	PresentationsAttach []decorator.Attachment `json:"presentations~attach,omitempty"`
}
