/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"fmt"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// DefaultVersion is the protocol version of messages sent without an explicit version.
const DefaultVersion = 2

// Params are the parameters of a locally started present-proof message.
type Params struct {
	ConnectionID   string              `json:"connection_id"`
	Version        int                 `json:"version,omitempty"`
	ParentThreadID string              `json:"parent_thread_id,omitempty"`
	AutoAccept     exchange.AutoAccept `json:"auto_accept,omitempty"`
	Comment        string              `json:"comment,omitempty"`
	// Preview is the presentation preview of a proposal.
	Preview  *exchange.Preview         `json:"preview,omitempty"`
	Formats  []string                  `json:"formats,omitempty"`
	Payloads map[string]format.Payload `json:"payloads,omitempty"`
	// WillConfirm promises an ack of the presentation. Only version 2 requests carry it.
	WillConfirm bool `json:"will_confirm,omitempty"`
}

// Client drives the prover and verifier sides of present-proof.
type Client struct {
	d *dispatcher.Dispatcher
}

// NewClient returns a client over d. d must serve the present-proof protocol.
func NewClient(d *dispatcher.Dispatcher) *Client {
	return &Client{d: d}
}

// SendProposal is used by the Prover to propose a presentation.
func (c *Client) SendProposal(params *Params) (*dispatcher.Result, error) {
	return c.start(exchange.KindProposal, params)
}

// SendRequest is used by the Verifier to request a presentation.
func (c *Client) SendRequest(params *Params) (*dispatcher.Result, error) {
	return c.start(exchange.KindRequest, params)
}

// AcceptProposal is used by the Verifier to request the proposed presentation.
func (c *Client) AcceptProposal(recordID string, opts ...dispatcher.AcceptOption) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateProposalReceived, opts)
}

// AcceptRequest is used by the Prover to present.
func (c *Client) AcceptRequest(recordID string, opts ...dispatcher.AcceptOption) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateRequestReceived, opts)
}

// AcceptPresentation is used by the Verifier to accept a presentation.
func (c *Client) AcceptPresentation(recordID string) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StatePresentationReceived, nil)
}

// Decline refuses the message the record waits on, or abandons the negotiation.
func (c *Client) Decline(recordID, reason string) (*dispatcher.Result, error) {
	return c.d.Decline(recordID, reason)
}

// SetAutoAccept overrides the auto-accept policy of one record. A record waiting on a reply is answered
// right away when the new policy allows it.
func (c *Client) SetAutoAccept(recordID string, policy exchange.AutoAccept) (*dispatcher.Result, error) {
	return c.d.SetAutoAccept(recordID, policy)
}

func (c *Client) start(kind exchange.MessageKind, params *Params) (*dispatcher.Result, error) {
	version := params.Version
	if version == 0 {
		version = DefaultVersion
	}

	return c.d.Start(&dispatcher.StartRequest{
		Protocol:       exchange.PresentProof,
		Version:        version,
		Kind:           kind,
		ConnectionID:   params.ConnectionID,
		ParentThreadID: params.ParentThreadID,
		AutoAccept:     params.AutoAccept,
		Comment:        params.Comment,
		Preview:        params.Preview,
		Formats:        params.Formats,
		Payloads:       params.Payloads,
		WillConfirm:    params.WillConfirm,
	})
}

func (c *Client) accept(recordID string, state exchange.State,
	opts []dispatcher.AcceptOption) (*dispatcher.Result, error) {
	rec, err := c.d.Record(recordID)
	if err != nil {
		return nil, err
	}

	if rec.Protocol != exchange.PresentProof {
		return nil, fmt.Errorf("record %s is a %s negotiation", recordID, rec.Protocol)
	}

	if rec.State != state {
		return nil, &exchange.TransitionError{
			Protocol: rec.Protocol, From: rec.State, Role: rec.Role, Outbound: true,
			Err: fmt.Errorf("record is not in state %s", state),
		}
	}

	return c.d.Accept(recordID, opts...)
}
