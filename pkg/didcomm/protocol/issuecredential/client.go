/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// DefaultVersion is the protocol version of messages sent without an explicit version.
const DefaultVersion = 2

// Params are the parameters of a locally started issue-credential message.
type Params struct {
	ConnectionID string `json:"connection_id"`
	// Version is the protocol major version, DefaultVersion when zero.
	Version        int                 `json:"version,omitempty"`
	ParentThreadID string              `json:"parent_thread_id,omitempty"`
	AutoAccept     exchange.AutoAccept `json:"auto_accept,omitempty"`
	Comment        string              `json:"comment,omitempty"`
	Preview        *exchange.Preview   `json:"preview,omitempty"`
	// Formats names the format services to use. Every service supporting the message is used when empty.
	Formats []string `json:"formats,omitempty"`
	// Payloads are the format service inputs by service name.
	Payloads map[string]format.Payload `json:"payloads,omitempty"`
}

// Client drives the issuer and holder sides of issue-credential.
type Client struct {
	d *dispatcher.Dispatcher
}

// NewClient returns a client over d. d must serve the issue-credential protocol.
func NewClient(d *dispatcher.Dispatcher) *Client {
	return &Client{d: d}
}

// SendProposal is used by the Holder to send a proposal to the Issuer.
func (c *Client) SendProposal(params *Params) (*dispatcher.Result, error) {
	return c.start(exchange.KindProposal, params)
}

// SendOffer is used by the Issuer to send an offer.
func (c *Client) SendOffer(params *Params) (*dispatcher.Result, error) {
	return c.start(exchange.KindOffer, params)
}

// SendRequest is used by the Holder to request a credential without a prior offer.
func (c *Client) SendRequest(params *Params) (*dispatcher.Result, error) {
	return c.start(exchange.KindRequest, params)
}

// AcceptProposal is used when the Issuer is willing to accept the proposal.
func (c *Client) AcceptProposal(recordID string, opts ...dispatcher.AcceptOption) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateProposalReceived, opts)
}

// AcceptOffer is used when the Holder is willing to accept the offer.
func (c *Client) AcceptOffer(recordID string, opts ...dispatcher.AcceptOption) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateOfferReceived, opts)
}

// AcceptRequest is used when the Issuer is willing to issue the requested credential.
func (c *Client) AcceptRequest(recordID string, opts ...dispatcher.AcceptOption) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateRequestReceived, opts)
}

// AcceptCredential is used when the Holder is willing to accept the issued credential.
func (c *Client) AcceptCredential(recordID string) (*dispatcher.Result, error) {
	return c.accept(recordID, exchange.StateCredentialReceived, nil)
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
		Protocol:       exchange.IssueCredential,
		Version:        version,
		Kind:           kind,
		ConnectionID:   params.ConnectionID,
		ParentThreadID: params.ParentThreadID,
		AutoAccept:     params.AutoAccept,
		Comment:        params.Comment,
		Preview:        params.Preview,
		Formats:        params.Formats,
		Payloads:       params.Payloads,
	})
}

func (c *Client) accept(recordID string, state exchange.State,
	opts []dispatcher.AcceptOption) (*dispatcher.Result, error) {
	rec, err := c.d.Record(recordID)
	if err != nil {
		return nil, err
	}

	if rec.Protocol != exchange.IssueCredential {
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
