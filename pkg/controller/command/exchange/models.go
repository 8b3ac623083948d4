/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// InboundArgs model
//
// This is used for handing a message received from a peer to the engine.
type InboundArgs struct {
	// Message is the decrypted DIDComm message
	Message service.DIDCommMsgMap `json:"message"`
	// ConnectionID of the connection the message arrived on, empty when connectionless
	ConnectionID string `json:"connection_id,omitempty"`
	// MyDID and TheirDID of the connection
	MyDID    string `json:"my_did,omitempty"`
	TheirDID string `json:"their_did,omitempty"`
}

// ResultResponse model
//
// Represents the outcome of a handled message or a local action.
type ResultResponse struct {
	// Record after the operation, empty when none was created
	Record *protocol.Record `json:"record,omitempty"`
	// Reply to deliver to the peer, empty when the engine waits for a manual action
	Reply service.DIDCommMsgMap `json:"reply,omitempty"`
	// Error is set when the operation failed after producing a reply the peer must receive
	Error string `json:"error,omitempty"`
	// ProblemCode is the problem report code of Error
	ProblemCode string `json:"problem_code,omitempty"`
}

// NewResultResponse builds the response of a dispatcher result.
func NewResultResponse(res *dispatcher.Result) *ResultResponse {
	if res == nil {
		return &ResultResponse{}
	}

	return &ResultResponse{Record: res.Record, Reply: res.Reply}
}

// RecordIDArgs model
//
// This is used for operations acting on one record.
type RecordIDArgs struct {
	// RecordID identifies the record
	RecordID string `json:"record_id"`
}

// RecordsResponse model
//
// Represents the records of every negotiation.
type RecordsResponse struct {
	Records []*protocol.Record `json:"records"`
}

// RecordResponse model
//
// Represents one record.
type RecordResponse struct {
	Record *protocol.Record `json:"record"`
}

// MessagesResponse model
//
// Represents the messages stored for a record, oldest first.
type MessagesResponse struct {
	Messages []*protocol.MessageRecord `json:"messages"`
}

// AcceptArgs model
//
// This is used for answering the message a record waits on.
type AcceptArgs struct {
	// RecordID identifies the record
	RecordID string `json:"record_id"`
	// Comment of the reply
	Comment string `json:"comment,omitempty"`
	// Preview replaces the preview carried into the reply
	Preview *protocol.Preview `json:"preview,omitempty"`
	// Overrides replace top level payload fields, per format service name
	Overrides map[string]format.Payload `json:"overrides,omitempty"`
	// WillConfirm asks the prover to expect an ack of the presentation
	WillConfirm bool `json:"will_confirm,omitempty"`
}

// Options converts the arguments into dispatcher accept options.
func (a *AcceptArgs) Options() []dispatcher.AcceptOption {
	var opts []dispatcher.AcceptOption

	if a.Comment != "" {
		opts = append(opts, dispatcher.WithComment(a.Comment))
	}

	if a.Preview != nil {
		opts = append(opts, dispatcher.WithPreview(a.Preview))
	}

	for name, overrides := range a.Overrides {
		opts = append(opts, dispatcher.WithOverrides(name, overrides))
	}

	if a.WillConfirm {
		opts = append(opts, dispatcher.WithWillConfirm())
	}

	return opts
}

// DeclineArgs model
//
// This is used for refusing the message a record waits on or abandoning the negotiation.
type DeclineArgs struct {
	// RecordID identifies the record
	RecordID string `json:"record_id"`
	// Reason is sent to the peer in the problem report
	Reason string `json:"reason,omitempty"`
}

// AutoAcceptArgs model
//
// This is used for overriding the auto-accept policy of one record.
type AutoAcceptArgs struct {
	// RecordID identifies the record
	RecordID string `json:"record_id"`
	// AutoAccept is always, content-approved or never. Empty falls back to the process policy
	AutoAccept string `json:"auto_accept"`
}
