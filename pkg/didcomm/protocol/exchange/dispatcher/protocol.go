/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/statemachine"
)

// Codec translates one major version of a protocol between its wire form and exchange.Message.
type Codec interface {
	// Major is the protocol major version the codec handles.
	Major() int
	// Fixed names the only format service of versions without format negotiation. It is empty for
	// versions that declare their formats.
	Fixed() string
	// Decode parses and structurally validates msg. Failures are *exchange.ValidationError.
	Decode(msg service.DIDCommMsgMap) (*exchange.Message, error)
	// Encode renders msg in wire form.
	Encode(msg *exchange.Message) (service.DIDCommMsgMap, error)
}

// Step describes the reply the local party sends from a received state.
type Step struct {
	// Answer is the kind of the received message being answered.
	Answer exchange.MessageKind
	// Next is the kind of the reply.
	Next exchange.MessageKind
	// Prior is the kind of the local party's earlier message the reply is derived with, empty when none.
	Prior exchange.MessageKind
	// PriorRequired makes a missing Prior message a hard error.
	PriorRequired bool
}

// Protocol is one negotiation served by the dispatcher.
type Protocol interface {
	Name() exchange.Protocol
	// Codec returns the codec of a major version.
	Codec(major int) (Codec, bool)
	Machine() *statemachine.Machine
	Registry() *format.Registry
	// Reply returns the reply step of a record of role in state.
	Reply(state exchange.State, role exchange.Role) (Step, bool)
	// Counterpart returns the kind of the local message an inbound message of kind answers.
	Counterpart(kind exchange.MessageKind) (exchange.MessageKind, bool)
}
