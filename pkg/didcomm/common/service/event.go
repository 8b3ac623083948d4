/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import "errors"

// ErrNilChannel error when a nil channel is registered.
var ErrNilChannel = errors.New("channel is nil")

// StateMsgType state msg type.
type StateMsgType int

const (
	// PreState pre state.
	PreState StateMsgType = iota

	// PostState post state.
	PostState
)

// StateMsg is used in MsgEvent to pass the state details to the consumer. Refer service.Message.RegisterMsgEvent
// for more details.
type StateMsg struct {
	// Name of the protocol (issue-credential, present-proof).
	ProtocolName string

	// type of the message (pre or post), refer service.StateMsgType
	Type StateMsgType

	// current state.
	StateID string

	// DIDComm message that triggered the state change.
	Msg DIDCommMsgMap

	// Properties contains value based on specific protocol.
	Properties EventProperties
}

// EventProperties type for event related data.
// NOTE: Properties always should be serializable.
type EventProperties interface {
	All() map[string]interface{}
}
