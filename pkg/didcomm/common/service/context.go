/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

// DIDCommContext holds the transport level details of an inbound message.
type DIDCommContext struct {
	// ConnectionID identifies the connection the message arrived on, empty when connectionless.
	ConnectionID string
	MyDID        string
	TheirDID     string
}

// NewDIDCommContext returns a new DIDCommContext.
func NewDIDCommContext(connectionID, myDID, theirDID string) DIDCommContext {
	return DIDCommContext{ConnectionID: connectionID, MyDID: myDID, TheirDID: theirDID}
}
