/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import "github.com/hyperledger/aries-exchange-go/pkg/store/connection"

// SaveConnectionArgs model
//
// This is used for recording a connection negotiations may run over.
type SaveConnectionArgs struct {
	connection.Record
}

// IDArgs model
//
// This is used for operations on a single connection.
type IDArgs struct {
	ConnectionID string `json:"id"`
}

// ConnectionResponse model
//
// This is used for returning a connection record.
type ConnectionResponse struct {
	Result *connection.Record `json:"result"`
}

// QueryConnectionsResponse model
//
// This is used for returning every connection record.
type QueryConnectionsResponse struct {
	Results []*connection.Record `json:"results"`
}
