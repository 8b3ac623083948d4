/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"sort"
	"time"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
)

// Record is the persisted state of one negotiation. There is exactly one record per thread id.
type Record struct {
	ID             string     `json:"id"`
	Protocol       Protocol   `json:"protocol"`
	Version        int        `json:"version"`
	State          State      `json:"state"`
	Role           Role       `json:"role"`
	ThreadID       string     `json:"thread_id"`
	ParentThreadID string     `json:"parent_thread_id,omitempty"`
	ConnectionID   string     `json:"connection_id,omitempty"`
	AutoAccept     AutoAccept `json:"auto_accept,omitempty"`
	// Formats are the negotiated format identifiers of the last handled message.
	Formats   []string  `json:"formats,omitempty"`
	ErrorMsg string `json:"error_msg,omitempty"`
	// LastInboundID is the id of the last peer message applied to the record. It is written together with
	// the state so a redelivery racing its first delivery is recognised.
	LastInboundID string    `json:"last_inbound_id,omitempty"`
	Revision      uint64    `json:"revision"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy of the record that shares no slices with r.
func (r *Record) Clone() *Record {
	c := *r
	c.Formats = append([]string(nil), r.Formats...)

	return &c
}

// Direction tells whether a stored message was sent or received.
type Direction string

const (
	// DirectionSent marks a message sent by the local party.
	DirectionSent Direction = "sent"
	// DirectionReceived marks a message received from the peer.
	DirectionReceived Direction = "received"
)

// SortMessages orders messages by arrival, falling back to the protocol order of their kinds.
func SortMessages(msgs []*MessageRecord) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}

		return kindOrder[msgs[i].Kind] < kindOrder[msgs[j].Kind]
	})
}

var kindOrder = map[MessageKind]int{ // nolint: gochecknoglobals
	KindProposal:      1,
	KindOffer:         2,
	KindRequest:       3,
	KindFinal:         4,
	KindAck:           5,
	KindProblemReport: 6,
}

// MessageRecord is a protocol message stored per (record, kind). A later message of the same kind replaces it.
type MessageRecord struct {
	RecordID  string                `json:"record_id"`
	Kind      MessageKind           `json:"kind"`
	Direction Direction             `json:"direction"`
	Message   service.DIDCommMsgMap `json:"message"`
	CreatedAt time.Time             `json:"created_at"`
}
