/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

// Store persists records and their messages.
type Store interface {
	// SaveRecord stores a new record with revision 1. It fails with ErrDuplicateThread when a record exists
	// for the thread.
	SaveRecord(rec *Record) error
	// UpdateRecord replaces the record if the stored revision equals rec.Revision, and increments
	// rec.Revision. A stale rec fails with ErrConcurrentModification.
	UpdateRecord(rec *Record) error
	// GetRecord returns the record with the id or a *RecordNotFoundError.
	GetRecord(id string) (*Record, error)
	// FindByThread returns the record of the thread. An empty connectionID, or a record without connection,
	// matches any connection.
	FindByThread(threadID, connectionID string) (*Record, error)
	// ListRecords returns every record.
	ListRecords() ([]*Record, error)
	// SaveMessage stores msg, replacing the message of the same kind.
	SaveMessage(msg *MessageRecord) error
	// FindMessage returns the message of the kind stored for the record or ErrMessageNotFound.
	FindMessage(recordID string, kind MessageKind) (*MessageRecord, error)
	// ListMessages returns the messages stored for the record in arrival order.
	ListMessages(recordID string) ([]*MessageRecord, error)
}

// ConnectionLookup resolves connection records.
type ConnectionLookup interface {
	GetConnectionRecord(connectionID string) (*connection.Record, error)
}
