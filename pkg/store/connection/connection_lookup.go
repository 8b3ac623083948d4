/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// Namespace is namespace of connection store name.
	Namespace       = "connection"
	keyPattern      = "%s_%s"
	connIDKeyPrefix = "conn"

	// StateNameCompleted is the state of a connection that can carry protocol messages.
	StateNameCompleted = "completed"
)

var logger = log.New("aries-framework/store/connection")

// ErrNotFound is returned when no connection record exists for an id.
var ErrNotFound = errors.New("connection not found")

// Record contains info about a peer connection.
type Record struct {
	ConnectionID string `json:"connection_id"`
	State        string `json:"state"`
	TheirLabel   string `json:"their_label,omitempty"`
	TheirDID     string `json:"their_did,omitempty"`
	MyDID        string `json:"my_did,omitempty"`
}

// IsCompleted reports whether the connection is usable for protocol messages.
func (r *Record) IsCompleted() bool {
	return r.State == StateNameCompleted
}

// NewLookup returns new connection lookup instance.
// Lookup is read only connection store. It provides connection record related query features.
func NewLookup(p storage.Provider) (*Lookup, error) {
	store, err := p.OpenStore(Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open store to create new connection lookup: %w", err)
	}

	err = p.SetStoreConfig(Namespace, storage.StoreConfiguration{TagNames: []string{connIDKeyPrefix}})
	if err != nil {
		return nil, fmt.Errorf("failed to set store config: %w", err)
	}

	return &Lookup{store: store}, nil
}

// Lookup takes care of connection related persistence features.
type Lookup struct {
	store storage.Store
}

// GetConnectionRecord return connection record based on the connection ID.
func (c *Lookup) GetConnectionRecord(connectionID string) (*Record, error) {
	bytes, err := c.store.Get(connectionKey(connectionID))
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", connectionID, ErrNotFound)
		}

		return nil, fmt.Errorf("get connection %s: %w", connectionID, err)
	}

	var rec Record

	if err := json.Unmarshal(bytes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal connection %s: %w", connectionID, err)
	}

	return &rec, nil
}

// QueryConnectionRecords returns every connection record of the store.
func (c *Lookup) QueryConnectionRecords() ([]*Record, error) {
	itr, err := c.store.Query(connIDKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query connection store: %w", err)
	}

	defer storage.Close(itr, logger)

	var records []*Record

	more, err := itr.Next()
	for ; more && err == nil; more, err = itr.Next() {
		value, errValue := itr.Value()
		if errValue != nil {
			return nil, fmt.Errorf("failed to get value from iterator: %w", errValue)
		}

		var rec Record

		if errUnmarshal := json.Unmarshal(value, &rec); errUnmarshal != nil {
			return nil, fmt.Errorf("failed to unmarshal connection record: %w", errUnmarshal)
		}

		records = append(records, &rec)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get next set of data from iterator: %w", err)
	}

	return records, nil
}

func connectionKey(connectionID string) string {
	return fmt.Sprintf(keyPattern, connIDKeyPrefix, connectionID)
}
