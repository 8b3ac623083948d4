/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// NewRecorder returns new connection recorder.
// Recorder is read-write connection store which provides
// write features on top query features from Lookup.
func NewRecorder(p storage.Provider) (*Recorder, error) {
	lookup, err := NewLookup(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create new connection recorder: %w", err)
	}

	return &Recorder{Lookup: lookup}, nil
}

// Recorder manages connection record persistence.
type Recorder struct {
	*Lookup
}

// SaveConnectionRecord saves the connection record.
func (c *Recorder) SaveConnectionRecord(record *Record) error {
	if record.ConnectionID == "" {
		return errors.New("connection ID is mandatory")
	}

	bytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal connection record: %w", err)
	}

	if err := c.store.Put(connectionKey(record.ConnectionID), bytes,
		storage.Tag{Name: connIDKeyPrefix}); err != nil {
		return fmt.Errorf("save connection record: %w", err)
	}

	return nil
}

// RemoveConnection removes the connection record.
func (c *Recorder) RemoveConnection(connectionID string) error {
	if _, err := c.GetConnectionRecord(connectionID); err != nil {
		return fmt.Errorf("unable to find connection: %w", err)
	}

	return c.store.Delete(connectionKey(connectionID))
}
