/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange persists negotiation records and their messages in an aries storage provider.
package exchange

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

const (
	// Namespace is the name of the store opened in the storage provider.
	Namespace = "exchange"

	recordKeyPattern  = "exchange_record_%s"
	messageKeyPattern = "exchange_message_%s_%s"

	threadTag = "thread"
	recordTag = "record"
)

var logger = log.New("aries-framework/store/exchange")

// Store implements protocol.Store. Compare-and-swap is serialized by a mutex, so one Store must own the
// underlying namespace.
type Store struct {
	store storage.Store
	mu    sync.Mutex
	now   func() time.Time
}

// New opens the exchange store of p.
func New(p storage.Provider) (*Store, error) {
	store, err := p.OpenStore(Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open exchange store: %w", err)
	}

	err = p.SetStoreConfig(Namespace, storage.StoreConfiguration{TagNames: []string{threadTag, recordTag}})
	if err != nil {
		return nil, fmt.Errorf("failed to set store config: %w", err)
	}

	return &Store{store: store, now: func() time.Time { return time.Now().UTC() }}, nil
}

// SaveRecord stores a new record with revision 1.
func (s *Store) SaveRecord(rec *protocol.Record) error {
	if rec.ID == "" || rec.ThreadID == "" {
		return errors.New("record id and thread id are mandatory")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.findByThread(rec.ThreadID)
	if err == nil {
		return fmt.Errorf("thread %s: %w", rec.ThreadID, protocol.ErrDuplicateThread)
	}

	var notFound *protocol.RecordNotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	next := rec.Clone()
	next.Revision = 1

	if next.CreatedAt.IsZero() {
		next.CreatedAt = s.now()
	}

	next.UpdatedAt = next.CreatedAt

	if err := s.putRecord(next); err != nil {
		return err
	}

	rec.Revision, rec.CreatedAt, rec.UpdatedAt = next.Revision, next.CreatedAt, next.UpdatedAt

	return nil
}

// UpdateRecord replaces the stored record when its revision equals rec.Revision.
func (s *Store) UpdateRecord(rec *protocol.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.getRecord(rec.ID)
	if err != nil {
		return err
	}

	if stored.Revision != rec.Revision {
		return fmt.Errorf("record %s at revision %d, stored %d: %w",
			rec.ID, rec.Revision, stored.Revision, protocol.ErrConcurrentModification)
	}

	if stored.ThreadID != rec.ThreadID {
		return fmt.Errorf("record %s: thread id is immutable", rec.ID)
	}

	next := rec.Clone()
	next.Revision++
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.putRecord(next); err != nil {
		return err
	}

	rec.Revision, rec.UpdatedAt = next.Revision, next.UpdatedAt

	return nil
}

// GetRecord returns the record with the id.
func (s *Store) GetRecord(id string) (*protocol.Record, error) {
	return s.getRecord(id)
}

// FindByThread returns the record of the thread. A record bound to another connection is not found.
func (s *Store) FindByThread(threadID, connectionID string) (*protocol.Record, error) {
	rec, err := s.findByThread(threadID)
	if err != nil {
		return nil, err
	}

	if connectionID != "" && rec.ConnectionID != "" && rec.ConnectionID != connectionID {
		return nil, &protocol.RecordNotFoundError{ThreadID: threadID, ConnectionID: connectionID}
	}

	return rec, nil
}

// ListRecords returns every record.
func (s *Store) ListRecords() ([]*protocol.Record, error) {
	var records []*protocol.Record

	err := s.query(threadTag, func(value []byte) error {
		var rec protocol.Record

		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		records = append(records, &rec)

		return nil
	})

	return records, err
}

// SaveMessage stores msg, replacing the message of the same kind.
func (s *Store) SaveMessage(msg *protocol.MessageRecord) error {
	if msg.RecordID == "" || msg.Kind == "" {
		return errors.New("message record id and kind are mandatory")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	src, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = s.store.Put(messageKey(msg.RecordID, msg.Kind), src, storage.Tag{Name: recordTag, Value: tagValue(msg.RecordID)})
	if err != nil {
		return fmt.Errorf("failed to put message: %w", err)
	}

	return nil
}

// FindMessage returns the message of the kind stored for the record.
func (s *Store) FindMessage(recordID string, kind protocol.MessageKind) (*protocol.MessageRecord, error) {
	src, err := s.store.Get(messageKey(recordID, kind))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%s of record %s: %w", kind, recordID, protocol.ErrMessageNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	var msg protocol.MessageRecord

	if err := json.Unmarshal(src, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// ListMessages returns the messages of the record in arrival order.
func (s *Store) ListMessages(recordID string) ([]*protocol.MessageRecord, error) {
	var msgs []*protocol.MessageRecord

	err := s.query(recordTag+":"+tagValue(recordID), func(value []byte) error {
		var msg protocol.MessageRecord

		if err := json.Unmarshal(value, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}

		msgs = append(msgs, &msg)

		return nil
	})
	if err != nil {
		return nil, err
	}

	protocol.SortMessages(msgs)

	return msgs, nil
}

func (s *Store) getRecord(id string) (*protocol.Record, error) {
	src, err := s.store.Get(recordKey(id))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, &protocol.RecordNotFoundError{ID: id}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec protocol.Record

	if err := json.Unmarshal(src, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &rec, nil
}

func (s *Store) findByThread(threadID string) (*protocol.Record, error) {
	var found *protocol.Record

	err := s.query(threadTag+":"+tagValue(threadID), func(value []byte) error {
		var rec protocol.Record

		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		found = &rec

		return nil
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, &protocol.RecordNotFoundError{ThreadID: threadID}
	}

	return found, nil
}

func (s *Store) putRecord(rec *protocol.Record) error {
	src, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.store.Put(recordKey(rec.ID), src, storage.Tag{Name: threadTag, Value: tagValue(rec.ThreadID)}); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	logger.Debugf("stored record %s revision %d state %s", rec.ID, rec.Revision, rec.State)

	return nil
}

func (s *Store) query(expression string, fn func(value []byte) error) error {
	itr, err := s.store.Query(expression)
	if err != nil {
		return fmt.Errorf("failed to query exchange store: %w", err)
	}

	defer storage.Close(itr, logger)

	more, err := itr.Next()
	for ; more && err == nil; more, err = itr.Next() {
		value, errValue := itr.Value()
		if errValue != nil {
			return fmt.Errorf("failed to get value from iterator: %w", errValue)
		}

		if errFn := fn(value); errFn != nil {
			return errFn
		}
	}

	if err != nil {
		return fmt.Errorf("failed to get next set of data from iterator: %w", err)
	}

	return nil
}

func recordKey(id string) string {
	return fmt.Sprintf(recordKeyPattern, id)
}

func messageKey(recordID string, kind protocol.MessageKind) string {
	return fmt.Sprintf(messageKeyPattern, recordID, kind)
}

// tagValue encodes v so that it never contains the ':' query separator.
func tagValue(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}
