/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sqlstore persists negotiation records in a SQL database through gorm. Compare-and-swap is an
// UPDATE guarded by the record revision, so several processes may share the database.
package sqlstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

var logger = log.New("aries-framework/store/exchange/sql")

type recordModel struct {
	ID             string `gorm:"primaryKey;size:64"`
	Protocol       string `gorm:"size:32;not null"`
	Version        int
	State          string `gorm:"size:32;not null"`
	Role           string `gorm:"size:16;not null"`
	ThreadID       string `gorm:"uniqueIndex;size:255;not null"`
	ParentThreadID string `gorm:"size:255"`
	ConnectionID   string `gorm:"index;size:255"`
	AutoAccept     string `gorm:"size:32"`
	Formats        string
	ErrorMsg       string
	LastInboundID  string `gorm:"size:255"`
	Revision       uint64 `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (recordModel) TableName() string { return "exchange_records" }

type messageModel struct {
	RecordID  string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"primaryKey;size:32"`
	Direction string `gorm:"size:16"`
	Message   []byte
	CreatedAt time.Time `gorm:"index"`
}

func (messageModel) TableName() string { return "exchange_messages" }

// Store implements protocol.Store over gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New migrates the exchange tables of db and returns the store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection is mandatory")
	}

	if err := db.AutoMigrate(&recordModel{}, &messageModel{}); err != nil {
		return nil, fmt.Errorf("migrate exchange tables: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// SaveRecord inserts a new record with revision 1.
func (s *Store) SaveRecord(rec *protocol.Record) error {
	if rec.ID == "" || rec.ThreadID == "" {
		return errors.New("record id and thread id are mandatory")
	}

	next := rec.Clone()
	next.Revision = 1

	if next.CreatedAt.IsZero() {
		next.CreatedAt = s.now()
	}

	next.UpdatedAt = next.CreatedAt

	model, err := toModel(next)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&recordModel{}).Where("thread_id = ?", rec.ThreadID).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return fmt.Errorf("thread %s: %w", rec.ThreadID, protocol.ErrDuplicateThread)
		}

		return tx.Create(model).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("thread %s: %w", rec.ThreadID, protocol.ErrDuplicateThread)
	}

	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}

	rec.Revision, rec.CreatedAt, rec.UpdatedAt = next.Revision, next.CreatedAt, next.UpdatedAt

	return nil
}

// UpdateRecord replaces the record if its stored revision equals rec.Revision.
func (s *Store) UpdateRecord(rec *protocol.Record) error {
	formats, err := json.Marshal(rec.Formats)
	if err != nil {
		return fmt.Errorf("marshal formats: %w", err)
	}

	now := s.now()

	res := s.db.Model(&recordModel{}).
		Where("id = ? AND revision = ? AND thread_id = ?", rec.ID, rec.Revision, rec.ThreadID).
		Updates(map[string]interface{}{
			"protocol":         string(rec.Protocol),
			"version":          rec.Version,
			"state":            string(rec.State),
			"role":             string(rec.Role),
			"parent_thread_id": rec.ParentThreadID,
			"connection_id":    rec.ConnectionID,
			"auto_accept":      string(rec.AutoAccept),
			"formats":          string(formats),
			"error_msg":        rec.ErrorMsg,
			"last_inbound_id":  rec.LastInboundID,
			"revision":         rec.Revision + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return fmt.Errorf("update record %s: %w", rec.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		stored, err := s.GetRecord(rec.ID)
		if err != nil {
			return err
		}

		if stored.ThreadID != rec.ThreadID {
			return fmt.Errorf("record %s: thread id is immutable", rec.ID)
		}

		return fmt.Errorf("record %s at revision %d, stored %d: %w",
			rec.ID, rec.Revision, stored.Revision, protocol.ErrConcurrentModification)
	}

	logger.Debugf("updated record %s to revision %d state %s", rec.ID, rec.Revision+1, rec.State)

	rec.Revision++
	rec.UpdatedAt = now

	return nil
}

// GetRecord returns the record with the id.
func (s *Store) GetRecord(id string) (*protocol.Record, error) {
	var model recordModel

	err := s.db.Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &protocol.RecordNotFoundError{ID: id}
	}

	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}

	return fromModel(&model)
}

// FindByThread returns the record of the thread. A record bound to another connection is not found.
func (s *Store) FindByThread(threadID, connectionID string) (*protocol.Record, error) {
	var model recordModel

	err := s.db.Where("thread_id = ?", threadID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &protocol.RecordNotFoundError{ThreadID: threadID, ConnectionID: connectionID}
	}

	if err != nil {
		return nil, fmt.Errorf("find record of thread %s: %w", threadID, err)
	}

	if connectionID != "" && model.ConnectionID != "" && model.ConnectionID != connectionID {
		return nil, &protocol.RecordNotFoundError{ThreadID: threadID, ConnectionID: connectionID}
	}

	return fromModel(&model)
}

// ListRecords returns every record ordered by creation.
func (s *Store) ListRecords() ([]*protocol.Record, error) {
	var models []recordModel

	if err := s.db.Order("created_at, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]*protocol.Record, 0, len(models))

	for i := range models {
		rec, err := fromModel(&models[i])
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

// SaveMessage upserts msg on (record id, kind).
func (s *Store) SaveMessage(msg *protocol.MessageRecord) error {
	if msg.RecordID == "" || msg.Kind == "" {
		return errors.New("message record id and kind are mandatory")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	raw, err := json.Marshal(msg.Message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	model := &messageModel{
		RecordID:  msg.RecordID,
		Kind:      string(msg.Kind),
		Direction: string(msg.Direction),
		Message:   raw,
		CreatedAt: msg.CreatedAt,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "message", "created_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("save %s of record %s: %w", msg.Kind, msg.RecordID, err)
	}

	return nil
}

// FindMessage returns the message of the kind stored for the record.
func (s *Store) FindMessage(recordID string, kind protocol.MessageKind) (*protocol.MessageRecord, error) {
	var model messageModel

	err := s.db.Where("record_id = ? AND kind = ?", recordID, string(kind)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s of record %s: %w", kind, recordID, protocol.ErrMessageNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find %s of record %s: %w", kind, recordID, err)
	}

	return fromMessageModel(&model)
}

// ListMessages returns the messages of the record in arrival order.
func (s *Store) ListMessages(recordID string) ([]*protocol.MessageRecord, error) {
	var models []messageModel

	if err := s.db.Where("record_id = ?", recordID).Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list messages of record %s: %w", recordID, err)
	}

	msgs := make([]*protocol.MessageRecord, 0, len(models))

	for i := range models {
		msg, err := fromMessageModel(&models[i])
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, msg)
	}

	protocol.SortMessages(msgs)

	return msgs, nil
}

func toModel(rec *protocol.Record) (*recordModel, error) {
	formats, err := json.Marshal(rec.Formats)
	if err != nil {
		return nil, fmt.Errorf("marshal formats: %w", err)
	}

	return &recordModel{
		ID:             rec.ID,
		Protocol:       string(rec.Protocol),
		Version:        rec.Version,
		State:          string(rec.State),
		Role:           string(rec.Role),
		ThreadID:       rec.ThreadID,
		ParentThreadID: rec.ParentThreadID,
		ConnectionID:   rec.ConnectionID,
		AutoAccept:     string(rec.AutoAccept),
		Formats:        string(formats),
		ErrorMsg:       rec.ErrorMsg,
		LastInboundID:  rec.LastInboundID,
		Revision:       rec.Revision,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func fromModel(m *recordModel) (*protocol.Record, error) {
	rec := &protocol.Record{
		ID:             m.ID,
		Protocol:       protocol.Protocol(m.Protocol),
		Version:        m.Version,
		State:          protocol.State(m.State),
		Role:           protocol.Role(m.Role),
		ThreadID:       m.ThreadID,
		ParentThreadID: m.ParentThreadID,
		ConnectionID:   m.ConnectionID,
		AutoAccept:     protocol.AutoAccept(m.AutoAccept),
		ErrorMsg:       m.ErrorMsg,
		LastInboundID:  m.LastInboundID,
		Revision:       m.Revision,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.Formats != "" {
		if err := json.Unmarshal([]byte(m.Formats), &rec.Formats); err != nil {
			return nil, fmt.Errorf("unmarshal formats of record %s: %w", m.ID, err)
		}
	}

	return rec, nil
}

func fromMessageModel(m *messageModel) (*protocol.MessageRecord, error) {
	msg, err := service.ParseDIDCommMsgMap(m.Message)
	if err != nil {
		return nil, fmt.Errorf("parse %s of record %s: %w", m.Kind, m.RecordID, err)
	}

	return &protocol.MessageRecord{
		RecordID:  m.RecordID,
		Kind:      protocol.MessageKind(m.Kind),
		Direction: protocol.Direction(m.Direction),
		Message:   msg,
		CreatedAt: m.CreatedAt,
	}, nil
}
