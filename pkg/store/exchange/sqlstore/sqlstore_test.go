/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlstore

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		require.NoError(t, sqlDB.Close())
	})

	s, err := New(db)
	require.NoError(t, err)

	return s
}

func newRecord(id, thread string) *protocol.Record {
	return &protocol.Record{
		ID:           id,
		Protocol:     protocol.PresentProof,
		Version:      2,
		State:        protocol.StateRequestReceived,
		Role:         protocol.RoleProver,
		ThreadID:     thread,
		ConnectionID: "conn-1",
		AutoAccept:   protocol.AutoAcceptContentApproved,
		Formats:      []string{"hlindy/proof-req@v2.0"},
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestStore_Records(t *testing.T) {
	s := newStore(t)

	rec := newRecord("r1", "thread:1")
	require.NoError(t, s.SaveRecord(rec))
	require.Equal(t, uint64(1), rec.Revision)

	t.Run("one record per thread", func(t *testing.T) {
		err := s.SaveRecord(newRecord("r2", "thread:1"))
		require.True(t, errors.Is(err, protocol.ErrDuplicateThread))
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.GetRecord("r1")
		require.NoError(t, err)
		require.Equal(t, []string{"hlindy/proof-req@v2.0"}, got.Formats)
		require.Equal(t, protocol.AutoAcceptContentApproved, got.AutoAccept)
		require.Equal(t, protocol.RoleProver, got.Role)

		var notFound *protocol.RecordNotFoundError

		_, err = s.GetRecord("unknown")
		require.True(t, errors.As(err, &notFound))
	})

	t.Run("find by thread", func(t *testing.T) {
		got, err := s.FindByThread("thread:1", "conn-1")
		require.NoError(t, err)
		require.Equal(t, "r1", got.ID)

		var notFound *protocol.RecordNotFoundError

		_, err = s.FindByThread("thread:1", "conn-2")
		require.True(t, errors.As(err, &notFound))

		_, err = s.FindByThread("thread:2", "")
		require.True(t, errors.As(err, &notFound))
	})

	t.Run("compare and swap", func(t *testing.T) {
		stale, err := s.GetRecord("r1")
		require.NoError(t, err)

		fresh := stale.Clone()
		fresh.State = protocol.StatePresentationSent
		fresh.Formats = []string{"hlindy/proof@v2.0"}
		fresh.LastInboundID = "msg-2"
		require.NoError(t, s.UpdateRecord(fresh))
		require.Equal(t, uint64(2), fresh.Revision)

		stale.State = protocol.StateDeclined
		require.True(t, errors.Is(s.UpdateRecord(stale), protocol.ErrConcurrentModification))

		got, err := s.GetRecord("r1")
		require.NoError(t, err)
		require.Equal(t, protocol.StatePresentationSent, got.State)
		require.Equal(t, []string{"hlindy/proof@v2.0"}, got.Formats)
		require.Equal(t, "msg-2", got.LastInboundID)
		require.Equal(t, uint64(2), got.Revision)
	})

	t.Run("thread id is immutable", func(t *testing.T) {
		got, err := s.GetRecord("r1")
		require.NoError(t, err)

		got.ThreadID = "changed"
		err = s.UpdateRecord(got)
		require.Error(t, err)
		require.False(t, errors.Is(err, protocol.ErrConcurrentModification))
	})

	t.Run("update unknown record", func(t *testing.T) {
		var notFound *protocol.RecordNotFoundError
		require.True(t, errors.As(s.UpdateRecord(newRecord("nope", "t")), &notFound))
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, s.SaveRecord(newRecord("r3", "thread:3")))

		records, err := s.ListRecords()
		require.NoError(t, err)
		require.Len(t, records, 2)
	})
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveRecord(newRecord("r1", "t1")))

	const writers = 6

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			rec := newRecord("r1", "t1")
			rec.Revision = 1
			rec.State = protocol.StatePresentationSent

			if s.UpdateRecord(rec) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 1, succeeded)
}

func TestStore_Messages(t *testing.T) {
	s := newStore(t)
	now := time.Now().UTC()

	request := service.DIDCommMsgMap{"@id": "m1", "@type": "https://didcomm.org/present-proof/2.0/request-presentation"}
	presentation := service.DIDCommMsgMap{"@id": "m2", "@type": "https://didcomm.org/present-proof/2.0/presentation"}

	require.NoError(t, s.SaveMessage(&protocol.MessageRecord{
		RecordID: "r1", Kind: protocol.KindFinal, Direction: protocol.DirectionSent, Message: presentation,
		CreatedAt: now.Add(time.Second),
	}))
	require.NoError(t, s.SaveMessage(&protocol.MessageRecord{
		RecordID: "r1", Kind: protocol.KindRequest, Direction: protocol.DirectionReceived, Message: request,
		CreatedAt: now,
	}))

	t.Run("find", func(t *testing.T) {
		msg, err := s.FindMessage("r1", protocol.KindRequest)
		require.NoError(t, err)
		require.Equal(t, "m1", msg.Message.ID())
		require.Equal(t, protocol.DirectionReceived, msg.Direction)

		_, err = s.FindMessage("r1", protocol.KindProposal)
		require.True(t, errors.Is(err, protocol.ErrMessageNotFound))
	})

	t.Run("list in arrival order", func(t *testing.T) {
		msgs, err := s.ListMessages("r1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, protocol.KindRequest, msgs[0].Kind)
		require.Equal(t, protocol.KindFinal, msgs[1].Kind)
	})

	t.Run("same kind replaces", func(t *testing.T) {
		again := service.DIDCommMsgMap{"@id": "m3", "@type": "https://didcomm.org/present-proof/2.0/presentation"}
		require.NoError(t, s.SaveMessage(&protocol.MessageRecord{
			RecordID: "r1", Kind: protocol.KindFinal, Direction: protocol.DirectionSent, Message: again,
			CreatedAt: now.Add(2 * time.Second),
		}))

		msgs, err := s.ListMessages("r1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, "m3", msgs[1].Message.ID())
	})

	t.Run("mandatory fields", func(t *testing.T) {
		require.Error(t, s.SaveMessage(&protocol.MessageRecord{Kind: protocol.KindFinal}))
	})
}
