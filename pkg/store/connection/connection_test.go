/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	recorder, err := NewRecorder(mem.NewProvider())
	require.NoError(t, err)

	t.Run("save and get", func(t *testing.T) {
		require.NoError(t, recorder.SaveConnectionRecord(&Record{
			ConnectionID: "conn-1", State: StateNameCompleted, TheirDID: "did:peer:bob",
		}))

		rec, err := recorder.GetConnectionRecord("conn-1")
		require.NoError(t, err)
		require.Equal(t, "did:peer:bob", rec.TheirDID)
		require.True(t, rec.IsCompleted())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := recorder.GetConnectionRecord("unknown")
		require.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("id is mandatory", func(t *testing.T) {
		require.Error(t, recorder.SaveConnectionRecord(&Record{}))
	})

	t.Run("query", func(t *testing.T) {
		require.NoError(t, recorder.SaveConnectionRecord(&Record{ConnectionID: "conn-2", State: "requested"}))

		records, err := recorder.QueryConnectionRecords()
		require.NoError(t, err)
		require.Len(t, records, 2)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, recorder.RemoveConnection("conn-2"))
		require.Error(t, recorder.RemoveConnection("conn-2"))
	})
}

func TestLookup_Errors(t *testing.T) {
	t.Run("open store", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.ErrOpenStoreHandle = fmt.Errorf("open failed")

		_, err := NewLookup(provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), "open failed")
	})

	t.Run("store config", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.ErrSetStoreConfig = fmt.Errorf("config failed")

		_, err := NewLookup(provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), "config failed")
	})

	t.Run("get", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.Store.ErrGet = fmt.Errorf("get failed")

		lookup, err := NewLookup(provider)
		require.NoError(t, err)

		_, err = lookup.GetConnectionRecord("conn-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "get failed")
	})

	t.Run("put", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.Store.ErrPut = fmt.Errorf("put failed")

		recorder, err := NewRecorder(provider)
		require.NoError(t, err)
		require.Error(t, recorder.SaveConnectionRecord(&Record{ConnectionID: "conn-1"}))
	})
}

type countingLookup struct {
	calls   int
	records map[string]*Record
}

func (l *countingLookup) GetConnectionRecord(connectionID string) (*Record, error) {
	l.calls++

	rec, ok := l.records[connectionID]
	if !ok {
		return nil, ErrNotFound
	}

	return rec, nil
}

func TestCachedLookup(t *testing.T) {
	next := &countingLookup{records: map[string]*Record{
		"done":    {ConnectionID: "done", State: StateNameCompleted},
		"pending": {ConnectionID: "pending", State: "requested"},
	}}

	lookup := NewCachedLookup(next, 10, time.Minute)

	for i := 0; i < 3; i++ {
		rec, err := lookup.GetConnectionRecord("done")
		require.NoError(t, err)
		require.Equal(t, "done", rec.ConnectionID)
	}

	require.Equal(t, 1, next.calls)

	for i := 0; i < 2; i++ {
		_, err := lookup.GetConnectionRecord("pending")
		require.NoError(t, err)
	}

	require.Equal(t, 3, next.calls)

	_, err := lookup.GetConnectionRecord("unknown")
	require.True(t, errors.Is(err, ErrNotFound))

	lookup.Invalidate("done")

	_, err = lookup.GetConnectionRecord("done")
	require.NoError(t, err)
	require.Equal(t, 5, next.calls)
}
