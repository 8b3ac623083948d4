/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDIDCommMsgMap_ID(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		msg      DIDCommMsgMap
	}{
		{
			name: "Empty (nil msg)",
		},
		{
			name: "Empty",
			msg:  DIDCommMsgMap{},
		},
		{
			name: "Bad type ID",
			msg:  DIDCommMsgMap{jsonID: map[int]int{}},
		},
		{
			name:     "Success",
			msg:      DIDCommMsgMap{jsonID: "ID"},
			expected: "ID",
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.msg.ID())
		})
	}
}

func TestDIDCommMsgMap_ThreadID(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		err      error
		msg      DIDCommMsgMap
	}{
		{
			name: "nil msg",
			err:  ErrThreadIDNotFound,
		},
		{
			name: "no id, no thread",
			msg:  DIDCommMsgMap{},
			err:  ErrThreadIDNotFound,
		},
		{
			name: "thread without id",
			msg:  DIDCommMsgMap{jsonThread: map[string]interface{}{jsonThreadID: "thID"}},
			err:  ErrThreadIDNotFound,
		},
		{
			name:     "falls back to id",
			msg:      DIDCommMsgMap{jsonID: "ID"},
			expected: "ID",
		},
		{
			name: "thread id wins",
			msg: DIDCommMsgMap{
				jsonID:     "ID",
				jsonThread: map[string]interface{}{jsonThreadID: "thID"},
			},
			expected: "thID",
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			thid, err := tc.msg.ThreadID()
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err))

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, thid)
		})
	}
}

func TestDIDCommMsgMap_ParentThreadID(t *testing.T) {
	require.Empty(t, DIDCommMsgMap(nil).ParentThreadID())
	require.Empty(t, DIDCommMsgMap{jsonThread: map[string]int{}}.ParentThreadID())
	require.Equal(t, "pthID", DIDCommMsgMap{
		jsonThread: map[string]interface{}{jsonParentThreadID: "pthID"},
	}.ParentThreadID())
}

func TestDIDCommMsgMap_SetThread(t *testing.T) {
	msg := DIDCommMsgMap{jsonID: "ID"}

	msg.SetThread("", "")
	require.Nil(t, msg[jsonThread])

	msg.SetThread("thID", "")
	thid, err := msg.ThreadID()
	require.NoError(t, err)
	require.Equal(t, "thID", thid)
	require.Empty(t, msg.ParentThreadID())

	msg.SetThread("thID", "pthID")
	require.Equal(t, "pthID", msg.ParentThreadID())

	msg.SetID("newID")
	require.Equal(t, "newID", msg.ID())
}

func TestDIDCommMsgMap_Clone(t *testing.T) {
	require.Nil(t, DIDCommMsgMap(nil).Clone())

	msg := DIDCommMsgMap{jsonType: "Type"}
	clone := msg.Clone()
	clone[jsonType] = "Other"

	require.Equal(t, "Type", msg.Type())
	require.Equal(t, "Other", clone.Type())
}

func TestDIDCommMsgMap_Decode(t *testing.T) {
	type Test struct {
		Time  time.Time
		Bytes []byte
	}

	expected := Test{
		Time:  time.Now().UTC(),
		Bytes: []byte("payload"),
	}

	b, err := json.Marshal(expected)
	require.NoError(t, err)

	msg, err := ParseDIDCommMsgMap(b)
	require.NoError(t, err)

	actual := Test{}
	require.NoError(t, msg.Decode(&actual))
	require.Equal(t, expected, actual)

	_, err = ParseDIDCommMsgMap([]byte("{"))
	require.Error(t, err)
}

func TestNewDIDCommMsgMap(t *testing.T) {
	msg := NewDIDCommMsgMap(struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	}{ID: "ID", Type: "Type"})

	require.Equal(t, "ID", msg.ID())
	require.Equal(t, "Type", msg.Type())
	require.Equal(t, DIDCommMsgMap{}, NewDIDCommMsgMap(make(chan int)))
}
