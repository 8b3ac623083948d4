/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	jsonID             = "@id"
	jsonType           = "@type"
	jsonThread         = "~thread"
	jsonThreadID       = "thid"
	jsonParentThreadID = "pthid"
	jsonMetadata       = "_internal_metadata"
)

// ErrThreadIDNotFound indicates that the message has neither a thread id nor an id to fall back on.
var ErrThreadIDNotFound = errors.New("threadID not found")

// DIDCommMsgMap describes message interface.
type DIDCommMsgMap map[string]interface{}

// ParseDIDCommMsgMap returns DIDCommMsg with Header.
func ParseDIDCommMsgMap(payload []byte) (DIDCommMsgMap, error) {
	var msg DIDCommMsgMap

	err := json.Unmarshal(payload, &msg)
	if err != nil {
		return nil, fmt.Errorf("invalid payload data format: %w", err)
	}

	return msg, nil
}

// NewDIDCommMsgMap converts structure(model) to DIDCommMsgMap.
func NewDIDCommMsgMap(v interface{}) DIDCommMsgMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return DIDCommMsgMap{}
	}

	msg := DIDCommMsgMap{}

	if err := json.Unmarshal(raw, &msg); err != nil {
		return DIDCommMsgMap{}
	}

	return msg
}

// ThreadID returns msg ~thread.thid if there is no ~thread.thid returns msg @id
// message is invalid if ~thread.thid exist and @id is absent.
func (m DIDCommMsgMap) ThreadID() (string, error) {
	if m == nil {
		return "", ErrThreadIDNotFound
	}

	thid := m.threadValue(jsonThreadID)
	msgID := m.ID()

	// we need to return it only if there is no ~thread.thid
	if len(thid) == 0 && len(msgID) > 0 {
		return msgID, nil
	}

	// message is invalid if thid exists and @id is absent
	if len(thid) > 0 && len(msgID) > 0 {
		return thid, nil
	}

	return "", ErrThreadIDNotFound
}

// ParentThreadID returns msg ~thread.pthid if there is no ~thread.pthid returns empty string.
func (m DIDCommMsgMap) ParentThreadID() string {
	return m.threadValue(jsonParentThreadID)
}

func (m DIDCommMsgMap) threadValue(key string) string {
	if m == nil || m[jsonThread] == nil {
		return ""
	}

	thread, ok := m[jsonThread].(map[string]interface{})
	if !ok {
		return ""
	}

	val, _ := thread[key].(string) // nolint: errcheck

	return val
}

// Type returns the message type.
func (m DIDCommMsgMap) Type() string {
	if m == nil || m[jsonType] == nil {
		return ""
	}

	res, ok := m[jsonType].(string)
	if !ok {
		return ""
	}

	return res
}

// ID returns the message id.
func (m DIDCommMsgMap) ID() string {
	if m == nil || m[jsonID] == nil {
		return ""
	}

	res, ok := m[jsonID].(string)
	if !ok {
		return ""
	}

	return res
}

// SetID sets the message id.
func (m DIDCommMsgMap) SetID(id string) {
	if m == nil {
		return
	}

	m[jsonID] = id
}

// SetThread sets the message thread, an empty pthid is omitted.
func (m DIDCommMsgMap) SetThread(thid, pthid string) {
	if m == nil || thid == "" {
		return
	}

	thread := map[string]interface{}{jsonThreadID: thid}
	if pthid != "" {
		thread[jsonParentThreadID] = pthid
	}

	m[jsonThread] = thread
}

// Metadata returns message metadata.
func (m DIDCommMsgMap) Metadata() map[string]interface{} {
	if m[jsonMetadata] == nil {
		return map[string]interface{}{}
	}

	res, ok := m[jsonMetadata].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}

	return res
}

// Decode converts message to struct.
func (m DIDCommMsgMap) Decode(v interface{}) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Clone copies first level keys-values into another map (DIDCommMsgMap).
func (m DIDCommMsgMap) Clone() DIDCommMsgMap {
	if m == nil {
		return nil
	}

	msg := DIDCommMsgMap{}
	for k, v := range m {
		msg[k] = v
	}

	return msg
}
