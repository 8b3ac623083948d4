/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
)

const (
	preState  = "pre_state"
	postState = "post_state"
)

// StateMsg is the notification payload of a record state change.
type StateMsg struct {
	ProtocolName string                 `json:"protocol_name"`
	StateID      string                 `json:"state_id"`
	Type         string                 `json:"type"`
	Message      service.DIDCommMsgMap  `json:"message,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// Observer forwards state messages to a notifier.
type Observer struct {
	notifier command.Notifier
}

// NewObserver returns an observer publishing through notifier.
func NewObserver(notifier command.Notifier) *Observer {
	return &Observer{notifier: notifier}
}

// RegisterStateMsg publishes every message of ch under topic until ch is closed.
func (o *Observer) RegisterStateMsg(topic string, ch <-chan service.StateMsg) {
	go func() {
		for msg := range ch {
			o.notify(topic, toStateMsg(msg))
		}
	}()
}

func toStateMsg(msg service.StateMsg) StateMsg {
	s := StateMsg{
		ProtocolName: msg.ProtocolName,
		StateID:      msg.StateID,
		Type:         postState,
		Message:      msg.Msg.Clone(),
	}

	if msg.Type == service.PreState {
		s.Type = preState
	}

	if msg.Properties != nil {
		s.Properties = msg.Properties.All()
	}

	return s
}

func (o *Observer) notify(topic string, payload interface{}) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("observer marshal %s: %v", topic, err)

		return
	}

	if err := o.notifier.Notify(topic, bytes); err != nil {
		logger.Warnf("observer notify %s: %v", topic, err)
	}
}
