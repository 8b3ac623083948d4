/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"sync"
	"sync/atomic"

	"github.com/hyperledger/aries-framework-go/component/log"
)

var logger = log.New("aries-framework/didcomm/service")

// Message thread-safe message register structure.
type Message struct {
	dropped uint64
	mu      sync.RWMutex
	events  []chan<- StateMsg
}

// MsgEvents returns event message channels.
func (m *Message) MsgEvents() []chan<- StateMsg {
	m.mu.RLock()
	events := append(m.events[:0:0], m.events...)
	m.mu.RUnlock()

	return events
}

// RegisterMsgEvent on protocol messages. The message events are triggered for every state change.
func (m *Message) RegisterMsgEvent(ch chan<- StateMsg) error {
	if ch == nil {
		return ErrNilChannel
	}

	m.mu.Lock()
	m.events = append(m.events, ch)
	m.mu.Unlock()

	return nil
}

// UnregisterMsgEvent on protocol messages. Refer RegisterMsgEvent().
func (m *Message) UnregisterMsgEvent(ch chan<- StateMsg) error {
	m.mu.Lock()
	for i := 0; i < len(m.events); i++ {
		if m.events[i] == ch {
			m.events = append(m.events[:i], m.events[i+1:]...)
			i--
		}
	}
	m.mu.Unlock()

	return nil
}

// Notify sends msg to every registered channel without blocking on slow consumers. A channel without room
// misses the event; the miss is logged and counted.
func (m *Message) Notify(msg StateMsg) {
	for _, ch := range m.MsgEvents() {
		select {
		case ch <- msg:
		default:
			n := atomic.AddUint64(&m.dropped, 1)
			logger.Warnf("%s state event %s dropped on a full channel (%d dropped)", msg.ProtocolName, msg.StateID, n)
		}
	}
}

// Dropped returns the number of events registered channels had no room for.
func (m *Message) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}
