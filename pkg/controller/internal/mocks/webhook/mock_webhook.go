/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webhook

import "sync"

// NewMockWebhookNotifier returns a notifier recording the topics it is asked to publish.
func NewMockWebhookNotifier() *Notifier {
	return &Notifier{}
}

// Notifier is a mock command.Notifier.
type Notifier struct {
	// NotifyFunc, when set, runs after the topic is recorded and decides the result of Notify.
	NotifyFunc func(topic string, message []byte) error

	mu     sync.Mutex
	topics []string
}

// Notify records topic.
func (n *Notifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	n.topics = append(n.topics, topic)
	n.mu.Unlock()

	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	return nil
}

// Topics returns the recorded topics in publishing order.
func (n *Notifier) Topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.topics...)
}
