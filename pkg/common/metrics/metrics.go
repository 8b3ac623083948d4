/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics counts the messages, transitions and auto-accept decisions of the exchange engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exchange"

// Outcomes of a handled message.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	messages    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	autoAccept  *prometheus.CounterVec
}

// New registers the engine collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound protocol messages by protocol, message kind and outcome.",
		}, []string{"protocol", "kind", "outcome"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Applied state transitions.",
		}, []string{"protocol", "from", "to"}),
		autoAccept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_accept_total",
			Help:      "Auto-accept decisions by protocol.",
		}, []string{"protocol", "decision"}),
	}
}

// Message counts an inbound message.
func (m *Metrics) Message(protocol, kind, outcome string) {
	if m == nil {
		return
	}

	m.messages.WithLabelValues(protocol, kind, outcome).Inc()
}

// Transition counts an applied transition.
func (m *Metrics) Transition(protocol, from, to string) {
	if m == nil {
		return
	}

	m.transitions.WithLabelValues(protocol, from, to).Inc()
}

// AutoAccept counts an auto-accept decision.
func (m *Metrics) AutoAccept(protocol string, respond bool) {
	if m == nil {
		return
	}

	decision := "manual"
	if respond {
		decision = "respond"
	}

	m.autoAccept.WithLabelValues(protocol, decision).Inc()
}
