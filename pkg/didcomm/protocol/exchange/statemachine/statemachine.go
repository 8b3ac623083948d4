/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statemachine holds the transition tables of the negotiations. A Machine is a pure lookup of
// (state, role, event) to the next state; it never touches records.
package statemachine

import (
	"sort"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// Event is a message of some kind crossing the wire in one direction.
type Event struct {
	Kind     exchange.MessageKind
	Outbound bool
}

// Send returns the event of sending a message of kind.
func Send(kind exchange.MessageKind) Event { return Event{Kind: kind, Outbound: true} }

// Receive returns the event of receiving a message of kind.
func Receive(kind exchange.MessageKind) Event { return Event{Kind: kind} }

type key struct {
	state exchange.State
	role  exchange.Role
	event Event
}

// Transition is a single row of a transition table.
type Transition struct {
	From  exchange.State
	Role  exchange.Role
	Event Event
	To    exchange.State
}

// Machine is the transition table of one protocol.
type Machine struct {
	protocol    exchange.Protocol
	roles       []exchange.Role
	transitions map[key]exchange.State
}

func newMachine(protocol exchange.Protocol, roles []exchange.Role, rows []Transition) *Machine {
	m := &Machine{
		protocol:    protocol,
		roles:       roles,
		transitions: make(map[key]exchange.State, len(rows)),
	}

	for _, r := range rows {
		m.transitions[key{state: r.From, role: r.Role, event: r.Event}] = r.To
	}

	return m
}

// Protocol returns the protocol the table belongs to.
func (m *Machine) Protocol() exchange.Protocol {
	return m.protocol
}

// Roles returns the roles of the protocol.
func (m *Machine) Roles() []exchange.Role {
	return append([]exchange.Role(nil), m.roles...)
}

// Next returns the state reached from state by role on event, or a *exchange.TransitionError.
func (m *Machine) Next(state exchange.State, role exchange.Role, event Event) (exchange.State, error) {
	if event.Kind == exchange.KindProblemReport && !state.IsTerminal() && state != exchange.StateStart {
		if event.Outbound && state.IsReceived() {
			return exchange.StateDeclined, nil
		}

		return exchange.StateAbandoned, nil
	}

	next, ok := m.transitions[key{state: state, role: role, event: event}]
	if !ok {
		return "", &exchange.TransitionError{
			Protocol: m.protocol,
			From:     state,
			Role:     role,
			Kind:     event.Kind,
			Outbound: event.Outbound,
		}
	}

	return next, nil
}

// Apply returns the state rec reaches on event. The record is not modified.
func (m *Machine) Apply(rec *exchange.Record, event Event) (exchange.State, error) {
	return m.Next(rec.State, rec.Role, event)
}

// RoleFor returns the role a new record takes when event starts a negotiation.
func (m *Machine) RoleFor(event Event) (exchange.Role, bool) {
	for _, role := range m.roles {
		if _, ok := m.transitions[key{state: exchange.StateStart, role: role, event: event}]; ok {
			return role, true
		}
	}

	return "", false
}

// Transitions returns the table rows in a stable order, without the implicit problem report rows.
func (m *Machine) Transitions() []Transition {
	rows := make([]Transition, 0, len(m.transitions))
	for k, to := range m.transitions {
		rows = append(rows, Transition{From: k.state, Role: k.role, Event: k.event, To: to})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Role != b.Role {
			return a.Role < b.Role
		}

		if a.From != b.From {
			return a.From < b.From
		}

		if a.Event.Kind != b.Event.Kind {
			return a.Event.Kind < b.Event.Kind
		}

		return !a.Event.Outbound && b.Event.Outbound
	})

	return rows
}

// States returns every state of the protocol, start included.
func (m *Machine) States() []exchange.State {
	seen := map[exchange.State]struct{}{
		exchange.StateStart:     {},
		exchange.StateDeclined:  {},
		exchange.StateAbandoned: {},
	}

	for k, to := range m.transitions {
		seen[k.state] = struct{}{}
		seen[to] = struct{}{}
	}

	states := make([]exchange.State, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}

	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	return states
}
