/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package autoaccept decides whether an inbound message is answered without operator involvement.
package autoaccept

import (
	"encoding/json"
	"reflect"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/go-cmp/cmp"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

var logger = log.New("aries-framework/exchange/autoaccept")

// Field selects a negotiable value in the incoming content and its counterpart in the prior content, as
// JSONPath expressions over exchange.Content.
type Field struct {
	Incoming string
	Prior    string
}

// Same selects the same path on both sides.
func Same(path string) Field {
	return Field{Incoming: path, Prior: path}
}

// Rule names the prior message of the local party an incoming message is compared with and the fields
// that must match.
type Rule struct {
	Prior  exchange.MessageKind
	Fields []Field
}

// Rules holds a Rule per protocol and incoming message kind.
type Rules map[exchange.Protocol]map[exchange.MessageKind]Rule

// Decision is the outcome of a coordinator check.
type Decision struct {
	Respond bool
	Policy  exchange.AutoAccept
	// Mismatch is the first field that differs when a content-approved check fails.
	Mismatch string
}

// Option configures a Coordinator.
type Option func(c *Coordinator)

// WithPolicy sets the process wide policy used by records without an override.
func WithPolicy(p exchange.AutoAccept) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithRules replaces the negotiable field rules.
func WithRules(rules Rules) Option {
	return func(c *Coordinator) {
		c.rules = rules
	}
}

// Coordinator decides on auto-acceptance from the record override, the process policy and the content of
// the incoming message. It holds no per negotiation state.
type Coordinator struct {
	policy exchange.AutoAccept
	rules  Rules
}

// New returns a coordinator with policy never and the default rules unless configured otherwise.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{policy: exchange.AutoAcceptNever, rules: DefaultRules()}

	for _, opt := range opts {
		opt(c)
	}

	if c.policy == exchange.AutoAcceptUnset {
		c.policy = exchange.AutoAcceptNever
	}

	return c
}

// Policy returns the policy in effect for rec: its override when set, the process policy otherwise.
func (c *Coordinator) Policy(rec *exchange.Record) exchange.AutoAccept {
	if rec != nil && rec.AutoAccept != exchange.AutoAcceptUnset {
		return rec.AutoAccept
	}

	return c.policy
}

// Rule returns the rule for an incoming message of kind.
func (c *Coordinator) Rule(protocol exchange.Protocol, kind exchange.MessageKind) (Rule, bool) {
	rule, ok := c.rules[protocol][kind]

	return rule, ok
}

// ShouldAutoRespond reports whether the incoming content of rec is answered automatically. prior is the
// local party's previous message of the rule's kind, nil when there is none.
func (c *Coordinator) ShouldAutoRespond(rec *exchange.Record, kind exchange.MessageKind,
	incoming, prior *exchange.Content) bool {
	return c.Decide(rec, kind, incoming, prior).Respond
}

// Decide is ShouldAutoRespond with the reasoning.
func (c *Coordinator) Decide(rec *exchange.Record, kind exchange.MessageKind,
	incoming, prior *exchange.Content) Decision {
	d := Decision{Policy: c.Policy(rec)}

	switch d.Policy {
	case exchange.AutoAcceptAlways:
		d.Respond = true
	case exchange.AutoAcceptContentApproved:
		d.Respond, d.Mismatch = c.approved(rec.Protocol, kind, incoming, prior)
	default:
		d.Respond = false
	}

	logger.Debugf("auto-accept %s %s on record %s: policy=%s respond=%t mismatch=%q",
		rec.Protocol, kind, rec.ID, d.Policy, d.Respond, d.Mismatch)

	return d
}

func (c *Coordinator) approved(protocol exchange.Protocol, kind exchange.MessageKind,
	incoming, prior *exchange.Content) (bool, string) {
	rule, ok := c.Rule(protocol, kind)
	if !ok || incoming == nil || prior == nil {
		return false, ""
	}

	in, err := generic(incoming)
	if err != nil {
		logger.Warnf("auto-accept: incoming content: %v", err)

		return false, ""
	}

	pr, err := generic(prior)
	if err != nil {
		logger.Warnf("auto-accept: prior content: %v", err)

		return false, ""
	}

	for _, f := range rule.Fields {
		if !cmp.Equal(lookup(f.Incoming, in), lookup(f.Prior, pr)) {
			return false, f.Incoming
		}
	}

	return true, ""
}

// lookup returns the value at path, nil when the path is missing or selects an empty value.
func lookup(path string, v interface{}) interface{} {
	found, err := jsonpath.Get(path, v)
	if err != nil || empty(found) {
		return nil
	}

	return found
}

func empty(v interface{}) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}

func generic(c *exchange.Content) (interface{}, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	var v interface{}

	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return v, nil
}
