/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dispatcher routes inbound negotiation messages to their protocol, correlates them with the
// persisted record of their thread and drives the state machine, the format layer and auto-acceptance.
package dispatcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/common/metrics"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/autoaccept"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/statemachine"
)

var logger = log.New("aries-framework/exchange/dispatcher")

// Result is the outcome of a handled message or a local action.
type Result struct {
	// Record is the record after the operation, nil when none was created.
	Record *exchange.Record
	// Reply is the message to deliver to the peer, nil when the engine waits for a manual action.
	Reply service.DIDCommMsgMap
}

// Option configures a Dispatcher.
type Option func(d *Dispatcher)

// WithAutoAccept sets the auto-accept coordinator. Without it every decision is manual.
func WithAutoAccept(c *autoaccept.Coordinator) Option {
	return func(d *Dispatcher) {
		d.coordinator = c
	}
}

// WithConnectionLookup sets the lookup used to tell whether a connection can carry replies. Without it any
// non-empty connection id is usable.
func WithConnectionLookup(l exchange.ConnectionLookup) Option {
	return func(d *Dispatcher) {
		d.connections = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithRetry sets the back-off policy applied when a record update loses a compare-and-swap race.
func WithRetry(newBackOff func() backoff.BackOff) Option {
	return func(d *Dispatcher) {
		d.newBackOff = newBackOff
	}
}

// Dispatcher is the exchange engine. It holds no negotiation state: every call reads and writes the store.
type Dispatcher struct {
	service.Message
	store       exchange.Store
	protocols   map[exchange.Protocol]Protocol
	coordinator *autoaccept.Coordinator
	connections exchange.ConnectionLookup
	metrics     *metrics.Metrics
	newBackOff  func() backoff.BackOff
}

// New returns a dispatcher serving protocols over store.
func New(store exchange.Store, protocols []Protocol, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("store is mandatory")
	}

	d := &Dispatcher{
		store:       store,
		protocols:   make(map[exchange.Protocol]Protocol, len(protocols)),
		coordinator: autoaccept.New(),
		newBackOff:  defaultBackOff,
	}

	for _, p := range protocols {
		if _, ok := d.protocols[p.Name()]; ok {
			return nil, fmt.Errorf("protocol %s registered twice", p.Name())
		}

		d.protocols[p.Name()] = p
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	return backoff.WithMaxRetries(b, 10) // nolint: gomnd
}

// HandleInbound handles one inbound message. Errors the peer should learn about come with a Result whose
// Reply is a problem report. A message rejected as malformed changes nothing and is not answered.
func (d *Dispatcher) HandleInbound(raw service.DIDCommMsgMap, ctx service.DIDCommContext) (*Result, error) {
	p, c, msg, err := d.decode(raw)
	if err != nil {
		d.metrics.Message("unknown", "unknown", metrics.OutcomeRejected)

		return nil, err
	}

	logger.Debugf("handling inbound %s %s on thread %s", p.Name(), msg.Kind, msg.ThreadID)

	var (
		res     *Result
		content *exchange.Content
	)

	err = d.retry(func() error {
		var errApply error

		res, content, errApply = d.apply(p, c, msg, ctx)

		return errApply
	})
	if err != nil {
		d.metrics.Message(string(p.Name()), string(msg.Kind), outcome(err))

		return res, err
	}

	d.metrics.Message(string(p.Name()), string(msg.Kind), metrics.OutcomeApplied)

	return d.progress(p, res.Record, msg, content, ctx)
}

func outcome(err error) string {
	var transitionErr *exchange.TransitionError

	if malformed(err) || errors.As(err, &transitionErr) {
		return metrics.OutcomeRejected
	}

	return metrics.OutcomeFailed
}

// malformed reports whether err rejects a message as structurally invalid. Verification failures wrap the
// validation error of the format service and are not malformed.
func malformed(err error) bool {
	var (
		validationErr *exchange.ValidationError
		verifyErr     *exchange.VerificationError
	)

	return errors.As(err, &validationErr) && !errors.As(err, &verifyErr)
}

func (d *Dispatcher) decode(raw service.DIDCommMsgMap) (Protocol, Codec, *exchange.Message, error) {
	mt, err := service.ParseMessageType(raw.Type())
	if err != nil {
		return nil, nil, nil, exchange.NewValidationError(err, "message type")
	}

	p, ok := d.protocols[exchange.Protocol(mt.Protocol)]
	if !ok {
		return nil, nil, nil, exchange.NewValidationError(nil, "unsupported protocol %q", mt.Protocol)
	}

	c, ok := p.Codec(mt.Major)
	if !ok {
		return nil, nil, nil, exchange.NewValidationError(nil, "unsupported %s version %d", mt.Protocol, mt.Major)
	}

	msg, err := c.Decode(raw)
	if err != nil {
		var validationErr *exchange.ValidationError
		if errors.As(err, &validationErr) {
			return nil, nil, nil, err
		}

		return nil, nil, nil, exchange.NewValidationError(err, "decode %s", raw.Type())
	}

	return p, c, msg, nil
}

// apply correlates msg with its record and applies it. It returns the negotiable content of msg when the
// message was applied.
func (d *Dispatcher) apply(p Protocol, c Codec, msg *exchange.Message,
	ctx service.DIDCommContext) (*Result, *exchange.Content, error) {
	rec, err := d.store.FindByThread(msg.ThreadID, ctx.ConnectionID)

	var notFound *exchange.RecordNotFoundError

	switch {
	case errors.As(err, &notFound):
		return d.applyNew(p, c, msg, ctx)
	case err != nil:
		return nil, nil, backoff.Permanent(fmt.Errorf("correlate thread %s: %w", msg.ThreadID, err))
	}

	return d.applyExisting(p, c, rec, msg)
}

func (d *Dispatcher) applyNew(p Protocol, c Codec, msg *exchange.Message,
	ctx service.DIDCommContext) (*Result, *exchange.Content, error) {
	event := statemachine.Receive(msg.Kind)

	role, ok := p.Machine().RoleFor(event)
	if !ok {
		return nil, nil, backoff.Permanent(&exchange.RecordNotFoundError{
			ThreadID: msg.ThreadID, ConnectionID: ctx.ConnectionID,
		})
	}

	next, err := p.Machine().Next(exchange.StateStart, role, event)
	if err != nil {
		return nil, nil, backoff.Permanent(err)
	}

	rec := &exchange.Record{
		ID:             uuid.New().String(),
		Protocol:       p.Name(),
		Version:        c.Major(),
		State:          exchange.StateStart,
		Role:           role,
		ThreadID:       msg.ThreadID,
		ParentThreadID: msg.ParentThreadID,
		ConnectionID:   ctx.ConnectionID,
		LastInboundID:  msg.ID,
	}

	content, formats, err := d.negotiate(p, c, nil, msg)
	if err != nil {
		return d.refuse(c, nil, rec, msg, err)
	}

	rec.State = next
	rec.Formats = formats

	if err := d.store.SaveRecord(rec); err != nil {
		if errors.Is(err, exchange.ErrDuplicateThread) {
			return nil, nil, d.threadTaken(msg.ThreadID, ctx.ConnectionID, err)
		}

		return nil, nil, backoff.Permanent(fmt.Errorf("save record: %w", err))
	}

	if err := d.saveMessage(rec.ID, msg.Kind, exchange.DirectionReceived, msg.Raw); err != nil {
		return nil, nil, backoff.Permanent(err)
	}

	d.transitioned(rec, exchange.StateStart, msg.Raw)

	return &Result{Record: rec}, content, nil
}

// threadTaken decides how to go on after a record of the thread appeared between the correlation and the
// save. A record on the same connection is retried as an existing negotiation. A record of another
// connection makes the message unrelated to any negotiation of its sender.
func (d *Dispatcher) threadTaken(threadID, connectionID string, cause error) error {
	_, err := d.store.FindByThread(threadID, connectionID)

	var notFound *exchange.RecordNotFoundError

	switch {
	case err == nil:
		return cause
	case errors.As(err, &notFound):
		logger.Warnf("thread %s belongs to another connection than %q", threadID, connectionID)

		return backoff.Permanent(&exchange.RecordNotFoundError{ThreadID: threadID, ConnectionID: connectionID})
	default:
		return backoff.Permanent(fmt.Errorf("correlate thread %s: %w", threadID, err))
	}
}

func (d *Dispatcher) applyExisting(p Protocol, c Codec, rec *exchange.Record,
	msg *exchange.Message) (*Result, *exchange.Content, error) {
	if rec.Version != c.Major() {
		return &Result{Record: rec}, nil, backoff.Permanent(exchange.NewValidationError(nil,
			"version %d message on a version %d negotiation", c.Major(), rec.Version))
	}

	event := statemachine.Receive(msg.Kind)

	if rec.LastInboundID == msg.ID || d.redelivered(rec, msg) {
		return &Result{Record: rec}, nil, backoff.Permanent(&exchange.TransitionError{
			Protocol: rec.Protocol, From: rec.State, Role: rec.Role, Kind: msg.Kind, Err: exchange.ErrDuplicateMessage,
		})
	}

	next, err := p.Machine().Apply(rec, event)
	if err != nil {
		if rec.State.IsTerminal() {
			return &Result{Record: rec}, nil, backoff.Permanent(err)
		}

		return d.refuse(c, rec, rec, msg, err)
	}

	content, formats, err := d.negotiate(p, c, rec, msg)
	if err != nil {
		if malformed(err) {
			return &Result{Record: rec}, nil, backoff.Permanent(err)
		}

		return d.abandon(c, rec, msg, err)
	}

	updated := rec.Clone()
	updated.State = next
	updated.LastInboundID = msg.ID

	if len(formats) > 0 {
		updated.Formats = formats
	}

	if msg.Kind == exchange.KindProblemReport {
		updated.ErrorMsg = problemText(msg)
	}

	if err := d.store.UpdateRecord(updated); err != nil {
		if errors.Is(err, exchange.ErrConcurrentModification) {
			logger.Debugf("record %s changed concurrently, retrying %s", rec.ID, msg.Kind)

			return nil, nil, err
		}

		return nil, nil, backoff.Permanent(fmt.Errorf("update record: %w", err))
	}

	if msg.Kind != exchange.KindAck {
		if err := d.saveMessage(rec.ID, msg.Kind, exchange.DirectionReceived, msg.Raw); err != nil {
			return nil, nil, backoff.Permanent(err)
		}
	}

	d.transitioned(updated, rec.State, msg.Raw)

	return &Result{Record: updated}, content, nil
}

// redelivered reports whether msg is the message already stored for its kind.
func (d *Dispatcher) redelivered(rec *exchange.Record, msg *exchange.Message) bool {
	stored, err := d.store.FindMessage(rec.ID, msg.Kind)
	if err != nil {
		if !errors.Is(err, exchange.ErrMessageNotFound) {
			logger.Warnf("record %s: lookup of stored %s: %v", rec.ID, msg.Kind, err)
		}

		return false
	}

	return stored.Direction == exchange.DirectionReceived && stored.Message.ID() == msg.ID
}

// negotiate binds and validates the attachments of msg and verifies them against the local party's
// earlier message on rec.
func (d *Dispatcher) negotiate(p Protocol, c Codec, rec *exchange.Record,
	msg *exchange.Message) (*exchange.Content, []string, error) {
	stage, ok := format.StageOf(msg.Kind)
	if !ok {
		return nil, nil, nil
	}

	bindings, err := bind(p, c, stage, msg)
	if err != nil {
		return nil, nil, err
	}

	payloads, err := format.Payloads(stage, bindings)
	if err != nil {
		var validationErr *exchange.ValidationError
		if errors.As(err, &validationErr) {
			return nil, nil, err
		}

		return nil, nil, exchange.NewValidationError(err, "%s attachment", msg.Kind)
	}

	if rec != nil {
		if err := d.verify(p, c, rec, msg.Kind, stage, bindings, payloads); err != nil {
			return nil, nil, err
		}
	}

	formats := make([]string, 0, len(bindings))
	for _, b := range bindings {
		formats = append(formats, b.FormatID)
	}

	return format.Content(msg, payloads), formats, nil
}

func (d *Dispatcher) verify(p Protocol, c Codec, rec *exchange.Record, kind exchange.MessageKind,
	stage format.Stage, bindings []format.Binding, payloads map[string]format.Payload) error {
	counterpart, ok := p.Counterpart(kind)
	if !ok {
		return nil
	}

	own, err := d.ownMessage(c, rec, counterpart)
	if err != nil || own == nil {
		return err
	}

	prior := format.Read(p.Registry(), own)

	for _, b := range bindings {
		name := b.Service.Name()

		pp, ok := prior[name]
		if !ok {
			return &exchange.FormatNegotiationError{
				Stage:  string(stage),
				Reason: fmt.Sprintf("%s in %q answers a %s without that format", kind, b.FormatID, counterpart),
			}
		}

		if err := b.Service.Verify(stage, payloads[name], pp); err != nil {
			return &exchange.VerificationError{Format: b.FormatID, Err: err}
		}
	}

	return nil
}

// bind resolves the formats of msg: the fixed service of codecs without negotiation, the intersection with
// the registry otherwise.
func bind(p Protocol, c Codec, stage format.Stage, msg *exchange.Message) ([]format.Binding, error) {
	negotiator := format.NewNegotiator(p.Registry())

	if fixed := c.Fixed(); fixed != "" {
		return negotiator.Fixed(stage, fixed, msg)
	}

	return negotiator.Negotiate(stage, msg)
}

// ownMessage returns the message of kind the local party sent on rec, nil when there is none.
func (d *Dispatcher) ownMessage(c Codec, rec *exchange.Record, kind exchange.MessageKind) (*exchange.Message, error) {
	stored, err := d.store.FindMessage(rec.ID, kind)
	if errors.Is(err, exchange.ErrMessageNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find %s of record %s: %w", kind, rec.ID, err)
	}

	if stored.Direction != exchange.DirectionSent {
		return nil, nil
	}

	msg, err := c.Decode(stored.Message)
	if err != nil {
		return nil, fmt.Errorf("decode stored %s of record %s: %w", kind, rec.ID, err)
	}

	return msg, nil
}

// refuse answers msg with a problem report without changing any record. persisted is nil for threads
// without a record.
func (d *Dispatcher) refuse(c Codec, persisted, rec *exchange.Record, msg *exchange.Message,
	cause error) (*Result, *exchange.Content, error) {
	if malformed(cause) {
		return &Result{Record: persisted}, nil, backoff.Permanent(cause)
	}

	reply, err := d.problemReport(c, rec, exchange.ProblemCode(cause), cause.Error())
	if err != nil {
		logger.Errorf("thread %s: problem report: %v", rec.ThreadID, err)
	}

	logger.Warnf("thread %s: refused %s: %v", rec.ThreadID, msg.Kind, cause)

	return &Result{Record: persisted, Reply: reply}, nil, backoff.Permanent(cause)
}

// abandon moves rec to abandoned after a failure on msg and answers with a problem report.
func (d *Dispatcher) abandon(c Codec, rec *exchange.Record, msg *exchange.Message,
	cause error) (*Result, *exchange.Content, error) {
	updated := rec.Clone()
	updated.State = exchange.StateAbandoned
	updated.ErrorMsg = cause.Error()

	if msg.Raw != nil {
		updated.LastInboundID = msg.ID
	}

	if err := d.store.UpdateRecord(updated); err != nil {
		if errors.Is(err, exchange.ErrConcurrentModification) {
			return nil, nil, err
		}

		return nil, nil, backoff.Permanent(fmt.Errorf("abandon record %s: %w", rec.ID, err))
	}

	d.transitioned(updated, rec.State, msg.Raw)

	reply, err := d.problemReport(c, updated, exchange.ProblemCode(cause), cause.Error())
	if err != nil {
		logger.Errorf("record %s: problem report: %v", rec.ID, err)
	} else if err := d.saveMessage(rec.ID, exchange.KindProblemReport, exchange.DirectionSent, reply); err != nil {
		logger.Errorf("record %s: %v", rec.ID, err)
	}

	logger.Warnf("record %s abandoned on %s: %v", rec.ID, msg.Kind, cause)

	return &Result{Record: updated, Reply: reply}, nil, backoff.Permanent(cause)
}

func (d *Dispatcher) problemReport(c Codec, rec *exchange.Record, code, text string) (service.DIDCommMsgMap, error) {
	return c.Encode(&exchange.Message{
		ID:             uuid.New().String(),
		ThreadID:       rec.ThreadID,
		ParentThreadID: rec.ParentThreadID,
		Kind:           exchange.KindProblemReport,
		ProblemCode:    code,
		Comment:        text,
	})
}

func problemText(msg *exchange.Message) string {
	if msg.Comment == "" {
		return msg.ProblemCode
	}

	return msg.ProblemCode + ": " + msg.Comment
}

func (d *Dispatcher) saveMessage(recordID string, kind exchange.MessageKind, direction exchange.Direction,
	msg service.DIDCommMsgMap) error {
	err := d.store.SaveMessage(&exchange.MessageRecord{
		RecordID:  recordID,
		Kind:      kind,
		Direction: direction,
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("save %s message of record %s: %w", kind, recordID, err)
	}

	return nil
}

// connected returns a *exchange.ConnectionMissingError unless id names a usable connection.
func (d *Dispatcher) connected(id string) error {
	if id == "" {
		return &exchange.ConnectionMissingError{}
	}

	if d.connections == nil {
		return nil
	}

	conn, err := d.connections.GetConnectionRecord(id)
	if err != nil {
		return &exchange.ConnectionMissingError{ConnectionID: id, Err: err}
	}

	if !conn.IsCompleted() {
		return &exchange.ConnectionMissingError{ConnectionID: id, Err: fmt.Errorf("connection state is %q", conn.State)}
	}

	return nil
}

// retry runs op until it succeeds, fails permanently or the back-off gives up.
func (d *Dispatcher) retry(op func() error) error {
	return backoff.RetryNotify(op, d.newBackOff(), func(err error, wait time.Duration) {
		logger.Debugf("retrying in %s: %v", wait, err)
	})
}

// transitioned publishes a transition once it is persisted, so a write losing a compare-and-swap race
// publishes nothing.
func (d *Dispatcher) transitioned(rec *exchange.Record, from exchange.State, msg service.DIDCommMsgMap) {
	d.metrics.Transition(string(rec.Protocol), string(from), string(rec.State))
	d.notify(service.PreState, rec, msg)
	d.notify(service.PostState, rec, msg)

	logger.Infof("record %s (%s %s) moved from %s to %s", rec.ID, rec.Protocol, rec.Role, from, rec.State)
}

func (d *Dispatcher) notify(typ service.StateMsgType, rec *exchange.Record, msg service.DIDCommMsgMap) {
	d.Notify(service.StateMsg{
		ProtocolName: string(rec.Protocol),
		Type:         typ,
		StateID:      string(rec.State),
		Msg:          msg.Clone(),
		Properties:   newEventProps(rec),
	})
}

type eventProps map[string]interface{}

func newEventProps(rec *exchange.Record) eventProps {
	return eventProps{
		"record_id":     rec.ID,
		"thread_id":     rec.ThreadID,
		"connection_id": rec.ConnectionID,
		"role":          string(rec.Role),
		"state":         string(rec.State),
	}
}

func (p eventProps) All() map[string]interface{} {
	return p
}
