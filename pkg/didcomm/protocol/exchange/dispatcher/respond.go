/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/statemachine"
)

// AcceptOptions shape a reply built by Accept.
type AcceptOptions struct {
	Comment string
	// Preview replaces the preview carried into the reply.
	Preview *exchange.Preview
	// Overrides replace top level payload fields, per format service name.
	Overrides map[string]format.Payload
	// WillConfirm asks the peer to acknowledge a presentation.
	WillConfirm bool
}

// AcceptOption configures Accept.
type AcceptOption func(o *AcceptOptions)

// WithComment sets the comment of the reply.
func WithComment(comment string) AcceptOption {
	return func(o *AcceptOptions) {
		o.Comment = comment
	}
}

// WithPreview replaces the preview of the reply.
func WithPreview(preview *exchange.Preview) AcceptOption {
	return func(o *AcceptOptions) {
		o.Preview = preview
	}
}

// WithOverrides replaces top level fields of the payload built by the named format service.
func WithOverrides(serviceName string, overrides format.Payload) AcceptOption {
	return func(o *AcceptOptions) {
		if o.Overrides == nil {
			o.Overrides = map[string]format.Payload{}
		}

		o.Overrides[serviceName] = overrides
	}
}

// WithWillConfirm asks the peer to acknowledge the presentation.
func WithWillConfirm() AcceptOption {
	return func(o *AcceptOptions) {
		o.WillConfirm = true
	}
}

// progress asks the coordinator whether the applied msg is answered automatically and replies if so.
func (d *Dispatcher) progress(p Protocol, rec *exchange.Record, msg *exchange.Message, content *exchange.Content,
	ctx service.DIDCommContext) (*Result, error) {
	res := &Result{Record: rec}

	if _, ok := p.Reply(rec.State, rec.Role); !ok {
		return res, nil
	}

	if err := d.connected(ctx.ConnectionID); err != nil {
		logger.Warnf("record %s: no auto-response: %v", rec.ID, err)

		return res, nil
	}

	var prior *exchange.Content

	if d.coordinator.Policy(rec) == exchange.AutoAcceptContentApproved {
		if rule, ok := d.coordinator.Rule(rec.Protocol, msg.Kind); ok {
			c, _ := p.Codec(rec.Version)

			own, err := d.ownMessage(c, rec, rule.Prior)
			if err != nil {
				logger.Warnf("record %s: prior %s: %v", rec.ID, rule.Prior, err)
			}

			if own != nil {
				prior = format.Content(own, format.Read(p.Registry(), own))
			}
		}
	}

	if content == nil {
		content = format.Content(msg, nil)
	}

	decision := d.coordinator.Decide(rec, msg.Kind, content, prior)
	d.metrics.AutoAccept(string(rec.Protocol), decision.Respond)

	if !decision.Respond {
		logger.Infof("record %s waits in %s for a manual action (policy %s)", rec.ID, rec.State, decision.Policy)

		return res, nil
	}

	logger.Infof("record %s: auto-accepting %s (policy %s)", rec.ID, msg.Kind, decision.Policy)

	replied, err := d.respond(rec.ID, rec.State, &AcceptOptions{})
	if err != nil {
		if negotiationFailure(err) {
			return d.abandonReply(rec, msg, err)
		}

		return res, fmt.Errorf("auto-respond on record %s: %w", rec.ID, err)
	}

	return replied, nil
}

// negotiationFailure reports whether err means the received message cannot be answered. A missing
// predecessor is left to the operator, who may still decline the record.
func negotiationFailure(err error) bool {
	var (
		negotiationErr *exchange.FormatNegotiationError
		verifyErr      *exchange.VerificationError
	)

	return errors.As(err, &negotiationErr) || errors.As(err, &verifyErr)
}

// abandonReply abandons rec when the automatic reply to msg failed on the negotiation, and answers the peer
// with a problem report. A record moved on by someone else in the meantime is left alone.
func (d *Dispatcher) abandonReply(rec *exchange.Record, msg *exchange.Message, cause error) (*Result, error) {
	res := &Result{Record: rec}

	err := d.retry(func() error {
		current, err := d.store.GetRecord(rec.ID)
		if err != nil {
			return backoff.Permanent(err)
		}

		if current.State != rec.State {
			return backoff.Permanent(cause)
		}

		_, c, err := d.protocolOf(current)
		if err != nil {
			return backoff.Permanent(err)
		}

		abandoned, _, err := d.abandon(c, current, msg, cause)
		if abandoned != nil {
			res = abandoned
		}

		return err
	})

	return res, fmt.Errorf("auto-respond on record %s: %w", rec.ID, err)
}

// SetAutoAccept sets the auto-accept override of a record. A record waiting on a reply is then handled as if
// its last message had just arrived: it is answered when the new policy allows it.
func (d *Dispatcher) SetAutoAccept(recordID string, policy exchange.AutoAccept) (*Result, error) {
	var rec *exchange.Record

	err := d.retry(func() error {
		current, err := d.store.GetRecord(recordID)
		if err != nil {
			return backoff.Permanent(err)
		}

		updated := current.Clone()
		updated.AutoAccept = policy

		if err := d.store.UpdateRecord(updated); err != nil {
			if errors.Is(err, exchange.ErrConcurrentModification) {
				return err
			}

			return backoff.Permanent(fmt.Errorf("update record: %w", err))
		}

		rec = updated

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("record %s: auto-accept set to %q", rec.ID, policy)

	p, c, err := d.protocolOf(rec)
	if err != nil {
		return nil, err
	}

	step, ok := p.Reply(rec.State, rec.Role)
	if !ok {
		return &Result{Record: rec}, nil
	}

	last, err := d.store.FindMessage(rec.ID, step.Answer)
	if err != nil {
		if errors.Is(err, exchange.ErrMessageNotFound) {
			return &Result{Record: rec}, nil
		}

		return nil, fmt.Errorf("find %s of record %s: %w", step.Answer, rec.ID, err)
	}

	msg, err := c.Decode(last.Message)
	if err != nil {
		return nil, fmt.Errorf("decode stored %s of record %s: %w", step.Answer, rec.ID, err)
	}

	return d.progress(p, rec, msg, format.Content(msg, format.Read(p.Registry(), msg)),
		service.NewDIDCommContext(rec.ConnectionID, "", ""))
}

// Accept builds, persists and returns the reply to the message a record waits on.
func (d *Dispatcher) Accept(recordID string, opts ...AcceptOption) (*Result, error) {
	o := &AcceptOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return d.respond(recordID, "", o)
}

// respond replies on the record. A non-empty expected state must still be the record's state.
func (d *Dispatcher) respond(recordID string, expected exchange.State, o *AcceptOptions) (*Result, error) {
	var res *Result

	err := d.retry(func() error {
		rec, err := d.store.GetRecord(recordID)
		if err != nil {
			return backoff.Permanent(err)
		}

		p, c, err := d.protocolOf(rec)
		if err != nil {
			return backoff.Permanent(err)
		}

		step, ok := p.Reply(rec.State, rec.Role)
		if !ok || (expected != "" && rec.State != expected) {
			return backoff.Permanent(&exchange.TransitionError{
				Protocol: rec.Protocol, From: rec.State, Role: rec.Role, Kind: step.Next, Outbound: true,
			})
		}

		next, err := p.Machine().Apply(rec, statemachine.Send(step.Next))
		if err != nil {
			return backoff.Permanent(err)
		}

		out, formats, err := d.buildReply(p, c, rec, step, o)
		if err != nil {
			return backoff.Permanent(err)
		}

		wire, err := c.Encode(out)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("encode %s: %w", out.Kind, err))
		}

		updated := rec.Clone()
		updated.State = next

		if len(formats) > 0 {
			updated.Formats = formats
		}

		if err := d.store.UpdateRecord(updated); err != nil {
			if errors.Is(err, exchange.ErrConcurrentModification) {
				return err
			}

			return backoff.Permanent(fmt.Errorf("update record: %w", err))
		}

		if step.Next != exchange.KindAck {
			if err := d.saveMessage(rec.ID, step.Next, exchange.DirectionSent, wire); err != nil {
				return backoff.Permanent(err)
			}
		}

		d.transitioned(updated, rec.State, wire)

		res = &Result{Record: updated, Reply: wire}

		return nil
	})

	return res, err
}

// buildReply derives the reply of step from the stored message it answers and the local party's prior
// message.
func (d *Dispatcher) buildReply(p Protocol, c Codec, rec *exchange.Record, step Step,
	o *AcceptOptions) (*exchange.Message, []string, error) {
	stored, err := d.store.FindMessage(rec.ID, step.Answer)
	if errors.Is(err, exchange.ErrMessageNotFound) {
		return nil, nil, &exchange.MissingPredecessorError{RecordID: rec.ID, Kind: step.Answer}
	}

	if err != nil {
		return nil, nil, fmt.Errorf("find %s: %w", step.Answer, err)
	}

	answer, err := c.Decode(stored.Message)
	if err != nil {
		return nil, nil, fmt.Errorf("decode stored %s: %w", step.Answer, err)
	}

	out := &exchange.Message{
		ID:             uuid.New().String(),
		ThreadID:       rec.ThreadID,
		ParentThreadID: rec.ParentThreadID,
		Kind:           step.Next,
		Comment:        o.Comment,
		WillConfirm:    o.WillConfirm,
	}

	nextStage, ok := format.StageOf(step.Next)
	if !ok {
		return out, nil, nil
	}

	answerStage, _ := format.StageOf(step.Answer)

	bindings, err := bind(p, c, answerStage, answer)
	if err != nil {
		return nil, nil, err
	}

	var prior *exchange.Message

	if step.Prior != "" {
		prior, err = d.ownMessage(c, rec, step.Prior)
		if err != nil {
			return nil, nil, err
		}

		if prior == nil && step.PriorRequired {
			return nil, nil, &exchange.MissingPredecessorError{RecordID: rec.ID, Kind: step.Prior}
		}
	}

	preview := replyPreview(o, prior, answer)

	formats := make([]string, 0, len(bindings))

	for _, b := range bindings {
		att, err := derive(b, nextStage, step, prior, preview, o)
		if err != nil {
			return nil, nil, err
		}

		id := b.Service.FormatID(nextStage)

		out.Formats = append(out.Formats, decorator.Format{AttachID: att.ID, Format: id})
		out.Attachments = append(out.Attachments, *att)
		formats = append(formats, id)
	}

	if nextStage == format.StageProposal || nextStage == format.StageOffer {
		out.Preview = preview
	}

	return out, formats, nil
}

func derive(b format.Binding, stage format.Stage, step Step, prior *exchange.Message, preview *exchange.Preview,
	o *AcceptOptions) (*decorator.Attachment, error) {
	received, err := format.ReadAttachment(b.Attachment)
	if err != nil {
		return nil, err
	}

	in := &format.DeriveInput{
		Received:  received,
		Preview:   preview,
		Overrides: o.Overrides[b.Service.Name()],
	}

	if prior != nil {
		priorStage, _ := format.StageOf(step.Prior)

		att, ok := prior.Attachment(b.Service.FormatID(priorStage))

		switch {
		case ok:
			if in.Prior, err = format.ReadAttachment(att); err != nil {
				return nil, err
			}
		case step.PriorRequired:
			return nil, &exchange.FormatNegotiationError{
				Stage:  string(priorStage),
				Reason: fmt.Sprintf("stored %s has no %q attachment", step.Prior, b.Service.FormatID(priorStage)),
			}
		}
	}

	if in.Nonce, err = format.NewNonce(); err != nil {
		return nil, err
	}

	payload, err := b.Service.Derive(stage, in)
	if err != nil {
		return nil, fmt.Errorf("derive %s %s: %w", b.Service.Name(), stage, err)
	}

	return b.Service.Build(stage, payload)
}

func replyPreview(o *AcceptOptions, prior, answer *exchange.Message) *exchange.Preview {
	switch {
	case o.Preview != nil:
		return o.Preview
	case prior != nil && prior.Preview != nil:
		return prior.Preview
	default:
		return answer.Preview
	}
}

// Decline refuses the message a record waits on, or cancels the negotiation, with a problem report.
func (d *Dispatcher) Decline(recordID, reason string) (*Result, error) {
	var res *Result

	err := d.retry(func() error {
		rec, err := d.store.GetRecord(recordID)
		if err != nil {
			return backoff.Permanent(err)
		}

		p, c, err := d.protocolOf(rec)
		if err != nil {
			return backoff.Permanent(err)
		}

		next, err := p.Machine().Apply(rec, statemachine.Send(exchange.KindProblemReport))
		if err != nil {
			return backoff.Permanent(err)
		}

		code := exchange.CodeRejected
		if next == exchange.StateAbandoned {
			code = exchange.CodeAbandoned
		}

		wire, err := d.problemReport(c, rec, code, reason)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("encode problem report: %w", err))
		}

		updated := rec.Clone()
		updated.State = next
		updated.ErrorMsg = reason

		if err := d.store.UpdateRecord(updated); err != nil {
			if errors.Is(err, exchange.ErrConcurrentModification) {
				return err
			}

			return backoff.Permanent(fmt.Errorf("update record: %w", err))
		}

		if err := d.saveMessage(rec.ID, exchange.KindProblemReport, exchange.DirectionSent, wire); err != nil {
			return backoff.Permanent(err)
		}

		d.transitioned(updated, rec.State, wire)

		res = &Result{Record: updated, Reply: wire}

		return nil
	})

	return res, err
}

// StartRequest describes the first message of a negotiation started locally.
type StartRequest struct {
	Protocol       exchange.Protocol
	Version        int
	Kind           exchange.MessageKind
	ConnectionID   string
	ParentThreadID string
	// AutoAccept overrides the process policy for the new record.
	AutoAccept exchange.AutoAccept
	Comment    string
	Preview    *exchange.Preview
	// Formats limits the format services used, by name. Every service supporting the stage is used when
	// empty.
	Formats []string
	// Payloads are the inputs of the format services, by service name.
	Payloads    map[string]format.Payload
	WillConfirm bool
}

// Start creates a record for a negotiation started by the local party and returns its first message.
func (d *Dispatcher) Start(req *StartRequest) (*Result, error) {
	p, ok := d.protocols[req.Protocol]
	if !ok {
		return nil, fmt.Errorf("unsupported protocol %q", req.Protocol)
	}

	c, ok := p.Codec(req.Version)
	if !ok {
		return nil, fmt.Errorf("unsupported %s version %d", req.Protocol, req.Version)
	}

	if err := d.connected(req.ConnectionID); err != nil {
		return nil, err
	}

	event := statemachine.Send(req.Kind)

	role, ok := p.Machine().RoleFor(event)
	if !ok {
		return nil, &exchange.TransitionError{
			Protocol: req.Protocol, From: exchange.StateStart, Kind: req.Kind, Outbound: true,
		}
	}

	next, err := p.Machine().Next(exchange.StateStart, role, event)
	if err != nil {
		return nil, err
	}

	stage, _ := format.StageOf(req.Kind)

	services, err := startServices(p, c, stage, req.Formats)
	if err != nil {
		return nil, err
	}

	out := &exchange.Message{
		ID:             uuid.New().String(),
		ParentThreadID: req.ParentThreadID,
		Kind:           req.Kind,
		Comment:        req.Comment,
		WillConfirm:    req.WillConfirm,
	}
	out.ThreadID = out.ID

	if stage == format.StageProposal || stage == format.StageOffer {
		out.Preview = req.Preview
	}

	formats := make([]string, 0, len(services))

	for _, svc := range services {
		nonce, err := format.NewNonce()
		if err != nil {
			return nil, err
		}

		payload, err := svc.Derive(stage, &format.DeriveInput{
			Preview:   req.Preview,
			Overrides: req.Payloads[svc.Name()],
			Nonce:     nonce,
		})
		if err != nil {
			return nil, fmt.Errorf("derive %s %s: %w", svc.Name(), stage, err)
		}

		att, err := svc.Build(stage, payload)
		if err != nil {
			return nil, err
		}

		out.Formats = append(out.Formats, decorator.Format{AttachID: att.ID, Format: svc.FormatID(stage)})
		out.Attachments = append(out.Attachments, *att)
		formats = append(formats, svc.FormatID(stage))
	}

	wire, err := c.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Kind, err)
	}

	rec := &exchange.Record{
		ID:             uuid.New().String(),
		Protocol:       req.Protocol,
		Version:        req.Version,
		State:          next,
		Role:           role,
		ThreadID:       out.ThreadID,
		ParentThreadID: req.ParentThreadID,
		ConnectionID:   req.ConnectionID,
		AutoAccept:     req.AutoAccept,
		Formats:        formats,
	}

	if err := d.store.SaveRecord(rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}

	if err := d.saveMessage(rec.ID, req.Kind, exchange.DirectionSent, wire); err != nil {
		return nil, err
	}

	d.transitioned(rec, exchange.StateStart, wire)

	return &Result{Record: rec, Reply: wire}, nil
}

func startServices(p Protocol, c Codec, stage format.Stage, names []string) ([]format.Service, error) {
	if fixed := c.Fixed(); fixed != "" {
		svc, ok := p.Registry().Get(fixed)
		if !ok {
			return nil, &exchange.FormatNegotiationError{
				Stage:  string(stage),
				Reason: fmt.Sprintf("fixed format service %q not registered", fixed),
			}
		}

		return []format.Service{svc}, nil
	}

	return format.NewNegotiator(p.Registry()).Services(stage, names)
}

func (d *Dispatcher) protocolOf(rec *exchange.Record) (Protocol, Codec, error) {
	p, ok := d.protocols[rec.Protocol]
	if !ok {
		return nil, nil, fmt.Errorf("record %s: unsupported protocol %q", rec.ID, rec.Protocol)
	}

	c, ok := p.Codec(rec.Version)
	if !ok {
		return nil, nil, fmt.Errorf("record %s: unsupported %s version %d", rec.ID, rec.Protocol, rec.Version)
	}

	return p, c, nil
}

// Record returns the record with the id.
func (d *Dispatcher) Record(id string) (*exchange.Record, error) {
	return d.store.GetRecord(id)
}

// Records returns every record.
func (d *Dispatcher) Records() ([]*exchange.Record, error) {
	return d.store.ListRecords()
}

// Messages returns the messages stored for a record in arrival order.
func (d *Dispatcher) Messages(recordID string) ([]*exchange.MessageRecord, error) {
	return d.store.ListMessages(recordID)
}
