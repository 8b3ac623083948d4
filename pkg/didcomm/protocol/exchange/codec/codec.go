/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package codec holds the wire helpers shared by the issue-credential and present-proof codecs: header
// parsing, threading, acks and problem reports.
package codec

import (
	"fmt"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/model"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// Message names shared by both protocols.
const (
	AckName           = "ack"
	ProblemReportName = "problem-report"
)

// Names maps the message names of a protocol version to their kinds.
type Names map[string]exchange.MessageKind

// Header decodes the fields every negotiation message carries. The returned message has no body fields.
func Header(raw service.DIDCommMsgMap, protocol exchange.Protocol, major int, names Names) (*exchange.Message, error) {
	mt, err := service.ParseMessageType(raw.Type())
	if err != nil {
		return nil, exchange.NewValidationError(err, "message type")
	}

	if mt.Protocol != string(protocol) || mt.Major != major {
		return nil, exchange.NewValidationError(nil, "message type %q is not %s %d.x", raw.Type(), protocol, major)
	}

	kind, ok := names[mt.Name]
	if !ok {
		return nil, exchange.NewValidationError(nil, "unknown %s message %q", protocol, mt.Name)
	}

	if raw.ID() == "" {
		return nil, exchange.NewValidationError(nil, "%s message without @id", mt.Name)
	}

	thid, err := raw.ThreadID()
	if err != nil {
		return nil, exchange.NewValidationError(err, "%s thread", mt.Name)
	}

	return &exchange.Message{
		ID:             raw.ID(),
		ThreadID:       thid,
		ParentThreadID: raw.ParentThreadID(),
		Type:           mt,
		Kind:           kind,
		Raw:            raw,
	}, nil
}

// Body decodes raw into the wire model v.
func Body(raw service.DIDCommMsgMap, name string, v interface{}) error {
	if err := raw.Decode(v); err != nil {
		return exchange.NewValidationError(err, "%s body", name)
	}

	return nil
}

// Thread returns the thread decorator of msg. Messages opening their own thread carry none.
func Thread(msg *exchange.Message) *decorator.Thread {
	if msg.ThreadID == "" || (msg.ThreadID == msg.ID && msg.ParentThreadID == "") {
		return nil
	}

	return &decorator.Thread{ID: msg.ThreadID, PID: msg.ParentThreadID}
}

// Map renders the wire model v.
func Map(v interface{}) (service.DIDCommMsgMap, error) {
	m := service.NewDIDCommMsgMap(v)
	if len(m) == 0 {
		return nil, fmt.Errorf("render %T", v)
	}

	return m, nil
}

// DecodeProblemReport fills the problem code and text of msg.
func DecodeProblemReport(raw service.DIDCommMsgMap, msg *exchange.Message) error {
	var report model.ProblemReport

	if err := Body(raw, ProblemReportName, &report); err != nil {
		return err
	}

	if report.Description.Code == "" {
		return exchange.NewValidationError(nil, "problem report without code")
	}

	msg.ProblemCode = report.Description.Code
	msg.Comment = report.Description.En

	return nil
}

// DecodeAck checks the status of an ack.
func DecodeAck(raw service.DIDCommMsgMap, msg *exchange.Message) error {
	var ack model.Ack

	if err := Body(raw, AckName, &ack); err != nil {
		return err
	}

	if ack.Status != "" && ack.Status != model.AckStatusOK && ack.Status != "PENDING" {
		return exchange.NewValidationError(nil, "ack status %q", ack.Status)
	}

	if msg.ThreadID == msg.ID {
		return exchange.NewValidationError(nil, "ack outside a thread")
	}

	return nil
}

// ProblemReport renders a problem report.
func ProblemReport(typ string, msg *exchange.Message) (service.DIDCommMsgMap, error) {
	return Map(&model.ProblemReport{
		Type:        typ,
		ID:          msg.ID,
		Description: model.Code{Code: msg.ProblemCode, En: msg.Comment},
		Thread:      Thread(msg),
	})
}

// Ack renders a positive acknowledgement.
func Ack(typ string, msg *exchange.Message) (service.DIDCommMsgMap, error) {
	return Map(&model.Ack{
		Type:   typ,
		ID:     msg.ID,
		Status: model.AckStatusOK,
		Thread: Thread(msg),
	})
}

// Attachments checks that at least one attachment was sent and that each has an id.
func Attachments(name, field string, atts []decorator.Attachment) error {
	if len(atts) == 0 {
		return exchange.NewValidationError(nil, "%s without %s", name, field)
	}

	for i := range atts {
		if atts[i].ID == "" {
			return exchange.NewValidationError(nil, "%s: %s entry %d has no @id", name, field, i)
		}
	}

	return nil
}

// Formats checks that every declared format points at an attachment.
func Formats(name string, formats []decorator.Format, atts []decorator.Attachment) error {
	if len(formats) == 0 {
		return exchange.NewValidationError(nil, "%s declares no formats", name)
	}

	ids := make(map[string]struct{}, len(atts))
	for i := range atts {
		ids[atts[i].ID] = struct{}{}
	}

	for _, f := range formats {
		if f.Format == "" {
			return exchange.NewValidationError(nil, "%s: format of attachment %q is empty", name, f.AttachID)
		}

		if _, ok := ids[f.AttachID]; !ok {
			return exchange.NewValidationError(nil, "%s: format %q points at missing attachment %q",
				name, f.Format, f.AttachID)
		}
	}

	return nil
}

// Tag synthesizes the format list of a version without format declarations: every attachment gets formatID.
// Attachment ids are renamed to <prefix>-<index> when a prefix is given.
func Tag(formatID, prefix string, atts []decorator.Attachment) ([]decorator.Format, []decorator.Attachment) {
	out := make([]decorator.Attachment, len(atts))
	formats := make([]decorator.Format, len(atts))

	for i := range atts {
		out[i] = atts[i]

		if prefix != "" {
			out[i].ID = fmt.Sprintf("%s-%d", prefix, i)
		}

		formats[i] = decorator.Format{AttachID: out[i].ID, Format: formatID}
	}

	return formats, out
}

// Select returns the attachments of msg tagged with formatID, in format order.
func Select(msg *exchange.Message, formatID string) []decorator.Attachment {
	var atts []decorator.Attachment

	for _, f := range msg.Formats {
		if f.Format != formatID {
			continue
		}

		for i := range msg.Attachments {
			if msg.Attachments[i].ID == f.AttachID {
				atts = append(atts, msg.Attachments[i])
			}
		}
	}

	return atts
}
