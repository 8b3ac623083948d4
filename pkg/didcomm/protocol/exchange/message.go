/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
)

// Message is the version neutral form of a negotiation message. Codecs of every protocol version decode into
// and encode from it.
type Message struct {
	ID             string
	ThreadID       string
	ParentThreadID string
	Type           service.MessageType
	Kind           MessageKind
	Comment        string
	Preview        *Preview
	Formats        []decorator.Format
	Attachments    []decorator.Attachment
	// WillConfirm is set on presentation requests whose sender acknowledges the presentation.
	WillConfirm bool
	// ProblemCode is set on problem reports.
	ProblemCode string
	// Raw is the wire form the message was decoded from.
	Raw service.DIDCommMsgMap
}

// Attachment returns the attachment tagged with formatID.
func (m *Message) Attachment(formatID string) (*decorator.Attachment, bool) {
	for _, f := range m.Formats {
		if f.Format != formatID {
			continue
		}

		for i := range m.Attachments {
			if m.Attachments[i].ID == f.AttachID {
				return &m.Attachments[i], true
			}
		}
	}

	return nil, false
}

// FormatIDs returns the declared format identifiers in declaration order.
func (m *Message) FormatIDs() []string {
	ids := make([]string, 0, len(m.Formats))
	for _, f := range m.Formats {
		ids = append(ids, f.Format)
	}

	return ids
}

// Preview is the human readable preview of credential attributes, or of the attributes and predicates of a
// proposed presentation.
type Preview struct {
	Type       string             `json:"@type,omitempty" mapstructure:"@type"`
	Attributes []PreviewAttribute `json:"attributes" mapstructure:"attributes"`
	Predicates []PreviewPredicate `json:"predicates,omitempty" mapstructure:"predicates"`
}

// PreviewAttribute is a single attribute of a Preview.
type PreviewAttribute struct {
	Name      string `json:"name" mapstructure:"name"`
	MimeType  string `json:"mime-type,omitempty" mapstructure:"mime-type"`
	Value     string `json:"value,omitempty" mapstructure:"value"`
	CredDefID string `json:"cred_def_id,omitempty" mapstructure:"cred_def_id"`
	Referent  string `json:"referent,omitempty" mapstructure:"referent"`
}

// PreviewPredicate is a predicate of a presentation Preview.
type PreviewPredicate struct {
	Name      string `json:"name" mapstructure:"name"`
	CredDefID string `json:"cred_def_id,omitempty" mapstructure:"cred_def_id"`
	Predicate string `json:"predicate" mapstructure:"predicate"`
	Threshold int    `json:"threshold" mapstructure:"threshold"`
}

// Value returns the value of the named attribute.
func (p *Preview) Value(name string) (string, bool) {
	if p == nil {
		return "", false
	}

	for _, a := range p.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// Content is the negotiable view of a message: its preview, the format services it used and the decoded
// attachment payload per format service name.
type Content struct {
	Preview *Preview               `json:"preview,omitempty"`
	Formats []string               `json:"formats"`
	Payload map[string]interface{} `json:"content"`
}
