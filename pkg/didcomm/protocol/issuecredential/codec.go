/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/codec"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
)

// v1 attachment id prefixes.
const (
	filterAttachPrefix     = "libindy-cred-filter"
	offerAttachPrefix      = "libindy-cred-offer"
	requestAttachPrefix    = "libindy-cred-request"
	credentialAttachPrefix = "libindy-cred"
)

// nolint: gochecknoglobals
var names = codec.Names{
	"propose-credential":    exchange.KindProposal,
	"offer-credential":      exchange.KindOffer,
	"request-credential":    exchange.KindRequest,
	"issue-credential":      exchange.KindFinal,
	codec.AckName:           exchange.KindAck,
	codec.ProblemReportName: exchange.KindProblemReport,
}

// codecV1 handles issue-credential 1.0. Its only format is indy, so Decode synthesizes the format list
// and Encode drops it.
type codecV1 struct{}

func (codecV1) Major() int { return 1 }

func (codecV1) Fixed() string { return indy.Name }

func (codecV1) Decode(raw service.DIDCommMsgMap) (*exchange.Message, error) {
	msg, err := codec.Header(raw, exchange.IssueCredential, 1, names)
	if err != nil {
		return nil, err
	}

	switch msg.Kind {
	case exchange.KindProposal:
		var m ProposeCredentialV1

		if err := codec.Body(raw, "propose-credential", &m); err != nil {
			return nil, err
		}

		filter, err := format.ToPayload(&indy.CredentialFilter{
			SchemaIssuerDID: m.SchemaIssuerDID,
			SchemaName:      m.SchemaName,
			SchemaVersion:   m.SchemaVersion,
			SchemaID:        m.SchemaID,
			IssuerDID:       m.IssuerDID,
			CredDefID:       m.CredDefID,
		})
		if err != nil {
			return nil, exchange.NewValidationError(err, "propose-credential filter")
		}

		att := format.NewAttachment(filter)

		msg.Comment = m.Comment
		msg.Preview = m.CredentialProposal
		msg.Formats, msg.Attachments = codec.Tag(indy.CredFilterFormat, filterAttachPrefix,
			[]decorator.Attachment{*att})
	case exchange.KindOffer:
		var m OfferCredentialV1

		if err := codec.Body(raw, "offer-credential", &m); err != nil {
			return nil, err
		}

		if err := codec.Attachments("offer-credential", "offers~attach", m.OffersAttach); err != nil {
			return nil, err
		}

		msg.Comment = m.Comment
		msg.Preview = m.CredentialPreview
		msg.Formats, msg.Attachments = codec.Tag(indy.CredAbstractFormat, "", m.OffersAttach)
	case exchange.KindRequest:
		var m RequestCredentialV1

		if err := codec.Body(raw, "request-credential", &m); err != nil {
			return nil, err
		}

		if err := codec.Attachments("request-credential", "requests~attach", m.RequestsAttach); err != nil {
			return nil, err
		}

		msg.Comment = m.Comment
		msg.Formats, msg.Attachments = codec.Tag(indy.CredReqFormat, "", m.RequestsAttach)
	case exchange.KindFinal:
		var m IssueCredentialV1

		if err := codec.Body(raw, "issue-credential", &m); err != nil {
			return nil, err
		}

		if err := codec.Attachments("issue-credential", "credentials~attach", m.CredentialsAttach); err != nil {
			return nil, err
		}

		msg.Comment = m.Comment
		msg.Formats, msg.Attachments = codec.Tag(indy.CredFormat, "", m.CredentialsAttach)
	case exchange.KindAck:
		return msg, codec.DecodeAck(raw, msg)
	case exchange.KindProblemReport:
		return msg, codec.DecodeProblemReport(raw, msg)
	}

	return msg, nil
}

func (codecV1) Encode(msg *exchange.Message) (service.DIDCommMsgMap, error) {
	switch msg.Kind {
	case exchange.KindProposal:
		m := &ProposeCredentialV1{
			Type:               ProposeCredentialMsgTypeV1,
			ID:                 msg.ID,
			Thread:             codec.Thread(msg),
			Comment:            msg.Comment,
			CredentialProposal: typedPreview(msg.Preview, CredentialPreviewMsgTypeV1),
		}

		if atts := codec.Select(msg, indy.CredFilterFormat); len(atts) > 0 {
			var filter indy.CredentialFilter

			p, err := format.ReadAttachment(&atts[0])
			if err != nil {
				return nil, err
			}

			if err := format.Decode(p, &filter); err != nil {
				return nil, fmt.Errorf("decode credential filter: %w", err)
			}

			m.SchemaIssuerDID = filter.SchemaIssuerDID
			m.SchemaName = filter.SchemaName
			m.SchemaVersion = filter.SchemaVersion
			m.SchemaID = filter.SchemaID
			m.IssuerDID = filter.IssuerDID
			m.CredDefID = filter.CredDefID
		}

		return codec.Map(m)
	case exchange.KindOffer:
		_, atts := codec.Tag(indy.CredAbstractFormat, offerAttachPrefix, codec.Select(msg, indy.CredAbstractFormat))

		return codec.Map(&OfferCredentialV1{
			Type:              OfferCredentialMsgTypeV1,
			ID:                msg.ID,
			Thread:            codec.Thread(msg),
			Comment:           msg.Comment,
			CredentialPreview: typedPreview(msg.Preview, CredentialPreviewMsgTypeV1),
			OffersAttach:      atts,
		})
	case exchange.KindRequest:
		_, atts := codec.Tag(indy.CredReqFormat, requestAttachPrefix, codec.Select(msg, indy.CredReqFormat))

		return codec.Map(&RequestCredentialV1{
			Type:           RequestCredentialMsgTypeV1,
			ID:             msg.ID,
			Thread:         codec.Thread(msg),
			Comment:        msg.Comment,
			RequestsAttach: atts,
		})
	case exchange.KindFinal:
		_, atts := codec.Tag(indy.CredFormat, credentialAttachPrefix, codec.Select(msg, indy.CredFormat))

		return codec.Map(&IssueCredentialV1{
			Type:              IssueCredentialMsgTypeV1,
			ID:                msg.ID,
			Thread:            codec.Thread(msg),
			Comment:           msg.Comment,
			CredentialsAttach: atts,
		})
	case exchange.KindAck:
		return codec.Ack(AckMsgTypeV1, msg)
	case exchange.KindProblemReport:
		return codec.ProblemReport(ProblemReportMsgTypeV1, msg)
	default:
		return nil, fmt.Errorf("issue-credential 1.0: cannot encode %q", msg.Kind)
	}
}

// codecV2 handles issue-credential 2.0, whose messages declare their formats.
type codecV2 struct{}

func (codecV2) Major() int { return 2 } // nolint: gomnd

func (codecV2) Fixed() string { return "" }

func (codecV2) Decode(raw service.DIDCommMsgMap) (*exchange.Message, error) {
	msg, err := codec.Header(raw, exchange.IssueCredential, 2, names) // nolint: gomnd
	if err != nil {
		return nil, err
	}

	var (
		formats []decorator.Format
		atts    []decorator.Attachment
		name    string
	)

	switch msg.Kind {
	case exchange.KindProposal:
		var m ProposeCredentialV2

		if err := codec.Body(raw, "propose-credential", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "propose-credential", m.Formats, m.FiltersAttach
		msg.Comment = m.Comment
		msg.Preview = m.CredentialPreview
	case exchange.KindOffer:
		var m OfferCredentialV2

		if err := codec.Body(raw, "offer-credential", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "offer-credential", m.Formats, m.OffersAttach
		msg.Comment = m.Comment
		msg.Preview = m.CredentialPreview
	case exchange.KindRequest:
		var m RequestCredentialV2

		if err := codec.Body(raw, "request-credential", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "request-credential", m.Formats, m.RequestsAttach
		msg.Comment = m.Comment
	case exchange.KindFinal:
		var m IssueCredentialV2

		if err := codec.Body(raw, "issue-credential", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "issue-credential", m.Formats, m.CredentialsAttach
		msg.Comment = m.Comment
	case exchange.KindAck:
		return msg, codec.DecodeAck(raw, msg)
	case exchange.KindProblemReport:
		return msg, codec.DecodeProblemReport(raw, msg)
	}

	if err := codec.Formats(name, formats, atts); err != nil {
		return nil, err
	}

	msg.Formats, msg.Attachments = formats, atts

	return msg, nil
}

func (codecV2) Encode(msg *exchange.Message) (service.DIDCommMsgMap, error) {
	thread := codec.Thread(msg)

	switch msg.Kind {
	case exchange.KindProposal:
		return codec.Map(&ProposeCredentialV2{
			Type:              ProposeCredentialMsgTypeV2,
			ID:                msg.ID,
			Thread:            thread,
			Comment:           msg.Comment,
			CredentialPreview: typedPreview(msg.Preview, CredentialPreviewMsgTypeV2),
			Formats:           msg.Formats,
			FiltersAttach:     msg.Attachments,
		})
	case exchange.KindOffer:
		return codec.Map(&OfferCredentialV2{
			Type:              OfferCredentialMsgTypeV2,
			ID:                msg.ID,
			Thread:            thread,
			Comment:           msg.Comment,
			CredentialPreview: typedPreview(msg.Preview, CredentialPreviewMsgTypeV2),
			Formats:           msg.Formats,
			OffersAttach:      msg.Attachments,
		})
	case exchange.KindRequest:
		return codec.Map(&RequestCredentialV2{
			Type:           RequestCredentialMsgTypeV2,
			ID:             msg.ID,
			Thread:         thread,
			Comment:        msg.Comment,
			Formats:        msg.Formats,
			RequestsAttach: msg.Attachments,
		})
	case exchange.KindFinal:
		return codec.Map(&IssueCredentialV2{
			Type:              IssueCredentialMsgTypeV2,
			ID:                msg.ID,
			Thread:            thread,
			Comment:           msg.Comment,
			Formats:           msg.Formats,
			CredentialsAttach: msg.Attachments,
		})
	case exchange.KindAck:
		return codec.Ack(AckMsgTypeV2, msg)
	case exchange.KindProblemReport:
		return codec.ProblemReport(ProblemReportMsgTypeV2, msg)
	default:
		return nil, fmt.Errorf("issue-credential 2.0: cannot encode %q", msg.Kind)
	}
}

func typedPreview(p *exchange.Preview, typ string) *exchange.Preview {
	if p == nil {
		return nil
	}

	c := *p
	c.Type = typ

	return &c
}
