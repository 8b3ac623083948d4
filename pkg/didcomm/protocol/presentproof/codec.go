/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"fmt"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/codec"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
)

const (
	proposalAttachPrefix     = "libindy-proof-proposal"
	requestAttachPrefix      = "libindy-request-presentation"
	presentationAttachPrefix = "libindy-presentation"
)

// nolint: gochecknoglobals
var names = codec.Names{
	"propose-presentation":  exchange.KindProposal,
	"request-presentation":  exchange.KindRequest,
	"presentation":          exchange.KindFinal,
	codec.AckName:           exchange.KindAck,
	codec.ProblemReportName: exchange.KindProblemReport,
}

// codecV1 handles present-proof 1.0. A proposal carries only its preview; Decode turns it into the indy
// proof request it proposes.
type codecV1 struct{}

func (codecV1) Major() int { return 1 }

func (codecV1) Fixed() string { return indy.Name }

func (codecV1) Decode(raw service.DIDCommMsgMap) (*exchange.Message, error) {
	msg, err := codec.Header(raw, exchange.PresentProof, 1, names)
	if err != nil {
		return nil, err
	}

	switch msg.Kind {
	case exchange.KindProposal:
		var m ProposePresentationV1

		if err := codec.Body(raw, "propose-presentation", &m); err != nil {
			return nil, err
		}

		if m.PresentationProposal == nil {
			return nil, exchange.NewValidationError(nil, "propose-presentation without presentation_proposal")
		}

		req, err := format.ToPayload(indy.ProofRequestFromPreview(m.PresentationProposal))
		if err != nil {
			return nil, exchange.NewValidationError(err, "presentation_proposal")
		}

		msg.Comment = m.Comment
		msg.Preview = m.PresentationProposal
		msg.Formats, msg.Attachments = codec.Tag(indy.ProofReqFormat, proposalAttachPrefix,
			[]decorator.Attachment{*format.NewAttachment(req)})
	case exchange.KindRequest:
		var m RequestPresentationV1

		if err := codec.Body(raw, "request-presentation", &m); err != nil {
			return nil, err
		}

		err := codec.Attachments("request-presentation", "request_presentations~attach", m.RequestPresentationsAttach)
		if err != nil {
			return nil, err
		}

		msg.Comment = m.Comment
		msg.Formats, msg.Attachments = codec.Tag(indy.ProofReqFormat, "", m.RequestPresentationsAttach)
	case exchange.KindFinal:
		var m PresentationV1

		if err := codec.Body(raw, "presentation", &m); err != nil {
			return nil, err
		}

		if err := codec.Attachments("presentation", "presentations~attach", m.PresentationsAttach); err != nil {
			return nil, err
		}

		msg.Comment = m.Comment
		msg.Formats, msg.Attachments = codec.Tag(indy.ProofFormat, "", m.PresentationsAttach)
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
		if msg.Preview == nil {
			return nil, exchange.NewValidationError(nil, "present-proof 1.0 proposals need a presentation preview")
		}

		preview := *msg.Preview
		preview.Type = PresentationPreviewMsgTypeV1

		return codec.Map(&ProposePresentationV1{
			Type:                 ProposePresentationMsgTypeV1,
			ID:                   msg.ID,
			Thread:               codec.Thread(msg),
			Comment:              msg.Comment,
			PresentationProposal: &preview,
		})
	case exchange.KindRequest:
		_, atts := codec.Tag(indy.ProofReqFormat, requestAttachPrefix, codec.Select(msg, indy.ProofReqFormat))

		return codec.Map(&RequestPresentationV1{
			Type:                       RequestPresentationMsgTypeV1,
			ID:                         msg.ID,
			Thread:                     codec.Thread(msg),
			Comment:                    msg.Comment,
			RequestPresentationsAttach: atts,
		})
	case exchange.KindFinal:
		_, atts := codec.Tag(indy.ProofFormat, presentationAttachPrefix, codec.Select(msg, indy.ProofFormat))

		return codec.Map(&PresentationV1{
			Type:                PresentationMsgTypeV1,
			ID:                  msg.ID,
			Thread:              codec.Thread(msg),
			Comment:             msg.Comment,
			PresentationsAttach: atts,
		})
	case exchange.KindAck:
		return codec.Ack(AckMsgTypeV1, msg)
	case exchange.KindProblemReport:
		return codec.ProblemReport(ProblemReportMsgTypeV1, msg)
	default:
		return nil, fmt.Errorf("present-proof 1.0: cannot encode %q", msg.Kind)
	}
}

// codecV2 handles present-proof 2.0.
type codecV2 struct{}

func (codecV2) Major() int { return 2 } // nolint: gomnd

func (codecV2) Fixed() string { return "" }

func (codecV2) Decode(raw service.DIDCommMsgMap) (*exchange.Message, error) {
	msg, err := codec.Header(raw, exchange.PresentProof, 2, names) // nolint: gomnd
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
		var m ProposePresentationV2

		if err := codec.Body(raw, "propose-presentation", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "propose-presentation", m.Formats, m.ProposalsAttach
		msg.Comment = m.Comment
	case exchange.KindRequest:
		var m RequestPresentationV2

		if err := codec.Body(raw, "request-presentation", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "request-presentation", m.Formats, m.RequestPresentationsAttach
		msg.Comment = m.Comment
		msg.WillConfirm = m.WillConfirm
	case exchange.KindFinal:
		var m PresentationV2

		if err := codec.Body(raw, "presentation", &m); err != nil {
			return nil, err
		}

		name, formats, atts = "presentation", m.Formats, m.PresentationsAttach
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
		return codec.Map(&ProposePresentationV2{
			Type:            ProposePresentationMsgTypeV2,
			ID:              msg.ID,
			Thread:          thread,
			Comment:         msg.Comment,
			Formats:         msg.Formats,
			ProposalsAttach: msg.Attachments,
		})
	case exchange.KindRequest:
		return codec.Map(&RequestPresentationV2{
			Type:                       RequestPresentationMsgTypeV2,
			ID:                         msg.ID,
			Thread:                     thread,
			Comment:                    msg.Comment,
			WillConfirm:                msg.WillConfirm,
			Formats:                    msg.Formats,
			RequestPresentationsAttach: msg.Attachments,
		})
	case exchange.KindFinal:
		return codec.Map(&PresentationV2{
			Type:                PresentationMsgTypeV2,
			ID:                  msg.ID,
			Thread:              thread,
			Comment:             msg.Comment,
			Formats:             msg.Formats,
			PresentationsAttach: msg.Attachments,
		})
	case exchange.KindAck:
		return codec.Ack(AckMsgTypeV2, msg)
	case exchange.KindProblemReport:
		return codec.ProblemReport(ProblemReportMsgTypeV2, msg)
	default:
		return nil, fmt.Errorf("present-proof 2.0: cannot encode %q", msg.Kind)
	}
}
