/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/dif"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
)

func requireValidationError(t *testing.T, err error) {
	t.Helper()

	var validationErr *exchange.ValidationError

	require.True(t, errors.As(err, &validationErr), "expected a validation error, got %v", err)
}

func TestCodecV1(t *testing.T) {
	c := codecV1{}

	require.Equal(t, 1, c.Major())
	require.Equal(t, indy.Name, c.Fixed())

	t.Run("proposal synthesizes the proof request", func(t *testing.T) {
		msg, err := c.Decode(service.DIDCommMsgMap{
			"@type": ProposePresentationMsgTypeV1,
			"@id":   "proposal-1",
			"presentation_proposal": map[string]interface{}{
				"attributes": []interface{}{
					map[string]interface{}{"name": "name", "cred_def_id": "def-1", "value": "Alice"},
				},
				"predicates": []interface{}{
					map[string]interface{}{"name": "age", "predicate": ">=", "threshold": 18},
				},
			},
		})
		require.NoError(t, err)
		require.Equal(t, exchange.KindProposal, msg.Kind)
		require.Equal(t, []string{indy.ProofReqFormat}, msg.FormatIDs())

		att, ok := msg.Attachment(indy.ProofReqFormat)
		require.True(t, ok)
		require.Equal(t, "libindy-proof-proposal-0", att.ID)

		p, err := format.ReadAttachment(att)
		require.NoError(t, err)

		var req indy.ProofRequest
		require.NoError(t, format.Decode(p, &req))
		require.Equal(t, "name", req.RequestedAttributes["attribute_0"].Name)
		require.Equal(t, ">=", req.RequestedPredicates["predicate_0"].PType)
		require.Equal(t, 18, req.RequestedPredicates["predicate_0"].PValue)
		require.Empty(t, req.Nonce)

		value, ok := msg.Preview.Value("name")
		require.True(t, ok)
		require.Equal(t, "Alice", value)
	})

	t.Run("proposal without preview", func(t *testing.T) {
		_, err := c.Decode(service.DIDCommMsgMap{"@type": ProposePresentationMsgTypeV1, "@id": "proposal-1"})
		requireValidationError(t, err)

		_, err = c.Encode(&exchange.Message{ID: "proposal-1", Kind: exchange.KindProposal})
		requireValidationError(t, err)
	})

	t.Run("proposal encodes only its preview", func(t *testing.T) {
		raw, err := c.Encode(&exchange.Message{
			ID:       "proposal-1",
			ThreadID: "proposal-1",
			Kind:     exchange.KindProposal,
			Preview:  &exchange.Preview{Attributes: []exchange.PreviewAttribute{{Name: "name"}}},
		})
		require.NoError(t, err)
		require.Equal(t, ProposePresentationMsgTypeV1, raw.Type())
		require.NotContains(t, raw, "~thread")

		preview, ok := raw["presentation_proposal"].(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, PresentationPreviewMsgTypeV1, preview["@type"])
	})

	t.Run("request and presentation attachments are renamed", func(t *testing.T) {
		for kind, formatID := range map[exchange.MessageKind]string{
			exchange.KindRequest: indy.ProofReqFormat,
			exchange.KindFinal:   indy.ProofFormat,
		} {
			att := format.NewAttachment(format.Payload{"requested_attributes": map[string]interface{}{}})

			raw, err := c.Encode(&exchange.Message{
				ID:          "msg-1",
				ThreadID:    "thread-1",
				Kind:        kind,
				Formats:     []decorator.Format{{AttachID: att.ID, Format: formatID}},
				Attachments: []decorator.Attachment{*att},
			})
			require.NoError(t, err)

			msg, err := c.Decode(raw)
			require.NoError(t, err)
			require.Equal(t, kind, msg.Kind)
			require.Equal(t, "thread-1", msg.ThreadID)

			decoded, ok := msg.Attachment(formatID)
			require.True(t, ok)
			require.Contains(t, decoded.ID, "libindy-")
		}
	})

	t.Run("request without attachments", func(t *testing.T) {
		_, err := c.Decode(service.DIDCommMsgMap{"@type": RequestPresentationMsgTypeV1, "@id": "request-1"})
		requireValidationError(t, err)
	})

	t.Run("ack and problem report", func(t *testing.T) {
		raw, err := c.Encode(&exchange.Message{ID: "ack-1", ThreadID: "thread-1", Kind: exchange.KindAck})
		require.NoError(t, err)
		require.Equal(t, AckMsgTypeV1, raw.Type())

		msg, err := c.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, exchange.KindAck, msg.Kind)

		raw, err = c.Encode(&exchange.Message{
			ID: "report-1", ThreadID: "thread-1", Kind: exchange.KindProblemReport,
			ProblemCode: exchange.CodeRejected, Comment: "no",
		})
		require.NoError(t, err)

		msg, err = c.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, exchange.CodeRejected, msg.ProblemCode)
		require.Equal(t, "no", msg.Comment)
	})

	t.Run("version mismatch", func(t *testing.T) {
		_, err := c.Decode(service.DIDCommMsgMap{"@type": RequestPresentationMsgTypeV2, "@id": "request-1"})
		requireValidationError(t, err)
	})
}

func TestCodecV2(t *testing.T) {
	c := codecV2{}

	require.Equal(t, 2, c.Major())
	require.Empty(t, c.Fixed())

	definitions := format.NewAttachment(format.Payload{
		"input_descriptors": []interface{}{map[string]interface{}{"id": "citizenship_input"}},
	})

	t.Run("request round trip keeps will_confirm", func(t *testing.T) {
		raw, err := c.Encode(&exchange.Message{
			ID:          "request-1",
			ThreadID:    "request-1",
			Kind:        exchange.KindRequest,
			WillConfirm: true,
			Formats:     []decorator.Format{{AttachID: definitions.ID, Format: dif.DefinitionsFormat}},
			Attachments: []decorator.Attachment{*definitions},
		})
		require.NoError(t, err)
		require.Equal(t, RequestPresentationMsgTypeV2, raw.Type())
		require.Equal(t, true, raw["will_confirm"])

		msg, err := c.Decode(raw)
		require.NoError(t, err)
		require.True(t, msg.WillConfirm)
		require.Equal(t, []string{dif.DefinitionsFormat}, msg.FormatIDs())

		att, ok := msg.Attachment(dif.DefinitionsFormat)
		require.True(t, ok)
		require.Equal(t, definitions.ID, att.ID)
	})

	t.Run("decode proposal", func(t *testing.T) {
		msg, err := c.Decode(service.DIDCommMsgMap{
			"@type":   ProposePresentationMsgTypeV2,
			"@id":     "proposal-1",
			"comment": "here",
			"formats": []interface{}{
				map[string]interface{}{"attach_id": "a", "format": dif.DefinitionsFormat},
			},
			"proposals~attach": []interface{}{
				map[string]interface{}{"@id": "a", "data": map[string]interface{}{"json": map[string]interface{}{}}},
			},
		})
		require.NoError(t, err)
		require.Equal(t, exchange.KindProposal, msg.Kind)
		require.Equal(t, "here", msg.Comment)
		require.False(t, msg.WillConfirm)
	})

	t.Run("format without attachment", func(t *testing.T) {
		_, err := c.Decode(service.DIDCommMsgMap{
			"@type": PresentationMsgTypeV2,
			"@id":   "presentation-1",
			"formats": []interface{}{
				map[string]interface{}{"attach_id": "missing", "format": dif.SubmissionFormat},
			},
		})
		requireValidationError(t, err)
	})

	t.Run("problem report without code", func(t *testing.T) {
		_, err := c.Decode(service.DIDCommMsgMap{
			"@type":   ProblemReportMsgTypeV2,
			"@id":     "report-1",
			"~thread": map[string]interface{}{"thid": "thread-1"},
		})
		requireValidationError(t, err)
	})

	t.Run("encode every kind", func(t *testing.T) {
		for kind, typ := range map[exchange.MessageKind]string{
			exchange.KindProposal:      ProposePresentationMsgTypeV2,
			exchange.KindRequest:       RequestPresentationMsgTypeV2,
			exchange.KindFinal:         PresentationMsgTypeV2,
			exchange.KindAck:           AckMsgTypeV2,
			exchange.KindProblemReport: ProblemReportMsgTypeV2,
		} {
			raw, err := c.Encode(&exchange.Message{
				ID: "msg-1", ThreadID: "thread-1", Kind: kind, ProblemCode: exchange.CodeInternal,
			})
			require.NoError(t, err)
			require.Equal(t, typ, raw.Type())
		}

		_, err := c.Encode(&exchange.Message{ID: "msg-1", Kind: exchange.KindOffer})
		require.Error(t, err)
	})
}
