/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	mocks "github.com/hyperledger/aries-exchange-go/pkg/internal/gomocks/didcomm/protocol/exchange/format"
)

// newService returns a mock service named name that uses the format id name@<stage> at every stage.
func newService(ctrl *gomock.Controller, name string) *mocks.MockService {
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Name().Return(name).AnyTimes()
	svc.EXPECT().FormatID(gomock.Any()).DoAndReturn(func(stage format.Stage) string {
		return name + "@" + string(stage)
	}).AnyTimes()

	return svc
}

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a, b := newService(ctrl, "A"), newService(ctrl, "B")

	registry, err := format.NewRegistry(a, b)
	require.NoError(t, err)

	svc, ok := registry.Get("A")
	require.True(t, ok)
	require.Equal(t, "A", svc.Name())

	svc, ok = registry.ByFormatID("B@offer")
	require.True(t, ok)
	require.Equal(t, "B", svc.Name())

	_, ok = registry.ByFormatID("C@offer")
	require.False(t, ok)

	require.Equal(t, []string{"A@final", "B@final"}, registry.Supported(format.StageFinal))
	require.Len(t, registry.Services(), 2)

	t.Run("duplicate name", func(t *testing.T) {
		err := registry.Register(newService(ctrl, "A"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})

	t.Run("duplicate format id", func(t *testing.T) {
		clash := mocks.NewMockService(ctrl)
		clash.EXPECT().Name().Return("clash").AnyTimes()
		clash.EXPECT().FormatID(gomock.Any()).Return("A@offer").AnyTimes()

		_, err := format.NewRegistry(a, clash)
		require.Error(t, err)
	})
}

func TestNegotiator_Intersect(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry, err := format.NewRegistry(newService(ctrl, "B"), newService(ctrl, "C"))
	require.NoError(t, err)

	negotiator := format.NewNegotiator(registry)

	t.Run("common subset", func(t *testing.T) {
		common, err := negotiator.Intersect(format.StageOffer, []string{"A@offer", "B@offer"})
		require.NoError(t, err)
		require.Equal(t, []string{"B@offer"}, common)
	})

	t.Run("all common formats are returned", func(t *testing.T) {
		common, err := negotiator.Intersect(format.StageOffer, []string{"C@offer", "B@offer", "C@offer"})
		require.NoError(t, err)
		require.Equal(t, []string{"C@offer", "B@offer"}, common)
	})

	t.Run("no common format", func(t *testing.T) {
		_, err := negotiator.Intersect(format.StageOffer, []string{"A@offer"})

		var negotiationErr *exchange.FormatNegotiationError
		require.True(t, errors.As(err, &negotiationErr))
		require.Equal(t, []string{"A@offer"}, negotiationErr.Remote)
		require.Equal(t, []string{"B@offer", "C@offer"}, negotiationErr.Local)
	})

	t.Run("stage mismatch", func(t *testing.T) {
		_, err := negotiator.Intersect(format.StageRequest, []string{"B@offer"})
		require.Error(t, err)
	})
}

func TestNegotiator_Negotiate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry, err := format.NewRegistry(newService(ctrl, "A"), newService(ctrl, "B"))
	require.NoError(t, err)

	negotiator := format.NewNegotiator(registry)

	msg := &exchange.Message{
		Formats: []decorator.Format{
			{AttachID: "1", Format: "A@proposal"},
			{AttachID: "2", Format: "B@proposal"},
		},
		Attachments: []decorator.Attachment{{ID: "1"}, {ID: "2"}},
	}

	bindings, err := negotiator.Negotiate(format.StageProposal, msg)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	require.Equal(t, "A", bindings[0].Service.Name())
	require.Equal(t, "2", bindings[1].Attachment.ID)

	t.Run("declared format without attachment", func(t *testing.T) {
		broken := &exchange.Message{Formats: []decorator.Format{{AttachID: "x", Format: "A@proposal"}}}

		_, err := negotiator.Negotiate(format.StageProposal, broken)

		var negotiationErr *exchange.FormatNegotiationError
		require.True(t, errors.As(err, &negotiationErr))
		require.Contains(t, negotiationErr.Reason, "no attachment")
	})

	t.Run("fixed", func(t *testing.T) {
		bindings, err := negotiator.Fixed(format.StageProposal, "B", msg)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		require.Equal(t, "B@proposal", bindings[0].FormatID)

		_, err = negotiator.Fixed(format.StageOffer, "B", msg)
		require.Error(t, err)

		_, err = negotiator.Fixed(format.StageProposal, "Z", msg)
		require.Error(t, err)
	})

	t.Run("local services", func(t *testing.T) {
		services, err := negotiator.Services(format.StageOffer, nil)
		require.NoError(t, err)
		require.Len(t, services, 2)

		services, err = negotiator.Services(format.StageOffer, []string{"B"})
		require.NoError(t, err)
		require.Len(t, services, 1)

		_, err = negotiator.Services(format.StageOffer, []string{"Z"})
		require.Error(t, err)
	})
}

func TestCapability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockService(ctrl)
	att := &decorator.Attachment{ID: "1"}
	payload := format.Payload{"k": "v"}

	for _, stage := range []format.Stage{format.StageProposal, format.StageOffer, format.StageRequest, format.StageFinal} {
		svc.EXPECT().Validate(stage, att).Return(payload, nil)
		svc.EXPECT().Build(stage, payload).Return(att, nil)
	}

	c := format.Of(svc)

	for _, validate := range []func(*decorator.Attachment) (format.Payload, error){
		c.ValidateProposal, c.ValidateOffer, c.ValidateRequest, c.ValidateFinal,
	} {
		p, err := validate(att)
		require.NoError(t, err)
		require.Equal(t, payload, p)
	}

	for _, build := range []func(format.Payload) (*decorator.Attachment, error){
		c.BuildProposal, c.BuildOffer, c.BuildRequest, c.BuildFinal,
	} {
		a, err := build(payload)
		require.NoError(t, err)
		require.Equal(t, att, a)
	}
}

func TestStageOf(t *testing.T) {
	stage, ok := format.StageOf(exchange.KindFinal)
	require.True(t, ok)
	require.Equal(t, format.StageFinal, stage)

	_, ok = format.StageOf(exchange.KindAck)
	require.False(t, ok)
}

func TestNewNonce(t *testing.T) {
	seen := map[string]struct{}{}

	for i := 0; i < 100; i++ {
		nonce, err := format.NewNonce()
		require.NoError(t, err)

		n, ok := new(big.Int).SetString(nonce, 10)
		require.True(t, ok)
		require.True(t, n.BitLen() <= 80)

		_, dup := seen[nonce]
		require.False(t, dup)
		seen[nonce] = struct{}{}
	}
}

func TestCarryForward(t *testing.T) {
	from := format.Payload{
		"name":                 "proof-request",
		"requested_attributes": map[string]interface{}{"attr1": map[string]interface{}{"name": "name"}},
	}

	out, err := format.CarryForward(from, format.Payload{"nonce": "123", "name": "renamed"})
	require.NoError(t, err)
	require.Equal(t, "renamed", out["name"])
	require.Equal(t, "123", out["nonce"])
	require.Equal(t, from["requested_attributes"], out["requested_attributes"])

	// deep copy
	out["requested_attributes"].(map[string]interface{})["attr2"] = "x"
	require.Len(t, from["requested_attributes"], 1)

	out, err = format.CarryForward(nil, nil)
	require.NoError(t, err)
	require.Equal(t, format.Payload{}, out)

	_, err = format.CarryForward(format.Payload{"bad": make(chan int)}, nil)
	require.Error(t, err)
}

func TestDecodeAndToPayload(t *testing.T) {
	type offer struct {
		CredDefID string `json:"cred_def_id"`
		Count     int    `json:"count,omitempty"`
	}

	p, err := format.ToPayload(offer{CredDefID: "cd", Count: 2})
	require.NoError(t, err)
	require.Equal(t, "cd", p["cred_def_id"])

	var decoded offer
	require.NoError(t, format.Decode(p, &decoded))
	require.Equal(t, offer{CredDefID: "cd", Count: 2}, decoded)

	require.Error(t, format.Decode(format.Payload{"cred_def_id": 5}, &decoded))
}

func TestReadAttachment(t *testing.T) {
	att := format.NewAttachment(format.Payload{"a": "b"})
	require.NotEmpty(t, att.ID)
	require.Equal(t, format.MediaTypeJSON, att.MimeType)

	p, err := format.ReadAttachment(att)
	require.NoError(t, err)
	require.Equal(t, "b", p["a"])

	_, err = format.ReadAttachment(&decorator.Attachment{ID: "empty"})

	var validationErr *exchange.ValidationError
	require.True(t, errors.As(err, &validationErr))

	_, err = format.ReadAttachment(&decorator.Attachment{Data: decorator.AttachmentData{JSON: []string{"x"}}})
	require.True(t, errors.As(err, &validationErr))
}

func TestSchemaValidator(t *testing.T) {
	v, err := format.NewSchemaValidator(map[format.Stage]string{
		format.StageOffer: `{"type":"object","required":["cred_def_id"],"properties":{"cred_def_id":{"type":"string"}}}`,
	})
	require.NoError(t, err)

	require.NoError(t, v.Validate(format.StageOffer, format.Payload{"cred_def_id": "x"}))
	require.NoError(t, v.Validate(format.StageFinal, format.Payload{}))

	err = v.Validate(format.StageOffer, format.Payload{"cred_def_id": 1})

	var validationErr *exchange.ValidationError
	require.True(t, errors.As(err, &validationErr))

	_, err = format.NewSchemaValidator(map[format.Stage]string{format.StageOffer: `{"type": 5}`})
	require.Error(t, err)

	require.Panics(t, func() {
		format.MustSchemaValidator(map[format.Stage]string{format.StageOffer: `not json`})
	})
}

func TestContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := newService(ctrl, "A")
	att := format.NewAttachment(format.Payload{"k": "v"})

	a.EXPECT().Validate(format.StageOffer, att).Return(format.Payload{"k": "v"}, nil)

	payloads, err := format.Payloads(format.StageOffer, []format.Binding{{FormatID: "A@offer", Service: a, Attachment: att}})
	require.NoError(t, err)

	msg := &exchange.Message{
		Preview: &exchange.Preview{Attributes: []exchange.PreviewAttribute{{Name: "name", Value: "Alice"}}},
	}

	content := format.Content(msg, payloads)
	require.Equal(t, []string{"A"}, content.Formats)
	require.Equal(t, map[string]interface{}{"k": "v"}, content.Payload["A"])
	require.Equal(t, msg.Preview, content.Preview)

	t.Run("validation failure", func(t *testing.T) {
		a.EXPECT().Validate(format.StageOffer, att).Return(nil, exchange.NewValidationError(nil, "bad"))

		_, err := format.Payloads(format.StageOffer, []format.Binding{{Service: a, Attachment: att}})
		require.Error(t, err)
	})

	t.Run("read stored message", func(t *testing.T) {
		registry, err := format.NewRegistry(a)
		require.NoError(t, err)

		stored := &exchange.Message{
			Formats: []decorator.Format{
				{AttachID: att.ID, Format: "A@offer"},
				{AttachID: "x", Format: "Z@offer"},
			},
			Attachments: []decorator.Attachment{*att},
		}

		payloads := format.Read(registry, stored)
		require.Equal(t, format.Payload{"k": "v"}, payloads["A"])
		require.Len(t, payloads, 1)
	})
}
