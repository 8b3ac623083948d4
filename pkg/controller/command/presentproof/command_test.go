/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/dif"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/exchangetest"
)

func execute(t *testing.T, exec command.Exec, args interface{}) *exchangecmd.ResultResponse {
	t.Helper()

	payload, err := json.Marshal(args)
	require.NoError(t, err)

	var rw bytes.Buffer

	cmdErr := exec(&rw, bytes.NewReader(payload))
	require.Nil(t, cmdErr)

	var resp exchangecmd.ResultResponse
	require.NoError(t, json.Unmarshal(rw.Bytes(), &resp))

	return &resp
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	cmd, err := New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever))
	require.NoError(t, err)
	require.Len(t, cmd.GetHandlers(), 5)
}

func TestCommand_ManualPresentation(t *testing.T) {
	proverEngine := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)
	verifierEngine := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)

	prover, err := New(proverEngine)
	require.NoError(t, err)

	verifier, err := New(verifierEngine)
	require.NoError(t, err)

	proposal := execute(t, prover.SendProposePresentation, SendProposePresentationArgs{Params: protocol.Params{
		ConnectionID: exchangetest.AliceConn,
		Formats:      []string{dif.Name},
		Payloads: map[string]format.Payload{dif.Name: {
			"input_descriptors": []interface{}{map[string]interface{}{"id": "citizenship_input"}},
		}},
	}})
	require.Equal(t, exchange.StateProposalSent, proposal.Record.State)
	require.Equal(t, protocol.ProposePresentationMsgTypeV2, proposal.Reply.Type())

	received := exchangetest.Deliver(t, verifierEngine, proposal.Reply, exchangetest.BobConn)
	require.Equal(t, exchange.StateProposalReceived, received.Record.State)

	request := execute(t, verifier.AcceptProposePresentation,
		AcceptArgs{RecordID: received.Record.ID, WillConfirm: true})
	require.Equal(t, exchange.StateRequestSent, request.Record.State)
	require.Equal(t, true, request.Reply["will_confirm"])

	atProver := exchangetest.Deliver(t, proverEngine, request.Reply, exchangetest.AliceConn)
	require.Equal(t, exchange.StateRequestReceived, atProver.Record.State)

	presentation := execute(t, prover.AcceptRequestPresentation, AcceptArgs{RecordID: atProver.Record.ID})
	require.Equal(t, exchange.StatePresentationSent, presentation.Record.State)
	require.Equal(t, protocol.PresentationMsgTypeV2, presentation.Reply.Type())

	atVerifier := exchangetest.Deliver(t, verifierEngine, presentation.Reply, exchangetest.BobConn)
	require.Equal(t, exchange.StatePresentationReceived, atVerifier.Record.State)

	ack := execute(t, verifier.AcceptPresentation, AcceptPresentationArgs{RecordID: atVerifier.Record.ID})
	require.Equal(t, exchange.StateDone, ack.Record.State)
	require.Equal(t, protocol.AckMsgTypeV2, ack.Reply.Type())

	t.Run("accept twice", func(t *testing.T) {
		var rw bytes.Buffer

		cmdErr := verifier.AcceptPresentation(&rw,
			bytes.NewBufferString(`{"record_id":"`+atVerifier.Record.ID+`"}`))
		require.NotNil(t, cmdErr)
		require.Equal(t, AcceptPresentationErrorCode, cmdErr.Code())
		require.Equal(t, command.ValidationError, cmdErr.Type())
	})
}

func TestCommand_SendRequestPresentation(t *testing.T) {
	verifier, err := New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever))
	require.NoError(t, err)

	request := execute(t, verifier.SendRequestPresentation, SendRequestPresentationArgs{Params: protocol.Params{
		ConnectionID: exchangetest.BobConn,
		Version:      1,
		Preview:      &exchange.Preview{Attributes: []exchange.PreviewAttribute{{Name: "email"}}},
	}})
	require.Equal(t, exchange.StateRequestSent, request.Record.State)
	require.Equal(t, protocol.RequestPresentationMsgTypeV1, request.Reply.Type())
	require.Equal(t, []string{indy.ProofReqFormat}, request.Record.Formats)
}

func TestCommand_InvalidRequests(t *testing.T) {
	cmd, err := New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever))
	require.NoError(t, err)

	for _, h := range cmd.GetHandlers() {
		h := h

		t.Run(h.Method(), func(t *testing.T) {
			var rw bytes.Buffer

			cmdErr := h.Handle()(&rw, bytes.NewBufferString("{"))
			require.NotNil(t, cmdErr)
			require.Equal(t, InvalidRequestErrorCode, cmdErr.Code())

			cmdErr = h.Handle()(&rw, bytes.NewBufferString("{}"))
			require.NotNil(t, cmdErr)
			require.Equal(t, InvalidRequestErrorCode, cmdErr.Code())
			require.Equal(t, command.ValidationError, cmdErr.Type())
		})
	}

	t.Run("request without a preview on version 1", func(t *testing.T) {
		var rw bytes.Buffer

		cmdErr := cmd.SendRequestPresentation(&rw, bytes.NewBufferString(`{"connection_id":"c","version":1}`))
		require.NotNil(t, cmdErr)
		require.Equal(t, SendRequestPresentationErrorCode, cmdErr.Code())
	})
}
