/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/common/metrics"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/exchangetest"
)

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)

	op, err := New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever), nil)
	require.NoError(t, err)
	require.Len(t, op.GetRESTHandlers(), 7)

	op, err = New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever), nil,
		WithMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	require.Len(t, op.GetRESTHandlers(), 8)
}

func TestOperation(t *testing.T) {
	reg := prometheus.NewRegistry()

	issuer := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)
	holder := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever, dispatcher.WithMetrics(metrics.New(reg)))

	op, err := New(holder, nil, WithMetrics(reg))
	require.NoError(t, err)

	offer := exchangetest.Offer(t, issuer)

	payload, err := json.Marshal(exchangecmd.InboundArgs{Message: offer.Reply, ConnectionID: exchangetest.BobConn})
	require.NoError(t, err)

	buf, code, err := sendRequestToHandler(handlerLookup(t, op, inbound), bytes.NewReader(payload), inbound)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var received exchangecmd.ResultResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &received))
	require.Equal(t, exchange.StateOfferReceived, received.Record.State)

	id := received.Record.ID
	path := func(template string) string {
		return strings.Replace(template, "{id}", id, 1)
	}

	t.Run("records", func(t *testing.T) {
		buf, code, err := sendRequestToHandler(handlerLookup(t, op, records), nil, records)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, code)

		var resp exchangecmd.RecordsResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		require.Len(t, resp.Records, 1)

		buf, code, err = sendRequestToHandler(handlerLookup(t, op, record), nil, path(record))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, code)

		var one exchangecmd.RecordResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &one))
		require.Equal(t, id, one.Record.ID)

		buf, code, err = sendRequestToHandler(handlerLookup(t, op, recordMessages), nil, path(recordMessages))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, code)

		var msgs exchangecmd.MessagesResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &msgs))
		require.Len(t, msgs.Messages, 1)
	})

	t.Run("unknown record", func(t *testing.T) {
		buf, code, err := sendRequestToHandler(handlerLookup(t, op, record), nil,
			strings.Replace(record, "{id}", "unknown", 1))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, buf.String(), "not found")
	})

	t.Run("accept with a body that is not an object", func(t *testing.T) {
		buf, code, err := sendRequestToHandler(handlerLookup(t, op, acceptRecord), bytes.NewBufferString(`[1]`),
			path(acceptRecord))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, buf.String(), "not a JSON object")
	})

	buf, code, err = sendRequestToHandler(handlerLookup(t, op, acceptRecord),
		bytes.NewBufferString(`{"comment":"yes please"}`), path(acceptRecord))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var accepted exchangecmd.ResultResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &accepted))
	require.Equal(t, exchange.StateRequestSent, accepted.Record.State)
	require.Equal(t, "yes please", accepted.Reply["comment"])

	buf, code, err = sendRequestToHandler(handlerLookup(t, op, declineRecord), nil,
		path(declineRecord)+"?reason=expired")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var declined exchangecmd.ResultResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &declined))
	require.Equal(t, exchange.StateAbandoned, declined.Record.State)
	require.Equal(t, "expired", declined.Reply["description"].(map[string]interface{})["en"])

	t.Run("metrics", func(t *testing.T) {
		buf, code, err := sendRequestToHandler(handlerLookup(t, op, metricsPath), nil, metricsPath)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, buf.String(), "exchange_messages_total")
		require.Contains(t, buf.String(), "exchange_transitions_total")
	})
}

func TestOperation_SetAutoAccept(t *testing.T) {
	issuer := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)
	holder := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)

	op, err := New(holder, nil)
	require.NoError(t, err)

	offer := exchangetest.Offer(t, issuer)

	received, err := holder.HandleInbound(offer.Reply, service.NewDIDCommContext(exchangetest.BobConn, "", ""))
	require.NoError(t, err)
	require.Nil(t, received.Reply)

	path := strings.Replace(autoAccept, "{id}", received.Record.ID, 1)

	t.Run("unknown policy", func(t *testing.T) {
		buf, code, err := sendRequestToHandler(handlerLookup(t, op, autoAccept),
			bytes.NewBufferString(`{"auto_accept":"sometimes"}`), path)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, buf.String(), "invalid auto-accept policy")
	})

	buf, code, err := sendRequestToHandler(handlerLookup(t, op, autoAccept),
		bytes.NewBufferString(`{"auto_accept":"always"}`), path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	var answered exchangecmd.ResultResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &answered))
	require.Equal(t, exchange.StateRequestSent, answered.Record.State)
	require.Equal(t, exchange.AutoAcceptAlways, answered.Record.AutoAccept)
	require.NotNil(t, answered.Reply)
}

func TestOperation_InvalidInbound(t *testing.T) {
	op, err := New(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever), nil)
	require.NoError(t, err)

	buf, code, err := sendRequestToHandler(handlerLookup(t, op, inbound), bytes.NewBufferString(`{}`), inbound)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, buf.String(), "empty Message")
}

func handlerLookup(t *testing.T, op *Operation, lookup string) rest.Handler {
	t.Helper()

	handlers := op.GetRESTHandlers()
	require.NotEmpty(t, handlers)

	for _, h := range handlers {
		if h.Path() == lookup {
			return h
		}
	}

	require.Fail(t, "unable to find handler")

	return nil
}

// sendRequestToHandler reads response from given http handle func.
func sendRequestToHandler(handler rest.Handler, requestBody io.Reader, path string) (*bytes.Buffer, int, error) {
	if requestBody == nil {
		requestBody = http.NoBody
	}

	req, err := http.NewRequest(handler.Method(), path, requestBody)
	if err != nil {
		return nil, 0, err
	}

	router := mux.NewRouter()
	router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr.Body, rr.Code, nil
}
