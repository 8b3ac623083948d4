/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command/connection"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	connectionstore "github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

func newOperation(t *testing.T) *Operation {
	t.Helper()

	recorder, err := connectionstore.NewRecorder(mem.NewProvider())
	require.NoError(t, err)

	op, err := New(recorder)
	require.NoError(t, err)

	return op
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	require.Len(t, newOperation(t).GetRESTHandlers(), 4)
}

func TestOperation(t *testing.T) {
	op := newOperation(t)

	buf, code := send(t, op, http.MethodPost, OperationID, OperationID,
		`{"connection_id":"alice-to-bob","state":"completed"}`)
	require.Equal(t, http.StatusOK, code, buf.String())

	buf, code = send(t, op, http.MethodGet, OperationID, OperationID, "")
	require.Equal(t, http.StatusOK, code)

	var all connection.QueryConnectionsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &all))
	require.Len(t, all.Results, 1)

	buf, code = send(t, op, http.MethodGet, ConnectionPath, OperationID+"/alice-to-bob", "")
	require.Equal(t, http.StatusOK, code)

	var one connection.ConnectionResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &one))
	require.Equal(t, "completed", one.Result.State)

	_, code = send(t, op, http.MethodDelete, ConnectionPath, OperationID+"/alice-to-bob", "")
	require.Equal(t, http.StatusOK, code)

	buf, code = send(t, op, http.MethodGet, ConnectionPath, OperationID+"/alice-to-bob", "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, buf.String(), "not found")

	_, code = send(t, op, http.MethodPost, OperationID, OperationID, `{}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestGetIDFromRequest(t *testing.T) {
	rw := httptest.NewRecorder()

	_, found := getIDFromRequest(rw, httptest.NewRequest(http.MethodGet, OperationID, nil))
	require.False(t, found)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func send(t *testing.T, op *Operation, method, lookup, path, body string) (*bytes.Buffer, int) {
	t.Helper()

	buf, code, err := sendRequestToHandler(handlerLookup(t, op, method, lookup), strings.NewReader(body), path)
	require.NoError(t, err)

	return buf, code
}

func handlerLookup(t *testing.T, op *Operation, method, lookup string) rest.Handler {
	t.Helper()

	for _, h := range op.GetRESTHandlers() {
		if h.Path() == lookup && h.Method() == method {
			return h
		}
	}

	require.Fail(t, "unable to find handler")

	return nil
}

// sendRequestToHandler reads response from given http handle func.
func sendRequestToHandler(handler rest.Handler, requestBody io.Reader, path string) (*bytes.Buffer, int, error) {
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
