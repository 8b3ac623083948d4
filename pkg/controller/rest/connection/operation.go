/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command/connection"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	connectionstore "github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

// constants for connection management endpoints.
const (
	OperationID    = "/connections"
	ConnectionPath = OperationID + "/{id}"
)

// Operation is the REST controller for connection management.
type Operation struct {
	command  *connection.Command
	handlers []rest.Handler
}

// New returns new connection management rest client protocol instance.
func New(recorder *connectionstore.Recorder, opts ...connection.Option) (*Operation, error) {
	cmd, err := connection.New(recorder, opts...)
	if err != nil {
		return nil, err
	}

	op := &Operation{
		command: cmd,
	}

	op.registerHandler()

	return op, nil
}

// GetRESTHandlers get all controller API handlers available for this service.
func (c *Operation) GetRESTHandlers() []rest.Handler {
	return c.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(OperationID, http.MethodPost, c.SaveConnection),
		cmdutil.NewHTTPHandler(OperationID, http.MethodGet, c.QueryConnections),
		cmdutil.NewHTTPHandler(ConnectionPath, http.MethodGet, c.GetConnection),
		cmdutil.NewHTTPHandler(ConnectionPath, http.MethodDelete, c.RemoveConnection),
	}
}

// SaveConnection swagger:route POST /connections connections saveConnection
//
// Records a connection negotiations may run over.
//
// Responses:
//    default: genericError
//        200: connectionResponse
func (c *Operation) SaveConnection(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SaveConnection, rw, req.Body)
}

// QueryConnections swagger:route GET /connections connections queryConnections
//
// Returns every recorded connection.
//
// Responses:
//    default: genericError
//        200: queryConnectionsResponse
func (c *Operation) QueryConnections(rw http.ResponseWriter, _ *http.Request) {
	rest.Execute(c.command.QueryConnections, rw, nil)
}

// GetConnection swagger:route GET /connections/{id} connections getConnection
//
// Returns one connection.
//
// Responses:
//    default: genericError
//        200: connectionResponse
func (c *Operation) GetConnection(rw http.ResponseWriter, req *http.Request) {
	id, found := getIDFromRequest(rw, req)
	if !found {
		return
	}

	rest.Execute(c.command.GetConnection, rw, bytes.NewBufferString(fmt.Sprintf(`{"id":%q}`, id)))
}

// RemoveConnection swagger:route DELETE /connections/{id} connections removeConnection
//
// Removes a connection.
//
// Responses:
//    default: genericError
func (c *Operation) RemoveConnection(rw http.ResponseWriter, req *http.Request) {
	id, found := getIDFromRequest(rw, req)
	if !found {
		return
	}

	rest.Execute(c.command.RemoveConnection, rw, bytes.NewBufferString(fmt.Sprintf(`{"id":%q}`, id)))
}

// getIDFromRequest returns ID from request.
func getIDFromRequest(rw http.ResponseWriter, req *http.Request) (string, bool) {
	id := mux.Vars(req)["id"]
	if id == "" {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, connection.InvalidRequestErrorCode,
			fmt.Errorf("empty connection ID"))
		return "", false
	}

	return id, true
}
