/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	presentproofcmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
)

const (
	operationID               = "/presentproof"
	sendRequestPresentation   = operationID + "/send-request-presentation"
	sendProposePresentation   = operationID + "/send-propose-presentation"
	acceptRequestPresentation = operationID + "/{id}/accept-request-presentation"
	acceptProposePresentation = operationID + "/{id}/accept-propose-presentation"
	acceptPresentation        = operationID + "/{id}/accept-presentation"
)

// Operation is controller REST service controller for present proof.
type Operation struct {
	command  *presentproofcmd.Command
	handlers []rest.Handler
}

// New returns new present proof rest client protocol instance.
func New(d *dispatcher.Dispatcher) (*Operation, error) {
	cmd, err := presentproofcmd.New(d)
	if err != nil {
		return nil, fmt.Errorf("present proof command : %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this protocol service.
func (c *Operation) GetRESTHandlers() []rest.Handler {
	return c.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(sendRequestPresentation, http.MethodPost, c.SendRequestPresentation),
		cmdutil.NewHTTPHandler(sendProposePresentation, http.MethodPost, c.SendProposePresentation),
		cmdutil.NewHTTPHandler(acceptRequestPresentation, http.MethodPost, c.AcceptRequestPresentation),
		cmdutil.NewHTTPHandler(acceptProposePresentation, http.MethodPost, c.AcceptProposePresentation),
		cmdutil.NewHTTPHandler(acceptPresentation, http.MethodPost, c.AcceptPresentation),
	}
}

// SendRequestPresentation swagger:route POST /presentproof/send-request-presentation present-proof presentProofSendRequestPresentation
//
// Sends a request presentation.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SendRequestPresentation(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendRequestPresentation, rw, req.Body)
}

// SendProposePresentation swagger:route POST /presentproof/send-propose-presentation present-proof presentProofSendProposePresentation
//
// Sends a propose presentation.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SendProposePresentation(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendProposePresentation, rw, req.Body)
}

// AcceptRequestPresentation swagger:route POST /presentproof/{id}/accept-request-presentation present-proof presentProofAcceptRequestPresentation
//
// Accepts a request presentation by presenting.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptRequestPresentation(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptRequestPresentation, rw, req)
}

// AcceptProposePresentation swagger:route POST /presentproof/{id}/accept-propose-presentation present-proof presentProofAcceptProposePresentation
//
// Accepts a propose presentation by requesting it.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptProposePresentation(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptProposePresentation, rw, req)
}

// AcceptPresentation swagger:route POST /presentproof/{id}/accept-presentation present-proof presentProofAcceptPresentation
//
// Accepts a presentation by acknowledging it.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptPresentation(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptPresentation, rw, req)
}

func (c *Operation) execute(exec command.Exec, rw http.ResponseWriter, req *http.Request) {
	body, err := rest.WithPathValue(req, "record_id", mux.Vars(req)["id"])
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, presentproofcmd.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(exec, rw, body)
}
