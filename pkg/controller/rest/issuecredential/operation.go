/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	issuecredentialcmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/issuecredential"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
)

const (
	operationID      = "/issuecredential"
	sendProposal     = operationID + "/send-proposal"
	sendOffer        = operationID + "/send-offer"
	sendRequest      = operationID + "/send-request"
	acceptProposal   = operationID + "/{id}/accept-proposal"
	acceptOffer      = operationID + "/{id}/accept-offer"
	acceptRequest    = operationID + "/{id}/accept-request"
	acceptCredential = operationID + "/{id}/accept-credential"
)

// Operation is controller REST service controller for issue credential.
type Operation struct {
	command  *issuecredentialcmd.Command
	handlers []rest.Handler
}

// New returns new issue credential rest client protocol instance.
func New(d *dispatcher.Dispatcher) (*Operation, error) {
	cmd, err := issuecredentialcmd.New(d)
	if err != nil {
		return nil, fmt.Errorf("issue credential command : %w", err)
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
		cmdutil.NewHTTPHandler(sendProposal, http.MethodPost, c.SendProposal),
		cmdutil.NewHTTPHandler(sendOffer, http.MethodPost, c.SendOffer),
		cmdutil.NewHTTPHandler(sendRequest, http.MethodPost, c.SendRequest),
		cmdutil.NewHTTPHandler(acceptProposal, http.MethodPost, c.AcceptProposal),
		cmdutil.NewHTTPHandler(acceptOffer, http.MethodPost, c.AcceptOffer),
		cmdutil.NewHTTPHandler(acceptRequest, http.MethodPost, c.AcceptRequest),
		cmdutil.NewHTTPHandler(acceptCredential, http.MethodPost, c.AcceptCredential),
	}
}

// SendProposal swagger:route POST /issuecredential/send-proposal issue-credential issueCredentialSendProposal
//
// Sends a credential proposal.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SendProposal(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendProposal, rw, req.Body)
}

// SendOffer swagger:route POST /issuecredential/send-offer issue-credential issueCredentialSendOffer
//
// Sends a credential offer.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SendOffer(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendOffer, rw, req.Body)
}

// SendRequest swagger:route POST /issuecredential/send-request issue-credential issueCredentialSendRequest
//
// Sends a credential request.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SendRequest(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.SendRequest, rw, req.Body)
}

// AcceptProposal swagger:route POST /issuecredential/{id}/accept-proposal issue-credential issueCredentialAcceptProposal
//
// Accepts a proposal by offering the credential.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptProposal(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptProposal, rw, req)
}

// AcceptOffer swagger:route POST /issuecredential/{id}/accept-offer issue-credential issueCredentialAcceptOffer
//
// Accepts an offer by requesting the credential.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptOffer(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptOffer, rw, req)
}

// AcceptRequest swagger:route POST /issuecredential/{id}/accept-request issue-credential issueCredentialAcceptRequest
//
// Accepts a request by issuing the credential.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptRequest(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptRequest, rw, req)
}

// AcceptCredential swagger:route POST /issuecredential/{id}/accept-credential issue-credential issueCredentialAcceptCredential
//
// Accepts a credential by acknowledging it.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) AcceptCredential(rw http.ResponseWriter, req *http.Request) {
	c.execute(c.command.AcceptCredential, rw, req)
}

func (c *Operation) execute(exec command.Exec, rw http.ResponseWriter, req *http.Request) {
	body, err := rest.WithPathValue(req, "record_id", mux.Vars(req)["id"])
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, issuecredentialcmd.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(exec, rw, body)
}
