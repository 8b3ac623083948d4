/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
)

const (
	operationID    = "/exchange"
	inbound        = operationID + "/inbound"
	records        = operationID + "/records"
	record         = records + "/{id}"
	recordMessages = record + "/messages"
	acceptRecord   = record + "/accept"
	declineRecord  = record + "/decline"
	autoAccept     = record + "/auto-accept"
	metricsPath    = "/metrics"
)

// Option configures an Operation.
type Option func(o *Operation)

// WithMetrics exposes the metrics of gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(o *Operation) {
		o.gatherer = gatherer
	}
}

// Operation is controller REST service controller for negotiation records.
type Operation struct {
	command  *exchangecmd.Command
	gatherer prometheus.Gatherer
	handlers []rest.Handler
}

// New returns new exchange rest client instance. State changes of d are published on notifier.
func New(d *dispatcher.Dispatcher, notifier command.Notifier, opts ...Option) (*Operation, error) {
	cmd, err := exchangecmd.New(d, notifier)
	if err != nil {
		return nil, fmt.Errorf("exchange command : %w", err)
	}

	o := &Operation{command: cmd}

	for _, opt := range opts {
		opt(o)
	}

	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (c *Operation) GetRESTHandlers() []rest.Handler {
	return c.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(inbound, http.MethodPost, c.Inbound),
		cmdutil.NewHTTPHandler(records, http.MethodGet, c.Records),
		cmdutil.NewHTTPHandler(record, http.MethodGet, c.Record),
		cmdutil.NewHTTPHandler(recordMessages, http.MethodGet, c.Messages),
		cmdutil.NewHTTPHandler(acceptRecord, http.MethodPost, c.Accept),
		cmdutil.NewHTTPHandler(declineRecord, http.MethodPost, c.Decline),
		cmdutil.NewHTTPHandler(autoAccept, http.MethodPost, c.SetAutoAccept),
	}

	if c.gatherer != nil {
		c.handlers = append(c.handlers, cmdutil.NewHTTPHandler(metricsPath, http.MethodGet,
			promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}).ServeHTTP))
	}
}

// Inbound swagger:route POST /exchange/inbound exchange exchangeInbound
//
// Hands a message received from a peer to the engine.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) Inbound(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.Inbound, rw, req.Body)
}

// Records swagger:route GET /exchange/records exchange exchangeRecords
//
// Returns the records of every negotiation.
//
// Responses:
//    default: genericError
//        200: exchangeRecordsResponse
func (c *Operation) Records(rw http.ResponseWriter, _ *http.Request) {
	rest.Execute(c.command.Records, rw, nil)
}

// Record swagger:route GET /exchange/records/{id} exchange exchangeRecord
//
// Returns one record.
//
// Responses:
//    default: genericError
//        200: exchangeRecordResponse
func (c *Operation) Record(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.Record, rw, bytes.NewBufferString(fmt.Sprintf(`{
		"record_id":%q
	}`, mux.Vars(req)["id"])))
}

// Messages swagger:route GET /exchange/records/{id}/messages exchange exchangeMessages
//
// Returns the messages stored for a record.
//
// Responses:
//    default: genericError
//        200: exchangeMessagesResponse
func (c *Operation) Messages(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.Messages, rw, bytes.NewBufferString(fmt.Sprintf(`{
		"record_id":%q
	}`, mux.Vars(req)["id"])))
}

// Accept swagger:route POST /exchange/records/{id}/accept exchange exchangeAccept
//
// Answers the message the record waits on.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) Accept(rw http.ResponseWriter, req *http.Request) {
	body, err := rest.WithPathValue(req, "record_id", mux.Vars(req)["id"])
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, exchangecmd.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(c.command.Accept, rw, body)
}

// Decline swagger:route POST /exchange/records/{id}/decline exchange exchangeDecline
//
// Refuses the message the record waits on, or abandons the negotiation.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) Decline(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.Decline, rw, bytes.NewBufferString(fmt.Sprintf(`{
		"record_id":%q,
		"reason":%q
	}`, mux.Vars(req)["id"], req.URL.Query().Get("reason"))))
}

// SetAutoAccept swagger:route POST /exchange/records/{id}/auto-accept exchange exchangeSetAutoAccept
//
// Overrides the auto-accept policy of a record.
//
// Responses:
//    default: genericError
//        200: exchangeResultResponse
func (c *Operation) SetAutoAccept(rw http.ResponseWriter, req *http.Request) {
	body, err := rest.WithPathValue(req, "record_id", mux.Vars(req)["id"])
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, exchangecmd.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(c.command.SetAutoAccept, rw, body)
}
