/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	connectioncmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/connection"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	issuecredentialcmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/issuecredential"
	presentproofcmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
	connectionrest "github.com/hyperledger/aries-exchange-go/pkg/controller/rest/connection"
	exchangerest "github.com/hyperledger/aries-exchange-go/pkg/controller/rest/exchange"
	issuecredentialrest "github.com/hyperledger/aries-exchange-go/pkg/controller/rest/issuecredential"
	presentproofrest "github.com/hyperledger/aries-exchange-go/pkg/controller/rest/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

type allOpts struct {
	webhookURLs    []string
	notifier       command.Notifier
	gatherer       prometheus.Gatherer
	connections    *connection.Recorder
	connectionOpts []connectioncmd.Option
}

const wsPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

// WithMetrics is an option exposing the metrics of gatherer over REST.
func WithMetrics(gatherer prometheus.Gatherer) Opt {
	return func(opts *allOpts) {
		opts.gatherer = gatherer
	}
}

// WithConnections is an option exposing connection management over recorder.
func WithConnections(recorder *connection.Recorder, cmdOpts ...connectioncmd.Option) Opt {
	return func(opts *allOpts) {
		opts.connections = recorder
		opts.connectionOpts = cmdOpts
	}
}

func applyOpts(opts []Opt) *allOpts {
	all := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(all)
	}

	if all.notifier == nil {
		all.notifier = webnotifier.New(wsPath, all.webhookURLs)
	}

	return all
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(d *dispatcher.Dispatcher, opts ...Opt) ([]rest.Handler, error) {
	restAPIOpts := applyOpts(opts)

	var exchangeOpts []exchangerest.Option
	if restAPIOpts.gatherer != nil {
		exchangeOpts = append(exchangeOpts, exchangerest.WithMetrics(restAPIOpts.gatherer))
	}

	// exchange REST operation
	exchangeOp, err := exchangerest.New(d, restAPIOpts.notifier, exchangeOpts...)
	if err != nil {
		return nil, fmt.Errorf("create exchange rest operation : %w", err)
	}

	// issue credential REST operation
	issuecredentialOp, err := issuecredentialrest.New(d)
	if err != nil {
		return nil, err
	}

	// present proof REST operation
	presentproofOp, err := presentproofrest.New(d)
	if err != nil {
		return nil, err
	}

	// creat handlers from all operations
	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, exchangeOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, issuecredentialOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, presentproofOp.GetRESTHandlers()...)

	if restAPIOpts.connections != nil {
		// connection REST operation
		connectionOp, err := connectionrest.New(restAPIOpts.connections, restAPIOpts.connectionOpts...)
		if err != nil {
			return nil, err
		}

		allHandlers = append(allHandlers, connectionOp.GetRESTHandlers()...)
	}

	nhp, ok := restAPIOpts.notifier.(handlerProvider)
	if ok {
		allHandlers = append(allHandlers, nhp.GetRESTHandlers()...)
	}

	return allHandlers, nil
}

type handlerProvider interface {
	GetRESTHandlers() []rest.Handler
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(d *dispatcher.Dispatcher, opts ...Opt) ([]command.Handler, error) {
	cmdOpts := applyOpts(opts)

	// exchange command operation
	exchangeCmd, err := exchangecmd.New(d, cmdOpts.notifier)
	if err != nil {
		return nil, fmt.Errorf("create exchange command : %w", err)
	}

	// issue credential command operation
	issuecredentialCmd, err := issuecredentialcmd.New(d)
	if err != nil {
		return nil, err
	}

	// present proof command operation
	presentproofCmd, err := presentproofcmd.New(d)
	if err != nil {
		return nil, err
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, exchangeCmd.GetHandlers()...)
	allHandlers = append(allHandlers, issuecredentialCmd.GetHandlers()...)
	allHandlers = append(allHandlers, presentproofCmd.GetHandlers()...)

	if cmdOpts.connections != nil {
		// connection command operation
		connectionCmd, err := connectioncmd.New(cmdOpts.connections, cmdOpts.connectionOpts...)
		if err != nil {
			return nil, err
		}

		allHandlers = append(allHandlers, connectionCmd.GetHandlers()...)
	}

	return allHandlers, nil
}
