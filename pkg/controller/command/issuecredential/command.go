/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/logutil"
)

var logger = log.New("aries-framework/controller/issuecredential")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid issue credential controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.IssueCredential)
	// SendProposalErrorCode failures in send proposal command.
	SendProposalErrorCode
	// SendOfferErrorCode failures in send offer command.
	SendOfferErrorCode
	// SendRequestErrorCode failures in send request command.
	SendRequestErrorCode
	// AcceptProposalErrorCode is for failures in accept proposal command.
	AcceptProposalErrorCode
	// AcceptOfferErrorCode is for failures in accept offer command.
	AcceptOfferErrorCode
	// AcceptRequestErrorCode is for failures in accept request command.
	AcceptRequestErrorCode
	// AcceptCredentialErrorCode is for failures in accept credential command.
	AcceptCredentialErrorCode
)

// constants for issue credential commands.
const (
	// command name.
	CommandName = "issuecredential"

	SendProposal     = "SendProposal"
	SendOffer        = "SendOffer"
	SendRequest      = "SendRequest"
	AcceptProposal   = "AcceptProposal"
	AcceptOffer      = "AcceptOffer"
	AcceptRequest    = "AcceptRequest"
	AcceptCredential = "AcceptCredential"
)

const (
	// error messages.
	errEmptyConnectionID = "empty ConnectionID"
	errEmptyRecordID     = "empty RecordID"
)

// Command is controller command for issue credential.
type Command struct {
	client *protocol.Client
}

// New returns new issue credential controller command instance.
func New(d *dispatcher.Dispatcher) (*Command, error) {
	if d == nil {
		return nil, errors.New("dispatcher is mandatory")
	}

	return &Command{client: protocol.NewClient(d)}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SendProposal, c.SendProposal),
		cmdutil.NewCommandHandler(CommandName, SendOffer, c.SendOffer),
		cmdutil.NewCommandHandler(CommandName, SendRequest, c.SendRequest),
		cmdutil.NewCommandHandler(CommandName, AcceptProposal, c.AcceptProposal),
		cmdutil.NewCommandHandler(CommandName, AcceptOffer, c.AcceptOffer),
		cmdutil.NewCommandHandler(CommandName, AcceptRequest, c.AcceptRequest),
		cmdutil.NewCommandHandler(CommandName, AcceptCredential, c.AcceptCredential),
	}
}

// SendProposal is used by the Holder to send a proposal.
func (c *Command) SendProposal(rw io.Writer, req io.Reader) command.Error {
	var args SendProposalArgs

	if cmdErr := decodeParams(req, &args, &args.Params, SendProposal); cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.SendProposal(&args.Params)

	return exchangecmd.WriteResult(rw, res, err, CommandName, SendProposal, SendProposalErrorCode)
}

// SendOffer is used by the Issuer to send an offer.
func (c *Command) SendOffer(rw io.Writer, req io.Reader) command.Error {
	var args SendOfferArgs

	if cmdErr := decodeParams(req, &args, &args.Params, SendOffer); cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.SendOffer(&args.Params)

	return exchangecmd.WriteResult(rw, res, err, CommandName, SendOffer, SendOfferErrorCode)
}

// SendRequest is used by the Holder to send a request.
func (c *Command) SendRequest(rw io.Writer, req io.Reader) command.Error {
	var args SendRequestArgs

	if cmdErr := decodeParams(req, &args, &args.Params, SendRequest); cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.SendRequest(&args.Params)

	return exchangecmd.WriteResult(rw, res, err, CommandName, SendRequest, SendRequestErrorCode)
}

// AcceptProposal is used when the Issuer is willing to accept the proposal.
func (c *Command) AcceptProposal(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeAccept(req, AcceptProposal)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.AcceptProposal(args.RecordID, args.Options()...)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptProposal, AcceptProposalErrorCode)
}

// AcceptOffer is used when the Holder is willing to accept the offer.
func (c *Command) AcceptOffer(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeAccept(req, AcceptOffer)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.AcceptOffer(args.RecordID, args.Options()...)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptOffer, AcceptOfferErrorCode)
}

// AcceptRequest is used when the Issuer is willing to accept the request.
func (c *Command) AcceptRequest(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeAccept(req, AcceptRequest)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.AcceptRequest(args.RecordID, args.Options()...)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptRequest, AcceptRequestErrorCode)
}

// AcceptCredential is used when the Holder is willing to accept the credential.
func (c *Command) AcceptCredential(rw io.Writer, req io.Reader) command.Error {
	var args AcceptCredentialArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, AcceptCredential, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, AcceptCredential, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	res, err := c.client.AcceptCredential(args.RecordID)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptCredential, AcceptCredentialErrorCode)
}

func decodeParams(req io.Reader, args interface{}, params *protocol.Params, action string) command.Error {
	if err := json.NewDecoder(req).Decode(args); err != nil {
		logutil.LogInfo(logger, CommandName, action, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if params.ConnectionID == "" {
		logutil.LogDebug(logger, CommandName, action, errEmptyConnectionID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyConnectionID))
	}

	return nil
}

func decodeAccept(req io.Reader, action string) (*AcceptArgs, command.Error) {
	var args AcceptArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, action, err.Error())
		return nil, command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, action, errEmptyRecordID)
		return nil, command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	return &args, nil
}
