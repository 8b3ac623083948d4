/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/logutil"
)

var logger = log.New("aries-framework/controller/presentproof")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid present proof controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.PresentProof)
	// SendRequestPresentationErrorCode is for failures in send request presentation command.
	SendRequestPresentationErrorCode
	// SendProposePresentationErrorCode is for failures in send propose presentation command.
	SendProposePresentationErrorCode
	// AcceptProposePresentationErrorCode is for failures in accept propose presentation command.
	AcceptProposePresentationErrorCode
	// AcceptRequestPresentationErrorCode is for failures in accept request presentation command.
	AcceptRequestPresentationErrorCode
	// AcceptPresentationErrorCode is for failures in accept presentation command.
	AcceptPresentationErrorCode
)

// constants for the PresentProof operations.
const (
	// command name.
	CommandName = "presentproof"

	SendRequestPresentation   = "SendRequestPresentation"
	SendProposePresentation   = "SendProposePresentation"
	AcceptProposePresentation = "AcceptProposePresentation"
	AcceptRequestPresentation = "AcceptRequestPresentation"
	AcceptPresentation        = "AcceptPresentation"
)

const (
	// error messages.
	errEmptyConnectionID = "empty ConnectionID"
	errEmptyRecordID     = "empty RecordID"
)

// Command is controller command for present proof.
type Command struct {
	client *protocol.Client
}

// New returns new present proof controller command instance.
func New(d *dispatcher.Dispatcher) (*Command, error) {
	if d == nil {
		return nil, errors.New("dispatcher is mandatory")
	}

	return &Command{client: protocol.NewClient(d)}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SendRequestPresentation, c.SendRequestPresentation),
		cmdutil.NewCommandHandler(CommandName, SendProposePresentation, c.SendProposePresentation),
		cmdutil.NewCommandHandler(CommandName, AcceptProposePresentation, c.AcceptProposePresentation),
		cmdutil.NewCommandHandler(CommandName, AcceptRequestPresentation, c.AcceptRequestPresentation),
		cmdutil.NewCommandHandler(CommandName, AcceptPresentation, c.AcceptPresentation),
	}
}

// SendRequestPresentation is used by the Verifier to send a request presentation.
func (c *Command) SendRequestPresentation(rw io.Writer, req io.Reader) command.Error {
	var args SendRequestPresentationArgs

	if cmdErr := decodeParams(req, &args, &args.Params, SendRequestPresentation); cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.SendRequest(&args.Params)

	return exchangecmd.WriteResult(rw, res, err, CommandName, SendRequestPresentation,
		SendRequestPresentationErrorCode)
}

// SendProposePresentation is used by the Prover to send a propose presentation.
func (c *Command) SendProposePresentation(rw io.Writer, req io.Reader) command.Error {
	var args SendProposePresentationArgs

	if cmdErr := decodeParams(req, &args, &args.Params, SendProposePresentation); cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.SendProposal(&args.Params)

	return exchangecmd.WriteResult(rw, res, err, CommandName, SendProposePresentation,
		SendProposePresentationErrorCode)
}

// AcceptProposePresentation is used when the Verifier is willing to accept the propose presentation.
func (c *Command) AcceptProposePresentation(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeAccept(req, AcceptProposePresentation)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.AcceptProposal(args.RecordID, args.Options()...)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptProposePresentation,
		AcceptProposePresentationErrorCode)
}

// AcceptRequestPresentation is used when the Prover is willing to accept the request presentation.
func (c *Command) AcceptRequestPresentation(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeAccept(req, AcceptRequestPresentation)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.AcceptRequest(args.RecordID, args.Options()...)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptRequestPresentation,
		AcceptRequestPresentationErrorCode)
}

// AcceptPresentation is used by the Verifier to accept a presentation.
func (c *Command) AcceptPresentation(rw io.Writer, req io.Reader) command.Error {
	var args AcceptPresentationArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, AcceptPresentation, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, AcceptPresentation, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	res, err := c.client.AcceptPresentation(args.RecordID)

	return exchangecmd.WriteResult(rw, res, err, CommandName, AcceptPresentation, AcceptPresentationErrorCode)
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
