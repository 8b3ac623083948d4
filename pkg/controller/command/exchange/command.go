/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/logutil"
)

var logger = log.New("aries-framework/controller/exchange")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid exchange controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.Exchange)
	// InboundErrorCode is for failures in inbound command.
	InboundErrorCode
	// RecordsErrorCode is for failures in records command.
	RecordsErrorCode
	// RecordErrorCode is for failures in record command.
	RecordErrorCode
	// MessagesErrorCode is for failures in messages command.
	MessagesErrorCode
	// AcceptErrorCode is for failures in accept command.
	AcceptErrorCode
	// DeclineErrorCode is for failures in decline command.
	DeclineErrorCode
	// SetAutoAcceptErrorCode is for failures in set auto-accept command.
	SetAutoAcceptErrorCode
)

// constants for exchange commands.
const (
	// command name.
	CommandName = "exchange"

	Inbound       = "Inbound"
	Records       = "Records"
	Record        = "Record"
	Messages      = "Messages"
	Accept        = "Accept"
	Decline       = "Decline"
	SetAutoAccept = "SetAutoAccept"

	// StatesTopic is the notification topic of record state changes.
	StatesTopic = "exchange_states"
)

const (
	// error messages.
	errEmptyMessage  = "empty Message"
	errEmptyRecordID = "empty RecordID"
	// log constants.
	successString  = "success"
	recordIDString = "record_id"

	statesBuffer = 100
)

// Command is controller command for the negotiation records of every protocol.
type Command struct {
	d *dispatcher.Dispatcher
}

// New returns new exchange controller command instance. State changes of d are published on notifier.
func New(d *dispatcher.Dispatcher, notifier command.Notifier) (*Command, error) {
	if d == nil {
		return nil, errors.New("dispatcher is mandatory")
	}

	if notifier != nil {
		states := make(chan service.StateMsg, statesBuffer)

		if err := d.RegisterMsgEvent(states); err != nil {
			return nil, fmt.Errorf("register msg event: %w", err)
		}

		webnotifier.NewObserver(notifier).RegisterStateMsg(StatesTopic, states)
	}

	return &Command{d: d}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, Inbound, c.Inbound),
		cmdutil.NewCommandHandler(CommandName, Records, c.Records),
		cmdutil.NewCommandHandler(CommandName, Record, c.Record),
		cmdutil.NewCommandHandler(CommandName, Messages, c.Messages),
		cmdutil.NewCommandHandler(CommandName, Accept, c.Accept),
		cmdutil.NewCommandHandler(CommandName, Decline, c.Decline),
		cmdutil.NewCommandHandler(CommandName, SetAutoAccept, c.SetAutoAccept),
	}
}

// Inbound hands a message received from a peer to the engine.
func (c *Command) Inbound(rw io.Writer, req io.Reader) command.Error {
	var args InboundArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, Inbound, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if len(args.Message) == 0 {
		logutil.LogDebug(logger, CommandName, Inbound, errEmptyMessage)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyMessage))
	}

	res, err := c.d.HandleInbound(args.Message,
		service.NewDIDCommContext(args.ConnectionID, args.MyDID, args.TheirDID))

	return WriteResult(rw, res, err, CommandName, Inbound, InboundErrorCode)
}

// Records returns the records of every negotiation.
func (c *Command) Records(rw io.Writer, _ io.Reader) command.Error {
	records, err := c.d.Records()
	if err != nil {
		logutil.LogError(logger, CommandName, Records, err.Error())
		return command.NewExecuteError(RecordsErrorCode, err)
	}

	command.WriteNillableResponse(rw, &RecordsResponse{Records: records}, logger)

	logutil.LogDebug(logger, CommandName, Records, successString)

	return nil
}

// Record returns one record.
func (c *Command) Record(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeRecordID(req, Record)
	if cmdErr != nil {
		return cmdErr
	}

	rec, err := c.d.Record(args.RecordID)
	if err != nil {
		logutil.LogError(logger, CommandName, Record, err.Error(),
			logutil.CreateKeyValueString(recordIDString, args.RecordID))

		return Error(RecordErrorCode, err)
	}

	command.WriteNillableResponse(rw, &RecordResponse{Record: rec}, logger)

	logutil.LogDebug(logger, CommandName, Record, successString,
		logutil.CreateKeyValueString(recordIDString, args.RecordID))

	return nil
}

// Messages returns the messages stored for a record.
func (c *Command) Messages(rw io.Writer, req io.Reader) command.Error {
	args, cmdErr := decodeRecordID(req, Messages)
	if cmdErr != nil {
		return cmdErr
	}

	if _, err := c.d.Record(args.RecordID); err != nil {
		logutil.LogError(logger, CommandName, Messages, err.Error(),
			logutil.CreateKeyValueString(recordIDString, args.RecordID))

		return Error(MessagesErrorCode, err)
	}

	msgs, err := c.d.Messages(args.RecordID)
	if err != nil {
		logutil.LogError(logger, CommandName, Messages, err.Error(),
			logutil.CreateKeyValueString(recordIDString, args.RecordID))

		return command.NewExecuteError(MessagesErrorCode, err)
	}

	command.WriteNillableResponse(rw, &MessagesResponse{Messages: msgs}, logger)

	logutil.LogDebug(logger, CommandName, Messages, successString,
		logutil.CreateKeyValueString(recordIDString, args.RecordID))

	return nil
}

// Accept answers the message the record waits on.
func (c *Command) Accept(rw io.Writer, req io.Reader) command.Error {
	var args AcceptArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, Accept, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, Accept, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	res, err := c.d.Accept(args.RecordID, args.Options()...)

	return WriteResult(rw, res, err, CommandName, Accept, AcceptErrorCode)
}

// Decline refuses the message the record waits on, or abandons the negotiation.
func (c *Command) Decline(rw io.Writer, req io.Reader) command.Error {
	var args DeclineArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, Decline, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, Decline, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	res, err := c.d.Decline(args.RecordID, args.Reason)

	return WriteResult(rw, res, err, CommandName, Decline, DeclineErrorCode)
}

// SetAutoAccept overrides the auto-accept policy of one record and answers the message it waits on when the
// new policy allows it.
func (c *Command) SetAutoAccept(rw io.Writer, req io.Reader) command.Error {
	var args AutoAcceptArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, SetAutoAccept, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.RecordID == "" {
		logutil.LogDebug(logger, CommandName, SetAutoAccept, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	policy, err := protocol.ParseAutoAccept(args.AutoAccept)
	if err != nil {
		logutil.LogDebug(logger, CommandName, SetAutoAccept, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	res, err := c.d.SetAutoAccept(args.RecordID, policy)

	return WriteResult(rw, res, err, CommandName, SetAutoAccept, SetAutoAcceptErrorCode)
}

func decodeRecordID(req io.Reader, action string) (*RecordIDArgs, command.Error) {
	var args RecordIDArgs

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

// WriteResult writes the outcome of a dispatcher call. A failure that still produced a reply for the peer is
// written as a response carrying the error, since the caller must deliver the reply.
func WriteResult(rw io.Writer, res *dispatcher.Result, err error, name, action string,
	code command.Code) command.Error {
	if err != nil && (res == nil || res.Reply == nil) {
		logutil.LogError(logger, name, action, err.Error())

		return Error(code, err)
	}

	resp := NewResultResponse(res)

	if err != nil {
		logutil.LogInfo(logger, name, action, err.Error())

		resp.Error = err.Error()
		resp.ProblemCode = protocol.ProblemCode(err)
	}

	command.WriteNillableResponse(rw, resp, logger)

	logutil.LogDebug(logger, name, action, successString)

	return nil
}

// Error classifies an engine error. Errors caused by the caller's input or by the state of the negotiation
// are validation errors, the rest are execution failures.
func Error(code command.Code, err error) command.Error {
	var (
		validationErr *protocol.ValidationError
		transitionErr *protocol.TransitionError
		notFoundErr   *protocol.RecordNotFoundError
		connectionErr *protocol.ConnectionMissingError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &transitionErr),
		errors.As(err, &notFoundErr), errors.As(err, &connectionErr):
		return command.NewValidationError(code, err)
	default:
		return command.NewExecuteError(code, err)
	}
}
