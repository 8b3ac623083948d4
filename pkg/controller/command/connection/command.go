/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/logutil"
	"github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

var logger = log.New("aries-framework/controller/connection")

// constants for connection management endpoints.
const (
	CommandName = "connection"

	SaveConnectionCommandMethod   = "SaveConnection"
	GetConnectionCommandMethod    = "GetConnection"
	QueryConnectionsCommandMethod = "QueryConnections"
	RemoveConnectionCommandMethod = "RemoveConnection"

	errEmptyConnID = "empty connection ID"

	// log constants.
	connectionIDString = "connectionID"
	successString      = "success"
)

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid connection controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.Connection)

	// SaveConnectionErrorCode is for failures in save connection command.
	SaveConnectionErrorCode
	// GetConnectionErrorCode is for failures in get connection command.
	GetConnectionErrorCode
	// QueryConnectionsErrorCode is for failures in query connections command.
	QueryConnectionsErrorCode
	// RemoveConnectionErrorCode is for failures in remove connection command.
	RemoveConnectionErrorCode
)

type invalidator interface {
	Invalidate(connectionID string)
}

// Option configures a Command.
type Option func(c *Command)

// WithInvalidator drops changed connections from a lookup cache.
func WithInvalidator(cache invalidator) Option {
	return func(c *Command) {
		c.cache = cache
	}
}

// Command provides controller API for connection commands.
type Command struct {
	recorder *connection.Recorder
	cache    invalidator
}

// New creates connection Command.
func New(recorder *connection.Recorder, opts ...Option) (*Command, error) {
	if recorder == nil {
		return nil, errors.New("connection recorder is mandatory")
	}

	c := &Command{recorder: recorder}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SaveConnectionCommandMethod, c.SaveConnection),
		cmdutil.NewCommandHandler(CommandName, GetConnectionCommandMethod, c.GetConnection),
		cmdutil.NewCommandHandler(CommandName, QueryConnectionsCommandMethod, c.QueryConnections),
		cmdutil.NewCommandHandler(CommandName, RemoveConnectionCommandMethod, c.RemoveConnection),
	}
}

// SaveConnection records a connection or replaces its record.
func (c *Command) SaveConnection(rw io.Writer, req io.Reader) command.Error {
	var request SaveConnectionArgs

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		logutil.LogInfo(logger, CommandName, SaveConnectionCommandMethod, err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if request.ConnectionID == "" {
		logutil.LogDebug(logger, CommandName, SaveConnectionCommandMethod, errEmptyConnID)

		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyConnID))
	}

	if err := c.recorder.SaveConnectionRecord(&request.Record); err != nil {
		logutil.LogError(logger, CommandName, SaveConnectionCommandMethod, err.Error(),
			logutil.CreateKeyValueString(connectionIDString, request.ConnectionID))

		return command.NewExecuteError(SaveConnectionErrorCode, err)
	}

	c.invalidate(request.ConnectionID)

	command.WriteNillableResponse(rw, &ConnectionResponse{Result: &request.Record}, logger)

	logutil.LogDebug(logger, CommandName, SaveConnectionCommandMethod, successString,
		logutil.CreateKeyValueString(connectionIDString, request.ConnectionID))

	return nil
}

// GetConnection returns the record of a connection.
func (c *Command) GetConnection(rw io.Writer, req io.Reader) command.Error {
	id, cmdErr := decodeID(req, GetConnectionCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	rec, err := c.recorder.GetConnectionRecord(id)
	if errors.Is(err, connection.ErrNotFound) {
		return command.NewValidationError(GetConnectionErrorCode, fmt.Errorf("connection %s: %w", id, err))
	}

	if err != nil {
		logutil.LogError(logger, CommandName, GetConnectionCommandMethod, err.Error(),
			logutil.CreateKeyValueString(connectionIDString, id))

		return command.NewExecuteError(GetConnectionErrorCode, err)
	}

	command.WriteNillableResponse(rw, &ConnectionResponse{Result: rec}, logger)

	return nil
}

// QueryConnections returns every connection record.
func (c *Command) QueryConnections(rw io.Writer, _ io.Reader) command.Error {
	records, err := c.recorder.QueryConnectionRecords()
	if err != nil {
		logutil.LogError(logger, CommandName, QueryConnectionsCommandMethod, err.Error())

		return command.NewExecuteError(QueryConnectionsErrorCode, err)
	}

	command.WriteNillableResponse(rw, &QueryConnectionsResponse{Results: records}, logger)

	return nil
}

// RemoveConnection deletes the record of a connection.
func (c *Command) RemoveConnection(rw io.Writer, req io.Reader) command.Error {
	id, cmdErr := decodeID(req, RemoveConnectionCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	if err := c.recorder.RemoveConnection(id); err != nil {
		logutil.LogError(logger, CommandName, RemoveConnectionCommandMethod, err.Error(),
			logutil.CreateKeyValueString(connectionIDString, id))

		if errors.Is(err, connection.ErrNotFound) {
			return command.NewValidationError(RemoveConnectionErrorCode, err)
		}

		return command.NewExecuteError(RemoveConnectionErrorCode, err)
	}

	c.invalidate(id)

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogDebug(logger, CommandName, RemoveConnectionCommandMethod, successString,
		logutil.CreateKeyValueString(connectionIDString, id))

	return nil
}

func (c *Command) invalidate(connectionID string) {
	if c.cache != nil {
		c.cache.Invalidate(connectionID)
	}
}

func decodeID(req io.Reader, method string) (string, command.Error) {
	var request IDArgs

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		logutil.LogInfo(logger, CommandName, method, err.Error())

		return "", command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if request.ConnectionID == "" {
		logutil.LogDebug(logger, CommandName, method, errEmptyConnID)

		return "", command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyConnID))
	}

	return request.ConnectionID, nil
}
