/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/command"
)

// HTTPHandler binds an http.HandlerFunc to a route.
type HTTPHandler struct {
	path   string
	method string
	handle http.HandlerFunc
}

// NewHTTPHandler returns the handler serving method requests on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{path: path, method: method, handle: handle}
}

// Path is the mux route template, e.g. /exchange/records/{id}.
func (h *HTTPHandler) Path() string { return h.path }

// Method is the HTTP method of the route.
func (h *HTTPHandler) Method() string { return h.method }

// Handle returns the handler func.
func (h *HTTPHandler) Handle() http.HandlerFunc { return h.handle }

// CommandHandler binds a command.Exec to a command and method name.
type CommandHandler struct {
	name   string
	method string
	exec   command.Exec
}

// NewCommandHandler returns the handler of method on command name.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{name: name, method: method, exec: exec}
}

// Name is the command name, e.g. exchange.
func (c *CommandHandler) Name() string { return c.name }

// Method is the method of the command, e.g. Accept.
func (c *CommandHandler) Method() string { return c.method }

// Handle returns the command func.
func (c *CommandHandler) Handle() command.Exec { return c.exec }
