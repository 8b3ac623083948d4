/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package command holds the transport neutral controller API of the exchange agent. REST operations and
// other bindings wrap the Exec functions a command publishes through its handlers.
package command

import (
	"encoding/json"
	"io"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// Exec runs a command reading its JSON arguments from req and writing its JSON result to rw.
type Exec func(rw io.Writer, req io.Reader) Error

// Handler binds an Exec to a command name.
type Handler interface {
	Name() string
	Method() string
	Handle() Exec
}

// Notifier publishes JSON messages on a topic, e.g. record state changes to webhook subscribers.
type Notifier interface {
	Notify(topic string, message []byte) error
}

// WriteNillableResponse writes v as JSON to w, or an empty object when v is nil.
func WriteNillableResponse(w io.Writer, v interface{}, l log.Logger) {
	if v == nil {
		v = map[string]interface{}{}
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Errorf("writing command response: %v", err)
	}
}
