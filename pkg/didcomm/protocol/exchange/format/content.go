/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"sort"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// Content returns the negotiable view of a message from its validated bindings.
func Content(msg *exchange.Message, payloads map[string]Payload) *exchange.Content {
	c := &exchange.Content{
		Preview: msg.Preview,
		Formats: make([]string, 0, len(payloads)),
		Payload: make(map[string]interface{}, len(payloads)),
	}

	for name, p := range payloads {
		c.Formats = append(c.Formats, name)
		c.Payload[name] = map[string]interface{}(p)
	}

	sort.Strings(c.Formats)

	return c
}

// Payloads validates the attachment of every binding and returns the payloads by service name.
func Payloads(stage Stage, bindings []Binding) (map[string]Payload, error) {
	payloads := make(map[string]Payload, len(bindings))

	for _, b := range bindings {
		p, err := b.Service.Validate(stage, b.Attachment)
		if err != nil {
			return nil, err
		}

		payloads[b.Service.Name()] = p
	}

	return payloads, nil
}

// Read decodes the attachments of msg that belong to registered services, without validation. It is used
// for messages already accepted into the store.
func Read(registry *Registry, msg *exchange.Message) map[string]Payload {
	payloads := map[string]Payload{}

	for _, f := range msg.Formats {
		svc, ok := registry.ByFormatID(f.Format)
		if !ok {
			continue
		}

		att, ok := msg.Attachment(f.Format)
		if !ok {
			continue
		}

		p, err := ReadAttachment(att)
		if err != nil {
			continue
		}

		payloads[svc.Name()] = p
	}

	return payloads
}
