/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// MediaTypeJSON is the media type of JSON attachments.
const MediaTypeJSON = "application/json"

// CarryForward returns a deep copy of from with the top level fields of overrides applied. Nil overrides
// keep from unchanged.
func CarryForward(from, overrides Payload) (Payload, error) {
	out, err := Copy(from)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = Payload{}
	}

	extra, err := Copy(overrides)
	if err != nil {
		return nil, err
	}

	for k, v := range extra {
		out[k] = v
	}

	return out, nil
}

// Copy returns a deep copy of p.
func Copy(p Payload) (Payload, error) {
	if p == nil {
		return nil, nil
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("copy payload: %w", err)
	}

	var out Payload

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("copy payload: %w", err)
	}

	return out, nil
}

// ToPayload converts a typed value into a Payload.
func ToPayload(v interface{}) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var p Payload

	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	return p, nil
}

// Decode decodes p into the typed value out, honoring mapstructure tags.
func Decode(p Payload, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: false,
		Squash:           true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	return decoder.Decode(map[string]interface{}(p))
}

// ReadAttachment returns the JSON payload of att.
func ReadAttachment(att *decorator.Attachment) (Payload, error) {
	raw, err := att.Data.Fetch()
	if err != nil {
		return nil, exchange.NewValidationError(err, "attachment %s", att.ID)
	}

	var p Payload

	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, exchange.NewValidationError(err, "attachment %s is not a JSON object", att.ID)
	}

	return p, nil
}

// NewAttachment returns a JSON attachment carrying p under a fresh id.
func NewAttachment(p Payload) *decorator.Attachment {
	return &decorator.Attachment{
		ID:       uuid.New().String(),
		MimeType: MediaTypeJSON,
		Data:     decorator.AttachmentData{JSON: map[string]interface{}(p)},
	}
}
