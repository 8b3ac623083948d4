/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// SchemaValidator validates payloads against a JSON schema per stage.
type SchemaValidator struct {
	schemas map[Stage]*gojsonschema.Schema
}

// NewSchemaValidator compiles the schemas. It fails on invalid schema documents.
func NewSchemaValidator(schemas map[Stage]string) (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[Stage]*gojsonschema.Schema, len(schemas))}

	for stage, doc := range schemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", stage, err)
		}

		v.schemas[stage] = schema
	}

	return v, nil
}

// MustSchemaValidator is NewSchemaValidator that panics on invalid schemas.
func MustSchemaValidator(schemas map[Stage]string) *SchemaValidator {
	v, err := NewSchemaValidator(schemas)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate checks p against the schema of stage. Stages without a schema accept any payload.
func (v *SchemaValidator) Validate(stage Stage, p Payload) error {
	schema, ok := v.schemas[stage]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(p)))
	if err != nil {
		return exchange.NewValidationError(err, "%s payload", stage)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}

		return exchange.NewValidationError(nil, "%s payload: %s", stage, strings.Join(problems, "; "))
	}

	return nil
}
