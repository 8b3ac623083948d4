/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dif

import "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"

const inputDescriptorsSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "string", "minLength": 1}}
	}
}`

// nolint: gochecknoglobals
var schemas = format.MustSchemaValidator(map[format.Stage]string{
	format.StageProposal: `{
		"type": "object",
		"required": ["input_descriptors"],
		"properties": {
			"input_descriptors": ` + inputDescriptorsSchema + `,
			"options": {"type": "object"}
		}
	}`,
	format.StageRequest: `{
		"type": "object",
		"required": ["options", "presentation_definition"],
		"properties": {
			"options": {
				"type": "object",
				"required": ["challenge"],
				"properties": {
					"challenge": {"type": "string", "minLength": 1},
					"domain": {"type": "string"}
				}
			},
			"presentation_definition": {
				"type": "object",
				"required": ["id", "input_descriptors"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"input_descriptors": ` + inputDescriptorsSchema + `
				}
			}
		}
	}`,
	format.StageFinal: `{
		"type": "object",
		"required": ["type", "presentation_submission"],
		"properties": {
			"type": {"type": "array", "contains": {"const": "VerifiablePresentation"}},
			"presentation_submission": {
				"type": "object",
				"required": ["id", "definition_id", "descriptor_map"],
				"properties": {
					"definition_id": {"type": "string"},
					"descriptor_map": {"type": "array"}
				}
			},
			"verifiableCredential": {"type": "array"}
		}
	}`,
})
