/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"

// nolint: gochecknoglobals
var (
	credentialSchemas = format.MustSchemaValidator(map[format.Stage]string{
		format.StageProposal: `{
			"type": "object",
			"properties": {
				"schema_issuer_did": {"type": "string"},
				"schema_name": {"type": "string"},
				"schema_version": {"type": "string"},
				"schema_id": {"type": "string"},
				"issuer_did": {"type": "string"},
				"cred_def_id": {"type": "string"}
			}
		}`,
		format.StageOffer: `{
			"type": "object",
			"required": ["schema_id", "cred_def_id", "nonce"],
			"properties": {
				"schema_id": {"type": "string", "minLength": 1},
				"cred_def_id": {"type": "string", "minLength": 1},
				"nonce": {"type": "string", "minLength": 1},
				"key_correctness_proof": {"type": "object"}
			}
		}`,
		format.StageRequest: `{
			"type": "object",
			"required": ["cred_def_id", "nonce"],
			"properties": {
				"prover_did": {"type": "string"},
				"cred_def_id": {"type": "string", "minLength": 1},
				"nonce": {"type": "string", "minLength": 1},
				"blinded_ms": {"type": "object"},
				"blinded_ms_correctness_proof": {"type": "object"}
			}
		}`,
		format.StageFinal: `{
			"type": "object",
			"required": ["schema_id", "cred_def_id", "values"],
			"properties": {
				"schema_id": {"type": "string"},
				"cred_def_id": {"type": "string", "minLength": 1},
				"values": {
					"type": "object",
					"minProperties": 1,
					"additionalProperties": {
						"type": "object",
						"required": ["raw", "encoded"],
						"properties": {
							"raw": {"type": "string"},
							"encoded": {"type": "string"}
						}
					}
				}
			}
		}`,
	})

	proofSchemas = format.MustSchemaValidator(map[format.Stage]string{
		format.StageProposal: proofRequestSchema,
		format.StageRequest:  proofRequestSchema,
		format.StageFinal: `{
			"type": "object",
			"required": ["requested_proof"],
			"properties": {
				"proof": {"type": "object"},
				"identifiers": {"type": "array"},
				"requested_proof": {
					"type": "object",
					"properties": {
						"revealed_attrs": {"type": "object"},
						"revealed_attr_groups": {"type": "object"},
						"self_attested_attrs": {"type": "object"},
						"unrevealed_attrs": {"type": "object"},
						"predicates": {"type": "object"}
					}
				}
			}
		}`,
	})
)

const proofRequestSchema = `{
	"type": "object",
	"required": ["requested_attributes"],
	"properties": {
		"name": {"type": "string"},
		"version": {"type": "string"},
		"nonce": {"type": "string"},
		"requested_attributes": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"names": {"type": "array", "items": {"type": "string"}},
					"restrictions": {"type": "array"}
				}
			}
		},
		"requested_predicates": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["name", "p_type", "p_value"],
				"properties": {
					"name": {"type": "string"},
					"p_type": {"enum": [">=", ">", "<=", "<"]},
					"p_value": {"type": "integer"},
					"restrictions": {"type": "array"}
				}
			}
		}
	}
}`
