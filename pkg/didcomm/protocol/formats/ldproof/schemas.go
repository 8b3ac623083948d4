/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ldproof

import "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"

const detailSchema = `{
	"type": "object",
	"required": ["credential", "options"],
	"properties": {
		"credential": {
			"type": "object",
			"required": ["@context", "type", "credentialSubject"],
			"properties": {
				"@context": {"type": "array", "minItems": 1},
				"type": {"type": "array", "contains": {"const": "VerifiableCredential"}},
				"credentialSubject": {"type": ["object", "array"]}
			}
		},
		"options": {
			"type": "object",
			"required": ["proofType"],
			"properties": {
				"proofType": {"type": "string", "minLength": 1},
				"proofPurpose": {"type": "string"},
				"created": {"type": "string"},
				"domain": {"type": "string"},
				"challenge": {"type": "string"}
			}
		}
	}
}`

// nolint: gochecknoglobals
var schemas = format.MustSchemaValidator(map[format.Stage]string{
	format.StageProposal: detailSchema,
	format.StageOffer:    detailSchema,
	format.StageRequest:  detailSchema,
	format.StageFinal: `{
		"type": "object",
		"required": ["@context", "type", "issuer", "issuanceDate", "credentialSubject"],
		"properties": {
			"@context": {"type": "array", "minItems": 1},
			"type": {"type": "array", "contains": {"const": "VerifiableCredential"}},
			"issuer": {"type": ["string", "object"]},
			"issuanceDate": {"type": "string"},
			"credentialSubject": {"type": ["object", "array"]},
			"proof": {"type": ["object", "array"]}
		}
	}`,
})
