/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package indy implements the Hyperledger Indy (anoncreds) attachment formats of credential issuance and
// presentation proof. Signatures and proofs come from optional hooks; without them the payloads carry only
// the negotiable fields.
package indy

import (
	"crypto/sha256"
	"math/big"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/log"
)

// Name is the name indy services are registered under.
const Name = "hlindy"

// Format identifiers.
const (
	CredFilterFormat   = "hlindy/cred-filter@v2.0"
	CredAbstractFormat = "hlindy/cred-abstract@v2.0"
	CredReqFormat      = "hlindy/cred-req@v2.0"
	CredFormat         = "hlindy/cred@v2.0"
	ProofReqFormat     = "hlindy/proof-req@v2.0"
	ProofFormat        = "hlindy/proof@v2.0"
)

var logger = log.New("aries-framework/formats/indy")

// EncodeValue returns the indy encoding of a raw attribute value: 32-bit integers encode to themselves,
// anything else to the decimal form of its SHA-256 digest.
func EncodeValue(raw string) string {
	if _, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return raw
	}

	sum := sha256.Sum256([]byte(raw))

	return new(big.Int).SetBytes(sum[:]).String()
}
