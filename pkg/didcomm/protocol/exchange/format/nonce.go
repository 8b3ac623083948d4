/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const nonceBits = 80

// NewNonce returns a random decimal nonce of 80 bits, the size indy proof requests use.
func NewNonce() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), nonceBits))
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	return n.String(), nil
}
