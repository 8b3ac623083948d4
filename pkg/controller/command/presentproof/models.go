/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/presentproof"
)

// SendProposePresentationArgs model
//
// This is used for sending a presentation proposal to the verifier.
type SendProposePresentationArgs struct {
	protocol.Params
}

// SendRequestPresentationArgs model
//
// This is used for sending a presentation request to the prover.
type SendRequestPresentationArgs struct {
	protocol.Params
}

// AcceptArgs model
//
// This is used for answering a proposal or a request.
type AcceptArgs = exchangecmd.AcceptArgs

// AcceptPresentationArgs model
//
// This is used for acknowledging a received presentation.
type AcceptPresentationArgs = exchangecmd.RecordIDArgs
