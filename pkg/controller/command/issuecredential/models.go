/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	protocol "github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/issuecredential"
)

// SendProposalArgs model
//
// This is used for sending a proposal to the issuer.
type SendProposalArgs struct {
	protocol.Params
}

// SendOfferArgs model
//
// This is used for sending an offer to the holder.
type SendOfferArgs struct {
	protocol.Params
}

// SendRequestArgs model
//
// This is used for sending a request to the issuer.
type SendRequestArgs struct {
	protocol.Params
}

// AcceptArgs model
//
// This is used for answering a proposal, an offer or a request.
type AcceptArgs = exchangecmd.AcceptArgs

// AcceptCredentialArgs model
//
// This is used for acknowledging a received credential.
type AcceptCredentialArgs = exchangecmd.RecordIDArgs
