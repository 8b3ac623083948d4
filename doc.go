/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchange hosts an engine for the Aries issue-credential and present-proof protocols
// (https://github.com/hyperledger/aries-rfcs).
//
// Packages for end developer usage
//
// pkg/didcomm/protocol/exchange/dispatcher: Correlates inbound messages with negotiation records, drives the
// state machine, and answers peers through the auto-accept coordinator or manual Accept / Decline calls.
//
// pkg/didcomm/protocol/issuecredential and pkg/didcomm/protocol/presentproof: Protocol codecs (v1, v2) and
// client APIs starting negotiations.
//
// pkg/controller: REST and command handlers over a dispatcher.
//
// cmd/exchange-agent: Stand alone agent exposing the REST API.
package exchange
