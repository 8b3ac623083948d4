/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package exchangetest builds engines serving both protocols over an in-memory store.
package exchangetest

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/autoaccept"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/dif"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/ldproof"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/presentproof"
	exchangestore "github.com/hyperledger/aries-exchange-go/pkg/store/exchange"
)

// Connection ids used by the two parties of a test negotiation.
const (
	AliceConn = "alice-to-bob"
	BobConn   = "bob-to-alice"
)

// NewDispatcher returns an engine serving issue-credential and present-proof with every built-in format.
func NewDispatcher(t testing.TB, policy exchange.AutoAccept, opts ...dispatcher.Option) *dispatcher.Dispatcher {
	t.Helper()

	store, err := exchangestore.New(mem.NewProvider())
	require.NoError(t, err)

	credentials, err := format.NewRegistry(indy.NewCredentialService(), ldproof.New())
	require.NoError(t, err)

	proofs, err := format.NewRegistry(indy.NewProofService(), dif.New())
	require.NoError(t, err)

	opts = append([]dispatcher.Option{
		dispatcher.WithAutoAccept(autoaccept.New(autoaccept.WithPolicy(policy))),
	}, opts...)

	d, err := dispatcher.New(store, []dispatcher.Protocol{
		issuecredential.New(credentials),
		presentproof.New(proofs),
	}, opts...)
	require.NoError(t, err)

	return d
}

// Deliver hands msg to d as received on conn and requires it to succeed.
func Deliver(t testing.TB, d *dispatcher.Dispatcher, msg service.DIDCommMsgMap, conn string) *dispatcher.Result {
	t.Helper()

	res, err := d.HandleInbound(msg, service.NewDIDCommContext(conn, "", ""))
	require.NoError(t, err)

	return res
}

// Offer starts an indy credential offer from issuer on AliceConn.
func Offer(t testing.TB, issuer *dispatcher.Dispatcher) *dispatcher.Result {
	t.Helper()

	res, err := issuecredential.NewClient(issuer).SendOffer(&issuecredential.Params{
		ConnectionID: AliceConn,
		Preview:      &exchange.Preview{Attributes: []exchange.PreviewAttribute{{Name: "name", Value: "Alice"}}},
		Formats:      []string{indy.Name},
		Payloads:     map[string]format.Payload{indy.Name: {"schema_id": "schema-1", "cred_def_id": "def-1"}},
	})
	require.NoError(t, err)

	return res
}
