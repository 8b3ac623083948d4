/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/mocks/webhook"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/internal/exchangetest"
	"github.com/hyperledger/aries-exchange-go/pkg/store/connection"
)

func TestGetRESTHandlers(t *testing.T) {
	t.Run("default notifier", func(t *testing.T) {
		handlers, err := GetRESTHandlers(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever),
			WithWebhookURLs("http://localhost:8080"))
		require.NoError(t, err)

		// exchange, issue credential, present proof and the websocket handler
		require.Len(t, handlers, 7+7+5+1)
	})

	t.Run("custom notifier with metrics", func(t *testing.T) {
		handlers, err := GetRESTHandlers(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever),
			WithNotifier(webhook.NewMockWebhookNotifier()), WithMetrics(prometheus.NewRegistry()))
		require.NoError(t, err)
		require.Len(t, handlers, 8+7+5)
	})

	t.Run("connection management", func(t *testing.T) {
		recorder, err := connection.NewRecorder(mem.NewProvider())
		require.NoError(t, err)

		handlers, err := GetRESTHandlers(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever),
			WithNotifier(webhook.NewMockWebhookNotifier()), WithConnections(recorder))
		require.NoError(t, err)
		require.Len(t, handlers, 7+7+5+4)

		cmdHandlers, err := GetCommandHandlers(exchangetest.NewDispatcher(t, exchange.AutoAcceptNever),
			WithNotifier(webhook.NewMockWebhookNotifier()), WithConnections(recorder))
		require.NoError(t, err)
		require.Len(t, cmdHandlers, 7+7+5+4)
	})

	t.Run("missing dispatcher", func(t *testing.T) {
		_, err := GetRESTHandlers(nil)
		require.Error(t, err)
	})
}

func TestGetCommandHandlers(t *testing.T) {
	notifier := webhook.NewMockWebhookNotifier()

	d := exchangetest.NewDispatcher(t, exchange.AutoAcceptNever)

	handlers, err := GetCommandHandlers(d, WithNotifier(notifier))
	require.NoError(t, err)
	require.Len(t, handlers, 7+7+5)

	exchangetest.Offer(t, d)

	require.Eventually(t, func() bool {
		return len(notifier.Topics()) > 0
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, exchangecmd.StatesTopic, notifier.Topics()[0])

	t.Run("missing dispatcher", func(t *testing.T) {
		_, err := GetCommandHandlers(nil)
		require.Error(t, err)
	})
}
