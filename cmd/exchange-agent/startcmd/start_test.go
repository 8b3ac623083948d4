/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	exchangecmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

type mockServer struct {
	handler http.Handler
	err     error
}

func (s *mockServer) ListenAndServe(host string, handler http.Handler, certFile, keyFile string) error {
	s.handler = handler

	return s.err
}

func (s *mockServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	require.NotNil(t, s.handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	return rr
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start an agent", startCmd.Short)
	require.Equal(t, "Start an issue-credential and present-proof exchange agent", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, agentHostFlagName, agentHostFlagShorthand, agentHostFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, agentWebhookFlagName,
		agentWebhookFlagShorthand, agentWebhookFlagUsage, "[]")
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, agentAutoAcceptFlagName, "", agentAutoAcceptFlagUsage, "")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())

	flagAnnotations := flag.Annotations
	require.Nil(t, flagAnnotations)
}

func execute(t *testing.T, server server, args ...string) error {
	t.Helper()

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs(args)

	return startCmd.Execute()
}

func TestStartCmdWithMissingHostArg(t *testing.T) {
	err := execute(t, &mockServer{}, "--"+databaseTypeFlagName, databaseTypeMemOption)
	require.EqualError(t, err,
		"Neither api-host (command line flag) nor EXCHANGE_API_HOST (environment variable) have been set.")
}

func TestStartCmdWithBlankHostArg(t *testing.T) {
	err := execute(t, &mockServer{}, "--"+agentHostFlagName, "", "--"+databaseTypeFlagName, databaseTypeMemOption)
	require.Equal(t, errMissingHost, err)
}

func TestStartCmdWithoutDBType(t *testing.T) {
	err := execute(t, &mockServer{}, "--"+agentHostFlagName, "localhost:8080")
	require.EqualError(t, err,
		"Neither database-type (command line flag) nor EXCHANGE_DATABASE_TYPE (environment variable) have been set.")
}

func TestStartCmdInvalidArgs(t *testing.T) {
	base := []string{"--" + agentHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, databaseTypeMemOption}

	tests := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "database type",
			args: []string{"--" + agentHostFlagName, "localhost:8080", "--" + databaseTypeFlagName, "couchdb"},
			err:  "database type not set to a valid type",
		},
		{
			name: "database timeout",
			args: append([]string{"--" + databaseTimeoutFlagName, "soon"}, base...),
			err:  "failed to parse db timeout soon",
		},
		{
			name: "auto accept",
			args: append([]string{"--" + agentAutoAcceptFlagName, "sometimes"}, base...),
			err:  `invalid auto-accept policy "sometimes"`,
		},
		{
			name: "require connections",
			args: append([]string{"--" + agentRequireConnectionsFlagName, "maybe"}, base...),
			err:  "invalid syntax",
		},
		{
			name: "log level",
			args: append([]string{"--" + agentLogLevelFlagName, "LOUD"}, base...),
			err:  "failed to parse log level 'LOUD'",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			err := execute(t, &mockServer{}, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestStartCmdServerError(t *testing.T) {
	err := execute(t, &mockServer{err: fmt.Errorf("port in use")},
		"--"+agentHostFlagName, "localhost:8080", "--"+databaseTypeFlagName, databaseTypeMemOption)
	require.Error(t, err)
	require.Contains(t, err.Error(), "port in use")
}

func TestStartCmdFromEnv(t *testing.T) {
	t.Setenv(agentHostEnvKey, "localhost:8080")
	t.Setenv(databaseTypeEnvKey, databaseTypeMemOption)
	t.Setenv(agentAutoAcceptEnvKey, string(exchange.AutoAcceptAlways))
	t.Setenv(agentWebhookEnvKey, "http://localhost:8081,http://localhost:8082")
	t.Setenv(agentLogLevelEnvKey, "DEBUG")

	server := &mockServer{}

	require.NoError(t, execute(t, server))
	require.NotNil(t, server.handler)
}

func TestAgentRequests(t *testing.T) {
	server := &mockServer{}

	require.NoError(t, execute(t, server,
		"--"+agentHostFlagName, "localhost:8080",
		"--"+databaseTypeFlagName, databaseTypeMemOption,
		"--"+agentTokenFlagName, "secret",
		"--"+agentRequireConnectionsFlagName, "true",
	))

	t.Run("unauthorized", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/exchange/records", "", "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = server.do(t, http.MethodGet, "/exchange/records", "", "wrong")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	offer := `{
		"connection_id": "alice-to-bob",
		"preview": {"attributes": [{"name": "name", "value": "Alice"}]},
		"formats": ["hlindy"],
		"payloads": {"hlindy": {"schema_id": "schema-1", "cred_def_id": "def-1"}}
	}`

	t.Run("offer over an unknown connection", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/issuecredential/send-offer", offer, "secret")
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), "missing")
	})

	t.Run("offer over a recorded connection", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/connections",
			`{"connection_id":"alice-to-bob","state":"completed"}`, "secret")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = server.do(t, http.MethodPost, "/issuecredential/send-offer", offer, "secret")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var res exchangecmd.ResultResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		require.Equal(t, exchange.StateOfferSent, res.Record.State)

		rr = server.do(t, http.MethodGet, "/exchange/records", "", "secret")
		require.Equal(t, http.StatusOK, rr.Code)

		var records exchangecmd.RecordsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		require.Len(t, records.Records, 1)
	})

	t.Run("removed connection", func(t *testing.T) {
		rr := server.do(t, http.MethodDelete, "/connections/alice-to-bob", "", "secret")
		require.Equal(t, http.StatusOK, rr.Code)

		rr = server.do(t, http.MethodPost, "/issuecredential/send-offer", offer, "secret")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/metrics", "", "secret")
		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), "exchange_transitions_total")
		require.Contains(t, rr.Body.String(), "go_goroutines")
	})
}

func TestCreateStores(t *testing.T) {
	t.Run("leveldb", func(t *testing.T) {
		opened, err := createStores(&dbParam{dbType: databaseTypeLevelDBOption, url: t.TempDir(), timeout: 1})
		require.NoError(t, err)
		require.NotNil(t, opened.records)
		require.NotNil(t, opened.connections)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())

		opened, err := createStores(&dbParam{dbType: databaseTypeSQLiteOption, url: dsn, timeout: 1})
		require.NoError(t, err)

		_, err = opened.records.ListRecords()
		require.NoError(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := createStores(&dbParam{dbType: "couchdb"})
		require.Error(t, err)
	})
}
