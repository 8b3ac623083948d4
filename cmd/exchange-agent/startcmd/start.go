/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	spilog "github.com/hyperledger/aries-framework-go/spi/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hyperledger/aries-exchange-go/pkg/common/metrics"
	"github.com/hyperledger/aries-exchange-go/pkg/common/zaplog"
	"github.com/hyperledger/aries-exchange-go/pkg/controller"
	connectioncmd "github.com/hyperledger/aries-exchange-go/pkg/controller/command/connection"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/autoaccept"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/dispatcher"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/dif"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/indy"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/formats/ldproof"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/aries-exchange-go/pkg/store/connection"
	exchangestore "github.com/hyperledger/aries-exchange-go/pkg/store/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/store/exchange/sqlstore"
)

const (
	// api host flag.
	agentHostFlagName      = "api-host"
	agentHostEnvKey        = "EXCHANGE_API_HOST"
	agentHostFlagShorthand = "a"
	agentHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + agentHostEnvKey

	// api token flag.
	agentTokenFlagName      = "api-token"
	agentTokenEnvKey        = "EXCHANGE_API_TOKEN" // nolint:gosec
	agentTokenFlagShorthand = "t"
	agentTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + agentTokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "EXCHANGE_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database holding negotiation records. " +
		"Supported options: mem, leveldb, sqlite. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databaseURLFlagName      = "database-url"
	databaseURLEnvKey        = "EXCHANGE_DATABASE_URL"
	databaseURLFlagShorthand = "v"
	databaseURLFlagUsage     = "The URL of the database. Not needed if using memstore." +
		" For leveldb this is the database directory, for sqlite the data source name." +
		" Alternatively, this can be set with the following environment variable: " + databaseURLEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "EXCHANGE_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// webhook url flag.
	agentWebhookFlagName      = "webhook-url"
	agentWebhookEnvKey        = "EXCHANGE_WEBHOOK_URL"
	agentWebhookFlagShorthand = "w"
	agentWebhookFlagUsage     = "URL to send notifications to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + agentWebhookEnvKey

	// log level.
	agentLogLevelFlagName  = "log-level"
	agentLogLevelEnvKey    = "EXCHANGE_LOG_LEVEL"
	agentLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentLogLevelEnvKey

	// auto accept flag.
	agentAutoAcceptFlagName  = "auto-accept"
	agentAutoAcceptEnvKey    = "EXCHANGE_AUTO_ACCEPT"
	agentAutoAcceptFlagUsage = "Auto accept policy of negotiations that set none." +
		" Possible values [always] [content-approved] [never]. Defaults to never if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentAutoAcceptEnvKey

	// require connections flag.
	agentRequireConnectionsFlagName  = "require-connections"
	agentRequireConnectionsEnvKey    = "EXCHANGE_REQUIRE_CONNECTIONS"
	agentRequireConnectionsFlagUsage = "Only reply over connections recorded as completed." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentRequireConnectionsEnvKey

	agentTLSCertFileFlagName      = "tls-cert-file"
	agentTLSCertFileEnvKey        = "TLS_CERT_FILE"
	agentTLSCertFileFlagShorthand = "c"
	agentTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSCertFileEnvKey

	agentTLSKeyFileFlagName      = "tls-key-file"
	agentTLSKeyFileEnvKey        = "TLS_KEY_FILE"
	agentTLSKeyFileFlagShorthand = "k"
	agentTLSKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + agentTLSKeyFileEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
	databaseTypeSQLiteOption  = "sqlite"

	connectionCacheSize = 1000
	connectionCacheTTL  = 5 * time.Minute
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("aries-framework/exchange-agent")
)

type agentParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	webhookURLs             []string
	autoAccept              exchange.AutoAccept
	requireConnections      bool
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	url     string
	timeout uint64
}

// stores are the collaborators opened from a database.
type stores struct {
	records     exchange.Store
	connections storage.Provider
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(url string) (*stores, error){
	databaseTypeMemOption: func(_ string) (*stores, error) {
		return openProvider(mem.NewProvider())
	},
	databaseTypeLevelDBOption: func(path string) (*stores, error) {
		return openProvider(leveldb.NewProvider(path))
	},
	databaseTypeSQLiteOption: func(dsn string) (*stores, error) {
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}

		records, err := sqlstore.New(db)
		if err != nil {
			return nil, err
		}

		logger.Warnf("connection records are kept in memory with the sqlite database type")

		return &stores{records: records, connections: mem.NewProvider()}, nil
	},
}

func openProvider(p storage.Provider) (*stores, error) {
	records, err := exchangestore.New(p)
	if err != nil {
		return nil, err
	}

	return &stores{records: records, connections: p}, nil
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command { //nolint: funlen
	return &cobra.Command{
		Use:   "start",
		Short: "Start an agent",
		Long:  `Start an issue-credential and present-proof exchange agent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// log level
			logLevel, err := getUserSetVar(cmd, agentLogLevelFlagName, agentLogLevelEnvKey, true)
			if err != nil {
				return err
			}

			err = setLogLevel(logLevel)
			if err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, agentHostFlagName, agentHostEnvKey, false)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, agentTokenFlagName, agentTokenEnvKey, true)
			if err != nil {
				return err
			}

			dbParam, err := getDBParam(cmd)
			if err != nil {
				return err
			}

			autoAccept, err := getAutoAcceptValue(cmd)
			if err != nil {
				return err
			}

			requireConnections, err := getRequireConnectionsValue(cmd)
			if err != nil {
				return err
			}

			webhookURLs, err := getUserSetVars(cmd, agentWebhookFlagName, agentWebhookEnvKey, true)
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, agentTLSCertFileFlagName, agentTLSCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, agentTLSKeyFileFlagName, agentTLSKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &agentParameters{
				server:             server,
				host:               host,
				token:              token,
				dbParam:            dbParam,
				webhookURLs:        webhookURLs,
				autoAccept:         autoAccept,
				requireConnections: requireConnections,
				tlsCertFile:        tlsCertFile,
				tlsKeyFile:         tlsKeyFile,
			}

			return startAgent(parameters)
		},
	}
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.url, err = getUserSetVar(cmd, databaseURLFlagName, databaseURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getAutoAcceptValue(cmd *cobra.Command) (exchange.AutoAccept, error) {
	v, err := getUserSetVar(cmd, agentAutoAcceptFlagName, agentAutoAcceptEnvKey, true)
	if err != nil {
		return exchange.AutoAcceptUnset, err
	}

	return exchange.ParseAutoAccept(v)
}

func getRequireConnectionsValue(cmd *cobra.Command) (bool, error) {
	v, err := getUserSetVar(cmd, agentRequireConnectionsFlagName, agentRequireConnectionsEnvKey, true)
	if err != nil {
		return false, err
	}

	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

func createFlags(startCmd *cobra.Command) {
	// agent host flag
	startCmd.Flags().StringP(agentHostFlagName, agentHostFlagShorthand, "", agentHostFlagUsage)

	// agent token flag
	startCmd.Flags().StringP(agentTokenFlagName, agentTokenFlagShorthand, "", agentTokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)

	// db url
	startCmd.Flags().StringP(databaseURLFlagName, databaseURLFlagShorthand, "", databaseURLFlagUsage)

	// webhook url flag
	startCmd.Flags().StringSliceP(agentWebhookFlagName, agentWebhookFlagShorthand, []string{}, agentWebhookFlagUsage)

	// log level
	startCmd.Flags().StringP(agentLogLevelFlagName, "", "", agentLogLevelFlagUsage)

	// auto accept flag
	startCmd.Flags().StringP(agentAutoAcceptFlagName, "", "", agentAutoAcceptFlagUsage)

	// require connections flag
	startCmd.Flags().StringP(agentRequireConnectionsFlagName, "", "", agentRequireConnectionsFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(agentTLSCertFileFlagName,
		agentTLSCertFileFlagShorthand, "", agentTLSCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(agentTLSKeyFileFlagName,
		agentTLSKeyFileFlagShorthand, "", agentTLSKeyFileFlagUsage)

	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

// setLogLevel installs the zap provider at logLevel. It takes effect once per process.
func setLogLevel(logLevel string) error {
	level := spilog.INFO

	if logLevel != "" {
		var err error

		level, err = log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}
	}

	provider, err := zaplog.NewProduction(level)
	if err != nil {
		return fmt.Errorf("failed to create logger : %w", err)
	}

	log.Initialize(provider)
	log.SetLevel("", level)

	if logLevel != "" {
		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startAgent(parameters *agentParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	router, err := createRouter(parameters)
	if err != nil {
		return fmt.Errorf("failed to start exchange agent on port [%s], cause:  %w", parameters.host, err)
	}

	logger.Infof("Starting exchange agent on host [%s]", parameters.host)
	// start server on given port and serve using given handlers
	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start exchange agent on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createRouter(parameters *agentParameters) (*mux.Router, error) {
	opened, err := createStores(parameters.dbParam)
	if err != nil {
		return nil, err
	}

	recorder, err := connection.NewRecorder(opened.connections)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	opts := []dispatcher.Option{
		dispatcher.WithAutoAccept(autoaccept.New(autoaccept.WithPolicy(parameters.autoAccept))),
		dispatcher.WithMetrics(metrics.New(registry)),
	}

	var cmdOpts []connectioncmd.Option

	if parameters.requireConnections {
		lookup := connection.NewCachedLookup(recorder, connectionCacheSize, connectionCacheTTL)

		opts = append(opts, dispatcher.WithConnectionLookup(lookup))
		cmdOpts = append(cmdOpts, connectioncmd.WithInvalidator(lookup))
	}

	protocols, err := createProtocols()
	if err != nil {
		return nil, err
	}

	d, err := dispatcher.New(opened.records, protocols, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange engine : %w", err)
	}

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(d, controller.WithWebhookURLs(parameters.webhookURLs...),
		controller.WithMetrics(registry), controller.WithConnections(recorder, cmdOpts...))
	if err != nil {
		return nil, fmt.Errorf("failed to get rest service api :  %w", err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return router, nil
}

func createProtocols() ([]dispatcher.Protocol, error) {
	credentials, err := format.NewRegistry(indy.NewCredentialService(), ldproof.New())
	if err != nil {
		return nil, fmt.Errorf("credential formats : %w", err)
	}

	proofs, err := format.NewRegistry(indy.NewProofService(), dif.New())
	if err != nil {
		return nil, fmt.Errorf("proof formats : %w", err)
	}

	return []dispatcher.Protocol{issuecredential.New(credentials), presentproof.New(proofs)}, nil
}

func createStores(param *dbParam) (*stores, error) {
	provider, supported := supportedStorageProviders[param.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var opened *stores

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			opened, openErr = provider(param.url)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), param.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", param.url, err)
	}

	return opened, nil
}
