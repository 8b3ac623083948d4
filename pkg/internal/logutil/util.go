/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats the log lines of controller commands as command, action and key=[value] pairs.
package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// LogError logs a failed command action.
func LogError(logger log.Logger, command, action, errMsg string, data ...string) {
	logger.Errorf("%s errMsg=[%s]", line(command, action, data), errMsg)
}

// LogDebug logs a command action at debug level.
func LogDebug(logger log.Logger, command, action, msg string, data ...string) {
	logger.Debugf("%s msg=[%s]", line(command, action, data), msg)
}

// LogInfo logs a command action at info level.
func LogInfo(logger log.Logger, command, action, msg string, data ...string) {
	logger.Infof("%s msg=[%s]", line(command, action, data), msg)
}

// CreateKeyValueString returns key=[val].
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func line(command, action string, data []string) string {
	fields := append([]string{CreateKeyValueString("command", command), CreateKeyValueString("action", action)},
		data...)

	return strings.Join(fields, " ")
}
