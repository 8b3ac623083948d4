/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DIDCommPrefix is the message type prefix of https://didcomm.org protocols.
	DIDCommPrefix = "https://didcomm.org/"
	// LegacyPrefix is the message type prefix used by agents that predate the didcomm.org prefix.
	LegacyPrefix = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/"
)

// MessageType is a parsed DIDComm message type URI: <prefix><protocol>/<major>.<minor>/<name>.
type MessageType struct {
	Prefix   string
	Protocol string
	Major    int
	Minor    int
	Name     string
}

// ParseMessageType parses a DIDComm message type URI.
func ParseMessageType(uri string) (MessageType, error) {
	var prefix string

	switch {
	case strings.HasPrefix(uri, DIDCommPrefix):
		prefix = DIDCommPrefix
	case strings.HasPrefix(uri, LegacyPrefix):
		prefix = LegacyPrefix
	default:
		return MessageType{}, fmt.Errorf("unsupported message type prefix: %q", uri)
	}

	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" { // nolint: gomnd
		return MessageType{}, fmt.Errorf("malformed message type: %q", uri)
	}

	version := strings.SplitN(parts[1], ".", 2) // nolint: gomnd
	if len(version) != 2 {                     // nolint: gomnd
		return MessageType{}, fmt.Errorf("malformed protocol version in message type: %q", uri)
	}

	major, err := strconv.Atoi(version[0])
	if err != nil {
		return MessageType{}, fmt.Errorf("major version of %q: %w", uri, err)
	}

	minor, err := strconv.Atoi(version[1])
	if err != nil {
		return MessageType{}, fmt.Errorf("minor version of %q: %w", uri, err)
	}

	return MessageType{
		Prefix:   prefix,
		Protocol: parts[0],
		Major:    major,
		Minor:    minor,
		Name:     parts[2],
	}, nil
}

// String renders the type URI.
func (t MessageType) String() string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DIDCommPrefix
	}

	return fmt.Sprintf("%s%s/%d.%d/%s", prefix, t.Protocol, t.Major, t.Minor, t.Name)
}
