/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessageType(t *testing.T) {
	t.Run("didcomm.org", func(t *testing.T) {
		mt, err := ParseMessageType("https://didcomm.org/issue-credential/2.0/offer-credential")
		require.NoError(t, err)
		require.Equal(t, "issue-credential", mt.Protocol)
		require.Equal(t, 2, mt.Major)
		require.Equal(t, 0, mt.Minor)
		require.Equal(t, "offer-credential", mt.Name)
		require.Equal(t, "https://didcomm.org/issue-credential/2.0/offer-credential", mt.String())
	})

	t.Run("legacy prefix", func(t *testing.T) {
		mt, err := ParseMessageType("did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/present-proof/1.3/presentation")
		require.NoError(t, err)
		require.Equal(t, LegacyPrefix, mt.Prefix)
		require.Equal(t, "present-proof", mt.Protocol)
		require.Equal(t, 1, mt.Major)
		require.Equal(t, 3, mt.Minor)
	})

	t.Run("errors", func(t *testing.T) {
		for _, uri := range []string{
			"",
			"https://example.com/issue-credential/2.0/offer-credential",
			"https://didcomm.org/issue-credential/offer-credential",
			"https://didcomm.org/issue-credential/2/offer-credential",
			"https://didcomm.org/issue-credential/x.0/offer-credential",
			"https://didcomm.org/issue-credential/2.y/offer-credential",
			"https://didcomm.org/issue-credential/2.0/",
		} {
			_, err := ParseMessageType(uri)
			require.Error(t, err, uri)
		}
	})

	t.Run("default prefix when rendering", func(t *testing.T) {
		require.Equal(t, "https://didcomm.org/present-proof/1.0/ack",
			MessageType{Protocol: "present-proof", Major: 1, Name: "ack"}.String())
	})
}
