/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decorator

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachmentData_Fetch(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data := &AttachmentData{JSON: map[string]interface{}{"name": "Alice"}}

		bits, err := data.Fetch()
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"Alice"}`, string(bits))
	})

	t.Run("base64", func(t *testing.T) {
		data := &AttachmentData{Base64: base64.StdEncoding.EncodeToString([]byte(`{"a":1}`))}

		bits, err := data.Fetch()
		require.NoError(t, err)
		require.JSONEq(t, `{"a":1}`, string(bits))
	})

	t.Run("invalid base64", func(t *testing.T) {
		data := &AttachmentData{Base64: "%%%"}

		_, err := data.Fetch()
		require.Error(t, err)
		require.Contains(t, err.Error(), "base64 decode")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := (&AttachmentData{}).Fetch()
		require.True(t, errors.Is(err, ErrNoData))
	})
}
