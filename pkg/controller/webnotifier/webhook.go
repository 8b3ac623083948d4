/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPOption configures an HTTPNotifier.
type HTTPOption func(n *HTTPNotifier)

// WithHTTPClient posts notifications through client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(n *HTTPNotifier) {
		n.client = client
	}
}

// HTTPNotifier posts state notifications to webhook subscribers.
type HTTPNotifier struct {
	urls   []string
	client *http.Client
}

// NewHTTPNotifier returns a notifier posting to every url of webhookURLs.
func NewHTTPNotifier(webhookURLs []string, opts ...HTTPOption) *HTTPNotifier {
	n := &HTTPNotifier{urls: webhookURLs, client: http.DefaultClient}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify posts the topic envelope of message to every subscriber. A failing subscriber does not stop the
// delivery to the others; the failures are joined in the returned error.
func (n *HTTPNotifier) Notify(topic string, message []byte) error {
	envelope, err := envelopeOf(topic, message)
	if err != nil {
		return err
	}

	var allErrs error

	for _, url := range n.urls {
		allErrs = appendError(allErrs, n.post(url, envelope))
	}

	return allErrs
}

func (n *HTTPNotifier) post(url string, envelope []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope))
	if err != nil {
		return fmt.Errorf("webhook request to %s: %w", url, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post to %s: %w", url, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)

		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnf("closing webhook response of %s: %v", url, errClose)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook %s answered %s", url, resp.Status)
	}

	logger.Debugf("state notification delivered to %s", url)

	return nil
}
