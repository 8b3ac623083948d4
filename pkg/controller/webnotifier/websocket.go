/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-exchange-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-exchange-go/pkg/controller/rest"
)

// WSNotifier pushes state notifications to the websocket clients connected on its path.
type WSNotifier struct {
	mu       sync.RWMutex
	conns    map[*websocket.Conn]struct{}
	handlers []rest.Handler
}

// NewWSNotifier returns a notifier accepting clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{conns: map[*websocket.Conn]struct{}{}}
	n.handlers = []rest.Handler{cmdutil.NewHTTPHandler(path, http.MethodGet, n.subscribe)}

	return n
}

// Notify writes the topic envelope of message to every connected client. The failures are joined in the
// returned error.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	envelope, err := envelopeOf(topic, message)
	if err != nil {
		return err
	}

	var allErrs error

	for _, conn := range n.clients() {
		allErrs = appendError(allErrs, write(conn, envelope))
	}

	return allErrs
}

// GetRESTHandlers returns the subscription handler.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

func (n *WSNotifier) clients() []*websocket.Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(n.conns))
	for conn := range n.conns {
		conns = append(conns, conn)
	}

	return conns
}

func write(conn *websocket.Conn, envelope []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, envelope)
}

// subscribe upgrades the request and keeps the client registered until it disconnects. Clients only listen:
// any frame they send closes the connection.
func (n *WSNotifier) subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("websocket subscription refused: %v", err)

		return
	}

	n.mu.Lock()
	n.conns[conn] = struct{}{}
	n.mu.Unlock()

	logger.Debugf("websocket subscriber connected")

	defer func() {
		n.mu.Lock()
		delete(n.conns, conn)
		n.mu.Unlock()

		logger.Debugf("websocket subscriber dropped")
	}()

	_, _, err = conn.Reader(context.Background())
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("websocket subscriber read: %v", err)
	}

	if err = conn.Close(websocket.StatusPolicyViolation, "subscribers only listen"); err != nil {
		logger.Debugf("closing websocket subscriber: %v", err)
	}
}
