/*
 *    Copyright 2018 INS Ecosystem
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package messaging implements the request/response correlator of spec
// §4.3, on top of the datagram-shaped transport.Transport. Per the spec's
// DESIGN NOTES (§9), correlation uses explicit tokens embedded in the wire
// envelope rather than pattern-matching on reply shape.
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/kerr"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/transport"
	"github.com/hardentoo/dht/wire"
)

// Handler processes one inbound request and optionally returns a reply
// body. It is called at most once per inbound request (messaging itself
// does not retransmit); returning nil sends no reply.
type Handler func(from contact.Address, cmd wire.CommandTag, body []byte) []byte

// Messaging is the interface the rest of the core consumes.
type Messaging interface {
	// SendRequest transmits body to addr as cmd and blocks for the
	// correlated reply, or until timeout elapses.
	SendRequest(ctx context.Context, to contact.Address, cmd wire.CommandTag, body []byte, timeout time.Duration) ([]byte, error)

	// Serve installs the inbound handler. Only one handler may be
	// installed; Serve is intended to be called once at startup.
	Serve(h Handler)

	// LocalAddr returns the bound local address.
	LocalAddr() contact.Address

	// Close stops serving and releases the underlying transport.
	Close() error
}

type waiter struct {
	reply chan []byte
}

type impl struct {
	t   transport.Transport
	log logging.Logger

	mu      sync.Mutex
	pending map[[16]byte]*waiter
	handler Handler

	done chan struct{}
}

// New wraps t with request/response correlation. log may be nil (a no-op
// logger is substituted).
func New(t transport.Transport, log logging.Logger) Messaging {
	if log == nil {
		log = logging.NewNop()
	}
	m := &impl{
		t:       t,
		log:     log,
		pending: make(map[[16]byte]*waiter),
		done:    make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func newToken() [16]byte {
	u := uuid.New()
	var tok [16]byte
	copy(tok[:], u[:])
	return tok
}

// SendRequest implements Messaging.
func (m *impl) SendRequest(ctx context.Context, to contact.Address, cmd wire.CommandTag, body []byte, timeout time.Duration) ([]byte, error) {
	token := newToken()
	w := &waiter{reply: make(chan []byte, 1)}

	m.mu.Lock()
	m.pending[token] = w
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, token)
		m.mu.Unlock()
	}()

	env := wire.Envelope{Token: token, Command: cmd, IsRequest: true, Body: body}
	payload, err := wire.EncodeEnvelope(env)
	if err != nil {
		return nil, kerr.Wrap(err, "messaging: encode request")
	}

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := m.t.Send(sendCtx, to, payload); err != nil {
		return nil, kerr.Wrap(kerr.Unreachable, err.Error())
	}

	select {
	case reply := <-w.reply:
		return reply, nil
	case <-sendCtx.Done():
		return nil, kerr.Wrapf(kerr.Unreachable, "messaging: timeout waiting for %s reply from %s", cmd, to)
	}
}

// Serve implements Messaging.
func (m *impl) Serve(h Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// LocalAddr implements Messaging.
func (m *impl) LocalAddr() contact.Address {
	return m.t.LocalAddr()
}

// Close implements Messaging.
func (m *impl) Close() error {
	close(m.done)
	return m.t.Close()
}

func (m *impl) readLoop() {
	for {
		select {
		case pkt, ok := <-m.t.Inbound():
			if !ok {
				return
			}
			m.handlePacket(pkt)
		case <-m.done:
			return
		}
	}
}

func (m *impl) handlePacket(pkt transport.Packet) {
	env, err := wire.DecodeEnvelope(pkt.Payload)
	if err != nil {
		m.log.Log(logging.Warn, "messaging: dropping malformed envelope", "from", pkt.From, "err", err)
		return
	}

	if !env.IsRequest {
		m.mu.Lock()
		w, ok := m.pending[env.Token]
		m.mu.Unlock()
		if !ok {
			// Late or duplicate reply for an abandoned/expired waiter;
			// drop it silently, per spec §5 cancellation semantics.
			return
		}
		select {
		case w.reply <- env.Body:
		default:
		}
		return
	}

	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		return
	}

	reply := h(pkt.From, env.Command, env.Body)
	if reply == nil {
		return
	}
	respEnv := wire.Envelope{Token: env.Token, Command: env.Command, IsRequest: false, Body: reply}
	respPayload, err := wire.EncodeEnvelope(respEnv)
	if err != nil {
		m.log.Log(logging.Error, "messaging: encode response failed", "err", err)
		return
	}
	if err := m.t.Send(context.Background(), pkt.From, respPayload); err != nil {
		m.log.Log(logging.Warn, "messaging: send response failed", "to", pkt.From, "err", err)
	}
}
