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

// Package memtransport is an in-process Transport for tests: a shared
// switchboard of addresses to inboxes, so multi-node scenarios (S1-S6 in
// spec §8) run inside one test binary without touching a real socket.
package memtransport

import (
	"context"
	"fmt"
	"sync"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/transport"
)

// Network is a shared registry of Transports, keyed by address. All
// Transports built from the same Network can reach each other.
type Network struct {
	mu    sync.Mutex
	peers map[string]*Transport
}

// NewNetwork returns an empty in-process network.
func NewNetwork() *Network {
	return &Network{peers: make(map[string]*Transport)}
}

// Transport is a transport.Transport bound to one address within a Network.
type Transport struct {
	net    *Network
	addr   contact.Address
	inbox  chan transport.Packet
	mu     sync.Mutex
	closed bool
}

var _ transport.Transport = (*Transport)(nil)

// New binds a new Transport at bind within net. bind must be unique within
// the network.
func (net *Network) New(ctx context.Context, bind contact.Address) (*Transport, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	key := bind.String()
	if _, exists := net.peers[key]; exists {
		return nil, fmt.Errorf("memtransport: address %s already bound", bind)
	}
	t := &Transport{net: net, addr: bind, inbox: make(chan transport.Packet, 256)}
	net.peers[key] = t
	return t, nil
}

// Factory returns a transport.Factory bound to this Network.
func (net *Network) Factory() transport.Factory {
	return transport.FactoryFunc(func(ctx context.Context, bind contact.Address) (transport.Transport, error) {
		return net.New(ctx, bind)
	})
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, addr contact.Address, payload []byte) error {
	t.net.mu.Lock()
	peer, ok := t.net.peers[addr.String()]
	t.net.mu.Unlock()
	if !ok {
		return fmt.Errorf("memtransport: no peer bound at %s", addr)
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	select {
	case peer.inbox <- transport.Packet{From: t.addr, Payload: cp}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound implements transport.Transport.
func (t *Transport) Inbound() <-chan transport.Packet {
	return t.inbox
}

// LocalAddr implements transport.Transport.
func (t *Transport) LocalAddr() contact.Address {
	return t.addr
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.net.mu.Lock()
	delete(t.net.peers, t.addr.String())
	t.net.mu.Unlock()
	close(t.inbox)
	return nil
}
