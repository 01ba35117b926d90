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

// Package stunresolver discovers a node's public address via STUN, mirroring
// the teacher's resolver.NewStunResolver but backed by a real client,
// github.com/pion/stun, instead of a hand-rolled binding-request encoder.
package stunresolver

import (
	"fmt"
	"net"

	"github.com/pion/stun"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/resolver"
)

const defaultServer = "stun.l.google.com:19302"

type stunResolver struct {
	server string
}

// New returns a resolver.PublicAddressResolver backed by a STUN binding
// request against server. An empty server selects a well-known public STUN
// server, the way the teacher's NewStunResolver("") does.
func New(server string) resolver.PublicAddressResolver {
	if server == "" {
		server = defaultServer
	}
	return &stunResolver{server: server}
}

// Resolve implements resolver.PublicAddressResolver. local.Port is used for
// the returned address's port (STUN only tells us the NAT's public
// mapping, not how local.Port was chosen); the discovered IP replaces
// local.Host.
func (s *stunResolver) Resolve(local contact.Address) (contact.Address, error) {
	conn, err := net.Dial("udp4", s.server)
	if err != nil {
		return contact.Address{}, fmt.Errorf("stunresolver: dial %s: %w", s.server, err)
	}
	defer conn.Close()

	client, err := stun.NewClient(conn)
	if err != nil {
		return contact.Address{}, fmt.Errorf("stunresolver: new client: %w", err)
	}
	defer client.Close()

	message := stun.MustBuild(stun.TransactionID, stun.BindingRequest)

	var resolved contact.Address
	var doErr error
	err = client.Do(message, func(ev stun.Event) {
		if ev.Error != nil {
			doErr = ev.Error
			return
		}
		var xorAddr stun.XORMappedAddress
		if err := xorAddr.GetFrom(ev.Message); err != nil {
			doErr = fmt.Errorf("stunresolver: read mapped address: %w", err)
			return
		}
		resolved = contact.Address{Host: xorAddr.IP.String(), Port: local.Port}
	})
	if err != nil {
		return contact.Address{}, fmt.Errorf("stunresolver: binding request: %w", err)
	}
	if doErr != nil {
		return contact.Address{}, doErr
	}
	return resolved, nil
}
