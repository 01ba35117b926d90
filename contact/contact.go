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

// Package contact holds the remote-node identity the rest of the module
// routes, dials, and stores against.
package contact

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hardentoo/dht/id"
)

// Address is an opaque transport endpoint. Equality is structural, so two
// Addresses built from the same host/port compare equal regardless of how
// they were constructed.
type Address struct {
	Host string
	Port int
}

// NewAddress parses "host:port" the way the reference CLI's --addr and
// --bootstrap flags do.
func NewAddress(hostport string) (Address, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Address{}, fmt.Errorf("contact: invalid address %q: %w", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("contact: invalid port in %q: %w", hostport, err)
	}
	return Address{Host: host, Port: port}, nil
}

// String renders the address in host:port form.
func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Contact is a remote node as known by the local routing table: its
// identifier, its transport endpoint, and when we last heard from it.
//
// Two Contacts are equal iff their IDs are equal; an Address change for the
// same ID is an update, never a duplicate (see routing.Table.Insert).
type Contact struct {
	ID       id.ID
	Addr     Address
	LastSeen time.Time
}

// New builds a Contact observed at now.
func New(contactID id.ID, addr Address, now time.Time) Contact {
	return Contact{ID: contactID, Addr: addr, LastSeen: now}
}

// Equal compares Contacts by ID only, per the type's documented equality.
func (c Contact) Equal(other Contact) bool {
	return c.ID.Equal(other.ID)
}

func (c Contact) String() string {
	return fmt.Sprintf("%s@%s", c.ID, c.Addr)
}
