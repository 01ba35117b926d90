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

// Package transport is the physical-transport seam spec §1 declares out of
// core scope: a datagram-shaped interface the messaging layer builds
// request/response correlation on top of. Concrete implementations live in
// subpackages (utptransport for the real network, memtransport for tests).
package transport

import (
	"context"

	"github.com/hardentoo/dht/contact"
)

// Packet is one inbound message, with the address it arrived from.
type Packet struct {
	From    contact.Address
	Payload []byte
}

// Transport is the interface the messaging layer consumes. It makes no
// promise of reliability or ordering beyond what its concrete
// implementation documents; messaging supplies its own timeouts and does
// not retransmit.
type Transport interface {
	// Send transmits payload to addr. It does not wait for a reply; the
	// messaging layer correlates replies out-of-band via Inbound.
	Send(ctx context.Context, addr contact.Address, payload []byte) error

	// Inbound returns the channel every received payload is pushed to,
	// paired with the address it came from. Closed when the transport is
	// closed.
	Inbound() <-chan Packet

	// LocalAddr returns the address this transport is reachable at.
	LocalAddr() contact.Address

	// Close stops the transport and releases its resources.
	Close() error
}

// Factory builds a Transport bound to a local address. Kept as its own
// interface (mirroring the teacher's transport.Factory) so callers can
// choose utptransport, memtransport, or any future implementation without
// the rest of the module depending on the concrete type.
type Factory interface {
	Create(ctx context.Context, bind contact.Address) (Transport, error)
}
