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

// Package resolver is the outer-layer address discovery named in
// SPEC_FULL.md's domain stack: how a node learns the address other peers
// should dial it at, which is a concern strictly outside the core spec (the
// core only ever consumes contact.Address values it's handed). Kept
// separate from the core packages so none of routing, lookup, messaging or
// node ever imports a network-probing dependency.
package resolver

import "github.com/hardentoo/dht/contact"

// PublicAddressResolver discovers the address a node is reachable at from
// outside its local network.
type PublicAddressResolver interface {
	Resolve(local contact.Address) (contact.Address, error)
}

// Exact returns the local address unchanged, for operators who already know
// their node is directly reachable (no NAT, or a manually configured
// public address).
type Exact struct{}

// NewExactResolver returns a PublicAddressResolver that performs no
// discovery.
func NewExactResolver() PublicAddressResolver {
	return Exact{}
}

// Resolve implements PublicAddressResolver.
func (Exact) Resolve(local contact.Address) (contact.Address, error) {
	return local, nil
}
