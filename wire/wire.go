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

// Package wire defines the abstract wire messages of spec §6 and a concrete
// CBOR codec for them. The messaging layer treats encoded messages as
// opaque bytes; this package is the only place that knows their shape.
package wire

// CommandTag identifies which of the five RPCs (four core + the supplement
// RPC passthrough) a message carries.
type CommandTag uint8

const (
	Ping CommandTag = iota
	Store
	FindContact
	FindValue
	RPC
)

func (t CommandTag) String() string {
	switch t {
	case Ping:
		return "PING"
	case Store:
		return "STORE"
	case FindContact:
		return "FIND_CONTACT"
	case FindValue:
		return "FIND_VALUE"
	case RPC:
		return "RPC"
	default:
		return "UNKNOWN"
	}
}

// NodeRef is the (id, addr) pair carried in ContactsResp/FoundValueResp,
// kept separate from contact.Contact because the wire form has no
// LastSeen -- that's local-only bookkeeping.
type NodeRef struct {
	ID   []byte `cbor:"1,keyasint"`
	Host string `cbor:"2,keyasint"`
	Port int    `cbor:"3,keyasint"`
}

// PingReq is spec §6's PingReq: sender_id, nonce.
type PingReq struct {
	SenderID []byte `cbor:"1,keyasint"`
	Nonce    uint64 `cbor:"2,keyasint"`
}

// PingResp is spec §6's PingResp: sender_id, nonce.
type PingResp struct {
	SenderID []byte `cbor:"1,keyasint"`
	Nonce    uint64 `cbor:"2,keyasint"`
}

// StoreReq is spec §6's StoreReq: sender_id, key_id, value_bytes.
type StoreReq struct {
	SenderID []byte `cbor:"1,keyasint"`
	KeyID    []byte `cbor:"2,keyasint"`
	Value    []byte `cbor:"3,keyasint"`
}

// StoreResp is spec §6's StoreResp: sender_id, key_id.
type StoreResp struct {
	SenderID []byte `cbor:"1,keyasint"`
	KeyID    []byte `cbor:"2,keyasint"`
}

// FindContactReq is spec §6's FindContactReq: sender_id, target_id.
type FindContactReq struct {
	SenderID []byte `cbor:"1,keyasint"`
	TargetID []byte `cbor:"2,keyasint"`
}

// FindValueReq is spec §6's FindValueReq: sender_id, target_id.
type FindValueReq struct {
	SenderID []byte `cbor:"1,keyasint"`
	TargetID []byte `cbor:"2,keyasint"`
}

// ContactsResp is spec §6's ContactsResp: sender_id, up to k (id, addr)
// pairs. ExactMatch is set when one of Contacts has ID == the request's
// target (spec §4.5, FindContact).
type ContactsResp struct {
	SenderID   []byte    `cbor:"1,keyasint"`
	Contacts   []NodeRef `cbor:"2,keyasint"`
	ExactMatch bool      `cbor:"3,keyasint"`
}

// FoundValueResp is spec §6's FoundValueResp: sender_id, value_bytes, up to
// k (id, addr) pairs (the latter used for the cache-forward step of §4.6).
type FoundValueResp struct {
	SenderID []byte    `cbor:"1,keyasint"`
	Value    []byte    `cbor:"2,keyasint"`
	Contacts []NodeRef `cbor:"3,keyasint"`
}

// RPCReq carries the supplement remote-procedure-call passthrough
// (method name + byte-slice args), mirroring the teacher's RequestDataRPC.
type RPCReq struct {
	SenderID []byte   `cbor:"1,keyasint"`
	Method   string   `cbor:"2,keyasint"`
	Args     [][]byte `cbor:"3,keyasint"`
}

// RPCResp carries the result of an RPCReq.
type RPCResp struct {
	SenderID []byte `cbor:"1,keyasint"`
	Success  bool   `cbor:"2,keyasint"`
	Result   []byte `cbor:"3,keyasint"`
	Error    string `cbor:"4,keyasint"`
}

// Envelope is what actually crosses the transport: a correlation token, the
// command tag, and the CBOR-encoded body. IsRequest distinguishes a request
// from its reply when a transport delivers both directions on one channel.
type Envelope struct {
	Token     [16]byte   `cbor:"1,keyasint"`
	Command   CommandTag `cbor:"2,keyasint"`
	IsRequest bool       `cbor:"3,keyasint"`
	Body      []byte     `cbor:"4,keyasint"`
}
