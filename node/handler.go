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

// Package node implements the inbound command dispatch of spec §4.5: the
// local node's answers to Ping, Store, FindContact, and FindValue, plus the
// supplement RPC passthrough. Handlers are pure functions of input and
// current state, so processing the same inbound message twice is
// idempotent (spec §8 property 7).
package node

import (
	"time"

	"github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/wire"
)

// RPCInvoker handles the supplement RPC passthrough command. It is optional;
// with a nil invoker, RPC requests are answered with an unsuccessful RPCResp.
type RPCInvoker interface {
	Invoke(from contact.Contact, method string, args [][]byte) ([]byte, error)
}

// Dispatcher answers inbound requests from local state.
type Dispatcher struct {
	SelfID   id.ID
	SelfAddr contact.Address // this node's own bound address, for the FindContact self-match reply
	Table    *routing.Table
	Store    store.Store
	Clock    clock.Clock
	Log      logging.Logger
	Ping     routing.PingFunc // liveness probe used by Table.Insert on a full bucket
	RPC      RPCInvoker
}

// Handle is a messaging.Handler: it decodes the request, applies the
// "insert sender, then dispatch" rule of spec §4.5, and returns the
// encoded reply (or nil to send none).
func (d *Dispatcher) Handle(from contact.Address, cmd wire.CommandTag, body []byte) []byte {
	switch cmd {
	case wire.Ping:
		return d.handlePing(from, body)
	case wire.Store:
		return d.handleStore(from, body)
	case wire.FindContact:
		return d.handleFindContact(from, body)
	case wire.FindValue:
		return d.handleFindValue(from, body)
	case wire.RPC:
		return d.handleRPC(from, body)
	default:
		d.Log.Log(logging.Warn, "node: dropping unknown command", "cmd", cmd)
		return nil
	}
}

func (d *Dispatcher) observe(senderID []byte, from contact.Address) {
	sid, err := id.New(senderID)
	if err != nil {
		d.Log.Log(logging.Warn, "node: malformed sender id", "err", err)
		return
	}
	now := d.Clock.Now()
	d.Table.Insert(contact.New(sid, from, now), now, d.Ping)
}

func (d *Dispatcher) handlePing(from contact.Address, body []byte) []byte {
	var req wire.PingReq
	if err := wire.Decode(body, &req); err != nil {
		d.Log.Log(logging.Warn, "node: malformed PingReq", "err", err)
		return nil
	}
	d.observe(req.SenderID, from)

	resp := wire.PingResp{SenderID: d.SelfID, Nonce: req.Nonce}
	out, err := wire.Encode(resp)
	if err != nil {
		d.Log.Log(logging.Error, "node: encode PingResp failed", "err", err)
		return nil
	}
	return out
}

func (d *Dispatcher) handleStore(from contact.Address, body []byte) []byte {
	var req wire.StoreReq
	if err := wire.Decode(body, &req); err != nil {
		d.Log.Log(logging.Warn, "node: malformed StoreReq", "err", err)
		return nil
	}
	d.observe(req.SenderID, from)

	keyID, err := id.New(req.KeyID)
	if err != nil {
		d.Log.Log(logging.Warn, "node: malformed StoreReq key", "err", err)
		return nil
	}
	now := d.Clock.Now()
	// Inbound stores always expire after the fixed defaultInboundTTL; the
	// orchestrator's ExpirationTime option applies only to values this node
	// stores itself through DHT.Store.
	if err := d.Store.Put(keyID, req.Value, now, now.Add(defaultInboundTTL)); err != nil {
		d.Log.Log(logging.Error, "node: store put failed", "err", err)
	}

	resp := wire.StoreResp{SenderID: d.SelfID, KeyID: req.KeyID}
	out, err := wire.Encode(resp)
	if err != nil {
		d.Log.Log(logging.Error, "node: encode StoreResp failed", "err", err)
		return nil
	}
	return out
}

// defaultInboundTTL is used when a Store request arrives without the
// orchestrator's own expiration computation (i.e. always, for the core
// handler -- the expiration policy itself is pluggable per spec §4.4/§7).
const defaultInboundTTL = 86410 * time.Second

func (d *Dispatcher) handleFindContact(from contact.Address, body []byte) []byte {
	var req wire.FindContactReq
	if err := wire.Decode(body, &req); err != nil {
		d.Log.Log(logging.Warn, "node: malformed FindContactReq", "err", err)
		return nil
	}
	d.observe(req.SenderID, from)

	target, err := id.New(req.TargetID)
	if err != nil {
		d.Log.Log(logging.Warn, "node: malformed FindContactReq target", "err", err)
		return nil
	}
	closest := d.Table.KClosest(target, d.Table.K())
	resp := wire.ContactsResp{
		SenderID: d.SelfID,
		Contacts: toNodeRefs(closest),
	}
	if d.SelfID.Equal(target) {
		// The local node itself is the exact match; surface it explicitly
		// since KClosest never returns self (spec §4.2 invariant 4). Carry
		// our own dialable address so the requester doesn't insert an
		// undialable contact into its routing table.
		resp.Contacts = append([]wire.NodeRef{{ID: d.SelfID, Host: d.SelfAddr.Host, Port: d.SelfAddr.Port}}, resp.Contacts...)
		resp.ExactMatch = true
	} else {
		for _, c := range closest {
			if c.ID.Equal(target) {
				resp.ExactMatch = true
				break
			}
		}
	}
	out, err := wire.Encode(resp)
	if err != nil {
		d.Log.Log(logging.Error, "node: encode ContactsResp failed", "err", err)
		return nil
	}
	return out
}

func (d *Dispatcher) handleFindValue(from contact.Address, body []byte) []byte {
	var req wire.FindValueReq
	if err := wire.Decode(body, &req); err != nil {
		d.Log.Log(logging.Warn, "node: malformed FindValueReq", "err", err)
		return nil
	}
	d.observe(req.SenderID, from)

	target, err := id.New(req.TargetID)
	if err != nil {
		d.Log.Log(logging.Warn, "node: malformed FindValueReq target", "err", err)
		return nil
	}

	now := d.Clock.Now()
	if value, ok := d.Store.Get(target, now); ok {
		resp := wire.FoundValueResp{SenderID: d.SelfID, Value: value}
		out, err := wire.Encode(resp)
		if err != nil {
			d.Log.Log(logging.Error, "node: encode FoundValueResp failed", "err", err)
			return nil
		}
		return out
	}

	closest := d.Table.KClosest(target, d.Table.K())
	resp := wire.ContactsResp{SenderID: d.SelfID, Contacts: toNodeRefs(closest)}
	out, err := wire.Encode(resp)
	if err != nil {
		d.Log.Log(logging.Error, "node: encode ContactsResp failed", "err", err)
		return nil
	}
	return out
}

func (d *Dispatcher) handleRPC(from contact.Address, body []byte) []byte {
	var req wire.RPCReq
	if err := wire.Decode(body, &req); err != nil {
		d.Log.Log(logging.Warn, "node: malformed RPCReq", "err", err)
		return nil
	}
	d.observe(req.SenderID, from)

	resp := wire.RPCResp{SenderID: d.SelfID}
	if d.RPC == nil {
		resp.Success = false
		resp.Error = "no RPC invoker configured"
	} else {
		sid, _ := id.New(req.SenderID)
		result, err := d.RPC.Invoke(contact.New(sid, from, d.Clock.Now()), req.Method, req.Args)
		if err != nil {
			resp.Success = false
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Result = result
		}
	}
	out, err := wire.Encode(resp)
	if err != nil {
		d.Log.Log(logging.Error, "node: encode RPCResp failed", "err", err)
		return nil
	}
	return out
}

func toNodeRefs(cs []contact.Contact) []wire.NodeRef {
	out := make([]wire.NodeRef, len(cs))
	for i, c := range cs {
		out[i] = wire.NodeRef{ID: c.ID, Host: c.Addr.Host, Port: c.Addr.Port}
	}
	return out
}
