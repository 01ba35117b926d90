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

package dht

import (
	"context"
	"sync"

	"github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/dhtconfig"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/kerr"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/lookup"
	"github.com/hardentoo/dht/messaging"
	"github.com/hardentoo/dht/node"
	"github.com/hardentoo/dht/refresh"
	"github.com/hardentoo/dht/rng"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/rpcdispatch"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/transport"
	"github.com/hardentoo/dht/wire"
)

// DHT is the operation orchestrator of spec §4.7: it owns the routing
// table, value store, and messaging collaborators for one local node, and
// exposes ping/store/find_value/find_contact/join as the public API.
type DHT struct {
	self    id.ID
	table   *routing.Table
	store   store.Store
	msg     messaging.Messaging
	lookup  *lookup.Engine
	clk     clock.Clock
	log     logging.Logger
	rng     rng.RNG
	rpc     rpcdispatch.RPC
	options dhtconfig.Options

	refresher *refresh.Loop
}

// New builds a DHT node bound at bind (via factory), using vs as its value
// store. rpc may be nil (the supplement RPC passthrough is then simply
// unavailable). clk, log and rngSrc may be nil; the real clock, a no-op
// logger and an RNG seeded from the clock are substituted.
func New(ctx context.Context, selfID id.ID, bind contact.Address, factory transport.Factory, vs store.Store, rpc rpcdispatch.RPC, clk clock.Clock, log logging.Logger, rngSrc rng.RNG, options dhtconfig.Options) (*DHT, error) {
	options = dhtconfig.WithDefaults(options)
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logging.NewNop()
	}
	if rngSrc == nil {
		rngSrc = rng.New(clk.Now().UnixNano())
	}

	tr, err := factory.Create(ctx, bind)
	if err != nil {
		return nil, kerr.Wrap(err, "dht: create transport")
	}

	table := routing.New(selfID, options.BucketSize)
	msg := messaging.New(tr, log)

	d := &DHT{
		self:    selfID,
		table:   table,
		store:   vs,
		msg:     msg,
		clk:     clk,
		log:     log,
		rng:     rngSrc,
		rpc:     rpc,
		options: options,
	}

	d.lookup = &lookup.Engine{
		Table:          table,
		Msg:            msg,
		Clock:          clk,
		Log:            log,
		K:              options.BucketSize,
		Alpha:          options.Alpha,
		RequestTimeout: options.RequestTimeout,
	}

	dispatcher := &node.Dispatcher{
		SelfID:   selfID,
		SelfAddr: msg.LocalAddr(),
		Table:    table,
		Store:    vs,
		Clock:    clk,
		Log:      log,
		Ping:     d.probe,
		RPC:      rpc,
	}
	msg.Serve(dispatcher.Handle)

	if options.RefreshTime > 0 {
		d.refresher = refresh.New(refresh.Config{
			SelfID:            selfID,
			Table:             table,
			Store:             vs,
			Msg:               msg,
			Lookup:            d.lookup,
			Clock:             clk,
			Log:               log,
			RNG:               rngSrc,
			RefreshInterval:   options.RefreshTime,
			ReplicateInterval: options.ReplicateTime,
			RequestTimeout:    options.RequestTimeout,
		})
		d.refresher.Start()
	}

	return d, nil
}

// SelfID returns the local node's identifier.
func (d *DHT) SelfID() id.ID {
	return d.self
}

// LocalAddr returns the bound local transport address.
func (d *DHT) LocalAddr() contact.Address {
	return d.msg.LocalAddr()
}

// TotalContacts returns the number of contacts currently held in the
// routing table.
func (d *DHT) TotalContacts() int {
	return d.table.TotalContacts()
}

// probe is the routing.PingFunc handed to routing.Table and node.Dispatcher:
// it runs a real Ping RPC and reports only whether it succeeded.
func (d *DHT) probe(c contact.Contact) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d.options.PingTimeout)
	defer cancel()
	return d.Ping(ctx, c.Addr) == nil
}

// Ping implements spec §4.7's ping(addr): send Ping(nonce), require the
// reply's nonce to match, and insert the responding contact on success.
func (d *DHT) Ping(ctx context.Context, addr contact.Address) error {
	nonce := uint64(d.rng.Int63())
	body, err := wire.Encode(wire.PingReq{SenderID: d.self, Nonce: nonce})
	if err != nil {
		return kerr.Wrap(err, "dht: encode ping")
	}

	out, err := d.msg.SendRequest(ctx, addr, wire.Ping, body, d.options.RequestTimeout)
	if err != nil {
		return kerr.Wrap(kerr.Unreachable, err.Error())
	}

	var resp wire.PingResp
	if err := wire.Decode(out, &resp); err != nil {
		return kerr.Wrap(kerr.ConfigError, err.Error())
	}
	if resp.Nonce != nonce {
		return kerr.Wrapf(kerr.ConfigError, "dht: ping nonce mismatch from %s", addr)
	}

	sid, err := id.New(resp.SenderID)
	if err != nil {
		return kerr.Wrap(kerr.ConfigError, err.Error())
	}
	now := d.clk.Now()
	d.table.Insert(contact.New(sid, addr, now), now, d.probe)
	return nil
}

// Store implements spec §4.7's store(value): the key is hash(value); the
// value is kept locally (this node may itself be among the closest, which
// lookup never surfaces since KClosest excludes self) and replicated,
// best-effort, to the k nearest contacts found by a Node-mode lookup.
func (d *DHT) Store(ctx context.Context, value []byte) (id.ID, error) {
	key := id.FromKey(value)
	now := d.clk.Now()
	if err := d.store.Put(key, value, now, now.Add(d.options.ExpirationTime)); err != nil {
		d.log.Log(logging.Warn, "dht: local store put failed", "err", err)
	}

	result, err := d.lookup.Run(ctx, key, lookup.ModeNode)
	if err != nil {
		if kerr.Is(err, kerr.NoKnownContacts) {
			// No other node is known: the local copy is the only replica.
			return key, nil
		}
		return nil, err
	}
	targets := result.Contacts
	if len(targets) == 0 {
		return key, nil
	}

	body, err := wire.Encode(wire.StoreReq{SenderID: d.self, KeyID: key, Value: value})
	if err != nil {
		return nil, kerr.Wrap(err, "dht: encode store")
	}

	var mu sync.Mutex
	successes := 0
	var wg sync.WaitGroup
	for _, c := range targets {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.msg.SendRequest(ctx, c.Addr, wire.Store, body, d.options.RequestTimeout)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.log.Log(logging.Warn, "dht: store replica failed", "contact", c.String(), "err", err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	if successes == 0 {
		return nil, kerr.Wrap(kerr.StoreFailed, "dht: every replica rejected the store")
	}
	return key, nil
}

// FindValue implements spec §4.7's find_value(id): a local store hit
// returns immediately with an empty contact list; otherwise a Value-mode
// lookup is run.
func (d *DHT) FindValue(ctx context.Context, target id.ID) ([]contact.Contact, []byte, error) {
	now := d.clk.Now()
	if v, ok := d.store.Get(target, now); ok {
		return nil, v, nil
	}

	result, err := d.lookup.Run(ctx, target, lookup.ModeValue)
	if err != nil {
		return nil, nil, err
	}
	if result.Found {
		return nil, result.Value, nil
	}
	return result.Contacts, nil, nil
}

// FindContact implements spec §4.7's find_contact(id): a Node-mode lookup,
// surfacing an exact match as the second return value when present.
func (d *DHT) FindContact(ctx context.Context, target id.ID) ([]contact.Contact, *contact.Contact, error) {
	if target.Equal(d.self) {
		self := contact.New(d.self, d.msg.LocalAddr(), d.clk.Now())
		return []contact.Contact{self}, &self, nil
	}

	result, err := d.lookup.Run(ctx, target, lookup.ModeNode)
	if err != nil {
		return nil, nil, err
	}
	for i := range result.Contacts {
		if result.Contacts[i].ID.Equal(target) {
			match := result.Contacts[i]
			return result.Contacts, &match, nil
		}
	}
	return result.Contacts, nil, nil
}

// Join implements spec §4.7's bootstrap operation: ping the bootstrap
// address, then run a Node-mode lookup for self_id to populate the routing
// table from whatever it knows. (FindContact answers a query for self_id
// locally, without a lookup, so Join runs the lookup engine directly.)
func (d *DHT) Join(ctx context.Context, bootstrap contact.Address) error {
	if err := d.Ping(ctx, bootstrap); err != nil {
		return err
	}
	_, err := d.lookup.Run(ctx, d.self, lookup.ModeNode)
	return err
}

// RemoteProcedureCall issues the supplement RPC passthrough against a
// remote address, mirroring the teacher's RemoteProcedureCall.
func (d *DHT) RemoteProcedureCall(ctx context.Context, addr contact.Address, method string, args [][]byte) ([]byte, error) {
	body, err := wire.Encode(wire.RPCReq{SenderID: d.self, Method: method, Args: args})
	if err != nil {
		return nil, kerr.Wrap(err, "dht: encode rpc")
	}
	out, err := d.msg.SendRequest(ctx, addr, wire.RPC, body, d.options.RequestTimeout)
	if err != nil {
		return nil, kerr.Wrap(kerr.Unreachable, err.Error())
	}
	var resp wire.RPCResp
	if err := wire.Decode(out, &resp); err != nil {
		return nil, kerr.Wrap(kerr.ConfigError, err.Error())
	}
	if !resp.Success {
		return nil, kerr.Wrapf(kerr.Unreachable, "dht: remote rpc failed: %s", resp.Error)
	}
	return resp.Result, nil
}

// Close releases the background refresh loop (if running) and the
// underlying transport.
func (d *DHT) Close() error {
	if d.refresher != nil {
		d.refresher.Stop()
	}
	return d.msg.Close()
}
