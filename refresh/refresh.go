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

// Package refresh is the supplement background loop named in SPEC_FULL.md:
// periodic bucket refresh and key replication, adapted from the teacher's
// handleStoreTimers. It only runs when Options.RefreshTime is nonzero (the
// core spec itself has no background-loop requirement); a zero RefreshTime
// means the caller never constructs a Loop at all.
package refresh

import (
	"context"
	"time"

	"github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/lookup"
	"github.com/hardentoo/dht/messaging"
	"github.com/hardentoo/dht/rng"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/wire"
)

// KeyLister is implemented by value stores that can enumerate their own
// keys, needed here to republish them. store.Mem implements it; backends
// that can't (or shouldn't, e.g. a remote-backed store) simply don't, and
// the replication half of the loop becomes a no-op.
type KeyLister interface {
	Keys(now time.Time) []id.ID
}

// Config wires a Loop to one node's collaborators.
type Config struct {
	SelfID  id.ID
	Table   *routing.Table
	Store   store.Store
	Msg     messaging.Messaging
	Lookup  *lookup.Engine
	Clock   clock.Clock
	Log     logging.Logger
	RNG     rng.RNG

	RefreshInterval   time.Duration
	ReplicateInterval time.Duration
	RequestTimeout    time.Duration
}

// Loop runs the refresh and replication tickers until Stop is called.
type Loop struct {
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Loop. Callers only construct one when RefreshInterval > 0.
func New(cfg Config) *Loop {
	if cfg.Log == nil {
		cfg.Log = logging.NewNop()
	}
	return &Loop{cfg: cfg, done: make(chan struct{})}
}

// Start launches the background goroutine.
func (l *Loop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.run(ctx)
}

// Stop halts the loop and waits for it to exit.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	<-l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	refreshTicker := l.cfg.Clock.NewTicker(l.cfg.RefreshInterval)
	defer refreshTicker.Stop()

	replicateInterval := l.cfg.ReplicateInterval
	if replicateInterval <= 0 {
		replicateInterval = l.cfg.RefreshInterval
	}
	replicateTicker := l.cfg.Clock.NewTicker(replicateInterval)
	defer replicateTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshTicker.C:
			l.refreshStaleBuckets(ctx)
		case <-replicateTicker.C:
			l.replicateLocalKeys(ctx)
		}
	}
}

// refreshStaleBuckets runs a Node-mode lookup for a random ID in each bucket
// that has seen no activity within RefreshInterval, the way the teacher's
// handleStoreTimers walks ht.GetRefreshTimeForBucket.
func (l *Loop) refreshStaleBuckets(ctx context.Context) {
	now := l.cfg.Clock.Now()
	for idx := 0; idx < l.cfg.Table.NumBuckets(); idx++ {
		if now.Sub(l.cfg.Table.BucketActivity(idx)) < l.cfg.RefreshInterval {
			continue
		}
		target := randomIDForBucket(l.cfg.SelfID, idx, l.cfg.RNG)
		if _, err := l.cfg.Lookup.Run(ctx, target, lookup.ModeNode); err != nil {
			l.cfg.Log.Log(logging.Debug, "refresh: bucket refresh lookup failed", "bucket", idx, "err", err)
		}
	}
}

// replicateLocalKeys republishes every locally-stored, non-expired key to
// its current k closest contacts.
func (l *Loop) replicateLocalKeys(ctx context.Context) {
	lister, ok := l.cfg.Store.(KeyLister)
	if !ok {
		return
	}
	now := l.cfg.Clock.Now()
	for _, key := range lister.Keys(now) {
		value, ok := l.cfg.Store.Get(key, now)
		if !ok {
			continue
		}
		targets := l.cfg.Table.KClosest(key, l.cfg.Table.K())
		req := wire.StoreReq{SenderID: l.cfg.SelfID, KeyID: key, Value: value}
		body, err := wire.Encode(req)
		if err != nil {
			continue
		}
		for _, c := range targets {
			c := c
			go func() {
				if _, err := l.cfg.Msg.SendRequest(ctx, c.Addr, wire.Store, body, l.cfg.RequestTimeout); err != nil {
					l.cfg.Log.Log(logging.Debug, "refresh: replicate failed", "contact", c.String(), "err", err)
				}
			}()
		}
	}
}

// randomIDForBucket returns an ID at exactly bucketIdx leading bits shared
// with self (matching id.Index(self, result) == bucketIdx): the prefix up
// to bucketIdx is copied from self, the bit at bucketIdx is flipped, and
// every bit after it is randomized.
func randomIDForBucket(self id.ID, bucketIdx int, source rng.RNG) id.ID {
	out := make(id.ID, len(self))
	copy(out, self)

	byteIdx := bucketIdx / 8
	bitIdx := uint(bucketIdx % 8)
	out[byteIdx] ^= byte(0x80 >> bitIdx)

	for i := byteIdx; i < len(out); i++ {
		startBit := uint(0)
		if i == byteIdx {
			startBit = bitIdx + 1
		}
		for b := startBit; b < 8; b++ {
			if source.Int63()&1 == 1 {
				out[i] ^= byte(0x80 >> b)
			}
		}
	}
	return out
}
