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

// Package lookup implements the iterative, α-parallel lookup engine of spec
// §4.6. Each iteration dispatches up to α unqueried contacts from the top-k
// of the shortlist concurrently (via golang.org/x/sync/errgroup, bounding
// fan-out the same way the teacher's worker pools do) and folds their
// replies back into the shortlist before the next round.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/kerr"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/messaging"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/wire"
)

// Mode selects which RPC a lookup issues at each step.
type Mode int

const (
	ModeNode Mode = iota
	ModeValue
)

// Result is what Run returns: the best-known contacts, and (in ModeValue,
// on a hit) the value itself.
type Result struct {
	Contacts []contact.Contact
	Value    []byte
	Found    bool
}

type status int

const (
	unqueried status = iota
	inflight
	responded
	failed
)

type shortlistEntry struct {
	c      contact.Contact
	status status
}

// Engine runs lookups against one node's collaborators.
type Engine struct {
	Table          *routing.Table
	Msg            messaging.Messaging
	Clock          clock.Clock
	Log            logging.Logger
	K              int
	Alpha          int
	RequestTimeout time.Duration
}

// Run executes the lookup algorithm of spec §4.6 for target in mode, and
// returns once no further progress can be made (or a value is found, in
// ModeValue). It never returns a partial or corrupted shortlist: ctx
// cancellation stops new dispatches promptly but in-flight requests from the
// current round are allowed to finish so their replies are still folded in.
func (e *Engine) Run(ctx context.Context, target id.ID, mode Mode) (Result, error) {
	self := e.Table.SelfID()

	seed := e.Table.KClosest(target, e.K)
	if len(seed) == 0 {
		return Result{}, kerr.Wrap(kerr.NoKnownContacts, "lookup: routing table is empty")
	}

	entries := make([]*shortlistEntry, len(seed))
	known := make(map[string]struct{}, len(seed))
	for i, c := range seed {
		entries[i] = &shortlistEntry{c: c}
		known[string(c.ID)] = struct{}{}
	}

	var closestDist id.ID

	for {
		if ctx.Err() != nil {
			break
		}

		sortEntries(entries, target)
		candidates := pickUnqueried(entries, e.K, e.Alpha)
		if len(candidates) == 0 {
			break
		}
		for _, ent := range candidates {
			ent.status = inflight
		}

		var mu sync.Mutex
		var foundValue []byte
		var foundHolder contact.Contact
		haveValue := false

		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		for _, ent := range candidates {
			ent := ent
			g.Go(func() error {
				value, refs, err := e.dispatch(gctx, ent.c, target, self, mode)
				now := e.Clock.Now()

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					ent.status = failed
					e.Table.Remove(ent.c.ID)
					e.Log.Log(logging.Warn, "lookup: query failed", "contact", ent.c.String(), "err", err)
					return nil
				}

				ent.status = responded
				ent.c.LastSeen = now
				e.Table.Insert(ent.c, now, nil)

				for _, ref := range refs {
					rid, convErr := id.New(ref.ID)
					if convErr != nil || rid.Equal(self) {
						continue
					}
					key := string(rid)
					if _, dup := known[key]; dup {
						continue
					}
					known[key] = struct{}{}
					entries = append(entries, &shortlistEntry{
						c: contact.New(rid, contact.Address{Host: ref.Host, Port: ref.Port}, now),
					})
				}

				if mode == ModeValue && value != nil && !haveValue {
					haveValue = true
					foundValue = value
					foundHolder = ent.c
				}
				return nil
			})
		}
		_ = g.Wait()

		if haveValue {
			e.cacheForward(ctx, entries, target, foundValue, foundHolder, self)
			sortEntries(entries, target)
			return Result{Contacts: topResponded(entries, e.K), Value: foundValue, Found: true}, nil
		}

		entries = removeFailed(entries)
		sortEntries(entries, target)

		newClosest := bestRespondedDistance(entries, target)
		improved := closestDist == nil || (newClosest != nil && id.Less(target, newClosest, closestDist))
		if newClosest != nil {
			closestDist = newClosest
		}

		if allTopKResponded(entries, e.K) || !improved {
			break
		}
	}

	sortEntries(entries, target)
	return Result{Contacts: topResponded(entries, e.K)}, nil
}

func (e *Engine) dispatch(ctx context.Context, c contact.Contact, target, self id.ID, mode Mode) ([]byte, []wire.NodeRef, error) {
	switch mode {
	case ModeNode:
		req := wire.FindContactReq{SenderID: self, TargetID: target}
		body, err := wire.Encode(req)
		if err != nil {
			return nil, nil, err
		}
		out, err := e.Msg.SendRequest(ctx, c.Addr, wire.FindContact, body, e.RequestTimeout)
		if err != nil {
			return nil, nil, err
		}
		var resp wire.ContactsResp
		if err := wire.Decode(out, &resp); err != nil {
			return nil, nil, err
		}
		return nil, resp.Contacts, nil

	case ModeValue:
		req := wire.FindValueReq{SenderID: self, TargetID: target}
		body, err := wire.Encode(req)
		if err != nil {
			return nil, nil, err
		}
		out, err := e.Msg.SendRequest(ctx, c.Addr, wire.FindValue, body, e.RequestTimeout)
		if err != nil {
			return nil, nil, err
		}
		return decodeFindValueReply(out)

	default:
		return nil, nil, fmt.Errorf("lookup: unknown mode %v", mode)
	}
}

// decodeFindValueReply distinguishes FoundValueResp from ContactsResp on the
// wire: both ride the FindValue command tag (messaging echoes the request's
// command onto its reply), so the discriminator is structural -- a
// FoundValueResp's value field decodes as a non-empty byte string where a
// ContactsResp has none.
func decodeFindValueReply(body []byte) ([]byte, []wire.NodeRef, error) {
	var found wire.FoundValueResp
	if err := wire.Decode(body, &found); err == nil && len(found.Value) > 0 {
		return found.Value, found.Contacts, nil
	}
	var cr wire.ContactsResp
	if err := wire.Decode(body, &cr); err != nil {
		return nil, nil, err
	}
	return nil, cr.Contacts, nil
}

// cacheForward implements spec §4.6 step 2c's optional cache-forward: a
// best-effort Store(target, value) to the closest responded contact that
// did not itself return the value.
func (e *Engine) cacheForward(ctx context.Context, entries []*shortlistEntry, target id.ID, value []byte, holder contact.Contact, self id.ID) {
	sortEntries(entries, target)
	for _, ent := range entries {
		if ent.status != responded || ent.c.ID.Equal(holder.ID) {
			continue
		}
		req := wire.StoreReq{SenderID: self, KeyID: target, Value: value}
		body, err := wire.Encode(req)
		if err != nil {
			return
		}
		go func(c contact.Contact) {
			if _, err := e.Msg.SendRequest(ctx, c.Addr, wire.Store, body, e.RequestTimeout); err != nil {
				e.Log.Log(logging.Debug, "lookup: cache-forward store failed", "contact", c.String(), "err", err)
			}
		}(ent.c)
		return
	}
}

func sortEntries(entries []*shortlistEntry, target id.ID) {
	sort.Slice(entries, func(i, j int) bool {
		return id.Less(target, entries[i].c.ID, entries[j].c.ID)
	})
}

func pickUnqueried(entries []*shortlistEntry, k, alpha int) []*shortlistEntry {
	topN := entries
	if len(topN) > k {
		topN = topN[:k]
	}
	var picks []*shortlistEntry
	for _, ent := range topN {
		if len(picks) >= alpha {
			break
		}
		if ent.status == unqueried {
			picks = append(picks, ent)
		}
	}
	return picks
}

func removeFailed(entries []*shortlistEntry) []*shortlistEntry {
	out := entries[:0]
	for _, ent := range entries {
		if ent.status != failed {
			out = append(out, ent)
		}
	}
	return out
}

func allTopKResponded(entries []*shortlistEntry, k int) bool {
	topN := entries
	if len(topN) > k {
		topN = topN[:k]
	}
	if len(topN) == 0 {
		return true
	}
	for _, ent := range topN {
		if ent.status != responded {
			return false
		}
	}
	return true
}

func topResponded(entries []*shortlistEntry, k int) []contact.Contact {
	var out []contact.Contact
	for _, ent := range entries {
		if ent.status != responded {
			continue
		}
		out = append(out, ent.c)
		if len(out) == k {
			break
		}
	}
	return out
}

// bestRespondedDistance returns the XOR distance to target of the closest
// responded entry, or nil if none have responded yet. entries must already
// be sorted ascending by distance to target.
func bestRespondedDistance(entries []*shortlistEntry, target id.ID) id.ID {
	for _, ent := range entries {
		if ent.status == responded {
			return target.Xor(ent.c.ID)
		}
	}
	return nil
}
