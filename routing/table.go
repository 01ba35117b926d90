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

// Package routing implements the per-bucket LRU routing table of spec §4.2:
// bucket index by common-prefix length, move-to-front on every successful
// interaction, and eviction governed by a synchronous liveness probe of the
// bucket's tail contact.
package routing

import (
	"sort"
	"sync"
	"time"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
)

// PingFunc probes a contact's liveness. It returns true if the contact
// responded within a bounded interval. Transport errors count as "did not
// respond" (spec §4.2, Failure semantics).
type PingFunc func(contact.Contact) bool

// Table is the routing table for one local node. All of Insert, Remove, and
// KClosest are safe to call concurrently.
type Table struct {
	selfID id.ID
	k      int

	mu       sync.Mutex
	buckets  []*bucket   // indexed by common-prefix length, [0, id.Size*8)
	lastSeen []time.Time // last Insert touch per bucket, for the refresh loop
}

// New returns an empty routing table for selfID, with k contacts per bucket.
func New(selfID id.ID, k int) *Table {
	n := len(selfID) * 8
	buckets := make([]*bucket, n)
	for i := range buckets {
		buckets[i] = newBucket(k)
	}
	return &Table{selfID: selfID, k: k, buckets: buckets, lastSeen: make([]time.Time, n)}
}

// NumBuckets returns the number of prefix-length buckets, id.Size*8.
func (t *Table) NumBuckets() int {
	return len(t.buckets)
}

// BucketActivity returns the time of the most recent Insert that touched
// bucket idx, the zero Time if none yet. Used by the refresh loop to decide
// which buckets are stale.
func (t *Table) BucketActivity(idx int) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen[idx]
}

// SelfID returns the local node's identifier.
func (t *Table) SelfID() id.ID {
	return t.selfID
}

// K returns the configured bucket capacity / lookup width.
func (t *Table) K() int {
	return t.k
}

// Insert ensures c is represented in the routing table, applying the policy
// of spec §4.2. It is a no-op for c.ID == selfID. ping may be called
// synchronously and may block; it is always invoked outside the table's
// lock so concurrent Insert/Remove/KClosest calls for other buckets are not
// blocked by one bucket's probe.
func (t *Table) Insert(c contact.Contact, now time.Time, ping PingFunc) {
	if c.ID.Equal(t.selfID) {
		return
	}
	idx := id.Index(t.selfID, c.ID)
	c.LastSeen = now

	t.mu.Lock()
	t.lastSeen[idx] = now
	b := t.buckets[idx]

	if e := b.find(c.ID); e != nil {
		b.moveToFront(e, c)
		t.mu.Unlock()
		return
	}

	if b.len() < t.k {
		b.pushFront(c)
		t.mu.Unlock()
		return
	}

	// Bucket full: capture the tail under lock, then probe it WITHOUT
	// holding the lock so a slow/blocking probe doesn't stall the table.
	tailContact, ok := b.tail()
	t.mu.Unlock()
	if !ok {
		// Shouldn't happen (len == k > 0 implies a tail), but don't panic
		// on a racy read; just drop the candidate.
		return
	}

	alive := ping != nil && ping(tailContact)

	t.mu.Lock()
	defer t.mu.Unlock()
	b = t.buckets[idx]
	if alive {
		// Tail is still alive: refresh it to the head, discard c.
		if e := b.find(tailContact.ID); e != nil {
			b.moveToFront(e, tailContact)
		}
		return
	}
	// Tail did not respond: evict it, insert c at the head.
	b.removeID(tailContact.ID)
	if b.len() < t.k {
		b.pushFront(c)
	}
}

// Remove explicitly evicts id from the routing table, used by the lookup
// engine on confirmed RPC failure (spec §4.6 step 2d).
func (t *Table) Remove(contactID id.ID) {
	idx := id.Index(t.selfID, contactID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets[idx].removeID(contactID)
}

// KClosest returns up to kOut contacts sorted ascending by XOR distance to
// target, ties broken by ascending ID. It never includes selfID.
func (t *Table) KClosest(target id.ID, kOut int) []contact.Contact {
	t.mu.Lock()
	// id.Index is undefined when target == selfID (the XOR distance has no
	// leading-zero-bounded bucket, since it's all zero bits). In that case
	// start the outward walk from the bucket nearest to self: the highest
	// index, which holds the contacts with the longest shared prefix.
	startIdx := len(t.buckets) - 1
	if !target.Equal(t.selfID) {
		startIdx = id.Index(t.selfID, target)
	}

	var collected []contact.Contact
	collected = append(collected, t.buckets[startIdx].contacts()...)
	for dist := 1; (startIdx-dist >= 0 || startIdx+dist < len(t.buckets)) && len(collected) < kOut; dist++ {
		if startIdx-dist >= 0 {
			collected = append(collected, t.buckets[startIdx-dist].contacts()...)
		}
		if startIdx+dist < len(t.buckets) {
			collected = append(collected, t.buckets[startIdx+dist].contacts()...)
		}
	}
	t.mu.Unlock()

	sort.Slice(collected, func(i, j int) bool {
		return id.Less(target, collected[i].ID, collected[j].ID)
	})

	if kOut > len(collected) {
		kOut = len(collected)
	}
	return collected[:kOut]
}

// TotalContacts returns the number of contacts currently known, across all
// buckets.
func (t *Table) TotalContacts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, b := range t.buckets {
		total += b.len()
	}
	return total
}
