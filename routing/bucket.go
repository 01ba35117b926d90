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

package routing

import (
	"container/list"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
)

// bucket is an ordered list of up to k contacts, most-recent-first. It's
// backed by container/list rather than a generic LRU cache because the
// eviction policy (§4.2) needs to peek the tail, probe it out-of-band, and
// only then decide whether to remove it or keep it and drop the newcomer --
// a sequence a bare Add/Get LRU cache doesn't expose.
type bucket struct {
	k    int
	list *list.List // Element.Value is contact.Contact
}

func newBucket(k int) *bucket {
	return &bucket{k: k, list: list.New()}
}

func (b *bucket) len() int {
	return b.list.Len()
}

// find returns the element holding id cID, or nil.
func (b *bucket) find(cID id.ID) *list.Element {
	for e := b.list.Front(); e != nil; e = e.Next() {
		if e.Value.(contact.Contact).ID.Equal(cID) {
			return e
		}
	}
	return nil
}

func (b *bucket) moveToFront(e *list.Element, c contact.Contact) {
	e.Value = c
	b.list.MoveToFront(e)
}

func (b *bucket) pushFront(c contact.Contact) {
	b.list.PushFront(c)
}

// tail returns the least-recently-seen contact, or false if the bucket is
// empty.
func (b *bucket) tail() (contact.Contact, bool) {
	e := b.list.Back()
	if e == nil {
		return contact.Contact{}, false
	}
	return e.Value.(contact.Contact), true
}

func (b *bucket) removeID(cID id.ID) {
	if e := b.find(cID); e != nil {
		b.list.Remove(e)
	}
}

// contacts returns a snapshot of the bucket's contents, most-recent-first.
func (b *bucket) contacts() []contact.Contact {
	out := make([]contact.Contact, 0, b.list.Len())
	for e := b.list.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(contact.Contact))
	}
	return out
}
