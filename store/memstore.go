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

package store

import (
	"sync"
	"time"

	"github.com/hardentoo/dht/id"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Mem is an in-memory Store with lazy TTL eviction: expired entries are
// dropped the next time they're looked up, rather than on a background
// timer.
type Mem struct {
	mu   sync.Mutex
	data map[string]entry
}

// NewMem returns an empty in-memory Store.
func NewMem() *Mem {
	return &Mem{data: make(map[string]entry)}
}

func keyString(k id.ID) string {
	return string(k)
}

// Put implements Store.
func (m *Mem) Put(key id.ID, value []byte, now, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[keyString(key)] = entry{value: cp, expiresAt: expiresAt}
	return nil
}

// Get implements Store.
func (m *Mem) Get(key id.ID, now time.Time) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[keyString(key)]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
		delete(m.data, keyString(key))
		return nil, false
	}
	return e.value, true
}

// Close implements Store; a no-op for the in-memory backend.
func (m *Mem) Close() error {
	return nil
}

// Keys returns every non-expired key currently stored, for the replication
// loop to republish.
func (m *Mem) Keys(now time.Time) []id.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]id.ID, 0, len(m.data))
	for k, e := range m.data {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		out = append(out, id.ID(k))
	}
	return out
}
