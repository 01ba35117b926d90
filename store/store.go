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

// Package store defines the ValueStore collaborator of spec §4.4 and ships
// two implementations: an in-memory map with TTL eviction, and a durable
// boltdb-backed store for nodes that must survive restarts.
package store

import (
	"time"

	"github.com/hardentoo/dht/id"
)

// Store is the interface the core consumes. put/get are atomic with respect
// to each other and to any other Store method.
type Store interface {
	// Put stores or overwrites the value under key, expiring at expiresAt.
	Put(key id.ID, value []byte, now, expiresAt time.Time) error

	// Get returns the current value for key, or ok=false if absent or
	// expired.
	Get(key id.ID, now time.Time) (value []byte, ok bool)

	// Close releases any resources (file handles, etc).
	Close() error
}
