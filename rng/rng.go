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

// Package rng is the RNG collaborator named in spec §6, used for Ping
// nonces. math/rand is the right tool here (non-cryptographic, seedable,
// and the only consumer is liveness-probe correlation, not anything
// security sensitive), so this package stays on the standard library rather
// than reaching for a pack dependency.
package rng

import (
	"math/rand"
	"sync"
)

// RNG is the interface the core consumes.
type RNG interface {
	Int63() int64
}

type locked struct {
	mu  sync.Mutex
	src *rand.Rand
}

// New returns a goroutine-safe RNG seeded from seed. Tests pass a fixed seed
// for determinism; New(timeSeed) is the production choice.
func New(seed int64) RNG {
	return &locked{src: rand.New(rand.NewSource(seed))}
}

func (l *locked) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int63()
}
