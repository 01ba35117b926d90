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

// Package clock is the Clock collaborator named in spec §6: a monotonic,
// non-decreasing now(). Tests substitute a mock clock so TTL expiry, bucket
// refresh timers, and request_timeout firing are deterministic.
package clock

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the interface the core consumes.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTimer(d time.Duration) *clock.Timer
	NewTicker(d time.Duration) *clock.Ticker
}

// real adapts github.com/benbjohnson/clock's production clock.
type real struct {
	clock.Clock
}

// New returns the production clock, backed by the real wall clock.
func New() Clock {
	return real{Clock: clock.New()}
}

// NewMock returns a controllable clock for tests.
func NewMock() *clock.Mock {
	return clock.NewMock()
}
