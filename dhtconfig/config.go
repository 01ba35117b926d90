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

// Package dhtconfig holds the network-wide constants of spec §6
// (HashSize, k, alpha, request_timeout) plus the production-tuning knobs the
// teacher's Options carried. Loading these from flags/files/env is
// explicitly out of core scope (spec §1); this package only defines the
// struct and its defaults.
package dhtconfig

import "time"

// Options configures a DHT node.
type Options struct {
	// BootstrapAddr is carried for callers; nothing in this module reads it.
	// DHT.Join takes the bootstrap address as an argument.
	BootstrapAddr string

	// BucketSize is k: bucket capacity and lookup width.
	BucketSize int

	// Alpha is the lookup engine's request parallelism.
	Alpha int

	// RequestTimeout bounds every outbound RPC.
	RequestTimeout time.Duration

	// ExpirationTime is the TTL applied to stored values.
	ExpirationTime time.Duration

	// RefreshTime is the interval after which an unaccessed bucket is
	// refreshed via a lookup for a random ID in its range. Zero disables
	// the refresh loop entirely (see package refresh).
	RefreshTime time.Duration

	// ReplicateTime is the interval between re-publishing locally-stored
	// keys to their k closest nodes.
	ReplicateTime time.Duration

	// PingTimeout bounds the liveness probe routing.Table issues against a
	// bucket's tail contact before evicting it.
	PingTimeout time.Duration
}

// Default values, ported from the teacher's NewDHT zero-value backfill.
const (
	DefaultBucketSize      = 20
	DefaultAlpha           = 3
	DefaultRequestTimeout  = 10 * time.Second
	DefaultExpirationTime  = 86410 * time.Second
	DefaultRefreshTime     = time.Hour
	DefaultReplicateTime   = time.Hour
	DefaultPingTimeout     = time.Second
)

// WithDefaults backfills zero-valued fields with the package defaults, the
// way the teacher's NewDHT constructor does inline.
func WithDefaults(o Options) Options {
	if o.BucketSize == 0 {
		o.BucketSize = DefaultBucketSize
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ExpirationTime == 0 {
		o.ExpirationTime = DefaultExpirationTime
	}
	// RefreshTime is deliberately NOT defaulted here: zero means "no
	// background refresh loop" (see package refresh), and WithDefaults must
	// not silently turn that off for callers who asked for it.
	if o.ReplicateTime == 0 {
		o.ReplicateTime = DefaultReplicateTime
	}
	if o.PingTimeout == 0 {
		o.PingTimeout = DefaultPingTimeout
	}
	return o
}
