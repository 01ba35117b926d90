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

// Package kerr names the error taxonomy every collaborator in this module
// reports through. Sentinels are wrapped with github.com/pkg/errors at the
// point of failure so errors.Cause(err) always recovers one of these for
// callers that branch on it, while the wrapped chain keeps a stack trace for
// logs.
package kerr

import "github.com/pkg/errors"

// Sentinel errors. Compare with errors.Is or recover with errors.Cause.
var (
	// Unreachable means a single RPC failed: timeout or transport error.
	// Local to one request; the lookup engine absorbs it by dropping the
	// contact, it never surfaces past a single operation attempt.
	Unreachable = errors.New("dht: contact unreachable")

	// NoKnownContacts means the routing table was empty when a lookup
	// started. Surfaced to the caller of find_value/find_contact/join; store
	// instead keeps the value locally and succeeds.
	NoKnownContacts = errors.New("dht: no known contacts")

	// StoreFailed means every replication RPC of a store operation failed.
	StoreFailed = errors.New("dht: store failed on all replicas")

	// ConfigError means two peers disagree on a network-wide constant,
	// e.g. HashSize mismatch observed in a reply.
	ConfigError = errors.New("dht: configuration mismatch")

	// InternalInvariantViolation marks a bug: a routing table invariant
	// broke (oversized bucket, duplicate ID, self stored). Fatal; callers
	// should escalate rather than retry.
	InternalInvariantViolation = errors.New("dht: internal invariant violation")
)

// Wrap attaches msg as context to err while preserving Cause(err).
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with Printf-style formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether err's cause chain contains target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
