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

// Package id implements the fixed-width identifier space and the XOR metric
// that every other package in this module measures distance with.
package id

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	base58 "github.com/jbenet/go-base58"
)

// Size is the width, in bytes, of every ID in the network. All nodes in a
// single network must agree on this constant; mixing sizes is a
// ConfigError, not something this package can repair.
var Size = sha1.Size

// SetSize configures the network-wide ID width, in bytes. It must be called
// (if at all) before any ID is constructed, and only ever with the same
// value across every node of a network.
func SetSize(bytesWide int) {
	Size = bytesWide
}

// ID is an immutable bitstring of Size bytes.
type ID []byte

// New returns an ID holding the given Size raw bytes. The caller owns the
// slice; New copies it so the returned ID can't be mutated out from under
// callers holding it (routing buckets, shortlists, ...).
func New(b []byte) (ID, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("id: expected %d bytes, got %d", Size, len(b))
	}
	out := make(ID, Size)
	copy(out, b)
	return out, nil
}

// FromKey derives an ID from an arbitrary byte key using the network's fixed
// hash function, truncated to Size bytes. SHA-1 is used when Size fits in a
// SHA-1 digest (the common case, Size == 20); SHA-256 is used for wider
// networks. Every node in a network must agree on Size and therefore on
// which hash this picks.
func FromKey(key []byte) ID {
	var digest []byte
	if Size <= sha1.Size {
		sum := sha1.Sum(key)
		digest = sum[:]
	} else {
		sum := sha256.Sum256(key)
		digest = sum[:]
	}
	out := make(ID, Size)
	copy(out, digest)
	return out
}

// Equal reports whether a and b name the same identifier.
func (a ID) Equal(b ID) bool {
	return bytes.Equal(a, b)
}

// Xor returns the bitwise XOR distance between a and b.
func (a ID) Xor(b ID) ID {
	out := make(ID, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// LeadingZeros returns the number of leading zero bits in the ID, i.e. the
// common-prefix length when this ID is itself a distance a.Xor(b). The
// result is in [0, 8*len(a)].
func (a ID) LeadingZeros() int {
	for i, byt := range a {
		if byt == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if byt&(0x80>>uint(j)) != 0 {
				return i*8 + j
			}
		}
	}
	return len(a) * 8
}

// Index returns the number of leading zero bits of self.Xor(other), i.e. the
// bucket this contact belongs in. It is undefined behavior (the caller must
// not call it) when self.Equal(other).
func Index(self, other ID) int {
	return self.Xor(other).LeadingZeros()
}

// Less reports whether a is strictly closer to target than b is, breaking
// ties by the lower raw ID value. It implements the total order required by
// closer_to in spec terms.
func Less(target, a, b ID) bool {
	da, db := target.Xor(a), target.Xor(b)
	cmp := bytes.Compare(da, db)
	if cmp != 0 {
		return cmp < 0
	}
	return bytes.Compare(a, b) < 0
}

// String renders the ID the way the reference CLI does: base58, for
// copy-pasteable node identifiers in logs and the REPL.
func (a ID) String() string {
	return base58.Encode(a)
}

// Decode parses a base58-encoded ID of the expected width.
func Decode(s string) (ID, error) {
	b := base58.Decode(s)
	if len(b) != Size {
		return nil, fmt.Errorf("id: decoded %d bytes, want %d", len(b), Size)
	}
	return ID(b), nil
}
