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
	"encoding/binary"
	"time"

	"github.com/boltdb/bolt"

	"github.com/hardentoo/dht/id"
)

var valuesBucket = []byte("dht-values")

// Bolt is a durable Store backed by a single boltdb file, for a node that
// must survive restarts without losing what it was asked to hold.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (creating if necessary) a boltdb file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(valuesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// record is the on-disk value: an 8-byte big-endian unix-nano expiry
// (0 meaning "never") followed by the raw value bytes.
func encodeRecord(value []byte, expiresAt time.Time) []byte {
	out := make([]byte, 8+len(value))
	var nanos int64
	if !expiresAt.IsZero() {
		nanos = expiresAt.UnixNano()
	}
	binary.BigEndian.PutUint64(out[:8], uint64(nanos))
	copy(out[8:], value)
	return out
}

func decodeRecord(raw []byte) (value []byte, expiresAt time.Time) {
	nanos := int64(binary.BigEndian.Uint64(raw[:8]))
	if nanos != 0 {
		expiresAt = time.Unix(0, nanos)
	}
	value = append([]byte(nil), raw[8:]...)
	return value, expiresAt
}

// Put implements Store.
func (b *Bolt) Put(key id.ID, value []byte, now, expiresAt time.Time) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(valuesBucket).Put([]byte(key), encodeRecord(value, expiresAt))
	})
}

// Get implements Store.
func (b *Bolt) Get(key id.ID, now time.Time) ([]byte, bool) {
	var value []byte
	var found bool
	var expired bool
	_ = b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(valuesBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		v, expiresAt := decodeRecord(raw)
		if !expiresAt.IsZero() && now.After(expiresAt) {
			expired = true
			return nil
		}
		value, found = v, true
		return nil
	})
	if expired {
		// Evict lazily, same policy as the in-memory backend.
		_ = b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(valuesBucket).Delete([]byte(key))
		})
	}
	return value, found
}

// Close implements Store.
func (b *Bolt) Close() error {
	return b.db.Close()
}
