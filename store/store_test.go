package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/id"
)

func init() {
	id.SetSize(1)
}

func TestMemPutGetRoundTrip(t *testing.T) {
	m := NewMem()
	key := id.ID{0x01}
	now := time.Now()
	require.NoError(t, m.Put(key, []byte("world"), now, now.Add(time.Hour)))

	v, ok := m.Get(key, now)
	require.True(t, ok)
	assert.Equal(t, "world", string(v))
}

func TestMemExpires(t *testing.T) {
	m := NewMem()
	key := id.ID{0x02}
	now := time.Now()
	require.NoError(t, m.Put(key, []byte("x"), now, now.Add(time.Second)))

	_, ok := m.Get(key, now.Add(2*time.Second))
	assert.False(t, ok)
}

func TestMemAbsentKey(t *testing.T) {
	m := NewMem()
	_, ok := m.Get(id.ID{0x09}, time.Now())
	assert.False(t, ok)
}

func TestBoltPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBolt(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer b.Close()

	key := id.ID{0x03}
	now := time.Now()
	require.NoError(t, b.Put(key, []byte("persisted"), now, time.Time{}))

	v, ok := b.Get(key, now)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(v))
}

func TestBoltExpires(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBolt(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer b.Close()

	key := id.ID{0x04}
	now := time.Now()
	require.NoError(t, b.Put(key, []byte("y"), now, now.Add(time.Second)))

	_, ok := b.Get(key, now.Add(2*time.Second))
	assert.False(t, ok)
}
