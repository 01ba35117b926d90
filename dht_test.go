package dht

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/dhtconfig"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/transport/memtransport"
)

func init() {
	id.SetSize(4)
}

func spawn(t *testing.T, net *memtransport.Network, host string) *DHT {
	t.Helper()
	selfID := id.FromKey([]byte(host))
	bind := contact.Address{Host: host, Port: 1}
	n, err := New(context.Background(), selfID, bind, net.Factory(), store.NewMem(), nil, nil, logging.NewNop(), nil, dhtconfig.Options{
		BucketSize:     4,
		Alpha:          3,
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return n
}

func TestJoinThenFindContactAcrossThreeNodes(t *testing.T) {
	net := memtransport.NewNetwork()
	a := spawn(t, net, "a")
	b := spawn(t, net, "b")
	c := spawn(t, net, "c")
	defer a.Close()
	defer b.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, b.Join(ctx, a.LocalAddr()))
	require.NoError(t, c.Join(ctx, a.LocalAddr()))

	_, match, err := c.FindContact(ctx, b.SelfID())
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.True(t, match.ID.Equal(b.SelfID()))
}

func TestStoreThenFindValueAcrossNodes(t *testing.T) {
	net := memtransport.NewNetwork()
	a := spawn(t, net, "store-a")
	b := spawn(t, net, "store-b")
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Join(ctx, a.LocalAddr()))

	key, err := a.Store(ctx, []byte("hello world"))
	require.NoError(t, err)

	_, value, err := b.FindValue(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(value))
}

func TestPingUnreachablePeerFails(t *testing.T) {
	net := memtransport.NewNetwork()
	a := spawn(t, net, "ping-a")
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := a.Ping(ctx, contact.Address{Host: "nowhere", Port: 9})
	require.Error(t, err)
}
