package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	realclock "github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/messaging"
	"github.com/hardentoo/dht/node"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/transport/memtransport"
)

func init() {
	id.SetSize(2)
}

type testNode struct {
	id    id.ID
	addr  contact.Address
	table *routing.Table
	store store.Store
	msg   messaging.Messaging
}

func spawnNode(t *testing.T, net *memtransport.Network, raw byte, host string) *testNode {
	t.Helper()
	nodeID, err := id.New([]byte{raw, 0})
	require.NoError(t, err)
	addr := contact.Address{Host: host, Port: 1}

	tr, err := net.New(context.Background(), addr)
	require.NoError(t, err)

	rt := routing.New(nodeID, 4)
	vs := store.NewMem()
	msg := messaging.New(tr, logging.NewNop())

	d := &node.Dispatcher{
		SelfID: nodeID,
		Table:  rt,
		Store:  vs,
		Clock:  realclock.New(),
		Log:    logging.NewNop(),
	}
	msg.Serve(d.Handle)

	return &testNode{id: nodeID, addr: addr, table: rt, store: vs, msg: msg}
}

func seedKnows(a, b *testNode, now time.Time) {
	a.table.Insert(contact.New(b.id, b.addr, now), now, nil)
}

func TestLookupNodeModeFindsTarget(t *testing.T) {
	net := memtransport.NewNetwork()
	now := time.Unix(1000, 0)

	seeker := spawnNode(t, net, 0x01, "seeker")
	relay := spawnNode(t, net, 0x02, "relay")
	target := spawnNode(t, net, 0xF0, "target")
	defer seeker.msg.Close()
	defer relay.msg.Close()
	defer target.msg.Close()

	seedKnows(seeker, relay, now)
	seedKnows(relay, target, now)

	eng := &Engine{
		Table:          seeker.table,
		Msg:            seeker.msg,
		Clock:          realclock.New(),
		Log:            logging.NewNop(),
		K:              4,
		Alpha:          3,
		RequestTimeout: 2 * time.Second,
	}

	result, err := eng.Run(context.Background(), target.id, ModeNode)
	require.NoError(t, err)

	found := false
	for _, c := range result.Contacts {
		if c.ID.Equal(target.id) {
			found = true
		}
	}
	assert.True(t, found, "expected target contact to surface in lookup result")
}

func TestLookupNoKnownContactsFails(t *testing.T) {
	net := memtransport.NewNetwork()
	seeker := spawnNode(t, net, 0x01, "lonely")
	defer seeker.msg.Close()

	eng := &Engine{
		Table:          seeker.table,
		Msg:            seeker.msg,
		Clock:          realclock.New(),
		Log:            logging.NewNop(),
		K:              4,
		Alpha:          3,
		RequestTimeout: time.Second,
	}

	_, err := eng.Run(context.Background(), seeker.id, ModeNode)
	require.Error(t, err)
}

func TestLookupValueModeFindsStoredValue(t *testing.T) {
	net := memtransport.NewNetwork()
	now := time.Unix(2000, 0)

	seeker := spawnNode(t, net, 0x01, "seeker2")
	holder := spawnNode(t, net, 0x02, "holder")
	defer seeker.msg.Close()
	defer holder.msg.Close()

	seedKnows(seeker, holder, now)

	key, err := id.New([]byte{0x09, 0x09})
	require.NoError(t, err)
	require.NoError(t, holder.store.Put(key, []byte("treasure"), now, now.Add(time.Hour)))

	eng := &Engine{
		Table:          seeker.table,
		Msg:            seeker.msg,
		Clock:          realclock.New(),
		Log:            logging.NewNop(),
		K:              4,
		Alpha:          3,
		RequestTimeout: 2 * time.Second,
	}

	result, err := eng.Run(context.Background(), key, ModeValue)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "treasure", string(result.Value))
}
