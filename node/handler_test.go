package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	realclock "github.com/hardentoo/dht/clock"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/routing"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/wire"
)

func init() {
	id.SetSize(2)
}

func newTestDispatcher(selfID id.ID) (*Dispatcher, *routing.Table, store.Store) {
	rt := routing.New(selfID, 4)
	vs := store.NewMem()
	mock := realclock.NewMock()
	mock.Set(time.Unix(1000, 0))
	d := &Dispatcher{
		SelfID: selfID,
		Table:  rt,
		Store:  vs,
		Clock:  mock,
		Log:    logging.NewNop(),
	}
	return d, rt, vs
}

func mustID(t *testing.T, b byte) id.ID {
	got, err := id.New([]byte{b, 0})
	require.NoError(t, err)
	return got
}

func TestHandlePingRespondsAndLearnsSender(t *testing.T) {
	self := mustID(t, 0x01)
	sender := mustID(t, 0x02)
	d, rt, _ := newTestDispatcher(self)

	req := wire.PingReq{SenderID: sender, Nonce: 42}
	body, err := wire.Encode(req)
	require.NoError(t, err)

	out := d.Handle(contact.Address{Host: "h", Port: 1}, wire.Ping, body)
	require.NotNil(t, out)

	var resp wire.PingResp
	require.NoError(t, wire.Decode(out, &resp))
	assert.Equal(t, []byte(self), resp.SenderID)
	assert.Equal(t, uint64(42), resp.Nonce)

	assert.Equal(t, 1, rt.TotalContacts())
}

func TestHandleStoreThenFindValueRoundTrip(t *testing.T) {
	self := mustID(t, 0x01)
	sender := mustID(t, 0x02)
	d, _, _ := newTestDispatcher(self)

	key := mustID(t, 0x03)
	storeReq := wire.StoreReq{SenderID: sender, KeyID: key, Value: []byte("payload")}
	body, err := wire.Encode(storeReq)
	require.NoError(t, err)
	out := d.Handle(contact.Address{Host: "h", Port: 1}, wire.Store, body)
	require.NotNil(t, out)
	var storeResp wire.StoreResp
	require.NoError(t, wire.Decode(out, &storeResp))
	assert.Equal(t, []byte(key), storeResp.KeyID)

	findReq := wire.FindValueReq{SenderID: sender, TargetID: key}
	fbody, err := wire.Encode(findReq)
	require.NoError(t, err)
	fout := d.Handle(contact.Address{Host: "h", Port: 1}, wire.FindValue, fbody)
	require.NotNil(t, fout)
	var found wire.FoundValueResp
	require.NoError(t, wire.Decode(fout, &found))
	assert.Equal(t, []byte("payload"), found.Value)
}

func TestHandleFindValueMissFallsBackToContacts(t *testing.T) {
	self := mustID(t, 0x01)
	sender := mustID(t, 0x02)
	d, _, _ := newTestDispatcher(self)

	target := mustID(t, 0xF0)
	req := wire.FindValueReq{SenderID: sender, TargetID: target}
	body, err := wire.Encode(req)
	require.NoError(t, err)
	out := d.Handle(contact.Address{Host: "h", Port: 1}, wire.FindValue, body)
	require.NotNil(t, out)

	var resp wire.ContactsResp
	require.NoError(t, wire.Decode(out, &resp))
	assert.False(t, resp.ExactMatch)
}

func TestHandleFindContactExactMatchOnSelf(t *testing.T) {
	self := mustID(t, 0x01)
	sender := mustID(t, 0x02)
	d, _, _ := newTestDispatcher(self)

	req := wire.FindContactReq{SenderID: sender, TargetID: self}
	body, err := wire.Encode(req)
	require.NoError(t, err)
	out := d.Handle(contact.Address{Host: "h", Port: 1}, wire.FindContact, body)
	require.NotNil(t, out)

	var resp wire.ContactsResp
	require.NoError(t, wire.Decode(out, &resp))
	assert.True(t, resp.ExactMatch)
	require.NotEmpty(t, resp.Contacts)
	assert.Equal(t, []byte(self), resp.Contacts[0].ID)
}

func TestHandleRPCWithoutInvokerReturnsFailure(t *testing.T) {
	self := mustID(t, 0x01)
	sender := mustID(t, 0x02)
	d, _, _ := newTestDispatcher(self)

	req := wire.RPCReq{SenderID: sender, Method: "ping-extra", Args: nil}
	body, err := wire.Encode(req)
	require.NoError(t, err)
	out := d.Handle(contact.Address{Host: "h", Port: 1}, wire.RPC, body)
	require.NotNil(t, out)

	var resp wire.RPCResp
	require.NoError(t, wire.Decode(out, &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}
