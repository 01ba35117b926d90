package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/transport/memtransport"
	"github.com/hardentoo/dht/wire"
)

func TestSendRequestServeRoundTrip(t *testing.T) {
	net := memtransport.NewNetwork()
	addrA := contact.Address{Host: "a", Port: 1}
	addrB := contact.Address{Host: "b", Port: 2}

	tA, err := net.New(context.Background(), addrA)
	require.NoError(t, err)
	tB, err := net.New(context.Background(), addrB)
	require.NoError(t, err)

	msgA := New(tA, nil)
	msgB := New(tB, nil)
	defer msgA.Close()
	defer msgB.Close()

	msgB.Serve(func(from contact.Address, cmd wire.CommandTag, body []byte) []byte {
		assert.Equal(t, wire.Ping, cmd)
		assert.Equal(t, addrA, from)
		return append([]byte("pong:"), body...)
	})

	reply, err := msgA.SendRequest(context.Background(), addrB, wire.Ping, []byte("hi"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pong:hi", string(reply))
}

func TestSendRequestTimesOutOnUnreachable(t *testing.T) {
	net := memtransport.NewNetwork()
	addrA := contact.Address{Host: "a", Port: 1}
	tA, err := net.New(context.Background(), addrA)
	require.NoError(t, err)
	msgA := New(tA, nil)
	defer msgA.Close()

	_, err = msgA.SendRequest(context.Background(), contact.Address{Host: "ghost", Port: 9}, wire.Ping, nil, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestNoHandlerDropsRequestSilently(t *testing.T) {
	net := memtransport.NewNetwork()
	addrA := contact.Address{Host: "a", Port: 1}
	addrB := contact.Address{Host: "b", Port: 2}
	tA, _ := net.New(context.Background(), addrA)
	tB, _ := net.New(context.Background(), addrB)
	msgA := New(tA, nil)
	msgB := New(tB, nil)
	defer msgA.Close()
	defer msgB.Close()
	// msgB never calls Serve.

	_, err := msgA.SendRequest(context.Background(), addrB, wire.Ping, nil, 50*time.Millisecond)
	assert.Error(t, err)
}
