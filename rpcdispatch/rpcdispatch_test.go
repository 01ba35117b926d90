package rpcdispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/id"
)

func init() {
	id.SetSize(2)
}

func TestInvokeKnownMethod(t *testing.T) {
	called := false
	rpc := NewRPCFactory(map[string]RemoteProcedure{
		"echo": func(from contact.Contact, args [][]byte) ([]byte, error) {
			called = true
			return args[0], nil
		},
	})

	cid, err := id.New([]byte{1, 2})
	require.NoError(t, err)
	from := contact.New(cid, contact.Address{Host: "h", Port: 1}, time.Unix(0, 0))

	result, err := rpc.Invoke(from, "echo", [][]byte{[]byte("hi")})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "hi", string(result))
}

func TestInvokeUnknownMethod(t *testing.T) {
	rpc := NewRPCFactory(nil)
	cid, err := id.New([]byte{1, 2})
	require.NoError(t, err)
	from := contact.New(cid, contact.Address{Host: "h", Port: 1}, time.Unix(0, 0))

	_, err = rpc.Invoke(from, "missing", nil)
	require.Error(t, err)
}
