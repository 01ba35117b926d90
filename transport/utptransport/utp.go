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

// Package utptransport is the concrete datagram-ish Transport the teacher
// names (transport.NewUTPTransport / NewUTPTransportFactory), backed by a
// real micro transport protocol implementation,
// github.com/anacrolix/utp, instead of a hand-rolled UDP retry loop.
//
// uTP gives reliable ordered byte streams over UDP; each logical message is
// framed with a 4-byte big-endian length prefix and sent over its own
// dialed connection, since the messaging layer above already does its own
// request/response correlation by token and doesn't need connection
// affinity.
package utptransport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/anacrolix/utp"

	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/transport"
)

const maxFrame = 64 * 1024

// Transport is a transport.Transport backed by a uTP socket.
type Transport struct {
	sock *utp.Socket

	mu     sync.Mutex
	closed bool
	inbox  chan transport.Packet
}

var _ transport.Transport = (*Transport)(nil)

// New binds a uTP socket at bind and starts accepting inbound connections.
func New(ctx context.Context, bind contact.Address) (*Transport, error) {
	sock, err := utp.NewSocket("udp", bind.String())
	if err != nil {
		return nil, fmt.Errorf("utptransport: listen %s: %w", bind, err)
	}
	t := &Transport{
		sock:  sock,
		inbox: make(chan transport.Packet, 256),
	}
	go t.acceptLoop()
	return t, nil
}

// NewFactory returns a transport.Factory that builds uTP transports,
// mirroring the teacher's NewUTPTransportFactory.
func NewFactory() transport.Factory {
	return transport.FactoryFunc(func(ctx context.Context, bind contact.Address) (transport.Transport, error) {
		return New(ctx, bind)
	})
}

func (t *Transport) acceptLoop() {
	for {
		conn, err := t.sock.Accept()
		if err != nil {
			return // socket closed
		}
		go t.serveConn(conn)
	}
}

func (t *Transport) serveConn(conn net.Conn) {
	defer conn.Close()
	payload, err := readFrame(conn)
	if err != nil {
		return
	}
	from := addrFromNetAddr(conn.RemoteAddr())
	select {
	case t.inbox <- transport.Packet{From: from, Payload: payload}:
	default:
		// Inbox full; drop rather than block this connection's goroutine.
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, addr contact.Address, payload []byte) error {
	if len(payload) > maxFrame {
		return fmt.Errorf("utptransport: payload too large: %d bytes", len(payload))
	}
	conn, err := t.sock.DialContext(ctx, addr.String())
	if err != nil {
		return fmt.Errorf("utptransport: dial %s: %w", addr, err)
	}
	defer conn.Close()
	return writeFrame(conn, payload)
}

// Inbound implements transport.Transport.
func (t *Transport) Inbound() <-chan transport.Packet {
	return t.inbox
}

// LocalAddr implements transport.Transport.
func (t *Transport) LocalAddr() contact.Address {
	return addrFromNetAddr(t.sock.Addr())
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.sock.Close()
	close(t.inbox)
	return err
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrame {
		return nil, fmt.Errorf("utptransport: frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func addrFromNetAddr(a net.Addr) contact.Address {
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return contact.Address{}
	}
	p := 0
	fmt.Sscanf(port, "%d", &p)
	return contact.Address{Host: host, Port: p}
}
