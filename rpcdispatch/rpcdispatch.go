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

// Package rpcdispatch is the supplement RPC passthrough named in
// SPEC_FULL.md: an application-defined method table that rides the core's
// RPC command the same way the teacher's rpc.RPC / RemoteProcedureCall let
// callers bolt their own procedures onto the DHT transport instead of
// standing up a second network.
package rpcdispatch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hardentoo/dht/contact"
)

// RemoteProcedure is one named procedure an application registers. It
// receives the caller's contact (as observed by the routing layer) and the
// raw argument list, and returns a raw result.
type RemoteProcedure func(from contact.Contact, args [][]byte) ([]byte, error)

// RPC is the interface node.Dispatcher invokes for inbound RPC commands.
// Outbound calls (DHT.RemoteProcedureCall) go over the wire and do not use it.
type RPC interface {
	Invoke(from contact.Contact, method string, args [][]byte) ([]byte, error)
}

// ErrUnknownMethod is returned by Invoke when no procedure is registered
// under the requested name.
var ErrUnknownMethod = errors.New("rpcdispatch: unknown method")

type table struct {
	procedures map[string]RemoteProcedure
}

// NewRPCFactory builds an RPC backed by a fixed method table, mirroring the
// teacher's rpc.NewRPCFactory. The map is not copied; callers should not
// mutate it after passing it in.
func NewRPCFactory(procedures map[string]RemoteProcedure) RPC {
	if procedures == nil {
		procedures = map[string]RemoteProcedure{}
	}
	return &table{procedures: procedures}
}

// Invoke implements RPC.
func (t *table) Invoke(from contact.Contact, method string, args [][]byte) ([]byte, error) {
	proc, ok := t.procedures[method]
	if !ok {
		return nil, errors.Wrap(ErrUnknownMethod, fmt.Sprintf("method %q", method))
	}
	return proc(from, args)
}
