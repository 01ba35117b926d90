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

/*
Package dht is a Kademlia-style distributed hash table core: ID/XOR metric,
a per-bucket LRU routing table, ping/store/find_contact/find_value RPCs, and
an iterative α-parallel lookup engine.

Usage:

	package main

	import (
		"context"

		"github.com/hardentoo/dht"
		"github.com/hardentoo/dht/contact"
		"github.com/hardentoo/dht/dhtconfig"
		"github.com/hardentoo/dht/id"
		"github.com/hardentoo/dht/store"
		"github.com/hardentoo/dht/transport/utptransport"
	)

	func main() {
		selfID := id.FromKey([]byte("node-a"))
		bind := contact.Address{Host: "0.0.0.0", Port: 31337}

		node, err := dht.New(context.Background(), selfID, bind,
			utptransport.NewFactory(), store.NewMem(), nil, nil, nil, nil,
			dhtconfig.Options{})
		if err != nil {
			panic(err)
		}
		defer node.Close()
	}
*/
package dht
