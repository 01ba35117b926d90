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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/hardentoo/dht"
	"github.com/hardentoo/dht/contact"
	"github.com/hardentoo/dht/dhtconfig"
	"github.com/hardentoo/dht/id"
	"github.com/hardentoo/dht/logging"
	"github.com/hardentoo/dht/resolver"
	"github.com/hardentoo/dht/resolver/stunresolver"
	"github.com/hardentoo/dht/rpcdispatch"
	"github.com/hardentoo/dht/store"
	"github.com/hardentoo/dht/transport/utptransport"

	"github.com/chzyer/readline"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:0", "IP Address and port to use")
	bootstrapAddress := flag.String("bootstrap", "", "IP Address and port to bootstrap against")
	help := flag.Bool("help", false, "Display Help")
	stun := flag.Bool("stun", true, "Use STUN")

	flag.Parse()

	if *help {
		displayCLIHelp()
		os.Exit(0)
	}

	bind, err := contact.NewAddress(*addr)
	if err != nil {
		log.Fatalln("Failed to parse --addr:", err.Error())
	}

	selfID := id.FromKey([]byte(fmt.Sprintf("%s-%d", bind, time.Now().UnixNano())))

	log_ := logging.NewDevelopment()
	node, err := dht.New(context.Background(), selfID, bind, utptransport.NewFactory(),
		store.NewMem(), rpcdispatch.NewRPCFactory(map[string]rpcdispatch.RemoteProcedure{
			"s": send,
		}), nil, log_, nil, dhtconfig.Options{})
	if err != nil {
		log.Fatalln("Failed to create node:", err.Error())
	}
	defer node.Close()

	resolvePublicAddress(node, *stun)

	if *bootstrapAddress != "" {
		bootstrap(node, *bootstrapAddress)
	}

	handleSignals(node)

	repl(node)
}

func resolvePublicAddress(node *dht.DHT, stun bool) {
	var r resolver.PublicAddressResolver
	if stun {
		r = stunresolver.New("")
	} else {
		r = resolver.NewExactResolver()
	}
	public, err := r.Resolve(node.LocalAddr())
	if err != nil {
		fmt.Println("Public address resolution failed:", err.Error())
		return
	}
	fmt.Println("Public address:", public)
}

func bootstrap(node *dht.DHT, bootstrapAddress string) {
	addr, err := contact.NewAddress(bootstrapAddress)
	if err != nil {
		log.Fatalln("Failed to parse --bootstrap:", err.Error())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := node.Join(ctx, addr); err != nil {
		log.Fatalln("Failed to bootstrap network:", err.Error())
	}
}

func handleSignals(node *dht.DHT) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			node.Close()
			os.Exit(0)
		}
	}()
}

func repl(node *dht.DHT) {
	rl, err := readline.New("> ")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			panic(err)
		}
	}()
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF, readline.ErrInterrupt
			break
		}
		input := strings.Split(line, " ")

		switch input[0] {
		case "help":
			displayInteractiveHelp()
		case "findnode":
			doFindNode(input, node)
		case "info":
			doInfo(node)
		default:
			doRPC(input, node)
		}
	}
}

func doFindNode(input []string, node *dht.DHT) {
	if len(input) != 2 {
		displayInteractiveHelp()
		return
	}
	fmt.Println("Searching for target", input[1])
	target, err := id.Decode(input[1])
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, match, err := node.FindContact(ctx, target)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if match != nil {
		fmt.Println("..Found:", match.String())
	} else {
		fmt.Println("..Nothing found for this id!")
	}
}

func doInfo(node *dht.DHT) {
	fmt.Println("ID: " + node.SelfID().String())
	fmt.Println("Local address: " + node.LocalAddr().String())
	fmt.Println("Known nodes: " + strconv.Itoa(node.TotalContacts()))
}

func doRPC(input []string, node *dht.DHT) {
	if len(input) < 2 || len(input[0]) == 0 || len(input[1]) == 0 {
		if len(input) > 0 && len(input[0]) > 0 {
			displayInteractiveHelp()
		}
		return
	}

	method, target := input[0], input[1]
	args := make([][]byte, 0, 4)
	for _, arg := range input[2:] {
		args = append(args, []byte(arg))
	}

	addr, err := contact.NewAddress(target)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Printf("Running remote method %s on %s with args %v \n", method, target, args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := node.RemoteProcedureCall(ctx, addr, method, args)
	if err != nil {
		fmt.Println(err.Error())
	} else {
		fmt.Println(string(result))
	}
}

func displayCLIHelp() {
	fmt.Println(`dhtnode

Usage:
	dhtnode --addr [addr]

Options:
	--help Show this screen.
	--addr=<ip> Local IP and Port [default: 0.0.0.0:0]
	--bootstrap=<ip> Bootstrap IP and Port
	--stun=<bool> Use STUN protocol for public addr discovery [default: true]`)
}

func displayInteractiveHelp() {
	fmt.Println(`
help - This message
findnode <id> - Find node's real network address
info - Display information about this node

<method> <target addr> <args...> - Remote procedure call`)
}

func send(sender contact.Contact, args [][]byte) ([]byte, error) {
	bs := append([]byte{}, []byte(time.Now().Format(time.Kitchen))...)
	bs = append(bs, ' ')
	bs = append(bs, sender.ID.String()...)

	for _, item := range args {
		bs = append(bs, ' ')
		bs = append(bs, item...)
	}

	fmt.Println(string(bs))

	return bs, nil
}
