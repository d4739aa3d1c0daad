package node

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/elien2016/p2pml/config"
	"github.com/elien2016/p2pml/core"
	"github.com/elien2016/p2pml/transport"
)

// startTestNode builds and runs a Node on an ephemeral port, returning
// the node and its endpoint; shutdown is registered with t.Cleanup.
func startTestNode(t *testing.T, maxPeers int) (*Node, core.Endpoint) {
	t.Helper()
	port := freePort(t)
	cfg := &config.Config{
		MaxPeers:   maxPeers,
		ServerPort: port,
		ServerHost: "127.0.0.1",
	}
	n, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	go func() {
		close(ready)
		n.Run(ctx)
	}()
	<-ready
	t.Cleanup(cancel)
	waitForPort(t, n.SelfEndpoint().Host, n.SelfEndpoint().Port)
	return n, n.SelfEndpoint()
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func waitForPort(t *testing.T, host string, port uint16) {
	t.Helper()
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			c.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("node never started listening on %s", addr)
}

// TestScenarioNameProbe checks that a NAME probe returns the node's
// own id.
func TestScenarioNameProbe(t *testing.T) {
	n, ep := startTestNode(t, 0)

	conn, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.Send("NAME", "")
	typ, data, ok := conn.Recv()
	if !ok || typ != "REPL" {
		t.Fatalf("expected REPL, got (%s,%v)", typ, ok)
	}
	if data != n.SelfID() {
		t.Fatalf("expected %s, got %s", n.SelfID(), data)
	}
}

// TestScenarioJoinThenList checks that a JOIN from a new peer succeeds,
// and a subsequent LIST reports it.
func TestScenarioJoinThenList(t *testing.T) {
	_, ep := startTestNode(t, 0)

	conn, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.Send("JOIN", "peerA 127.0.0.1 9000")
	typ, _, ok := conn.Recv()
	if !ok || typ != "REPL" {
		t.Fatalf("expected JOIN to succeed, got (%s,%v)", typ, ok)
	}

	conn2, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()

	conn2.Send("LIST", "")
	typ, count, ok := conn2.Recv()
	if !ok || typ != "REPL" || count != "1" {
		t.Fatalf("expected REPL 1, got (%s,%s,%v)", typ, count, ok)
	}
	typ, entry, ok := conn2.Recv()
	if !ok || typ != "REPL" {
		t.Fatalf("expected a peer entry reply, got (%s,%v)", typ, ok)
	}
	if entry != "peerA 127.0.0.1 9000" {
		t.Fatalf("expected 'peerA 127.0.0.1 9000', got %q", entry)
	}
}

// TestScenarioJoinRejectedAtCapacity checks that a JOIN past maxpeers
// is rejected with ERRO.
func TestScenarioJoinRejectedAtCapacity(t *testing.T) {
	_, ep := startTestNode(t, 1)

	conn, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	conn.Send("JOIN", "peerA 127.0.0.1 9000")
	conn.Recv()
	conn.Close()

	conn2, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()
	conn2.Send("JOIN", "peerB 127.0.0.1 9001")
	typ, _, ok := conn2.Recv()
	if !ok || typ != "ERRO" {
		t.Fatalf("expected ERRO at capacity, got (%s,%v)", typ, ok)
	}
}

// TestScenarioQuit checks that QUIT removes a joined peer.
func TestScenarioQuit(t *testing.T) {
	n, ep := startTestNode(t, 0)

	conn, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	conn.Send("JOIN", "peerA 127.0.0.1 9000")
	conn.Recv()
	conn.Close()

	conn2, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()
	conn2.Send("QUIT", "peerA")
	typ, _, ok := conn2.Recv()
	if !ok || typ != "REPL" {
		t.Fatalf("expected REPL on QUIT, got (%s,%v)", typ, ok)
	}
	if _, ok := n.Dir.Get("peerA"); ok {
		t.Fatal("expected peerA to be removed from the directory")
	}
}
