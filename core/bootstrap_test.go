package core

import (
	"net"
	"testing"

	"github.com/elien2016/p2pml/transport"
)

// fakeProber is a core.Prober test double.
type fakeProber struct {
	id string
	ep Endpoint
}

func (f fakeProber) SelfID() string         { return f.id }
func (f fakeProber) SelfEndpoint() Endpoint { return f.ep }

// seedServer runs a minimal NAME/JOIN/LIST responder for one seed peer,
// with a fixed neighbor list to hand back on LIST.
func seedServer(t *testing.T, selfID string, neighbors string) (Endpoint, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				conn := transport.NewConn(nc)
				defer conn.Close()
				typ, _, ok := conn.Recv()
				if !ok {
					return
				}
				switch typ {
				case "NAME":
					conn.Send("REPL", selfID)
				case "JOIN":
					conn.Send("REPL", "Join: peer added")
				case "LIST":
					lines := splitLines(neighbors)
					conn.Send("REPL", itoa(len(lines)))
					for _, l := range lines {
						conn.Send("REPL", l)
					}
				}
			}()
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return Endpoint{Host: "127.0.0.1", Port: uint16(addr.Port)}, func() { ln.Close() }
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// TestCrawlSingleHop joins exactly the seed itself when hops == 1.
func TestCrawlSingleHop(t *testing.T) {
	seedEP, closeSeed := seedServer(t, "seed", "")
	defer closeSeed()

	self := fakeProber{id: "self", ep: Endpoint{Host: "127.0.0.1", Port: 9999}}
	dir := NewDirectory(self.id, 0)

	Crawl(dir, self, seedEP.Host, seedEP.Port, 1)

	if _, ok := dir.Get("seed"); !ok {
		t.Fatal("expected seed to be added")
	}
	if dir.Len() != 1 {
		t.Fatalf("expected exactly 1 peer at hops=1, got %d", dir.Len())
	}
}

// TestCrawlTwoHops follows the seed's neighbor list when hops > 1.
func TestCrawlTwoHops(t *testing.T) {
	leafEP, closeLeaf := seedServer(t, "leaf", "")
	defer closeLeaf()

	neighborLine := "leaf " + leafEP.Host + " " + itoa(int(leafEP.Port))
	seedEP, closeSeed := seedServer(t, "seed", neighborLine)
	defer closeSeed()

	self := fakeProber{id: "self", ep: Endpoint{Host: "127.0.0.1", Port: 9999}}
	dir := NewDirectory(self.id, 0)

	Crawl(dir, self, seedEP.Host, seedEP.Port, 2)

	if _, ok := dir.Get("seed"); !ok {
		t.Fatal("expected seed to be added")
	}
	if _, ok := dir.Get("leaf"); !ok {
		t.Fatal("expected leaf (seed's neighbor) to be added")
	}
	if dir.Len() != 2 {
		t.Fatalf("expected 2 peers at hops=2, got %d", dir.Len())
	}
}

// TestCrawlStopsAtCapacity never exceeds the directory's maxpeers.
func TestCrawlStopsAtCapacity(t *testing.T) {
	leafEP, closeLeaf := seedServer(t, "leaf", "")
	defer closeLeaf()

	neighborLine := "leaf " + leafEP.Host + " " + itoa(int(leafEP.Port))
	seedEP, closeSeed := seedServer(t, "seed", neighborLine)
	defer closeSeed()

	self := fakeProber{id: "self", ep: Endpoint{Host: "127.0.0.1", Port: 9999}}
	dir := NewDirectory(self.id, 1)

	Crawl(dir, self, seedEP.Host, seedEP.Port, 2)

	if dir.Len() != 1 {
		t.Fatalf("expected capacity to cap crawl at 1 peer, got %d", dir.Len())
	}
}
