package core

import (
	"strconv"
	"strings"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/transport"
)

// Prober supplies the node's own identity, which the bootstrap crawl
// sends in its JOIN to a seed. node.Node implements it; kept as an
// interface here so core stays free of any server/dispatch dependency (grounded on the layering in gnunet/core, which depends
// only on gnunet/transport, never on gnunet/service).
type Prober interface {
	// SelfID returns this node's own identifier.
	SelfID() string
	// SelfEndpoint returns this node's own advertised host/port.
	SelfEndpoint() Endpoint
}

// Crawl populates dir up to its capacity by a bounded depth-first
// traversal of one seed's neighborhood, grounded on btml.py's
// buildpeers: probe the seed's name, JOIN it, then (if hops remain and
// capacity allows) LIST its neighbors and recurse into each.
//
// Any I/O failure or protocol error at a given level evicts that seed
// from dir (the only defensive step) and unwinds the recursion at that
// level — it does not abort sibling branches higher up.
func Crawl(dir *Directory, self Prober, host string, port uint16, hops int) {
	if dir.Full() || hops <= 0 {
		return
	}

	seedID, ok := probeName(host, port)
	if !ok {
		return
	}

	if !joinSeed(self, host, port, seedID) {
		return
	}

	if !dir.Add(seedID, Endpoint{Host: host, Port: port}) {
		// capacity reached or already present/self: nothing more to do
		return
	}

	if hops > 1 && !dir.Full() {
		neighbors, ok := listNeighbors(host, port, seedID)
		if !ok {
			dir.Remove(seedID)
			return
		}
		for _, n := range neighbors {
			if n.id == self.SelfID() {
				continue
			}
			Crawl(dir, self, n.host, n.port, hops-1)
			if dir.Full() {
				return
			}
		}
	}
}

// probeName opens a connection, sends NAME and reads the seed's
// canonical PeerID from the single REPL reply.
func probeName(host string, port uint16) (string, bool) {
	c, err := transport.Dial(host, port)
	if err != nil {
		logger.Printf(logger.DBG, "[bootstrap] dial %s:%d failed: %v\n", host, port, err)
		return "", false
	}
	defer c.Close()

	if !c.Send("NAME", "") {
		return "", false
	}
	typ, data, ok := c.Recv()
	if !ok || typ != "REPL" || len(data) == 0 {
		return "", false
	}
	return data, true
}

// joinSeed sends JOIN selfid selfhost selfport to the seed on a fresh
// connection; success means the seed accepted us.
func joinSeed(self Prober, host string, port uint16, seedID string) bool {
	c, err := transport.Dial(host, port)
	if err != nil {
		logger.Printf(logger.DBG, "[bootstrap] dial %s:%d failed: %v\n", host, port, err)
		return false
	}
	defer c.Close()

	ep := self.SelfEndpoint()
	payload := self.SelfID() + " " + ep.Host + " " + strconv.Itoa(int(ep.Port))
	if !c.Send("JOIN", payload) {
		return false
	}
	typ, _, ok := c.Recv()
	return ok && typ == "REPL"
}

type neighbor struct {
	id   string
	host string
	port uint16
}

// listNeighbors sends LIST to the seed and parses the "<count>" header
// reply followed by one "<id> <host> <port>" reply per neighbor.
func listNeighbors(host string, port uint16, seedID string) ([]neighbor, bool) {
	c, err := transport.Dial(host, port)
	if err != nil {
		logger.Printf(logger.DBG, "[bootstrap] dial %s:%d failed: %v\n", host, port, err)
		return nil, false
	}
	defer c.Close()

	if !c.Send("LIST", "") {
		return nil, false
	}
	typ, _, ok := c.Recv()
	if !ok || typ != "REPL" {
		return nil, false
	}

	var out []neighbor
	for {
		typ, data, ok := c.Recv()
		if !ok {
			break
		}
		if typ != "REPL" {
			return nil, false
		}
		fields := strings.Fields(data)
		if len(fields) != 3 {
			continue
		}
		p, err := ParsePort(fields[2])
		if err != nil {
			continue
		}
		out = append(out, neighbor{id: fields[0], host: fields[1], port: p})
	}
	return out, true
}
