package node

import (
	"strconv"
	"strings"

	"github.com/elien2016/p2pml/core"
	"github.com/elien2016/p2pml/transport"
)

// handleName replies once with REPL <selfid>.
func (n *Node) handleName(conn *transport.Conn, _ string) {
	conn.Send("REPL", n.selfID)
}

// handleList replies REPL <count>, then one REPL <id> <host> <port>
// per neighbor. Snapshot takes the peerlock for the enumeration
// itself; the replies are then written outside the lock.
func (n *Node) handleList(conn *transport.Conn, _ string) {
	snapshot := n.Dir.Snapshot()

	conn.Send("REPL", strconv.Itoa(len(snapshot)))
	for id, ep := range snapshot {
		conn.Send("REPL", id+" "+ep.Host+" "+strconv.Itoa(int(ep.Port)))
	}
}

// handleJoin adds the peer if capacity allows and it isn't self,
// replying REPL on success or ERRO on failure.
func (n *Node) handleJoin(conn *transport.Conn, payload string) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		conn.Send("ERRO", "Join: incorrect arguments")
		return
	}
	peerID, host, portS := fields[0], fields[1], fields[2]
	port, err := core.ParsePort(portS)
	if err != nil {
		conn.Send("ERRO", "Join: incorrect arguments")
		return
	}

	if n.Dir.Full() {
		conn.Send("ERRO", "Join: too many peers")
		return
	}
	if n.Dir.Add(peerID, core.Endpoint{Host: host, Port: port}) {
		conn.Send("REPL", "Join: peer added: "+peerID+" ("+host+":"+portS+")")
	} else {
		conn.Send("ERRO", "Join: peer already inserted or is self "+peerID)
	}
}

// handleQuit removes the peer from the directory. It intentionally
// does not purge model registry entries owned by that peer — only the
// stabilizer does that once it notices the peer is unreachable (see
// DESIGN.md).
func (n *Node) handleQuit(conn *transport.Conn, payload string) {
	peerID := strings.TrimSpace(payload)
	if peerID == "" {
		conn.Send("ERRO", "Quit: incorrect arguments")
		return
	}
	if _, ok := n.Dir.Get(peerID); !ok {
		conn.Send("ERRO", "Quit: peer not found: "+peerID)
		return
	}
	n.Dir.Remove(peerID)
	conn.Send("REPL", "Quit: peer removed: "+peerID)
}

// handlePing replies REPL Pong.
func (n *Node) handlePing(conn *transport.Conn, _ string) {
	conn.Send("REPL", "Pong")
}
