// Package node wires the transport, core (directory/router/bootstrap/
// stabilizer) and inference layers into one runnable P2P peer — the
// NAME/LIST/JOIN/QUIT/PING handlers plus construction and lifecycle
// live here, grounded on gnunet/core.Core (the top-level object that
// owns a Peer, a Transport and a peer list) and on btml.py's MLPeer,
// which layers its peer-list, transport and inference glue the same way.
package node

import (
	"fmt"
	"net"
)

// discoverSelfHost determines the local machine's IP address by
// opening a TCP connection to a well-known external host on port 80
// and reading the socket's local address. This is a liveness hazard in
// isolated networks; the explicit serverhost override is the
// documented escape hatch.
func discoverSelfHost(probeAddr string) (string, error) {
	c, err := net.Dial("tcp", probeAddr)
	if err != nil {
		return "", fmt.Errorf("self-address discovery failed: %w", err)
	}
	defer c.Close()
	local, ok := c.LocalAddr().(*net.TCPAddr)
	if !ok {
		return "", fmt.Errorf("self-address discovery failed: unexpected local address type")
	}
	return local.IP.String(), nil
}

// defaultProbeAddr is dialed when the caller doesn't override it. Kept
// as a variable (not a constant) purely so tests can point it at a
// local listener instead of reaching the network.
var defaultProbeAddr = "www.google.com:80"
