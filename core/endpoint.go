// Package core implements the peer directory, router, bootstrap crawler
// and stabilizer that together maintain a node's view of the mesh
// overlay — grounded on gnunet/core's Peer/Core shape, generalized from
// GNUnet's Ed25519-identified peers to this protocol's plain string
// PeerIDs, which carry no authentication.
package core

import (
	"fmt"
	"strconv"
)

// Endpoint is where a peer can be reached: a host and a TCP port.
type Endpoint struct {
	Host string
	Port uint16
}

// String renders the endpoint as "host:port".
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ParsePort is a small helper shared by the handlers that parse
// whitespace-separated message fields — a malformed port number
// is folded into the caller's "incorrect arguments" ERRO reply.
func ParsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// MakePeerID synthesizes the canonical "<host>:<port>" identifier used
// when a node is not given an explicit id at construction.
func MakePeerID(host string, port uint16) string {
	return fmt.Sprintf("%s:%d", host, port)
}
