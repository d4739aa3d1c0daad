package transport

import (
	"errors"
	"io"
	"net"
	"strconv"

	"github.com/bfix/gospel/logger"
)

// Conn represents one in-flight exchange over a single TCP connection:
// one request frame written by the caller, then zero or more reply
// frames read until the peer closes the socket. There is no
// keep-alive, no multiplexing, no request ID — grounded on
// transport.MsgChannel/Connection, generalized from binary GNUnet
// messages to this protocol's ASCII frames.
type Conn struct {
	nc   net.Conn
	peer string // "<host>:<port>" of the remote side, for logging only
}

// Dial opens a fresh outbound TCP connection to host:port. Every
// outbound message this protocol sends (QUERY fan-out, RESPONSE
// delivery, bootstrap probes, stabilizer pings) opens a new Conn —
// there is no connection pooling.
func Dial(host string, port uint16) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Conn{nc: nc, peer: addr}, nil
}

// NewConn wraps an already-accepted net.Conn (the server side of an
// exchange).
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, peer: nc.RemoteAddr().String()}
}

// Send serializes and writes one frame. Any I/O failure returns a
// failure status but never panics or propagates beyond this call —
// send failures are reported to the caller as a boolean, not raised.
func (c *Conn) Send(typ string, data string) bool {
	buf, err := Encode(typ, []byte(data))
	if err != nil {
		logger.Printf(logger.WARN, "[transport] %s: encode %s failed: %v\n", c.peer, typ, err)
		return false
	}
	if _, err := c.nc.Write(buf); err != nil {
		logger.Printf(logger.DBG, "[transport] %s: write failed: %v\n", c.peer, err)
		return false
	}
	return true
}

// Recv reads one frame. ok is false on an orderly EOF (the stream's
// terminator) or on any protocol/I/O error — callers cannot distinguish
// the two, matching the original "(None, None)" sentinel.
func (c *Conn) Recv() (typ string, data string, ok bool) {
	f, err := ReadFrame(c.nc)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logger.Printf(logger.DBG, "[transport] %s: recv failed: %v\n", c.peer, err)
		}
		return "", "", false
	}
	return f.Type, string(f.Payload), true
}

// Close releases the socket. Idempotent.
func (c *Conn) Close() error {
	if c.nc == nil {
		return nil
	}
	err := c.nc.Close()
	c.nc = nil
	return err
}

// RemoteAddr returns "host:port" of the peer at the other end.
func (c *Conn) RemoteAddr() string {
	return c.peer
}
