package transport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// TestFrameRoundTrip checks that encode/decode is the identity on
// valid frames.
func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		typ  string
		data string
	}{
		{"NAME", ""},
		{"REPL", "Pong"},
		{"QUER", "A 127.0.0.1 7000 modelX 2"},
	}
	for _, c := range cases {
		buf, err := Encode(c.typ, []byte(c.data))
		if err != nil {
			t.Fatalf("encode %q: %v", c.typ, err)
		}
		f, err := ReadFrame(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("decode %q: %v", c.typ, err)
		}
		if f.Type != c.typ || string(f.Payload) != c.data {
			t.Fatalf("round-trip mismatch: got (%q,%q), want (%q,%q)", f.Type, f.Payload, c.typ, c.data)
		}
	}
}

// TestFrameBadType rejects a message type that isn't exactly 4 bytes.
func TestFrameBadType(t *testing.T) {
	if _, err := Encode("ABC", nil); err != ErrFrameBadType {
		t.Fatalf("expected ErrFrameBadType, got %v", err)
	}
}

// TestReadFrameShortStream checks that a stream closing mid-frame is a
// ProtocolError, not a silent EOF.
func TestReadFrameShortStream(t *testing.T) {
	buf, _ := Encode("REPL", []byte("hello world"))
	truncated := buf[:len(buf)-3]
	_, err := ReadFrame(bytes.NewReader(truncated))
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError on truncated frame, got %v (%T)", err, err)
	}
}

// TestReadFrameCleanEOF checks that a stream with no bytes at all reads
// as io.EOF, the terminator for a reply stream.
func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// TestConnSendRecv exercises one full request/reply exchange over a
// real loopback TCP connection: a NAME probe and its REPL.
func TestConnSendRecv(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		srv := NewConn(nc)
		defer srv.Close()
		typ, _, ok := srv.Recv()
		if !ok || typ != "NAME" {
			return
		}
		srv.Send("REPL", "A")
	}()

	addr := ln.Addr().(*net.TCPAddr)
	cli, err := Dial("127.0.0.1", uint16(addr.Port))
	if err != nil {
		t.Fatal(err)
	}
	defer cli.Close()

	if !cli.Send("NAME", "") {
		t.Fatal("send failed")
	}
	typ, data, ok := cli.Recv()
	if !ok {
		t.Fatal("expected a reply frame")
	}
	if typ != "REPL" || data != "A" {
		t.Fatalf("got (%s,%s), want (REPL,A)", typ, data)
	}

	// orderly close yields the EOF terminator
	cli.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, ok := cli.Recv(); ok {
		t.Fatal("expected EOF terminator after single reply")
	}
}
