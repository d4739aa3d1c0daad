// Package transport implements the wire-level framing and the
// single-exchange peer connection used by the overlay and inference
// layers to talk to other nodes.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Error codes
var (
	ErrFrameBadType    = errors.New("message type must be exactly 4 bytes")
	ErrFrameTooLarge   = errors.New("frame payload exceeds maximum size")
	ErrFrameIncomplete = errors.New("connection closed before frame was complete")
)

// MaxPayload bounds the payload length accepted from the wire so a
// corrupt or hostile length field can't make a handler allocate
// unbounded memory. It is generous relative to any INFR/LIST payload
// this protocol actually carries.
const MaxPayload = 16 << 20 // 16 MiB

// headerSize is the 4-byte type field plus the 4-byte big-endian length.
const headerSize = 8

// ProtocolError wraps a framing violation read from the wire: fewer
// than 8+L bytes available before the stream closed, or a declared
// length above MaxPayload. A type that isn't exactly 4 bytes is
// rejected by Encode with ErrFrameBadType instead.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// Frame is one wire-level message: a 4-character ASCII message type, a
// 4-byte big-endian length, and the payload bytes. No trailer, no
// magic, no version.
type Frame struct {
	Type    string
	Payload []byte
}

// Encode serializes a Frame to its exact wire representation.
func Encode(typ string, payload []byte) ([]byte, error) {
	if len(typ) != 4 {
		return nil, ErrFrameBadType
	}
	if len(payload) > MaxPayload {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, headerSize+len(payload))
	copy(buf[:4], typ)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf, nil
}

// ReadFrame reads exactly one frame from r. It returns io.EOF (unwrapped)
// only when the stream closes cleanly before any byte of a new frame is
// read; any other short read — fewer than 8+L bytes available before
// the stream closes — is reported as a *ProtocolError.
func ReadFrame(r io.Reader) (*Frame, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &ProtocolError{Reason: "short header: " + err.Error()}
	}
	typ := string(hdr[:4])
	length := binary.BigEndian.Uint32(hdr[4:8])
	if length > MaxPayload {
		return nil, &ProtocolError{Reason: "declared length exceeds maximum payload size"}
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &ProtocolError{Reason: "short payload: " + err.Error()}
		}
	}
	return &Frame{Type: typ, Payload: payload}, nil
}
