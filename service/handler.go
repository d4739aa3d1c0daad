// Package service implements the connection-per-message server loop and
// handler dispatch — grounded on gnunet/service.Impl's
// accept/dispatch/session-bookkeeping shape, adapted from a pluggable
// multi-transport ChannelServer to a plain TCP net.Listener (direct
// TCP only) and from a long-lived, wait-on-shutdown session model to a
// lazy, non-cancelling shutdown for in-flight handlers.
package service

import "github.com/elien2016/p2pml/transport"

// HandlerFunc processes one inbound message after its type has been
// dispatched. The handler may write zero or more reply frames on conn;
// the connection is closed by the dispatcher when the handler returns.
type HandlerFunc func(conn *transport.Conn, payload string)

// HandlerTable maps a 4-character ASCII message type to its handler.
// Populated once at construction via Builder and never mutated during
// serving.
type HandlerTable map[string]HandlerFunc

// Builder assembles a HandlerTable before a Server starts serving,
// giving the registration API builder-pattern shape.
type Builder struct {
	handlers HandlerTable
}

// NewBuilder starts a new, empty handler table.
func NewBuilder() *Builder {
	return &Builder{handlers: make(HandlerTable)}
}

// Handle registers a handler for a 4-character message type. Panics on
// a type that isn't exactly 4 characters — a programming error caught
// at construction, not a runtime condition.
func (b *Builder) Handle(msgType string, fn HandlerFunc) *Builder {
	if len(msgType) != 4 {
		panic("service: message type must be exactly 4 characters: " + msgType)
	}
	b.handlers[msgType] = fn
	return b
}

// Build finalizes the HandlerTable.
func (b *Builder) Build() HandlerTable {
	return b.handlers
}
