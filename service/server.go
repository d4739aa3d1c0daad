package service

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/transport"
)

// Server binds a listening socket and, for each accepted connection,
// spawns a detached goroutine running the handler dispatcher.
type Server struct {
	name     string
	handlers HandlerTable
	ln       net.Listener
	running  int32
}

// NewServer builds a Server for the given name (used only in logging)
// and handler table.
func NewServer(name string, handlers HandlerTable) *Server {
	return &Server{name: name, handlers: handlers}
}

// Start binds a TCP listener on port with SO_REUSEADDR semantics, then
// serves until ctx is cancelled. Accept failures other
// than a shutdown signal are logged and the loop continues; a shutdown
// signal causes the loop to exit and the socket to close. In-flight
// handler goroutines are not interrupted — shutdown is cooperative and
// lazy.
//
// Start blocks until ctx is cancelled or a fatal bind error occurs;
// Node.Run calls it and blocks on it.
func (s *Server) Start(ctx context.Context, port uint16) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(int(port)))
	if err != nil {
		return err
	}
	// net.Listen on TCP already sets SO_REUSEADDR on most platforms.
	// The listen backlog is the one Go's runtime passes to listen(2)
	// (the system's maximum); it is not set to 5.
	s.ln = ln
	atomic.StoreInt32(&s.running, 1)
	logger.Printf(logger.INFO, "[%s] Service starting on port %d.\n", s.name, port)

	go func() {
		<-ctx.Done()
		atomic.StoreInt32(&s.running, 0)
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.running) == 0 {
				logger.Printf(logger.INFO, "[%s] Listener terminated.\n", s.name)
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Printf(logger.WARN, "[%s] Accept failed: %v\n", s.name, err)
			continue
		}
		go s.dispatch(nc)
	}
}

// dispatch reads one frame from a newly accepted socket, looks up its
// (upper-cased) type in the handler table, and invokes the handler.
// Unknown types are logged and ignored, not an error to the sender,
// but the connection is still closed afterwards.
func (s *Server) dispatch(nc net.Conn) {
	sess := NewSession()
	logger.Printf(logger.DBG, "[%s] Session '%d' started.\n", s.name, sess.ID)

	conn := transport.NewConn(nc)
	defer func() {
		conn.Close()
		logger.Printf(logger.DBG, "[%s] Session '%d' ended.\n", s.name, sess.ID)
	}()

	typ, payload, ok := conn.Recv()
	if !ok {
		return
	}
	typ = strings.ToUpper(typ)
	handler, found := s.handlers[typ]
	if !found {
		logger.Printf(logger.DBG, "[%s] Not handled: %s\n", s.name, typ)
		return
	}
	logger.Printf(logger.DBG, "[%s] Handling peer msg: %s\n", s.name, typ)
	handler(conn, payload)
}
