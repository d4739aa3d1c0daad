package service

import "github.com/elien2016/p2pml/util"

// Session identifies one accepted connection's handler invocation, used
// only for log correlation — grounded on gnunet/service.SessionContext,
// trimmed to drop its wait-group/cancel machinery: shutdown here is
// lazy and non-cancelling for in-flight handlers, so there is nothing
// left for a session to wait on or cancel.
type Session struct {
	ID int
}

// NewSession allocates a session with a process-unique id.
func NewSession() *Session {
	return &Session{ID: util.NextID()}
}
