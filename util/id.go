package util

import "sync/atomic"

var _id int64

// NextID generates the next unique identifier (unique within the running
// process), used to tag client sessions for logging and bookkeeping.
func NextID() int {
	return int(atomic.AddInt64(&_id, 1))
}
