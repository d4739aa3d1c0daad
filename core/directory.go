package core

import "sync"

// Directory is the concurrent-safe mapping from PeerID to Endpoint: no
// entry's id equals the owning node's own id, |directory| <= maxpeers
// when maxpeers > 0, and every mutation plus every enumeration loop
// over it is serialized through one mutex ("peerlock") — grounded on
// btpeer.py's self.peers/self.peerlock and on the invariant that LIST
// replies, QUERY fan-out and the stabilizer must all observe a
// consistent snapshot of the mesh.
//
// Unlike the generic util.Map gnunet ships, Directory holds the lock
// across an entire enumeration: QUERY fan-out and LIST iterate over a
// Snapshot copied under one lock acquisition, which a map that re-locks
// per call cannot express. The mutex itself is not exported.
type Directory struct {
	mu       sync.Mutex
	selfID   string
	maxpeers int
	peers    map[string]Endpoint
}

// NewDirectory creates an empty directory bound to selfID, accepting at
// most maxpeers entries (0 = unbounded).
func NewDirectory(selfID string, maxpeers int) *Directory {
	return &Directory{
		selfID:   selfID,
		maxpeers: maxpeers,
		peers:    make(map[string]Endpoint),
	}
}

// Add inserts a peer iff capacity allows it, it isn't self, and it
// isn't already present. Returns whether the insertion happened.
func (d *Directory) Add(id string, ep Endpoint) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLocked(id, ep)
}

// addLocked is Add's body for callers that already hold the lock.
func (d *Directory) addLocked(id string, ep Endpoint) bool {
	if d.fullLocked() || id == d.selfID {
		return false
	}
	if _, exists := d.peers[id]; exists {
		return false
	}
	d.peers[id] = ep
	return true
}

// Remove deletes a peer; a no-op if absent.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(id)
}

func (d *Directory) removeLocked(id string) {
	delete(d.peers, id)
}

// Get returns the endpoint for id and whether it was present. This is a
// read outside of any enumeration critical section — such reads are
// permitted and accept eventual consistency.
func (d *Directory) Get(id string) (Endpoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ep, ok := d.peers[id]
	return ep, ok
}

// Len returns the current peer count.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}

// Full reports whether maxpeers has been reached (always false when
// maxpeers == 0).
func (d *Directory) Full() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fullLocked()
}

func (d *Directory) fullLocked() bool {
	return d.maxpeers > 0 && len(d.peers) == d.maxpeers
}

// SelfID returns the owning node's own PeerID.
func (d *Directory) SelfID() string {
	return d.selfID
}

// Snapshot returns a copy of (id, endpoint) pairs currently known,
// taken under the peerlock — used by LIST and by callers (QUERY
// fan-out, stabilizer) that need to iterate without holding the lock
// across their own I/O: a handler must never call back into the
// server's connect/send path while holding the peerlock.
func (d *Directory) Snapshot() map[string]Endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Endpoint, len(d.peers))
	for id, ep := range d.peers {
		out[id] = ep
	}
	return out
}

// RemoveAll deletes every id in dead under a single lock acquisition.
func (d *Directory) RemoveAll(dead []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range dead {
		delete(d.peers, id)
	}
}
