// Package inference implements the model registry and the QUERY /
// RESPONSE / INFER handlers — grounded on gnunet/service/dht/module.go's
// Module shape (a service module holding its own storage plus a
// reference to the overlay directory) and on btml.py's
// __handle_query/__processquery/__handle_qresponse/__handle_infer for
// the exact field order and error strings.
package inference

import "sync"

// Self is the sentinel owner marking a locally loaded model. On the
// wire it is rewritten to the node's own PeerID.
const Self = ""

// Owner identifies who holds a model: either Self (loaded locally) or a
// remote PeerID.
type Owner struct {
	PeerID string // Self ("") for locally loaded models
	Host   string
	Port   uint16
}

// IsSelf reports whether this entry names the local node.
func (o Owner) IsSelf() bool { return o.PeerID == Self }

// Registry is the concurrent-safe mapping from model name to Owner.
// Reads may proceed concurrently with other reads; mutations are
// serialized.
type Registry struct {
	mu    sync.RWMutex
	byOwn map[string]Owner
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{byOwn: make(map[string]Owner)}
}

// Lookup returns the owner of name and whether it is registered.
func (r *Registry) Lookup(name string) (Owner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byOwn[name]
	return o, ok
}

// RegisterSelf marks name as loaded locally, replacing any prior
// binding — used by Load: loading a name that already exists replaces
// the prior binding and marks the registry entry SELF.
func (r *Registry) RegisterSelf(name, host string, port uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOwn[name] = Owner{PeerID: Self, Host: host, Port: port}
}

// RegisterRemote records a remote owner for name iff it is not already
// registered. Returns false (a duplicate) if name was already present
// — the caller logs and drops in that case.
func (r *Registry) RegisterRemote(name, peerID, host string, port uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOwn[name]; exists {
		return false
	}
	r.byOwn[name] = Owner{PeerID: peerID, Host: host, Port: port}
	return true
}

// Unregister removes name, used by Unload.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwn, name)
}

// EvictOwners drops every entry whose remote owner is in dead —
// implements core.ModelEvictor for the stabilizer.
func (r *Registry) EvictOwners(dead []string) {
	if len(dead) == 0 {
		return
	}
	set := make(map[string]struct{}, len(dead))
	for _, id := range dead {
		set[id] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, o := range r.byOwn {
		if o.IsSelf() {
			continue
		}
		if _, ok := set[o.PeerID]; ok {
			delete(r.byOwn, name)
		}
	}
}

// Snapshot returns a copy of the registry contents, used by the
// diagnostics endpoint.
func (r *Registry) Snapshot() map[string]Owner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Owner, len(r.byOwn))
	for k, v := range r.byOwn {
		out[k] = v
	}
	return out
}
