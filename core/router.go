package core

// Router maps a destination PeerID to the next-hop endpoint. It
// returns ok == false if the message cannot be routed. Pluggable, but
// the core only ships the default direct-only router.
type Router func(peerID string) (ep Endpoint, ok bool)

// DirectRouter returns a Router that only ever answers for immediate
// neighbors: next-hop == destination iff the destination is in dir.
// Reaching a non-neighbor (e.g. a QUERY's origin, which receives the
// RESPONSE) is the caller's job — it must supply the full Endpoint itself rather
// than going through the router.
func DirectRouter(dir *Directory) Router {
	return func(peerID string) (Endpoint, bool) {
		return dir.Get(peerID)
	}
}
