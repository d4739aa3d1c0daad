package core

import (
	"context"
	"time"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/transport"
)

// ModelEvictor removes model registry entries whose owner has gone
// dead. The inference registry implements this; kept as a narrow
// interface so core does not depend on the inference package.
type ModelEvictor interface {
	EvictOwners(dead []string)
}

// RunStabilizer starts the periodic liveness-checking task. It runs the
// callback once every delay, until ctx is cancelled — the idiomatic Go
// rendering of btml.py's __runstabilizer's
// "while not shutdown: stabilizer(); sleep(delay)" loop, using a ticker
// instead of a sleep so cancellation is observed between ticks, per
// gnunet/cmd/gnunet-service-gns-go's heartbeat pattern.
func RunStabilizer(ctx context.Context, delay time.Duration, dir *Directory, models ModelEvictor) {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stabilize(dir, models)
		}
	}
}

// stabilize performs one liveness pass: PING every known peer on a
// fresh connection (send-only, no reply awaited — a deliberate
// best-effort liveness check), collect the set of peers whose connect or
// send failed, then evict those peers and any model registry entry they
// own under a single lock acquisition.
func stabilize(dir *Directory, models ModelEvictor) {
	peers := dir.Snapshot()
	var dead []string
	for id, ep := range peers {
		if !ping(ep) {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return
	}
	logger.Printf(logger.DBG, "[stabilizer] evicting %d unreachable peer(s)\n", len(dead))
	dir.mu.Lock()
	defer dir.mu.Unlock()
	for _, id := range dead {
		dir.removeLocked(id)
	}
	models.EvictOwners(dead)
}

// ping connects and sends PING, treating any failure as death. The
// reply is never awaited — a reply-awaiting probe would change eviction
// semantics and is deliberately avoided.
func ping(ep Endpoint) bool {
	c, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		return false
	}
	defer c.Close()
	return c.Send("PING", "")
}
